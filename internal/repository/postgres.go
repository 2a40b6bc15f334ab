package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresDocumentRepository struct {
	db *gorm.DB
}

func NewPostgresDocumentRepository(db *gorm.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document is nil")
	}

	docModel := toModelDocument(doc)

	if err := r.db.WithContext(ctx).Create(docModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDocumentExists
		}
		return err
	}
	return nil
}

func (r *PostgresDocumentRepository) CreateIfMissing(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	blank := &model.Document{
		ID:          id,
		Content:     []byte(domain.EmptyContent),
		CreatedAt:   now,
		LastUpdated: now,
	}

	// Concurrent joins for the same id race on the insert; the conflict
	// clause makes the loser a no-op and the follow-up read returns the
	// single surviving row.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(blank).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc model.Document
	err := r.db.WithContext(ctx).
		Preload("SharedLinks").Preload("SharedWith").
		First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	return toDomainDocument(&doc), nil
}

func (r *PostgresDocumentRepository) GetByLinkID(ctx context.Context, linkID string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var link model.SharedLink
	err := r.db.WithContext(ctx).First(&link, "link_id = ?", linkID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	return r.GetByID(ctx, link.DocumentID)
}

func (r *PostgresDocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []model.Document
	err := r.db.WithContext(ctx).
		Preload("SharedLinks").Preload("SharedWith").
		Find(&docs, "owner = ?", ownerID).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Document, 0, len(docs))
	for i := range docs {
		result = append(result, toDomainDocument(&docs[i]))
	}
	return result, nil
}

func (r *PostgresDocumentRepository) ListSharedWith(ctx context.Context, userID string) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []model.Document
	err := r.db.WithContext(ctx).
		Joins("JOIN shared_withs ON shared_withs.document_id = documents.id").
		Where("shared_withs.user_id = ?", userID).
		Preload("SharedLinks").Preload("SharedWith").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Document, 0, len(docs))
	for i := range docs {
		result = append(result, toDomainDocument(&docs[i]))
	}
	return result, nil
}

func (r *PostgresDocumentRepository) UpdateContent(ctx context.Context, id string, content json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
		"content":      []byte(content),
		"last_updated": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PostgresDocumentRepository) UpdateTitle(ctx context.Context, id string, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
		"title":        title,
		"last_updated": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PostgresDocumentRepository) AddSharedLink(ctx context.Context, id string, link domain.SharedLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	linkModel := model.SharedLink{
		LinkID:     link.LinkID,
		DocumentID: id,
		Permission: string(link.Permission),
		CreatedAt:  link.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&linkModel).Error
}

func (r *PostgresDocumentRepository) AddSharedWith(ctx context.Context, id string, entry domain.SharedWithEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entryModel := model.SharedWith{
		DocumentID: id,
		UserID:     entry.UserID,
		Permission: string(entry.Permission),
		CreatedAt:  entry.CreatedAt.UTC(),
	}

	// First access wins: later links never rewrite an existing grant.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&entryModel).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.SharedLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&model.SharedWith{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Document{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDocumentNotFound
		}
		return nil
	})
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserNameExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users, "id IN ?", ids).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.User, 0, len(users))
	for i := range users {
		result = append(result, toDomainUser(&users[i]))
	}
	return result, nil
}

func toModelDocument(doc *domain.Document) *model.Document {
	links := make([]model.SharedLink, 0, len(doc.SharedLinks))
	for _, link := range doc.SharedLinks {
		links = append(links, model.SharedLink{
			LinkID:     link.LinkID,
			DocumentID: doc.ID,
			Permission: string(link.Permission),
			CreatedAt:  link.CreatedAt.UTC(),
		})
	}

	shared := make([]model.SharedWith, 0, len(doc.SharedWith))
	for _, entry := range doc.SharedWith {
		shared = append(shared, model.SharedWith{
			DocumentID: doc.ID,
			UserID:     entry.UserID,
			Permission: string(entry.Permission),
			CreatedAt:  entry.CreatedAt.UTC(),
		})
	}

	content := doc.Content
	if len(content) == 0 {
		content = domain.EmptyContent
	}

	return &model.Document{
		ID:          doc.ID,
		Title:       doc.Title,
		Owner:       doc.Owner,
		Content:     []byte(content),
		CreatedAt:   doc.CreatedAt.UTC(),
		LastUpdated: doc.LastUpdated.UTC(),
		SharedLinks: links,
		SharedWith:  shared,
	}
}

func toDomainDocument(doc *model.Document) *domain.Document {
	links := make([]domain.SharedLink, 0, len(doc.SharedLinks))
	for _, link := range doc.SharedLinks {
		links = append(links, domain.SharedLink{
			LinkID:     link.LinkID,
			Permission: domain.Permission(link.Permission),
			CreatedAt:  link.CreatedAt.UTC(),
		})
	}

	shared := make([]domain.SharedWithEntry, 0, len(doc.SharedWith))
	for _, entry := range doc.SharedWith {
		shared = append(shared, domain.SharedWithEntry{
			UserID:     entry.UserID,
			Permission: domain.Permission(entry.Permission),
			CreatedAt:  entry.CreatedAt.UTC(),
		})
	}

	content := doc.Content
	if len(content) == 0 {
		content = []byte(domain.EmptyContent)
	}

	return &domain.Document{
		ID:          doc.ID,
		Title:       doc.Title,
		Owner:       doc.Owner,
		Content:     append([]byte(nil), content...),
		SharedLinks: links,
		SharedWith:  shared,
		CreatedAt:   doc.CreatedAt.UTC(),
		LastUpdated: doc.LastUpdated.UTC(),
	}
}

func toModelUser(user *domain.User) *model.User {
	return &model.User{
		ID:           user.ID,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		ID:           user.ID,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}
