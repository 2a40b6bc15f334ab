package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

type InMemoryDocumentRepository struct {
	mu    sync.RWMutex
	docs  map[string]*domain.Document
	links map[string]string
}

func NewInMemoryDocumentRepository() *InMemoryDocumentRepository {
	return &InMemoryDocumentRepository{
		docs:  make(map[string]*domain.Document),
		links: make(map[string]string),
	}
}

func (r *InMemoryDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; ok {
		return ErrDocumentExists
	}

	r.docs[doc.ID] = doc.Clone()
	for _, link := range doc.SharedLinks {
		r.links[link.LinkID] = doc.ID
	}
	return nil
}

func (r *InMemoryDocumentRepository) CreateIfMissing(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if doc, ok := r.docs[id]; ok {
		return doc.Clone(), nil
	}

	doc := domain.NewDocument(id, "", "")
	r.docs[id] = doc
	return doc.Clone(), nil
}

func (r *InMemoryDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (r *InMemoryDocumentRepository) GetByLinkID(ctx context.Context, linkID string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	docID, ok := r.links[linkID]
	if !ok {
		return nil, ErrDocumentNotFound
	}

	doc, ok := r.docs[docID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (r *InMemoryDocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Document, 0)
	for _, doc := range r.docs {
		if doc.Owner == ownerID {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}

func (r *InMemoryDocumentRepository) ListSharedWith(ctx context.Context, userID string) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Document, 0)
	for _, doc := range r.docs {
		if doc.GrantFor(userID) != nil {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}

func (r *InMemoryDocumentRepository) UpdateContent(ctx context.Context, id string, content json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}

	doc.Content = append(json.RawMessage(nil), content...)
	doc.LastUpdated = time.Now().UTC()
	return nil
}

func (r *InMemoryDocumentRepository) UpdateTitle(ctx context.Context, id string, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}

	doc.Title = title
	doc.LastUpdated = time.Now().UTC()
	return nil
}

func (r *InMemoryDocumentRepository) AddSharedLink(ctx context.Context, id string, link domain.SharedLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}

	doc.SharedLinks = append(doc.SharedLinks, link)
	r.links[link.LinkID] = id
	return nil
}

func (r *InMemoryDocumentRepository) AddSharedWith(ctx context.Context, id string, entry domain.SharedWithEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}

	if doc.GrantFor(entry.UserID) != nil {
		return nil
	}
	doc.SharedWith = append(doc.SharedWith, entry)
	return nil
}

func (r *InMemoryDocumentRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}

	for _, link := range doc.SharedLinks {
		delete(r.links, link.LinkID)
	}
	delete(r.docs, id)
	return nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	names map[string]string
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]*domain.User),
		names: make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[user.Name]; ok {
		return ErrUserNameExists
	}

	u := *user
	r.users[user.ID] = &u
	r.names[user.Name] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *InMemoryUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[name]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *r.users[id]
	return &u, nil
}

func (r *InMemoryUserRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			u := *user
			result = append(result, &u)
		}
	}
	return result, nil
}
