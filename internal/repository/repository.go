package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserNameExists   = errors.New("user with name already exists")
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	// CreateIfMissing inserts an empty document under id unless one already
	// exists, then returns whatever is stored. Safe under concurrent calls
	// for the same id: exactly one row ever exists.
	CreateIfMissing(ctx context.Context, id string) (*domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByLinkID(ctx context.Context, linkID string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error)
	ListSharedWith(ctx context.Context, userID string) ([]*domain.Document, error)
	// UpdateContent overwrites the stored content blob unconditionally
	// (last write wins) and bumps lastUpdated.
	UpdateContent(ctx context.Context, id string, content json.RawMessage) error
	UpdateTitle(ctx context.Context, id string, title string) error
	AddSharedLink(ctx context.Context, id string, link domain.SharedLink) error
	// AddSharedWith records a grant once per (document, user); repeated
	// calls for the same pair are no-ops regardless of permission.
	AddSharedWith(ctx context.Context, id string, entry domain.SharedWithEntry) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
}
