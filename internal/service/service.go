package service

import (
	"context"
	"encoding/json"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

type RealtimeInteractor interface {
	Join(ctx context.Context, session *domain.Session, docID string) error
	Leave(ctx context.Context, session *domain.Session) error
	HandleEvent(ctx context.Context, session *domain.Session, event *domain.Event) error
	RoomSize(docID string) int
}

type DocumentInteractor interface {
	CreateDocument(ctx context.Context, title string, ownerID string) (*domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, ownerID string) ([]*domain.Document, error)
	ListSharedWithMe(ctx context.Context, userID string) ([]*domain.Document, error)
	UpdateContent(ctx context.Context, id string, content json.RawMessage) error
	UpdateTitle(ctx context.Context, id string, title string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ShareDocument(ctx context.Context, id string, ownerID string, permission domain.Permission) (*domain.SharedLink, error)
	ResolveAccess(ctx context.Context, linkID string, userID string) (*domain.Document, domain.Permission, error)
	UpdateSharedContent(ctx context.Context, linkID string, content json.RawMessage) error
	SharedUsers(ctx context.Context, docID string, requesterID string) ([]domain.SharedWithEntry, error)
}

type UserInteractor interface {
	Register(ctx context.Context, name string, password string) (*domain.User, string, error)
	Login(ctx context.Context, name string, password string) (*domain.User, string, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUserNames(ctx context.Context, ids []string) ([]*domain.User, error)
	ParseToken(token string) (userID string, name string, err error)
}
