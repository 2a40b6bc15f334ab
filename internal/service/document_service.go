package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/repository"
	"github.com/immxrtalbeast/collabdocs/lib/logger/sl"
)

var (
	ErrLinkNotFound = errors.New("shared link not found")
	ErrOwnerOnly    = errors.New("only the owner may perform this action")
)

type DocumentService struct {
	docs repository.DocumentRepository
	log  *slog.Logger
}

func NewDocumentService(docs repository.DocumentRepository, log *slog.Logger) *DocumentService {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentService{docs: docs, log: log}
}

func (s *DocumentService) CreateDocument(ctx context.Context, title string, ownerID string) (*domain.Document, error) {
	const op = "service.document.create"
	if ownerID == "" {
		return nil, errors.New("owner is required")
	}

	doc := domain.NewDocument("", title, ownerID)
	if err := s.docs.Create(ctx, doc); err != nil {
		s.log.Error("failed to create document", slog.String("op", op), sl.Err(err))
		return nil, err
	}

	s.log.Info("document created",
		slog.String("op", op),
		slog.String("document_id", doc.ID),
		slog.String("owner", ownerID),
	)
	return doc, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *DocumentService) ListDocuments(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}

func (s *DocumentService) ListSharedWithMe(ctx context.Context, userID string) ([]*domain.Document, error) {
	return s.docs.ListSharedWith(ctx, userID)
}

func (s *DocumentService) UpdateContent(ctx context.Context, id string, content json.RawMessage) error {
	return s.docs.UpdateContent(ctx, id, content)
}

func (s *DocumentService) UpdateTitle(ctx context.Context, id string, title string) (*domain.Document, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	if err := s.docs.UpdateTitle(ctx, id, title); err != nil {
		return nil, err
	}
	return s.docs.GetByID(ctx, id)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, id)
}

// ShareDocument issues a new capability link for the document. Many links
// may coexist, each independently valid; none ever expires.
func (s *DocumentService) ShareDocument(ctx context.Context, id string, ownerID string, permission domain.Permission) (*domain.SharedLink, error) {
	const op = "service.document.share"
	if !permission.Valid() {
		return nil, errors.New("invalid permission type")
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && doc.Owner != ownerID {
		return nil, ErrOwnerOnly
	}

	link := domain.NewSharedLink(permission)
	if err := s.docs.AddSharedLink(ctx, id, link); err != nil {
		s.log.Error("failed to store shared link", slog.String("op", op), sl.Err(err))
		return nil, err
	}

	s.log.Info("shared link issued",
		slog.String("op", op),
		slog.String("document_id", id),
		slog.String("permission", string(permission)),
	)
	return &link, nil
}

// ResolveAccess turns a shared-link token into (document, permission). For an
// authenticated user the grant is recorded once; whichever link the user used
// first fixes the recorded permission forever, even if other links with a
// different permission are resolved later. The returned permission is always
// the one carried by the presented link.
func (s *DocumentService) ResolveAccess(ctx context.Context, linkID string, userID string) (*domain.Document, domain.Permission, error) {
	const op = "service.document.resolveAccess"
	log := s.log.With(slog.String("op", op), slog.String("link_id", linkID))

	doc, err := s.docs.GetByLinkID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, "", ErrLinkNotFound
		}
		return nil, "", err
	}

	link := doc.LinkByID(linkID)
	if link == nil {
		return nil, "", ErrLinkNotFound
	}

	if userID != "" {
		entry := domain.SharedWithEntry{
			UserID:     userID,
			Permission: link.Permission,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.docs.AddSharedWith(ctx, doc.ID, entry); err != nil {
			log.Error("failed to record shared-with grant", sl.Err(err))
			return nil, "", err
		}
	}

	log.Info("access resolved",
		slog.String("document_id", doc.ID),
		slog.String("permission", string(link.Permission)),
	)
	return doc, link.Permission, nil
}

// UpdateSharedContent writes content through a shared link, subject to the
// link's own permission.
func (s *DocumentService) UpdateSharedContent(ctx context.Context, linkID string, content json.RawMessage) error {
	doc, err := s.docs.GetByLinkID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	link := doc.LinkByID(linkID)
	if link == nil {
		return ErrLinkNotFound
	}
	if !link.Permission.CanEdit() {
		return ErrPermissionDenied
	}

	return s.docs.UpdateContent(ctx, doc.ID, content)
}

func (s *DocumentService) SharedUsers(ctx context.Context, docID string, requesterID string) ([]domain.SharedWithEntry, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Owner != requesterID {
		return nil, ErrOwnerOnly
	}
	return doc.SharedWith, nil
}
