package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/repository"
	"github.com/immxrtalbeast/collabdocs/lib/logger/sl"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyJoined    = errors.New("session already joined a document")
	ErrNotJoined        = errors.New("session has not joined this document")
	ErrSessionNotFound  = errors.New("session not found")
)

// RealtimeService owns the room registry and the change relay. All room and
// session state is process-local; the only I/O is the document store.
type RealtimeService struct {
	docs  repository.DocumentRepository
	log   *slog.Logger
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewRealtimeService(docs repository.DocumentRepository, log *slog.Logger) *RealtimeService {
	if log == nil {
		log = slog.Default()
	}
	return &RealtimeService{
		docs:  docs,
		log:   log,
		rooms: make(map[string]*domain.Room),
	}
}

// Join adds the session to the document's room, creates the document record
// if this id was never seen, and replies to the joining session alone with
// the current content. Peers are not notified: there is no presence protocol.
func (s *RealtimeService) Join(ctx context.Context, session *domain.Session, docID string) error {
	const op = "service.realtime.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("document_id", docID),
		slog.String("session_id", session.ID),
	)

	if docID == "" {
		return errors.New("document id is required")
	}
	if !session.SetDocument(docID) {
		return ErrAlreadyJoined
	}

	room := s.room(docID)
	room.Mutex.Lock()
	room.Sessions[session.ID] = session
	room.Mutex.Unlock()

	content := domain.EmptyContent
	doc, err := s.docs.CreateIfMissing(ctx, docID)
	if err != nil {
		// Best effort: the session still gets an empty document and the
		// room stays usable, at the cost of possible divergence from the
		// store until the next successful save.
		log.Error("failed to load document, serving empty content", sl.Err(err))
	} else if len(doc.Content) > 0 {
		content = doc.Content
	}

	session.Enqueue(domain.Event{
		Type:       domain.EventLoadDocument,
		DocumentID: docID,
		Content:    content,
	})

	log.Info("session joined", "room_size", room.Size())
	return nil
}

// Leave removes the session from its room and tears the session down. No
// in-flight broadcast is cancelled and no final snapshot is flushed.
func (s *RealtimeService) Leave(ctx context.Context, session *domain.Session) error {
	docID := session.DocumentID()
	if docID == "" {
		return ErrNotJoined
	}

	s.mu.RLock()
	room := s.rooms[docID]
	s.mu.RUnlock()
	if room == nil {
		return ErrSessionNotFound
	}

	room.Mutex.Lock()
	_, ok := room.Sessions[session.ID]
	if !ok {
		room.Mutex.Unlock()
		return ErrSessionNotFound
	}
	delete(room.Sessions, session.ID)
	roomEmpty := len(room.Sessions) == 0
	room.Mutex.Unlock()

	session.Close()

	if roomEmpty {
		s.removeRoom(docID)
	}

	s.log.Info("session left",
		"document_id", docID,
		"session_id", session.ID,
	)
	return nil
}

// HandleEvent dispatches one inbound event from a session. Edit events are
// authorized here against the permission resolved at access time, never
// against anything the client claims.
func (s *RealtimeService) HandleEvent(ctx context.Context, session *domain.Session, event *domain.Event) error {
	const op = "service.realtime.event"
	if event == nil {
		return errors.New("event is required")
	}
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", session.ID),
		slog.String("type", event.Type),
	)

	switch event.Type {
	case domain.EventJoinRoom:
		return s.Join(ctx, session, event.DocumentID)

	case domain.EventSendChanges:
		room, err := s.sessionRoom(session, event.DocumentID)
		if err != nil {
			return err
		}
		if !session.CanEdit() {
			log.Warn("edit rejected for view-only session", "document_id", event.DocumentID)
			return ErrPermissionDenied
		}

		s.broadcast(room, domain.Event{
			Type:       domain.EventReceiveChanges,
			DocumentID: room.DocumentID,
			Operation:  event.Operation,
			SenderID:   session.ID,
		}, session.ID)
		return nil

	case domain.EventSaveDocument:
		if _, err := s.sessionRoom(session, event.DocumentID); err != nil {
			return err
		}
		if !session.CanEdit() {
			log.Warn("save rejected for view-only session", "document_id", event.DocumentID)
			return ErrPermissionDenied
		}

		// Unconditional full-snapshot overwrite, last write wins. Store
		// failures are logged and swallowed: persistence is best effort
		// and must never take the room down.
		if err := s.docs.UpdateContent(ctx, event.DocumentID, event.Content); err != nil {
			log.Error("failed to save document", sl.Err(err), "document_id", event.DocumentID)
		}
		return nil

	case domain.EventLeave:
		return s.Leave(ctx, session)

	default:
		return errors.New("unsupported event type: " + event.Type)
	}
}

func (s *RealtimeService) RoomSize(docID string) int {
	s.mu.RLock()
	room := s.rooms[docID]
	s.mu.RUnlock()
	if room == nil {
		return 0
	}
	return room.Size()
}

// broadcast fans an event out to every session in the room except the one
// whose id matches exclude. Delivery is fire-and-forget per session.
func (s *RealtimeService) broadcast(room *domain.Room, event domain.Event, exclude string) {
	room.Mutex.RLock()
	sessions := make([]*domain.Session, 0, len(room.Sessions))
	for id, session := range room.Sessions {
		if id == exclude {
			continue
		}
		sessions = append(sessions, session)
	}
	room.Mutex.RUnlock()

	for _, session := range sessions {
		session.Enqueue(event)
	}
}

func (s *RealtimeService) sessionRoom(session *domain.Session, docID string) (*domain.Room, error) {
	if docID == "" || session.DocumentID() != docID {
		return nil, ErrNotJoined
	}

	s.mu.RLock()
	room := s.rooms[docID]
	s.mu.RUnlock()
	if room == nil {
		return nil, ErrNotJoined
	}

	room.Mutex.RLock()
	_, ok := room.Sessions[session.ID]
	room.Mutex.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return room, nil
}

func (s *RealtimeService) room(docID string) *domain.Room {
	s.mu.RLock()
	room := s.rooms[docID]
	s.mu.RUnlock()
	if room != nil {
		return room
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.rooms[docID]; existing != nil {
		return existing
	}
	room = domain.NewRoom(docID)
	s.rooms[docID] = room
	return room
}

func (s *RealtimeService) removeRoom(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms[docID]
	if room == nil {
		return
	}
	if room.Size() == 0 {
		delete(s.rooms, docID)
	}
}
