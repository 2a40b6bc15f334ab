package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session represents one live connection to the realtime channel. It exists
// only in memory: a reconnect is a brand-new session that must rejoin.
type Session struct {
	ID         string
	UserID     string
	Permission Permission
	JoinedAt   time.Time

	Mutex      sync.RWMutex
	documentID string
	closed     bool
	Socket     *websocket.Conn
	Events     chan Event
}

func NewSession(userID string, permission Permission) *Session {
	return &Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		Permission: permission,
		JoinedAt:   time.Now().UTC(),
		Events:     make(chan Event, 16),
	}
}

// SetDocument binds the session to a document. A session joins at most one
// document for its whole lifetime; rebinding to a different one fails.
func (s *Session) SetDocument(docID string) bool {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.documentID != "" && s.documentID != docID {
		return false
	}
	s.documentID = docID
	return true
}

func (s *Session) DocumentID() string {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	return s.documentID
}

func (s *Session) CanEdit() bool {
	return s.Permission.CanEdit()
}

// Enqueue delivers an event to the session's writer without blocking the
// caller. Events for a slow consumer are dropped; a torn-down session
// swallows them. Close takes the write lock and sends hold the read lock,
// so an enqueue never hits a closed channel.
func (s *Session) Enqueue(event Event) {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.Events <- event:
	default:
	}
}

// Close tears the session down: the event channel is closed so the writer
// drains out, and the transport is closed if one is attached.
func (s *Session) Close() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Events)
	if s.Socket != nil {
		s.Socket.Close()
		s.Socket = nil
	}
}
