package domain

import (
	"sync"
	"time"
)

// Room is the set of sessions currently attached to one document. It is a
// derived, in-memory structure owned by the realtime service: created on
// first join, dropped when the last session leaves, never persisted.
type Room struct {
	Mutex      sync.RWMutex
	DocumentID string
	Sessions   map[string]*Session
	CreatedAt  time.Time
}

func NewRoom(documentID string) *Room {
	return &Room{
		DocumentID: documentID,
		Sessions:   make(map[string]*Session),
		CreatedAt:  time.Now().UTC(),
	}
}

func (r *Room) Size() int {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	return len(r.Sessions)
}
