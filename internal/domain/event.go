package domain

import "encoding/json"

const (
	EventJoinRoom       = "join-room"
	EventLoadDocument   = "load-document"
	EventSendChanges    = "send-changes"
	EventReceiveChanges = "receive-changes"
	EventSaveDocument   = "save-document"
	EventLeave          = "leave"
	EventError          = "error"
)

// Event is the envelope for everything crossing the realtime channel.
// Operation and Content are opaque rich-text blobs: the server relays and
// stores them without looking inside.
type Event struct {
	Type       string          `json:"type"`
	DocumentID string          `json:"document_id,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	Operation  json.RawMessage `json:"operation,omitempty"`
	SenderID   string          `json:"sender_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}
