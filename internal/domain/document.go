package domain

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

func (p Permission) CanEdit() bool {
	return p == PermissionEdit
}

const linkIDBytes = 8

// EmptyContent is the initial content blob of a freshly created document:
// a rich-text delta with no operations.
var EmptyContent = json.RawMessage(`{"ops":[]}`)

// Document is the persisted entity: an opaque rich-text content blob plus
// the sharing metadata attached to it. The content is never interpreted
// server-side; it is stored and relayed as-is.
type Document struct {
	ID          string
	Title       string
	Owner       string
	Content     json.RawMessage
	SharedLinks []SharedLink
	SharedWith  []SharedWithEntry
	CreatedAt   time.Time
	LastUpdated time.Time
}

// SharedLink is a capability token: anyone holding LinkID gets Permission
// on the owning document. Links never expire and are never revoked.
type SharedLink struct {
	LinkID     string
	Permission Permission
	CreatedAt  time.Time
}

// SharedWithEntry records that a user accessed the document through a shared
// link, with the permission of whichever link they used first.
type SharedWithEntry struct {
	UserID     string
	Permission Permission
	CreatedAt  time.Time
}

func NewDocument(id string, title string, owner string) *Document {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	return &Document{
		ID:          id,
		Title:       title,
		Owner:       owner,
		Content:     append(json.RawMessage(nil), EmptyContent...),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func NewSharedLink(permission Permission) SharedLink {
	return SharedLink{
		LinkID:     generateLinkID(),
		Permission: permission,
		CreatedAt:  time.Now().UTC(),
	}
}

// LinkByID returns the shared link with the given id, or nil.
func (d *Document) LinkByID(linkID string) *SharedLink {
	for i := range d.SharedLinks {
		if d.SharedLinks[i].LinkID == linkID {
			return &d.SharedLinks[i]
		}
	}
	return nil
}

// GrantFor returns the stored shared-with entry for the user, or nil.
func (d *Document) GrantFor(userID string) *SharedWithEntry {
	for i := range d.SharedWith {
		if d.SharedWith[i].UserID == userID {
			return &d.SharedWith[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Content = append(json.RawMessage(nil), d.Content...)
	out.SharedLinks = append([]SharedLink(nil), d.SharedLinks...)
	out.SharedWith = append([]SharedWithEntry(nil), d.SharedWith...)
	return &out
}

func generateLinkID() string {
	buf := make([]byte, linkIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}
