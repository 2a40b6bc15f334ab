// Package client implements the editor side of the collaboration protocol:
// join a document room, emit local changes, apply changes from peers, and
// periodically flush the full local snapshot to the server.
package client

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

const defaultSaveInterval = 2 * time.Second

var (
	ErrNotJoined     = errors.New("client has not joined a document")
	ErrAlreadyJoined = errors.New("client already joined a document")
	ErrClosed        = errors.New("client is closed")
)

// Conn is the subset of the websocket connection the client needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type Option func(*Client)

// WithSaveInterval overrides the period of the snapshot saver.
func WithSaveInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.saveInterval = d
		}
	}
}

// WithReadOnly disables the snapshot saver; view-only sessions never save.
func WithReadOnly() Option {
	return func(c *Client) {
		c.readOnly = true
	}
}

// OnLoad is called once with the initial content after a join is answered.
func OnLoad(fn func(content json.RawMessage)) Option {
	return func(c *Client) {
		c.onLoad = fn
	}
}

// OnChange is called for every operation received from a peer, in the
// order the peer sent them. The operation is applied to local state by the
// caller's editor, exactly like a local keystroke would be.
func OnChange(fn func(op json.RawMessage)) Option {
	return func(c *Client) {
		c.onChange = fn
	}
}

// OnError is called for protocol-level errors reported by the server.
func OnError(fn func(msg string)) Option {
	return func(c *Client) {
		c.onError = fn
	}
}

type Client struct {
	conn         Conn
	saveInterval time.Duration
	readOnly     bool

	onLoad   func(json.RawMessage)
	onChange func(json.RawMessage)
	onError  func(string)

	mu      sync.RWMutex
	docID   string
	content json.RawMessage
	loaded  chan struct{}
	joinErr error

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Dial connects to the realtime endpoint and starts the reader.
// rawURL is a ws:// or wss:// URL; shared-link clients append ?link=<linkId>.
func Dial(rawURL string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		return nil, err
	}
	return New(conn, opts...), nil
}

// New wraps an established connection.
func New(conn Conn, opts ...Option) *Client {
	c := &Client{
		conn:         conn,
		saveInterval: defaultSaveInterval,
		loaded:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.readLoop()

	return c
}

// Join enters the room for docID and starts the snapshot saver once the
// server has answered with the initial content. A client joins exactly one
// document for its lifetime. If the server answers the join with an error
// event instead of content, Join returns that error and the client stays
// un-joined.
func (c *Client) Join(docID string) error {
	c.mu.Lock()
	if c.docID != "" {
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	c.docID = docID
	c.mu.Unlock()

	err := c.conn.WriteJSON(domain.Event{
		Type:       domain.EventJoinRoom,
		DocumentID: docID,
	})
	if err != nil {
		return err
	}

	select {
	case <-c.loaded:
	case <-c.done:
		return ErrClosed
	}

	c.mu.Lock()
	joinErr := c.joinErr
	if joinErr != nil {
		c.docID = ""
	}
	c.mu.Unlock()
	if joinErr != nil {
		return joinErr
	}

	if !c.readOnly {
		c.wg.Add(1)
		go c.saveLoop()
	}
	return nil
}

// SendChanges submits one local edit operation for fan-out to peers.
func (c *Client) SendChanges(op json.RawMessage) error {
	c.mu.RLock()
	docID := c.docID
	c.mu.RUnlock()
	if docID == "" {
		return ErrNotJoined
	}

	return c.conn.WriteJSON(domain.Event{
		Type:       domain.EventSendChanges,
		DocumentID: docID,
		Operation:  op,
	})
}

// SetContent replaces the local full snapshot. The editor calls this after
// every local or remote change; the saver flushes whatever is current.
func (c *Client) SetContent(content json.RawMessage) {
	c.mu.Lock()
	c.content = append(json.RawMessage(nil), content...)
	c.mu.Unlock()
}

// Content returns the current local snapshot.
func (c *Client) Content() json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(json.RawMessage(nil), c.content...)
}

// Close stops the saver and the reader and closes the connection. No final
// snapshot is flushed; edits since the last tick are lost.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	c.wg.Wait()
	return err
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		var event domain.Event
		if err := c.conn.ReadJSON(&event); err != nil {
			c.closeOnce.Do(func() {
				close(c.done)
				c.conn.Close()
			})
			return
		}

		switch event.Type {
		case domain.EventLoadDocument:
			c.mu.Lock()
			c.content = append(json.RawMessage(nil), event.Content...)
			c.mu.Unlock()
			select {
			case <-c.loaded:
			default:
				close(c.loaded)
			}
			if c.onLoad != nil {
				c.onLoad(event.Content)
			}
		case domain.EventReceiveChanges:
			if c.onChange != nil {
				c.onChange(event.Operation)
			}
		case domain.EventError:
			// An error before the initial content is a rejected join;
			// unblock the waiter with the failure instead of the document.
			select {
			case <-c.loaded:
			default:
				c.mu.Lock()
				c.joinErr = errors.New(event.Error)
				c.mu.Unlock()
				close(c.loaded)
			}
			if c.onError != nil {
				c.onError(event.Error)
			}
		}
	}
}

// saveLoop flushes the full local snapshot at a fixed interval, whether or
// not anything changed since the last tick. The store applies these writes
// last-write-wins.
func (c *Client) saveLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			docID := c.docID
			content := append(json.RawMessage(nil), c.content...)
			c.mu.RUnlock()

			event := domain.Event{
				Type:       domain.EventSaveDocument,
				DocumentID: docID,
				Content:    content,
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
