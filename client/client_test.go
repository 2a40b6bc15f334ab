package client

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

// fakeConn stands in for the websocket: writes are recorded, reads are fed
// through a channel.
type fakeConn struct {
	mu       sync.Mutex
	writes   []domain.Event
	incoming chan domain.Event
	closed   bool
}

var _ Conn = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan domain.Event, 16)}
}

func (f *fakeConn) WriteJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var event domain.Event
	if err := json.Unmarshal(b, &event); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.writes = append(f.writes, event)
	return nil
}

func (f *fakeConn) ReadJSON(v any) error {
	event, ok := <-f.incoming
	if !ok {
		return errors.New("connection closed")
	}
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.incoming)
	}
	return nil
}

func (f *fakeConn) serve(event domain.Event) {
	f.incoming <- event
}

func (f *fakeConn) written() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.writes...)
}

func (f *fakeConn) writtenOfType(eventType string) []domain.Event {
	var out []domain.Event
	for _, event := range f.written() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// join connects the client and answers the join handshake.
func join(t *testing.T, c *Client, conn *fakeConn, docID string, content string) {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- c.Join(docID) }()

	require.Eventually(t, func() bool {
		return len(conn.writtenOfType(domain.EventJoinRoom)) == 1
	}, time.Second, 5*time.Millisecond)

	conn.serve(domain.Event{
		Type:       domain.EventLoadDocument,
		DocumentID: docID,
		Content:    json.RawMessage(content),
	})
	require.NoError(t, <-done)
}

func TestJoin_LoadsInitialContent(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()

	loaded := make(chan json.RawMessage, 1)
	c := New(conn,
		WithSaveInterval(time.Hour),
		OnLoad(func(content json.RawMessage) { loaded <- content }),
	)
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[{"insert":"hi"}]}`)

	select {
	case content := <-loaded:
		assert.JSONEq(t, `{"ops":[{"insert":"hi"}]}`, string(content))
	case <-time.After(time.Second):
		t.Fatal("expected load callback")
	}
	assert.JSONEq(t, `{"ops":[{"insert":"hi"}]}`, string(c.Content()))

	assert.ErrorIs(t, c.Join("d2"), ErrAlreadyJoined)
}

func TestJoin_ServerRejectionReturnsError(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()

	errs := make(chan string, 1)
	c := New(conn,
		WithSaveInterval(10*time.Millisecond),
		OnError(func(msg string) { errs <- msg }),
	)
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.Join("forged") }()

	require.Eventually(t, func() bool {
		return len(conn.writtenOfType(domain.EventJoinRoom)) == 1
	}, time.Second, 5*time.Millisecond)

	conn.serve(domain.Event{
		Type:  domain.EventError,
		Error: "link does not grant access to this document",
	})

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not grant access")
	case <-time.After(time.Second):
		t.Fatal("Join did not return after the server rejected it")
	}

	select {
	case msg := <-errs:
		assert.Equal(t, "link does not grant access to this document", msg)
	case <-time.After(time.Second):
		t.Fatal("expected error callback")
	}

	// The rejected client is not joined: no local sends, no saver.
	assert.ErrorIs(t, c.SendChanges(json.RawMessage(`{"insert":"x"}`)), ErrNotJoined)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, conn.writtenOfType(domain.EventSaveDocument))
}

func TestSendChanges_RequiresJoin(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	c := New(conn, WithSaveInterval(time.Hour))
	defer c.Close()

	assert.ErrorIs(t, c.SendChanges(json.RawMessage(`{"insert":"x"}`)), ErrNotJoined)
}

func TestSendChanges_EmitsOperation(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	c := New(conn, WithSaveInterval(time.Hour))
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[]}`)

	op := json.RawMessage(`{"insert":"hello"}`)
	require.NoError(t, c.SendChanges(op))

	sent := conn.writtenOfType(domain.EventSendChanges)
	require.Len(t, sent, 1)
	assert.Equal(t, "d1", sent[0].DocumentID)
	assert.JSONEq(t, string(op), string(sent[0].Operation))
}

func TestOnChange_AppliesIncomingOperationsInOrder(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()

	var mu sync.Mutex
	var applied []string
	c := New(conn,
		WithSaveInterval(time.Hour),
		OnChange(func(op json.RawMessage) {
			mu.Lock()
			applied = append(applied, string(op))
			mu.Unlock()
		}),
	)
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[]}`)

	ops := []string{`{"insert":"a"}`, `{"insert":"b"}`, `{"delete":1}`}
	for _, op := range ops {
		conn.serve(domain.Event{
			Type:      domain.EventReceiveChanges,
			Operation: json.RawMessage(op),
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) == len(ops)
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ops, applied)
}

func TestSaver_FlushesCurrentSnapshotEveryTick(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	c := New(conn, WithSaveInterval(10*time.Millisecond))
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[]}`)

	snapshot := json.RawMessage(`{"ops":[{"insert":"typed"}]}`)
	c.SetContent(snapshot)

	require.Eventually(t, func() bool {
		return len(conn.writtenOfType(domain.EventSaveDocument)) >= 2
	}, time.Second, 5*time.Millisecond)

	saves := conn.writtenOfType(domain.EventSaveDocument)
	last := saves[len(saves)-1]
	assert.Equal(t, "d1", last.DocumentID)
	assert.JSONEq(t, string(snapshot), string(last.Content))
}

func TestSaver_SavesEvenWithoutChanges(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	c := New(conn, WithSaveInterval(10*time.Millisecond))
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[]}`)

	// No SetContent calls at all: the saver still ticks unconditionally.
	require.Eventually(t, func() bool {
		return len(conn.writtenOfType(domain.EventSaveDocument)) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestClose_StopsSaver(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	c := New(conn, WithSaveInterval(10*time.Millisecond))

	join(t, c, conn, "d1", `{"ops":[]}`)

	require.Eventually(t, func() bool {
		return len(conn.writtenOfType(domain.EventSaveDocument)) >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	saved := len(conn.writtenOfType(domain.EventSaveDocument))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, saved, len(conn.writtenOfType(domain.EventSaveDocument)))
}

func TestReadOnlyClientNeverSaves(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	c := New(conn, WithSaveInterval(10*time.Millisecond), WithReadOnly())
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[]}`)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, conn.writtenOfType(domain.EventSaveDocument))
}

func TestOnError_SurfacesServerErrors(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()

	errs := make(chan string, 1)
	c := New(conn,
		WithSaveInterval(time.Hour),
		OnError(func(msg string) { errs <- msg }),
	)
	defer c.Close()

	join(t, c, conn, "d1", `{"ops":[]}`)

	conn.serve(domain.Event{Type: domain.EventError, Error: "permission denied"})

	select {
	case msg := <-errs:
		assert.Equal(t, "permission denied", msg)
	case <-time.After(time.Second):
		t.Fatal("expected error callback")
	}
}
