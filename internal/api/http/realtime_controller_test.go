package http

import (
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/repository"
	"github.com/immxrtalbeast/collabdocs/internal/service"
)

func newRealtimeServer(t *testing.T) (*httptest.Server, *service.RealtimeService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	docs := repository.NewInMemoryDocumentRepository()
	realtime := service.NewRealtimeService(docs, nil)
	documents := service.NewDocumentService(docs, nil)

	router := gin.New()
	router.GET("/ws", NewRealtimeController(realtime, documents).Connect)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, realtime
}

func wsAddr(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// A connection dropped before ever joining must still release its writer
// goroutine and buffered channel.
func TestConnect_DisconnectBeforeJoinReleasesWriter(t *testing.T) {
	srv, _ := newRealtimeServer(t)
	addr := wsAddr(srv)

	before := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 20*time.Millisecond,
		"writer goroutines survived pre-join disconnects")
}

func TestConnect_DisconnectAfterJoinLeavesRoom(t *testing.T) {
	srv, realtime := newRealtimeServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsAddr(srv), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(domain.Event{
		Type:       domain.EventJoinRoom,
		DocumentID: "d1",
	}))

	var loaded domain.Event
	require.NoError(t, conn.ReadJSON(&loaded))
	require.Equal(t, domain.EventLoadDocument, loaded.Type)
	require.Equal(t, 1, realtime.RoomSize("d1"))

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return realtime.RoomSize("d1") == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConnect_LeaveEventClosesSession(t *testing.T) {
	srv, realtime := newRealtimeServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsAddr(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(domain.Event{
		Type:       domain.EventJoinRoom,
		DocumentID: "d2",
	}))
	var loaded domain.Event
	require.NoError(t, conn.ReadJSON(&loaded))
	require.Equal(t, domain.EventLoadDocument, loaded.Type)

	require.NoError(t, conn.WriteJSON(domain.Event{
		Type:       domain.EventLeave,
		DocumentID: "d2",
	}))

	// The server tears the connection down after a leave.
	var next domain.Event
	assert.Error(t, conn.ReadJSON(&next))
	assert.Equal(t, 0, realtime.RoomSize("d2"))
}

// A leave from a session that never joined still tears the connection down.
func TestConnect_LeaveWithoutJoinClosesConnection(t *testing.T) {
	srv, _ := newRealtimeServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsAddr(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(domain.Event{Type: domain.EventLeave}))

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			return
		}
		// The rejected leave may surface as an error event first.
		require.Equal(t, domain.EventError, event.Type)
	}
}
