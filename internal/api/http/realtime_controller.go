package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/service"
)

type RealtimeController struct {
	realtime service.RealtimeInteractor
	docs     service.DocumentInteractor
	upgrader websocket.Upgrader
}

func NewRealtimeController(realtime service.RealtimeInteractor, docs service.DocumentInteractor) *RealtimeController {
	return &RealtimeController{
		realtime: realtime,
		docs:     docs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Connect upgrades the request to a websocket session on the realtime
// channel. Shared-link clients pass ?link=<linkId>; the permission is
// resolved server-side so a view-only client cannot claim edit access.
// Sessions without a link are owner/direct sessions and edit implicitly.
func (c *RealtimeController) Connect(ctx *gin.Context) {
	userID := currentUserID(ctx)

	permission := domain.PermissionEdit
	pinnedDocID := ""
	if linkID := ctx.Query("link"); linkID != "" {
		doc, resolved, err := c.docs.ResolveAccess(ctx.Request.Context(), linkID, userID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, service.ErrLinkNotFound) {
				status = http.StatusNotFound
			}
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		permission = resolved
		pinnedDocID = doc.ID
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "failed to upgrade connection")
		return
	}

	session := domain.NewSession(userID, permission)
	session.Socket = conn

	go forwardSessionEvents(session.Events, conn)

	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			c.teardown(session)
			return
		}

		// A link session is pinned to the resolved document; joining
		// anything else with a forged id is refused.
		if pinnedDocID != "" && event.Type == domain.EventJoinRoom && event.DocumentID != pinnedDocID {
			session.Enqueue(domain.Event{Type: domain.EventError, Error: "link does not grant access to this document"})
			continue
		}

		if err := c.realtime.HandleEvent(context.Background(), session, &event); err != nil {
			session.Enqueue(domain.Event{Type: domain.EventError, Error: err.Error()})
		}

		if event.Type == domain.EventLeave {
			session.Close()
			return
		}
	}
}

// teardown removes the session from its room when it joined one and always
// releases the writer goroutine and the transport. A session that dropped
// before ever joining has nothing to leave but still holds both.
func (c *RealtimeController) teardown(session *domain.Session) {
	if err := c.realtime.Leave(context.Background(), session); err != nil {
		session.Close()
	}
}

func forwardSessionEvents(events <-chan domain.Event, conn *websocket.Conn) {
	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
