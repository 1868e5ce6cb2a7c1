package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/observability"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/realtime"
	"github.com/yungbote/websy-backend/internal/session"
)

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.SSEHub
	sessions *session.Manager
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, sessions *session.Manager) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		sessions: sessions,
	}
}

// Events streams the session's UI effects. The first message is the
// current state so a reconnecting widget can resync.
func (h *RealtimeHandler) Events(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	client := h.hub.NewSSEClient()
	channel := realtime.SessionChannel(s.ID())
	client.Outbound <- realtime.SSEMessage{Channel: channel, Event: session.EventStateChanged, Data: s.Snapshot()}
	h.hub.AddChannel(client, channel)

	observability.Current().StreamClientInc()
	defer observability.Current().StreamClientDec()
	h.log.Debug("event stream open", "session_id", s.ID().String(), "client_ref", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("event stream closed", "session_id", s.ID().String(), "client_ref", client.ID.String())
}
