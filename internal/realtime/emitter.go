package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/platform/logger"
)

// Publisher is the outbound half of a cross-instance bus.
type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

// HubEmitter delivers session events to clients connected to this process.
type HubEmitter struct {
	Hub *SSEHub
}

func (e *HubEmitter) Emit(ctx context.Context, sessionID uuid.UUID, event string, data any) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(SSEMessage{Channel: SessionChannel(sessionID), Event: event, Data: data})
}

// BusEmitter publishes to the bus so whichever instance holds the browser's
// stream delivers it. Publish failures fall back to the local hub.
type BusEmitter struct {
	Log      *logger.Logger
	Bus      Publisher
	Fallback *SSEHub
}

func (e *BusEmitter) Emit(ctx context.Context, sessionID uuid.UUID, event string, data any) {
	if e == nil {
		return
	}
	msg := SSEMessage{Channel: SessionChannel(sessionID), Event: event, Data: data}
	if e.Bus != nil {
		err := e.Bus.Publish(ctx, msg)
		if err == nil {
			return
		}
		if e.Log != nil {
			e.Log.Warn("realtime bus publish failed; delivering locally", "error", err, "event", event)
		}
	}
	if e.Fallback != nil {
		e.Fallback.Broadcast(msg)
	}
}
