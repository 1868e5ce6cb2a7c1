package realtime

import (
	"strings"

	"github.com/google/uuid"
)

type SSEMessage struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// SessionChannel is the channel a chat session's browser tab listens on.
func SessionChannel(id uuid.UUID) string {
	return "session:" + id.String()
}

// SessionIDFromChannel reverses SessionChannel.
func SessionIDFromChannel(channel string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(channel, "session:")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
