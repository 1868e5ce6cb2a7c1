package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type sessionDataKey struct{}

// SessionData is attached once a request's session token has been verified.
type SessionData struct {
	SessionID uuid.UUID
}

func WithSessionData(ctx context.Context, sd *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, sd)
}

func GetSessionData(ctx context.Context) *SessionData {
	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		return sd
	}
	return nil
}
