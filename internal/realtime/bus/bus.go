package bus

import (
	"context"

	"github.com/yungbote/websy-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	// StartForwarder subscribes and calls onMsg for every message until ctx
	// is done. It returns once the subscription is confirmed.
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
