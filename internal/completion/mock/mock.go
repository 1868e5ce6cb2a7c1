package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/websy-backend/internal/completion"
)

// Engine echoes the last user message. Used for local runs without a key.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Complete(ctx context.Context, messages []completion.Message, opts completion.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", completion.ErrNoMessages
	}
	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, completion.RoleUser) {
			user = messages[i].Content
			break
		}
	}
	if strings.TrimSpace(user) == "" {
		return "mock: ok", nil
	}
	return fmt.Sprintf("mock: %s", user), nil
}
