// Package completion is the boundary to the hosted language model.
package completion

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	MaxTokens   int
	Temperature float64
}

// Completer sends one prompt and returns one reply. Implementations make a
// single attempt; retry policy belongs to the caller.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

var (
	ErrEmptyCompletion = errors.New("empty completion")
	ErrNoMessages      = errors.New("no messages")
)

// ServiceError is returned when the upstream answered but not usefully:
// a non-2xx status or a body that could not be decoded.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "completion service error"
	}
	switch {
	case e.Err != nil:
		return fmt.Sprintf("completion service error: status=%d: %v", e.StatusCode, e.Err)
	case e.Body == "":
		return fmt.Sprintf("completion service error: status=%d", e.StatusCode)
	default:
		return fmt.Sprintf("completion service error: status=%d body=%s", e.StatusCode, e.Body)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }
