package session

import (
	"context"

	"github.com/google/uuid"
)

// Event names pushed to the browser.
const (
	EventFocusInput      = "focus_input"
	EventScrollTo        = "scroll_to"
	EventToolChanged     = "tool_changed"
	EventMessageAppended = "message_appended"
	EventStateChanged    = "state_changed"
	EventBusyChanged     = "busy_changed"
)

// Effects carries UI side effects out of the session. Delivery is
// fire-and-forget.
type Effects interface {
	Emit(ctx context.Context, sessionID uuid.UUID, event string, data any)
}

// SpeechInput turns recorded audio into text.
type SpeechInput interface {
	Supported() bool
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// SpeechOutput reads replies aloud. The session guarantees at most one
// utterance is active and cancels the previous one before starting another.
type SpeechOutput interface {
	Supported() bool
	Speak(ctx context.Context, sessionID, utteranceID uuid.UUID, text string) error
	Cancel(ctx context.Context, sessionID, utteranceID uuid.UUID) error
}

type noEffects struct{}

func (noEffects) Emit(context.Context, uuid.UUID, string, any) {}
