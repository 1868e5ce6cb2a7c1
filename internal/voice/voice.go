// Package voice provides the speech ports used by sessions: server-side
// transcription for recorded clips and browser-side speech synthesis
// driven through session events.
package voice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/config"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/session"
)

// Events the browser acts on to read replies aloud.
const (
	EventSpeak        = "speak"
	EventCancelSpeech = "cancel_speech"
)

// Unsupported is the input port when no transcription provider is
// configured.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Transcribe(context.Context, []byte, string) (string, error) {
	return "", session.ErrVoiceUnsupported
}

// BrowserOutput asks the visitor's browser to speak. Playback happens in
// the client, which reports completion through the voice/ended endpoint.
type BrowserOutput struct {
	Effects      session.Effects
	LanguageCode string
}

func (b *BrowserOutput) Supported() bool { return b != nil && b.Effects != nil }

func (b *BrowserOutput) Speak(ctx context.Context, sessionID, utteranceID uuid.UUID, text string) error {
	b.Effects.Emit(ctx, sessionID, EventSpeak, map[string]any{
		"utterance_id": utteranceID,
		"text":         text,
		"lang":         b.LanguageCode,
	})
	return nil
}

func (b *BrowserOutput) Cancel(ctx context.Context, sessionID, utteranceID uuid.UUID) error {
	b.Effects.Emit(ctx, sessionID, EventCancelSpeech, map[string]any{"utterance_id": utteranceID})
	return nil
}

// Ports bundles what New built. Close releases the provider client.
type Ports struct {
	Input  session.SpeechInput
	Output session.SpeechOutput
	Close  func() error
}

func New(ctx context.Context, log *logger.Logger, cfg config.VoiceConfig, effects session.Effects) (Ports, error) {
	p := Ports{
		Input:  Unsupported{},
		Output: &BrowserOutput{Effects: effects, LanguageCode: cfg.LanguageCode},
		Close:  func() error { return nil },
	}
	switch cfg.Provider {
	case "", "none":
		return p, nil
	case "gcp":
		in, err := NewGCPInput(ctx, log, cfg.LanguageCode)
		if err != nil {
			return Ports{}, err
		}
		p.Input = in
		p.Close = in.Close
		return p, nil
	default:
		return Ports{}, fmt.Errorf("unknown voice provider %q", cfg.Provider)
	}
}
