package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// capabilities reads only immutable deps; callers may hold s.mu.
func (s *Session) capabilities() VoiceCapabilities {
	return VoiceCapabilities{
		Input:  s.deps.SpeechInput != nil && s.deps.SpeechInput.Supported(),
		Output: s.deps.SpeechOutput != nil && s.deps.SpeechOutput.Supported(),
	}
}

// SubmitVoice transcribes audio and submits the text.
func (s *Session) SubmitVoice(ctx context.Context, audio []byte, mimeType string) (SubmitResult, error) {
	if !s.capabilities().Input {
		return SubmitResult{}, ErrVoiceUnsupported
	}
	s.mu.Lock()
	enabled := s.prefs.VoiceEnabled
	busy := s.busy
	s.mu.Unlock()
	if !enabled {
		return SubmitResult{}, ErrVoiceDisabled
	}
	if busy {
		return SubmitResult{Reason: RejectBusy}, nil
	}

	text, err := s.deps.SpeechInput.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("transcribe: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return SubmitResult{Reason: RejectBlank}, nil
	}
	return s.Submit(ctx, text), nil
}

// Speak reads text aloud when voice output is on, cancelling whatever was
// being said. It returns the new utterance id, or uuid.Nil when nothing was
// started.
func (s *Session) Speak(ctx context.Context, text string) uuid.UUID {
	if !s.capabilities().Output || strings.TrimSpace(text) == "" {
		return uuid.Nil
	}
	s.mu.Lock()
	if !s.prefs.VoiceEnabled {
		s.mu.Unlock()
		return uuid.Nil
	}
	prev := s.utterance
	id := uuid.New()
	s.utterance = id
	s.mu.Unlock()

	out := s.deps.SpeechOutput
	if prev != uuid.Nil {
		if err := out.Cancel(ctx, s.id, prev); err != nil {
			s.log.Warn("cancel speech failed", "error", err)
		}
	}
	if err := out.Speak(ctx, s.id, id, text); err != nil {
		s.log.Warn("speak failed", "error", err)
		s.clearUtterance(id)
		return uuid.Nil
	}
	return id
}

// SpeechEnded is reported by the client when an utterance finishes on its
// own. Stale ids are ignored.
func (s *Session) SpeechEnded(utteranceID uuid.UUID) {
	s.clearUtterance(utteranceID)
}

func (s *Session) clearUtterance(id uuid.UUID) {
	s.mu.Lock()
	if s.utterance == id {
		s.utterance = uuid.Nil
	}
	s.mu.Unlock()
}

func (s *Session) cancelSpeech(ctx context.Context) {
	s.mu.Lock()
	prev := s.utterance
	s.utterance = uuid.Nil
	s.mu.Unlock()

	if prev == uuid.Nil || s.deps.SpeechOutput == nil {
		return
	}
	if err := s.deps.SpeechOutput.Cancel(ctx, s.id, prev); err != nil {
		s.log.Warn("cancel speech failed", "error", err)
	}
}
