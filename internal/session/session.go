// Package session holds the per-visitor chat state machine: window and
// tool panels, preferences, transcript and the submit pipeline.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/assistant/prompt"
	"github.com/yungbote/websy-backend/internal/assistant/sections"
	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
	"github.com/yungbote/websy-backend/internal/completion"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

const DefaultFallbackMessage = "Lo siento, ahora mismo no puedo responder. Inténtalo de nuevo en unos momentos o escríbenos desde la sección de contacto."

// Deps are shared by every session a Manager creates.
type Deps struct {
	Log          *logger.Logger
	Completer    completion.Completer
	Assembler    *prompt.Assembler
	Options      completion.Options
	Effects      Effects
	SpeechInput  SpeechInput
	SpeechOutput SpeechOutput

	FallbackMessage string
	// SuggestionLimit caps "did you mean" anchors after a navigation miss.
	SuggestionLimit int
	Now             func() time.Time
}

func (d *Deps) withDefaults() {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Assembler == nil {
		d.Assembler = prompt.NewAssembler(prompt.Persona("", ""), prompt.DefaultWindow)
	}
	if d.Effects == nil {
		d.Effects = noEffects{}
	}
	if strings.TrimSpace(d.FallbackMessage) == "" {
		d.FallbackMessage = DefaultFallbackMessage
	}
	if d.SuggestionLimit <= 0 {
		d.SuggestionLimit = 3
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

type Session struct {
	id   uuid.UUID
	deps *Deps
	log  *logger.Logger
	dir  *sections.MemoryDirectory

	mu         sync.Mutex
	open       bool
	tool       Tool
	prefs      Preferences
	route      string
	input      string
	busy       bool
	transcript []Message
	utterance  uuid.UUID
	createdAt  time.Time
	lastActive time.Time
}

func newSession(deps *Deps, route string) *Session {
	id := uuid.New()
	now := deps.Now()
	return &Session{
		id:         id,
		deps:       deps,
		log:        deps.Log.With("service", "Session", "session_id", id.String()),
		dir:        sections.NewMemoryDirectory(nil, nil),
		prefs:      DefaultPreferences(),
		route:      normalizeRoute(route),
		createdAt:  now,
		lastActive: now,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Directory is the page's anchor registry, fed by the browser.
func (s *Session) Directory() *sections.MemoryDirectory { return s.dir }

func (s *Session) emit(ctx context.Context, event string, data any) {
	s.deps.Effects.Emit(ctx, s.id, event, data)
}

func (s *Session) touchLocked() { s.lastActive = s.deps.Now() }

// Open shows the chat window and focuses the input.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	changed := !s.open
	s.open = true
	s.touchLocked()
	s.mu.Unlock()

	if changed {
		s.emit(ctx, EventStateChanged, s.Snapshot())
	}
	s.emit(ctx, EventFocusInput, nil)
}

// Close hides the window and stops any speech in progress.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	changed := s.open
	s.open = false
	s.touchLocked()
	s.mu.Unlock()

	s.cancelSpeech(ctx)
	if changed {
		s.emit(ctx, EventStateChanged, s.Snapshot())
	}
}

// ToggleTool opens t, or closes it if it is already the active panel.
// Opening one panel replaces the other.
func (s *Session) ToggleTool(ctx context.Context, t Tool) (Tool, error) {
	if !t.Valid() {
		return s.activeTool(), fmt.Errorf("%w: %q", ErrInvalidTool, t)
	}
	s.mu.Lock()
	if s.tool == t {
		s.tool = ToolNone
	} else {
		s.tool = t
	}
	active := s.tool
	s.touchLocked()
	s.mu.Unlock()

	s.emit(ctx, EventToolChanged, map[string]any{"tool": active})
	return active, nil
}

// openTool makes t active without toggling it off.
func (s *Session) openTool(ctx context.Context, t Tool) {
	s.mu.Lock()
	changed := s.tool != t
	s.tool = t
	s.mu.Unlock()
	if changed {
		s.emit(ctx, EventToolChanged, map[string]any{"tool": t})
	}
}

func (s *Session) activeTool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// ChangeRoute records client-side navigation. Tool panels close; the
// window stays as it was. The anchor directory is cleared until the new
// page registers its sections.
func (s *Session) ChangeRoute(ctx context.Context, route string) {
	s.mu.Lock()
	s.route = normalizeRoute(route)
	closed := s.tool != ToolNone
	s.tool = ToolNone
	s.touchLocked()
	s.mu.Unlock()

	s.dir.Replace(nil, nil)
	if closed {
		s.emit(ctx, EventToolChanged, map[string]any{"tool": ToolNone})
	}
}

func (s *Session) SetPreferences(ctx context.Context, patch PreferencesPatch) (Preferences, error) {
	if err := patch.validate(); err != nil {
		return Preferences{}, err
	}

	s.mu.Lock()
	if patch.Theme != nil {
		s.prefs.Theme = *patch.Theme
	}
	if patch.Position != nil {
		s.prefs.Position = *patch.Position
	}
	if patch.ExpansionMode != nil {
		s.prefs.ExpansionMode = *patch.ExpansionMode
	}
	voiceOff := false
	if patch.VoiceEnabled != nil {
		voiceOff = s.prefs.VoiceEnabled && !*patch.VoiceEnabled
		s.prefs.VoiceEnabled = *patch.VoiceEnabled
	}
	prefs := s.prefs
	s.touchLocked()
	s.mu.Unlock()

	if voiceOff {
		s.cancelSpeech(ctx)
	}
	s.emit(ctx, EventStateChanged, s.Snapshot())
	return prefs, nil
}

func (p PreferencesPatch) validate() error {
	if p.Theme != nil && *p.Theme != ThemeLight && *p.Theme != ThemeDark {
		return fmt.Errorf("%w: theme %q", ErrInvalidPreference, *p.Theme)
	}
	if p.Position != nil && *p.Position != PositionLeft && *p.Position != PositionRight {
		return fmt.Errorf("%w: position %q", ErrInvalidPreference, *p.Position)
	}
	if p.ExpansionMode != nil {
		switch *p.ExpansionMode {
		case ExpansionMinimal, ExpansionExpanded, ExpansionFullscreen:
		default:
			return fmt.Errorf("%w: expansion mode %q", ErrInvalidPreference, *p.ExpansionMode)
		}
	}
	return nil
}

// SetInput stores the draft the visitor is typing.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.touchLocked()
	s.mu.Unlock()
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:           s.id,
		Open:         s.open,
		ActiveTool:   s.tool,
		Preferences:  s.prefs,
		Route:        s.route,
		Input:        s.input,
		Busy:         s.busy,
		Speaking:     s.utterance != uuid.Nil,
		Voice:        s.capabilities(),
		Transcript:   append([]Message(nil), s.transcript...),
		CreatedAt:    s.createdAt,
		LastActiveAt: s.lastActive,
	}
	if cur, ok := s.dir.Current(); ok {
		st.CurrentAnchor = cur.ID
	}
	return st
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.busy
}

func (s *Session) teardown(ctx context.Context) {
	s.mu.Lock()
	s.open = false
	s.tool = ToolNone
	s.mu.Unlock()
	s.cancelSpeech(ctx)
}

func (s *Session) newMessage(role Role, content string, mood *sentiment.Result) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: s.deps.Now(),
		Sentiment: mood,
	}
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}
