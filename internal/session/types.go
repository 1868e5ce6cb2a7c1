package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/assistant/intent"
	"github.com/yungbote/websy-backend/internal/assistant/sections"
	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrVoiceUnsupported  = errors.New("voice capability not supported")
	ErrVoiceDisabled     = errors.New("voice is disabled in preferences")
	ErrEstimateEmpty     = errors.New("estimate has no services selected")
	ErrInvalidTool       = errors.New("invalid tool")
	ErrInvalidPreference = errors.New("invalid preference")
)

type Tool string

const (
	ToolNone       Tool = ""
	ToolCalculator Tool = "calculator"
	ToolSettings   Tool = "settings"
)

func (t Tool) Valid() bool { return t == ToolCalculator || t == ToolSettings }

type ExpansionMode string

const (
	ExpansionMinimal    ExpansionMode = "minimal"
	ExpansionExpanded   ExpansionMode = "expanded"
	ExpansionFullscreen ExpansionMode = "fullscreen"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

type Preferences struct {
	Theme         Theme         `json:"theme"`
	Position      Position      `json:"position"`
	ExpansionMode ExpansionMode `json:"expansion_mode"`
	VoiceEnabled  bool          `json:"voice_enabled"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeLight,
		Position:      PositionRight,
		ExpansionMode: ExpansionMinimal,
	}
}

// PreferencesPatch changes only the non-nil fields.
type PreferencesPatch struct {
	Theme         *Theme         `json:"theme,omitempty"`
	Position      *Position      `json:"position,omitempty"`
	ExpansionMode *ExpansionMode `json:"expansion_mode,omitempty"`
	VoiceEnabled  *bool          `json:"voice_enabled,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        uuid.UUID         `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Sentiment *sentiment.Result `json:"sentiment,omitempty"`
}

type RejectReason string

const (
	RejectBlank RejectReason = "blank"
	RejectBusy  RejectReason = "busy"
)

type NavigationOutcome struct {
	Target      string        `json:"target"`
	Found       bool          `json:"found"`
	AnchorID    string        `json:"anchor_id,omitempty"`
	Step        sections.Step `json:"step,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

type SubmitResult struct {
	Accepted      bool               `json:"accepted"`
	Reason        RejectReason       `json:"reason,omitempty"`
	Intent        intent.Intent      `json:"intent"`
	Navigation    *NavigationOutcome `json:"navigation,omitempty"`
	PricingOpened bool               `json:"pricing_opened,omitempty"`
	Reply         *Message           `json:"reply,omitempty"`
	// Degraded is set when the completion failed and the fallback reply was
	// used instead.
	Degraded bool `json:"degraded,omitempty"`
}

type VoiceCapabilities struct {
	Input  bool `json:"input"`
	Output bool `json:"output"`
}

// State is a point-in-time copy of a session.
type State struct {
	ID            uuid.UUID         `json:"id"`
	Open          bool              `json:"open"`
	ActiveTool    Tool              `json:"active_tool"`
	Preferences   Preferences       `json:"preferences"`
	Route         string            `json:"route"`
	Input         string            `json:"input"`
	Busy          bool              `json:"busy"`
	Speaking      bool              `json:"speaking"`
	CurrentAnchor string            `json:"current_anchor,omitempty"`
	Voice         VoiceCapabilities `json:"voice"`
	Transcript    []Message         `json:"transcript"`
	CreatedAt     time.Time         `json:"created_at"`
	LastActiveAt  time.Time         `json:"last_active_at"`
}
