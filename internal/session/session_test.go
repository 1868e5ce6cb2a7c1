package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/websy-backend/internal/assistant/intent"
	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/assistant/prompt"
	"github.com/yungbote/websy-backend/internal/assistant/sections"
	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
	"github.com/yungbote/websy-backend/internal/completion"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// journal records effects and completion calls in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
	events  []recordedEvent
}

type recordedEvent struct {
	Event string
	Data  any
}

func (j *journal) Emit(_ context.Context, _ uuid.UUID, event string, data any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, "effect:"+event)
	j.events = append(j.events, recordedEvent{Event: event, Data: data})
}

func (j *journal) note(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) order() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) count(event string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

type completerFunc func(ctx context.Context, msgs []completion.Message, opts completion.Options) (string, error)

func (f completerFunc) Complete(ctx context.Context, msgs []completion.Message, opts completion.Options) (string, error) {
	return f(ctx, msgs, opts)
}

type fakeSpeechOut struct {
	mu       sync.Mutex
	spoken   []uuid.UUID
	canceled []uuid.UUID
}

func (f *fakeSpeechOut) Supported() bool { return true }

func (f *fakeSpeechOut) Speak(_ context.Context, _, utteranceID uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, utteranceID)
	return nil
}

func (f *fakeSpeechOut) Cancel(_ context.Context, _, utteranceID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, utteranceID)
	return nil
}

type fakeSpeechIn struct {
	text string
	err  error
}

func (f fakeSpeechIn) Supported() bool { return true }

func (f fakeSpeechIn) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

type fixture struct {
	mgr     *Manager
	s       *Session
	journal *journal
	calls   [][]completion.Message
	mu      sync.Mutex
}

func newFixture(t *testing.T, reply func(msgs []completion.Message) (string, error), mutate ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{journal: &journal{}}
	deps := Deps{
		Assembler: prompt.NewAssembler("persona", 10),
		Effects:   f.journal,
		Options:   completion.Options{MaxTokens: 200},
		Completer: completerFunc(func(ctx context.Context, msgs []completion.Message, opts completion.Options) (string, error) {
			f.mu.Lock()
			f.calls = append(f.calls, msgs)
			f.mu.Unlock()
			f.journal.note("complete")
			return reply(msgs)
		}),
	}
	for _, m := range mutate {
		m(&deps)
	}
	f.mgr = NewManager(deps, time.Hour)
	s, err := f.mgr.Create(context.Background(), "/", nil)
	require.NoError(t, err)
	f.s = s
	return f
}

func echo(msgs []completion.Message) (string, error) {
	return "ok: " + msgs[len(msgs)-1].Content, nil
}

func (f *fixture) lastCall() []completion.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	f := newFixture(t, echo)
	res := f.s.Submit(context.Background(), "   \n")

	assert.False(t, res.Accepted)
	assert.Equal(t, RejectBlank, res.Reason)
	assert.Empty(t, f.s.Snapshot().Transcript)
	assert.Nil(t, f.lastCall())
}

func TestSubmitPlain(t *testing.T) {
	f := newFixture(t, echo)
	f.s.SetInput("Hola, gracias")
	res := f.s.Submit(context.Background(), "Hola, gracias")

	require.True(t, res.Accepted)
	assert.Equal(t, intent.Plain, res.Intent.Kind)
	require.NotNil(t, res.Reply)
	assert.Equal(t, "ok: Hola, gracias", res.Reply.Content)

	st := f.s.Snapshot()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, RoleUser, st.Transcript[0].Role)
	require.NotNil(t, st.Transcript[0].Sentiment)
	assert.Equal(t, sentiment.Positive, st.Transcript[0].Sentiment.Type)
	assert.Equal(t, RoleAssistant, st.Transcript[1].Role)
	assert.False(t, st.Busy)
	assert.Empty(t, st.Input, "input cleared on submit")
	assert.Equal(t, 2, f.journal.count(EventMessageAppended))
}

func TestSubmitRejectedWhileBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(msgs []completion.Message) (string, error) {
		close(entered)
		<-release
		return "tarde", nil
	})

	done := make(chan SubmitResult)
	go func() { done <- f.s.Submit(context.Background(), "primera") }()
	<-entered

	second := f.s.Submit(context.Background(), "segunda")
	assert.False(t, second.Accepted)
	assert.Equal(t, RejectBusy, second.Reason)
	assert.Len(t, f.s.Snapshot().Transcript, 1, "rejected message must not be appended")
	assert.True(t, f.s.Snapshot().Busy)

	// UI stays responsive during the call.
	_, err := f.s.ToggleTool(context.Background(), ToolSettings)
	require.NoError(t, err)

	close(release)
	first := <-done
	assert.True(t, first.Accepted)
	assert.False(t, f.s.Snapshot().Busy)
	assert.Len(t, f.s.Snapshot().Transcript, 2)
}

func TestSubmitNavigationScrollsBeforeCompletion(t *testing.T) {
	f := newFixture(t, echo)
	f.s.Directory().Replace([]sections.Anchor{
		{ID: "hero", Visible: true},
		{ID: "contact-section"},
	}, nil)

	res := f.s.Submit(context.Background(), "Llévame a la sección de contacto")

	require.Equal(t, intent.Navigation, res.Intent.Kind)
	require.NotNil(t, res.Navigation)
	assert.True(t, res.Navigation.Found)
	assert.Equal(t, "contact-section", res.Navigation.AnchorID)

	order := f.journal.order()
	scroll, complete := indexOf(order, "effect:"+EventScrollTo), indexOf(order, "complete")
	require.NotEqual(t, -1, scroll)
	require.NotEqual(t, -1, complete)
	assert.Less(t, scroll, complete, "scroll must happen before the completion call")

	system := f.lastCall()[0].Content
	assert.Contains(t, system, `"contact-section"`)
	assert.Contains(t, system, "Sección visible: hero")
}

func TestSubmitNavigationWithTrailingCourtesy(t *testing.T) {
	f := newFixture(t, echo)
	f.s.Directory().Replace(
		[]sections.Anchor{{ID: "hero"}, {ID: "faq"}},
		[]sections.Heading{{Text: "Preguntas frecuentes", AnchorID: "faq"}},
	)

	res := f.s.Submit(context.Background(), "Llévame a preguntas frecuentes, por favor")

	require.NotNil(t, res.Navigation)
	assert.Equal(t, "preguntas frecuentes", res.Navigation.Target)
	assert.True(t, res.Navigation.Found)
	assert.Equal(t, "faq", res.Navigation.AnchorID)
	assert.Equal(t, sections.StepHeading, res.Navigation.Step)
}

func TestSubmitNavigationMissStillReplies(t *testing.T) {
	f := newFixture(t, echo)
	f.s.Directory().Replace([]sections.Anchor{{ID: "contact-section"}}, nil)

	res := f.s.Submit(context.Background(), "Llévame a xyzabc123")

	require.NotNil(t, res.Navigation)
	assert.False(t, res.Navigation.Found)
	assert.Equal(t, 0, f.journal.count(EventScrollTo))
	require.NotNil(t, res.Reply)
	assert.False(t, res.Degraded)
	assert.Contains(t, f.lastCall()[0].Content, `"xyzabc123"`)
}

func TestSubmitPricingOpensCalculator(t *testing.T) {
	f := newFixture(t, echo)
	res := f.s.Submit(context.Background(), "¿Cuánto cuesta el desarrollo web?")

	assert.Equal(t, intent.Pricing, res.Intent.Kind)
	assert.True(t, res.PricingOpened)
	assert.Equal(t, ToolCalculator, f.s.Snapshot().ActiveTool)
	assert.Equal(t, 1, f.journal.count(EventToolChanged))
	assert.Contains(t, f.lastCall()[0].Content, "calculadora")
}

func TestSubmitSectionListIncludesAnchors(t *testing.T) {
	f := newFixture(t, echo)
	f.s.Directory().Replace([]sections.Anchor{{ID: "hero"}, {ID: "services"}}, nil)

	f.s.Submit(context.Background(), "¿Qué secciones hay?")
	assert.Contains(t, f.lastCall()[0].Content, "hero, services")
}

func TestSubmitFailureAppendsFallback(t *testing.T) {
	fail := true
	f := newFixture(t, func(msgs []completion.Message) (string, error) {
		if fail {
			return "", &completion.ServiceError{StatusCode: 503}
		}
		return "de vuelta", nil
	})

	res := f.s.Submit(context.Background(), "hola")
	require.True(t, res.Accepted)
	assert.True(t, res.Degraded)
	require.NotNil(t, res.Reply)
	assert.Equal(t, DefaultFallbackMessage, res.Reply.Content)
	require.NotNil(t, res.Reply.Sentiment)
	assert.Equal(t, sentiment.Negative, res.Reply.Sentiment.Type)
	assert.False(t, f.s.Snapshot().Busy, "busy cleared after failure")

	fail = false
	again := f.s.Submit(context.Background(), "¿sigues ahí?")
	assert.True(t, again.Accepted)
	assert.Equal(t, "de vuelta", again.Reply.Content)
}

func TestSubmitContextWindow(t *testing.T) {
	f := newFixture(t, echo)
	for i := 0; i < 8; i++ {
		f.s.Submit(context.Background(), "mensaje")
	}
	// 16 transcript messages exist; only the last 10 are forwarded.
	msgs := f.lastCall()
	assert.Len(t, msgs, 1+10+1)
	for _, m := range msgs[1:] {
		assert.NotEqual(t, completion.RoleSystem, m.Role)
	}
}

func TestToggleTool(t *testing.T) {
	f := newFixture(t, echo)
	ctx := context.Background()

	got, err := f.s.ToggleTool(ctx, ToolCalculator)
	require.NoError(t, err)
	assert.Equal(t, ToolCalculator, got)

	got, _ = f.s.ToggleTool(ctx, ToolSettings)
	assert.Equal(t, ToolSettings, got, "opening another tool replaces the first")

	got, _ = f.s.ToggleTool(ctx, ToolSettings)
	assert.Equal(t, ToolNone, got, "toggling the active tool closes it")

	_, err = f.s.ToggleTool(ctx, Tool("terminal"))
	assert.ErrorIs(t, err, ErrInvalidTool)
}

func TestChangeRouteClosesToolsKeepsWindow(t *testing.T) {
	f := newFixture(t, echo)
	ctx := context.Background()
	f.s.Open(ctx)
	f.s.Directory().Register(sections.Anchor{ID: "hero"})
	_, _ = f.s.ToggleTool(ctx, ToolCalculator)

	f.s.ChangeRoute(ctx, "servicios")

	st := f.s.Snapshot()
	assert.True(t, st.Open)
	assert.Equal(t, ToolNone, st.ActiveTool)
	assert.Equal(t, "/servicios", st.Route)
	assert.Empty(t, f.s.Directory().Anchors())
}

func TestOpenFocusesInput(t *testing.T) {
	f := newFixture(t, echo)
	f.s.Open(context.Background())
	f.s.Open(context.Background())

	assert.True(t, f.s.Snapshot().Open)
	assert.Equal(t, 2, f.journal.count(EventFocusInput))
	assert.Equal(t, 1, f.journal.count(EventStateChanged))
}

func TestPreferences(t *testing.T) {
	f := newFixture(t, echo)
	dark, left, full := ThemeDark, PositionLeft, ExpansionFullscreen
	prefs, err := f.s.SetPreferences(context.Background(), PreferencesPatch{Theme: &dark, Position: &left, ExpansionMode: &full})
	require.NoError(t, err)
	assert.Equal(t, Preferences{Theme: ThemeDark, Position: PositionLeft, ExpansionMode: ExpansionFullscreen}, prefs)

	bad := Theme("sepia")
	_, err = f.s.SetPreferences(context.Background(), PreferencesPatch{Theme: &bad})
	assert.ErrorIs(t, err, ErrInvalidPreference)
	assert.Equal(t, ThemeDark, f.s.Snapshot().Preferences.Theme, "rejected patch changes nothing")
}

func withVoice(out *fakeSpeechOut, in SpeechInput) func(*Deps) {
	return func(d *Deps) {
		d.SpeechOutput = out
		d.SpeechInput = in
	}
}

func enableVoice(t *testing.T, s *Session) {
	t.Helper()
	on := true
	_, err := s.SetPreferences(context.Background(), PreferencesPatch{VoiceEnabled: &on})
	require.NoError(t, err)
}

func TestSpeechSingleUtterance(t *testing.T) {
	out := &fakeSpeechOut{}
	f := newFixture(t, echo, withVoice(out, nil))
	enableVoice(t, f.s)
	ctx := context.Background()

	first := f.s.Speak(ctx, "uno")
	second := f.s.Speak(ctx, "dos")
	require.NotEqual(t, uuid.Nil, first)
	require.NotEqual(t, uuid.Nil, second)

	out.mu.Lock()
	assert.Equal(t, []uuid.UUID{first, second}, out.spoken)
	assert.Equal(t, []uuid.UUID{first}, out.canceled, "starting a new utterance cancels the previous one")
	out.mu.Unlock()

	f.s.Close(ctx)
	out.mu.Lock()
	assert.Equal(t, []uuid.UUID{first, second}, out.canceled, "closing the window cancels speech")
	out.mu.Unlock()
	assert.False(t, f.s.Snapshot().Speaking)
}

func TestSpeechDisabledIsSilent(t *testing.T) {
	out := &fakeSpeechOut{}
	f := newFixture(t, echo, withVoice(out, nil))

	f.s.Submit(context.Background(), "hola")
	assert.Empty(t, out.spoken)

	enableVoice(t, f.s)
	f.s.Submit(context.Background(), "hola otra vez")
	assert.Len(t, out.spoken, 1, "reply is read aloud once voice is on")

	off := false
	_, err := f.s.SetPreferences(context.Background(), PreferencesPatch{VoiceEnabled: &off})
	require.NoError(t, err)
	assert.Len(t, out.canceled, 1, "turning voice off cancels the active utterance")
}

func TestSubmitVoice(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, echo)
	_, err := f.s.SubmitVoice(ctx, []byte("audio"), "audio/webm")
	assert.ErrorIs(t, err, ErrVoiceUnsupported)

	f = newFixture(t, echo, withVoice(&fakeSpeechOut{}, fakeSpeechIn{text: "Llévame a contacto"}))
	_, err = f.s.SubmitVoice(ctx, []byte("audio"), "audio/webm")
	assert.ErrorIs(t, err, ErrVoiceDisabled)

	enableVoice(t, f.s)
	res, err := f.s.SubmitVoice(ctx, []byte("audio"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, intent.Navigation, res.Intent.Kind)

	f = newFixture(t, echo, withVoice(&fakeSpeechOut{}, fakeSpeechIn{err: errors.New("no speech")}))
	enableVoice(t, f.s)
	_, err = f.s.SubmitVoice(ctx, []byte("audio"), "audio/webm")
	require.Error(t, err)
	assert.Empty(t, f.s.Snapshot().Transcript)
}

func TestSendEstimate(t *testing.T) {
	f := newFixture(t, echo)
	est := pricing.NewEstimator(nil, 0, "")

	empty, err := est.Estimate(pricing.Selection{})
	require.NoError(t, err)
	_, err = f.s.SendEstimate(context.Background(), empty)
	assert.ErrorIs(t, err, ErrEstimateEmpty)

	quote, err := est.Estimate(pricing.Selection{Services: map[pricing.Service]bool{pricing.WebDevelopment: true}, Timeline: pricing.Urgent})
	require.NoError(t, err)
	res, err := f.s.SendEstimate(context.Background(), quote)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	st := f.s.Snapshot()
	require.NotEmpty(t, st.Transcript)
	assert.Equal(t, quote.DisplayText, st.Transcript[0].Content)
	assert.True(t, strings.Contains(st.Transcript[0].Content, "desarrollo web"))
}

func TestSendEstimateLeavesCalculatorAlone(t *testing.T) {
	f := newFixture(t, echo)
	est := pricing.NewEstimator(nil, 0, "")
	quote, err := est.Estimate(pricing.Selection{Services: map[pricing.Service]bool{pricing.WebDevelopment: true}})
	require.NoError(t, err)

	res, err := f.s.SendEstimate(context.Background(), quote)
	require.NoError(t, err)
	assert.Equal(t, intent.Plain, res.Intent.Kind)
	assert.False(t, res.PricingOpened)
	assert.Equal(t, ToolNone, f.s.Snapshot().ActiveTool)
	assert.Zero(t, f.journal.count(EventToolChanged))

	system := f.lastCall()[0].Content
	assert.Contains(t, system, "acaba de enviar un presupuesto")
	assert.NotContains(t, system, "en lugar de dar cifras")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
