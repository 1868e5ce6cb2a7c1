package session

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/websy-backend/internal/assistant/intent"
	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/assistant/prompt"
	"github.com/yungbote/websy-backend/internal/assistant/sections"
	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
	"github.com/yungbote/websy-backend/internal/observability"
)

var tracer = otel.Tracer("websy/session")

var fallbackSentiment = sentiment.Result{Type: sentiment.Negative, Score: 1, Confidence: 1}

// Submit runs one visitor message through classification, page side
// effects and the completion service. Blank text and submits while another
// is in flight are rejected without touching the transcript. A completion
// failure is not returned: the fixed fallback reply is appended instead.
func (s *Session) Submit(ctx context.Context, text string) SubmitResult {
	return s.submit(ctx, text, false)
}

// submit is the shared pipeline. An estimate skips classification: the quote
// always mentions prices and services, and must not reopen the calculator.
func (s *Session) submit(ctx context.Context, text string, estimate bool) SubmitResult {
	text = strings.TrimSpace(text)
	if text == "" {
		observability.Current().IncSubmit("", string(RejectBlank))
		return SubmitResult{Reason: RejectBlank}
	}

	ctx, span := tracer.Start(ctx, "session.Submit")
	defer span.End()

	mood := sentiment.Score(text)

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		span.SetAttributes(attribute.String("submit.rejected", string(RejectBusy)))
		observability.Current().IncSubmit("", string(RejectBusy))
		return SubmitResult{Reason: RejectBusy}
	}
	s.busy = true
	history := turns(s.transcript)
	userMsg := s.newMessage(RoleUser, text, &mood)
	s.transcript = append(s.transcript, userMsg)
	s.input = ""
	route := s.route
	s.touchLocked()
	s.mu.Unlock()

	s.emit(ctx, EventBusyChanged, map[string]any{"busy": true})
	s.emit(ctx, EventMessageAppended, userMsg)

	in := intent.Intent{Kind: intent.Plain}
	if !estimate {
		in = intent.Classify(text)
	}
	span.SetAttributes(attribute.String("submit.intent", string(in.Kind)))
	res := SubmitResult{Accepted: true, Intent: in}

	pctx := prompt.Context{Route: route, Intent: in.Kind, Sentiment: &mood, EstimateSent: estimate}
	switch in.Kind {
	case intent.Navigation:
		nav := s.navigate(ctx, in.RawTarget)
		res.Navigation = nav
		pctx.Navigation = &prompt.Navigation{
			Target:      nav.Target,
			AnchorID:    nav.AnchorID,
			Found:       nav.Found,
			Suggestions: nav.Suggestions,
		}
	case intent.SectionList:
		for _, a := range s.dir.Anchors() {
			pctx.Sections = append(pctx.Sections, a.ID)
		}
	case intent.Pricing:
		s.openTool(ctx, ToolCalculator)
		res.PricingOpened = true
		pctx.PricingOpened = true
	}
	if cur, ok := s.dir.Current(); ok {
		pctx.CurrentAnchor = cur.ID
	}

	msgs := s.deps.Assembler.Assemble(history, pctx, text)

	// The reply belongs to the session, not to the request that carried the
	// message, so a dropped connection must not abort it.
	reply, err := s.deps.Completer.Complete(context.WithoutCancel(ctx), msgs, s.deps.Options)

	var replyMsg Message
	outcome := "ok"
	if err != nil {
		outcome = "degraded"
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.log.Error("completion failed; using fallback reply", "error", err, "intent", in.Kind)
		fb := fallbackSentiment
		replyMsg = s.newMessage(RoleAssistant, s.deps.FallbackMessage, &fb)
		res.Degraded = true
	} else {
		replyMsg = s.newMessage(RoleAssistant, reply, nil)
	}
	res.Reply = &replyMsg
	observability.Current().IncSubmit(string(in.Kind), outcome)

	s.mu.Lock()
	s.transcript = append(s.transcript, replyMsg)
	s.busy = false
	s.touchLocked()
	s.mu.Unlock()

	s.emit(ctx, EventMessageAppended, replyMsg)
	s.emit(ctx, EventBusyChanged, map[string]any{"busy": false})

	s.Speak(ctx, replyMsg.Content)
	return res
}

// navigate resolves the target and scrolls the page before the model is
// asked, so the reply can acknowledge the move instead of describing it.
func (s *Session) navigate(ctx context.Context, target string) *NavigationOutcome {
	out := &NavigationOutcome{Target: target}
	m, ok := sections.Resolve(target, s.dir)
	if !ok {
		out.Suggestions = sections.Suggest(target, s.dir, s.deps.SuggestionLimit)
		s.log.Debug("navigation target not found", "target", target, "suggestions", len(out.Suggestions))
		observability.Current().IncNavigation("miss")
		return out
	}
	out.Found = true
	out.AnchorID = m.AnchorID
	out.Step = m.Step
	observability.Current().IncNavigation(string(m.Step))
	s.emit(ctx, EventScrollTo, map[string]any{"anchor_id": m.AnchorID, "step": m.Step})
	return out
}

// SendEstimate posts the calculator's summary into the chat as a visitor
// message. The calculator is left as it is.
func (s *Session) SendEstimate(ctx context.Context, est pricing.Estimate) (SubmitResult, error) {
	if !est.CanSend || strings.TrimSpace(est.DisplayText) == "" {
		return SubmitResult{}, ErrEstimateEmpty
	}
	return s.submit(ctx, est.DisplayText, true), nil
}

func turns(transcript []Message) []prompt.Turn {
	out := make([]prompt.Turn, 0, len(transcript))
	for _, m := range transcript {
		out = append(out, prompt.Turn{Role: string(m.Role), Content: m.Content})
	}
	return out
}
