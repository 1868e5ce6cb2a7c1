package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/assistant/prompt"
	"github.com/yungbote/websy-backend/internal/auth"
	"github.com/yungbote/websy-backend/internal/completion"
	"github.com/yungbote/websy-backend/internal/completion/mock"
	"github.com/yungbote/websy-backend/internal/completion/oaihttp"
	"github.com/yungbote/websy-backend/internal/config"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/realtime"
	"github.com/yungbote/websy-backend/internal/realtime/bus"
	"github.com/yungbote/websy-backend/internal/session"
	"github.com/yungbote/websy-backend/internal/voice"
)

type Services struct {
	Completer completion.Completer
	Options   completion.Options
	Assembler *prompt.Assembler
	Estimator *pricing.Estimator
	Tokens    *auth.SessionTokens
	Sessions  *session.Manager
	Voice     voice.Ports
	// Bus is nil when events stay on this instance.
	Bus bus.Bus
}

func wireServices(ctx context.Context, log *logger.Logger, cfg *config.Config, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	completer, err := wireCompleter(cfg.Completion)
	if err != nil {
		return Services{}, err
	}

	var effects session.Effects = &realtime.HubEmitter{Hub: hub}
	var eventBus bus.Bus
	if cfg.Realtime.RedisAddr != "" {
		b, err := bus.NewRedisBus(ctx, log, cfg.Realtime.RedisAddr, cfg.Realtime.RedisChannel)
		if err != nil {
			log.Warn("redis bus unavailable; events stay local", "error", err, "addr", cfg.Realtime.RedisAddr)
		} else {
			eventBus = b
			effects = &realtime.BusEmitter{Log: log, Bus: b, Fallback: hub}
		}
	}

	voicePorts, err := voice.New(ctx, log, cfg.Voice, effects)
	if err != nil {
		if eventBus != nil {
			_ = eventBus.Close()
		}
		return Services{}, fmt.Errorf("init voice: %w", err)
	}

	tokens, err := auth.NewSessionTokens(cfg.Session.Secret, cfg.Session.TokenTTL.Duration)
	if err != nil {
		return Services{}, fmt.Errorf("init session tokens: %w", err)
	}
	if cfg.Session.Secret == "" {
		log.Warn("WEBSY_SESSION_SECRET not set; tokens will not survive a restart")
	}

	assembler := prompt.NewAssembler(prompt.Persona(cfg.Assistant.Name, cfg.Assistant.Persona), cfg.Session.ContextWindow)
	opts := completion.Options{MaxTokens: cfg.Completion.MaxTokens, Temperature: cfg.Completion.Temperature}

	sessions := session.NewManager(session.Deps{
		Log:             log,
		Completer:       completer,
		Assembler:       assembler,
		Options:         opts,
		Effects:         effects,
		SpeechInput:     voicePorts.Input,
		SpeechOutput:    voicePorts.Output,
		FallbackMessage: cfg.Assistant.FallbackMessage,
	}, cfg.Session.IdleTTL.Duration)
	sessions.OnDelete = func(id uuid.UUID) { hub.CloseChannel(realtime.SessionChannel(id)) }

	return Services{
		Completer: completer,
		Options:   opts,
		Assembler: assembler,
		Estimator: pricing.NewEstimator(pricingRates(cfg.Pricing.Rates), cfg.Pricing.UrgentSurcharge, cfg.Pricing.Currency),
		Tokens:    tokens,
		Sessions:  sessions,
		Voice:     voicePorts,
		Bus:       eventBus,
	}, nil
}

func wireCompleter(cfg config.CompletionConfig) (completion.Completer, error) {
	switch cfg.Engine {
	case "oai_http":
		e, err := oaihttp.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("init completion engine: %w", err)
		}
		return e, nil
	default:
		return mock.New(), nil
	}
}

// pricingRates lifts the YAML rate table into pricing types. A nil result
// keeps the built-in table.
func pricingRates(raw map[string]map[string]int) pricing.Rates {
	if len(raw) == 0 {
		return nil
	}
	out := make(pricing.Rates, len(raw))
	for svc, byComplexity := range raw {
		row := make(map[pricing.Complexity]int, len(byComplexity))
		for c, amount := range byComplexity {
			row[pricing.Complexity(c)] = amount
		}
		out[pricing.Service(svc)] = row
	}
	return out
}
