package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/websy-backend/internal/config"
	httpx "github.com/yungbote/websy-backend/internal/http"
	"github.com/yungbote/websy-backend/internal/observability"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Router   *gin.Engine
	Services Services
	SSEHub   *realtime.SSEHub

	server       *httpx.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "websy",
		Environment: cfg.Env,
	})
	metrics := observability.Init()

	ssehub := realtime.NewSSEHub(log)

	serviceset, err := wireServices(ctx, log, cfg, ssehub)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset, ssehub)
	router := wireRouter(log, cfg, metrics, serviceset, handlerset)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		Services:     serviceset,
		SSEHub:       ssehub,
		server:       httpx.NewServer(log, cfg.HTTP, router),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP, forwards bus events into the local hub and reaps idle
// sessions until ctx is done. Close runs before it returns.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return errors.New("app not initialized")
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx, a.Cfg.HTTP.ShutdownTimeout.Duration)
	})
	g.Go(func() error {
		return a.Services.Sessions.RunReaper(gctx, a.Cfg.Session.ReapInterval.Duration)
	})
	if a.Services.Bus != nil {
		if err := a.Services.Bus.StartForwarder(gctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Warn("realtime bus forwarder failed to start; events stay local", "error", err)
		}
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Voice.Close != nil {
		if err := a.Services.Voice.Close(); err != nil {
			a.Log.Warn("voice client close failed", "error", err)
		}
	}
	if a.Services.Bus != nil {
		_ = a.Services.Bus.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Log.Sync()
}
