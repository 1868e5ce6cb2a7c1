package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/websy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/websy-backend/internal/http/middleware"
	"github.com/yungbote/websy-backend/internal/observability"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowOrigins   []string
	MaxRequestBody int64
	Metrics        *observability.Metrics

	SessionAuth *httpMW.SessionAuth

	HealthHandler    *httpH.HealthHandler
	ChatbotHandler   *httpH.ChatbotHandler
	SentimentHandler *httpH.SentimentHandler
	PricingHandler   *httpH.PricingHandler
	SessionHandler   *httpH.SessionHandler
	RealtimeHandler  *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "websy"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowOrigins))
	r.Use(httpMW.MaxBody(cfg.MaxRequestBody))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.ChatbotHandler != nil {
			api.POST("/chatbot", cfg.ChatbotHandler.Chat)
			api.POST("/enhanced-chatbot", cfg.ChatbotHandler.EnhancedChat)
		}
		if cfg.SentimentHandler != nil {
			api.POST("/analyze-sentiment", cfg.SentimentHandler.Analyze)
		}
		if cfg.PricingHandler != nil {
			api.POST("/pricing/estimate", cfg.PricingHandler.Estimate)
		}
		if cfg.SessionHandler != nil {
			api.POST("/sessions", cfg.SessionHandler.Create)
		}
	}

	sessions := api.Group("/sessions/:id")
	{
		if cfg.SessionAuth != nil {
			sessions.Use(cfg.SessionAuth.RequireSession())
		}

		if h := cfg.SessionHandler; h != nil {
			sessions.GET("", h.Get)
			sessions.DELETE("", h.Delete)
			sessions.POST("/open", h.Open)
			sessions.POST("/close", h.Close)
			sessions.POST("/tools/:tool", h.ToggleTool)
			sessions.POST("/route", h.ChangeRoute)
			sessions.PATCH("/preferences", h.SetPreferences)
			sessions.PUT("/input", h.SetInput)
			sessions.PUT("/anchors", h.ReplaceAnchors)
			sessions.POST("/anchors", h.RegisterAnchor)
			sessions.PATCH("/anchors/:anchor", h.PatchAnchor)
			sessions.DELETE("/anchors/:anchor", h.DeregisterAnchor)
			sessions.POST("/messages", h.SendMessage)
			sessions.POST("/voice", h.SubmitVoice)
			sessions.POST("/voice/ended", h.VoiceEnded)
			sessions.POST("/estimate", h.SendEstimate)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			sessions.GET("/events", cfg.RealtimeHandler.Events)
		}
	}

	return r
}
