package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/config"
	httpx "github.com/yungbote/websy-backend/internal/http"
	httpMW "github.com/yungbote/websy-backend/internal/http/middleware"
	"github.com/yungbote/websy-backend/internal/observability"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg *config.Config, metrics *observability.Metrics, services Services, handlers Handlers) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpx.NewRouter(httpx.RouterConfig{
		Log:              log,
		ServiceName:      "websy",
		AllowOrigins:     cfg.HTTP.AllowOrigins,
		MaxRequestBody:   cfg.HTTP.MaxRequestBytes,
		Metrics:          metrics,
		SessionAuth:      httpMW.NewSessionAuth(log, services.Tokens),
		HealthHandler:    handlers.Health,
		ChatbotHandler:   handlers.Chatbot,
		SentimentHandler: handlers.Sentiment,
		PricingHandler:   handlers.Pricing,
		SessionHandler:   handlers.Session,
		RealtimeHandler:  handlers.Realtime,
	})
}
