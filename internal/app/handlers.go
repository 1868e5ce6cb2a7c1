package app

import (
	"github.com/yungbote/websy-backend/internal/config"
	httpH "github.com/yungbote/websy-backend/internal/http/handlers"
	"github.com/yungbote/websy-backend/internal/platform/logger"
	"github.com/yungbote/websy-backend/internal/realtime"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Chatbot   *httpH.ChatbotHandler
	Sentiment *httpH.SentimentHandler
	Pricing   *httpH.PricingHandler
	Session   *httpH.SessionHandler
	Realtime  *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Chatbot:   httpH.NewChatbotHandler(log, services.Completer, services.Assembler, services.Options),
		Sentiment: httpH.NewSentimentHandler(),
		Pricing:   httpH.NewPricingHandler(services.Estimator),
		Session:   httpH.NewSessionHandler(log, services.Sessions, services.Tokens, services.Estimator),
		Realtime:  httpH.NewRealtimeHandler(log, hub, services.Sessions),
	}
}
