package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/assistant/sentiment"
	"github.com/yungbote/websy-backend/internal/http/response"
)

type SentimentHandler struct{}

func NewSentimentHandler() *SentimentHandler { return &SentimentHandler{} }

func (h *SentimentHandler) Analyze(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, "missing_text", errors.New("text is required"))
		return
	}
	response.RespondOK(c, sentiment.Score(req.Text))
}
