package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/http/response"
)

type PricingHandler struct {
	estimator *pricing.Estimator
}

func NewPricingHandler(estimator *pricing.Estimator) *PricingHandler {
	return &PricingHandler{estimator: estimator}
}

func (h *PricingHandler) Estimate(c *gin.Context) {
	var sel pricing.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, "invalid_body", err)
		return
	}
	est, err := h.estimator.Estimate(sel)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, est)
}
