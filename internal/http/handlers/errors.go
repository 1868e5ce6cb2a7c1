package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/assistant/pricing"
	"github.com/yungbote/websy-backend/internal/http/response"
	"github.com/yungbote/websy-backend/internal/platform/apierr"
	"github.com/yungbote/websy-backend/internal/session"
	"github.com/yungbote/websy-backend/internal/voice"
)

// toAPIError attaches a status and code to the domain sentinels.
func toAPIError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return apierr.NotFound("session_not_found", err)
	case errors.Is(err, session.ErrInvalidTool):
		return apierr.BadRequest("invalid_tool", err)
	case errors.Is(err, session.ErrInvalidPreference):
		return apierr.BadRequest("invalid_preference", err)
	case errors.Is(err, session.ErrEstimateEmpty):
		return apierr.BadRequest("estimate_empty", err)
	case errors.Is(err, session.ErrVoiceUnsupported):
		return apierr.New(http.StatusNotImplemented, "voice_unsupported", err)
	case errors.Is(err, session.ErrVoiceDisabled):
		return apierr.Conflict("voice_disabled", err)
	case errors.Is(err, voice.ErrBadAudio):
		return apierr.New(http.StatusUnprocessableEntity, "bad_audio", err)
	case errors.Is(err, pricing.ErrUnknownService),
		errors.Is(err, pricing.ErrUnknownComplexity),
		errors.Is(err, pricing.ErrUnknownTimeline):
		return apierr.BadRequest("invalid_selection", err)
	}
	return err
}

func respondErr(c *gin.Context, err error) {
	_ = c.Error(err)
	response.RespondAPIError(c, toAPIError(err))
}

func badRequest(c *gin.Context, code string, err error) {
	respondErr(c, apierr.BadRequest(code, err))
}
