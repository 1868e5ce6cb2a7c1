package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/websy-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ChatbotError is the flat envelope the chatbot endpoints have always used.
type ChatbotError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes err using its apierr status and code, or a 500.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}

func RespondChatbotError(c *gin.Context, status int, msg string, err error) {
	out := ChatbotError{Error: msg}
	if err != nil {
		out.Details = err.Error()
	}
	c.JSON(status, out)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
