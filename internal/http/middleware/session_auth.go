package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/websy-backend/internal/platform/ctxutil"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

type SessionAuth struct {
	log    *logger.Logger
	tokens TokenVerifier
}

func NewSessionAuth(log *logger.Logger, tokens TokenVerifier) *SessionAuth {
	return &SessionAuth{log: log.With("Middleware", "SessionAuth"), tokens: tokens}
}

// RequireSession admits a request only when its token was issued for the
// session named in the :id path segment.
func (sa *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		sid, err := sa.tokens.Verify(tokenString)
		if err != nil {
			sa.log.Debug("session token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": err.Error(), "code": "unauthorized"},
			})
			return
		}
		pathID, err := uuid.Parse(c.Param("id"))
		if err != nil || pathID != sid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}
		ctx := ctxutil.WithSessionData(c.Request.Context(), &ctxutil.SessionData{SessionID: sid})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// EventSource cannot set headers, so the query token wins.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
