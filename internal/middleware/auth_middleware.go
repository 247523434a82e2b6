package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "juststart/internal/errors"
	"juststart/internal/service"
)

const SubjectContextKey = "subject"

// Auth requires a bearer token when the service has a passphrase. Websocket
// clients that cannot set headers may pass ?token= instead.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authService.Enabled() {
			c.Next()
			return
		}

		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				writeError(c, apperrors.Unauthorized("missing authorization header"))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(c, apperrors.Unauthorized("invalid authorization format"))
				return
			}

			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				writeError(c, apperrors.Unauthorized("invalid authorization format"))
				return
			}
		}

		subject, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(SubjectContextKey, subject)
		c.Next()
	}
}

func Subject(c *gin.Context) string {
	value, ok := c.Get(SubjectContextKey)
	if !ok {
		return ""
	}
	subject, ok := value.(string)
	if !ok {
		return ""
	}
	return subject
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
