package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"facturas/internal/domain"
	"facturas/internal/service"
)

// Gin context keys set by this package.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyEmail     = "email"
	ContextKeyRequestID = "request_id"
)

// AuthMiddleware requires an "Authorization: Bearer <access token>" header.
// On success the caller's ID and email are stored in the Gin context; every
// invoice route reads the owner from there.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing or invalid authorization header")
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("auth: token rejected")
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated owner, or domain.ErrUnauthorized when
// the route is not behind AuthMiddleware.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	v, _ := c.Get(ContextKeyUserID)
	if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, domain.ErrUnauthorized
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": msg},
	})
}
