package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/response"
)

// Middleware verifies the Authorization header when present. Requests
// without one continue anonymously; an invalid token is rejected.
func Middleware(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		token := header
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			token = strings.TrimSpace(header[7:])
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			response.Fail(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if FromContext(c.Request.Context()) == nil {
			response.Fail(c, apperr.Unauthenticated("authentication required"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := FromContext(c.Request.Context())
		if claims == nil {
			response.Fail(c, apperr.Unauthenticated("authentication required"))
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		response.Fail(c, apperr.PermissionDenied("requires role %s", strings.Join(roles, " or ")))
	}
}
