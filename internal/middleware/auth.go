package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/streamhub/internal/auth"
)

// ClaimsKey is the gin context key holding verified token claims.
const ClaimsKey = "auth_claims"

// Authorizer checks a bearer token for a role.
type Authorizer interface {
	Authorize(raw string, role auth.Role) (*auth.TokenClaims, error)
}

// RequireRole rejects requests without a bearer token granting role.
func RequireRole(authorizer Authorizer, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid Authorization header",
			})
			return
		}

		claims, err := authorizer.Authorize(strings.TrimSpace(parts[1]), role)
		if err != nil {
			status := http.StatusUnauthorized
			code := "invalid_token"
			if errors.Is(err, auth.ErrForbidden) {
				status = http.StatusForbidden
				code = "forbidden"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": code, "message": err.Error()})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims stored by RequireRole.
func Claims(c *gin.Context) (*auth.TokenClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.TokenClaims)
	return claims, ok
}
