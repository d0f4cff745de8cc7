package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"reviewhub/internal/microservices/http-api/permission"
	"reviewhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token, if any, into the request identity.
// Requests without an Authorization header continue as anonymous; a header that
// does not carry a valid token for an active user is rejected.
func AuthMiddleware(authService service.AuthService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(identityKey, permission.Anonymous())
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		identity, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			logger.ErrorContext(c.Request.Context(), "authenticate_failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity set by AuthMiddleware, anonymous when unset.
func IdentityFrom(c *gin.Context) permission.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(permission.Identity); ok {
			return id
		}
	}
	return permission.Anonymous()
}

// RequirePolicy runs the collection level check of policy before the handler.
// A denied anonymous request gets 401, a denied authenticated one 403.
func RequirePolicy(policy permission.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := IdentityFrom(c)
		decision := policy.HasPermission(permission.Request{Method: c.Request.Method, Identity: id})
		if decision.Allowed() {
			c.Next()
			return
		}
		if !id.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrPermissionDenied.Error()})
	}
}
