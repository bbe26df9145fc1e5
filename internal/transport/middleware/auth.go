package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const decodedEmailKey = "decoded_email"

// IdentityVerifier resolves a bearer token to the email it was issued for.
type IdentityVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// RoleResolver looks up the marketplace role of a verified user.
type RoleResolver interface {
	GetRole(ctx context.Context, email string) (entity.Role, error)
}

// VerifyToken rejects requests without a valid bearer token and stores
// the token's email in the context.
func VerifyToken(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			abort(c, http.StatusUnauthorized, "authentication is not configured")
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized access")
			return
		}

		email, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			logrus.WithError(err).Debug("Token verification failed")
			abort(c, http.StatusUnauthorized, "unauthorized access")
			return
		}

		c.Set(decodedEmailKey, email)
		c.Next()
	}
}

// RequireRole must run after VerifyToken.
func RequireRole(resolver RoleResolver, roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := DecodedEmail(c)
		if email == "" {
			abort(c, http.StatusUnauthorized, "unauthorized access")
			return
		}

		role, err := resolver.GetRole(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				abort(c, http.StatusForbidden, "forbidden access")
				return
			}
			logrus.WithError(err).WithField("email", email).Error("Failed to resolve role")
			abort(c, http.StatusInternalServerError, "failed to resolve role")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden access")
	}
}

// DecodedEmail returns the email set by VerifyToken, or "".
func DecodedEmail(c *gin.Context) string {
	return c.GetString(decodedEmailKey)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
