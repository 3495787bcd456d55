package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const userIDContextKey = "user_id"

// TokenValidator validates session tokens and returns the user ID they were issued to
type TokenValidator interface {
	ValidateToken(token string) (int32, error)
}

// AuthMiddleware authenticates requests carrying a Bearer session token
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate returns middleware that rejects requests without a valid token
// and stores the authenticated user ID in the echo context.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return unauthorizedError(c, "Malformed authorization header")
			}

			userID, err := m.validator.ValidateToken(token)
			if err != nil {
				return unauthorizedError(c, "Invalid or expired token")
			}

			c.Set(userIDContextKey, userID)
			return next(c)
		}
	}
}

// GetUserID returns the authenticated user ID from the context, or 0 when unauthenticated
func GetUserID(c echo.Context) int32 {
	if id, ok := c.Get(userIDContextKey).(int32); ok {
		return id
	}
	return 0
}
