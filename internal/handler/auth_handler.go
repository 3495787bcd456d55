package handler

import (
	"errors"
	"net/http"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and password reset requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a session token
type TokenResponse struct {
	Token string `json:"token"`
}

// ForgotPasswordRequest represents the forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the reset password request body
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse carries a human-readable outcome message
type MessageResponse struct {
	Message string `json:"message"`
}

const passwordPolicyMessage = "Password must be at least 8 characters and include a lowercase letter, an uppercase letter, a number, and a special character"

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return NewValidationError(c, "email & password required", nil)
	}

	token, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			return NewConflictError(c, "Email already in use")
		}
		if errors.Is(err, domain.ErrWeakPassword) {
			return NewValidationError(c, passwordPolicyMessage, []ValidationError{
				{Field: "password", Message: passwordPolicyMessage},
			})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "email & password required", nil)
		}
		log.Error().Err(err).Msg("Failed to register user")
		return NewInternalError(c, "Failed to register")
	}

	return c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return NewUnauthorizedError(c, "Invalid credentials")
		}
		log.Error().Err(err).Msg("Failed to log in user")
		return NewInternalError(c, "Failed to log in")
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password.
// The response is identical whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Email == "" {
		return NewValidationError(c, "Email is required", nil)
	}

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		log.Error().Err(err).Msg("Forgot password flow failed")
		return NewInternalError(c, "An error occurred processing your request")
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return NewValidationError(c, "Token and new password are required", nil)
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrWeakPassword) {
			return NewValidationError(c, passwordPolicyMessage, []ValidationError{
				{Field: "newPassword", Message: passwordPolicyMessage},
			})
		}
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return NewValidationError(c, "Invalid or expired reset token", nil)
		}
		log.Error().Err(err).Msg("Reset password flow failed")
		return NewInternalError(c, "An error occurred processing your request")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset successfully"})
}
