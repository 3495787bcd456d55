package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL        = 7 * 24 * time.Hour
	resetTokenTTL   = 15 * time.Minute
	resetTokenBytes = 32
)

// Mailer sends password reset mail
type Mailer interface {
	SendPasswordReset(to, token string) error
}

// AuthService handles registration, login and the password reset lifecycle
type AuthService struct {
	userRepo  domain.UserRepository
	mailer    Mailer
	jwtSecret []byte
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, mailer Mailer, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		mailer:    mailer,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a user and returns a session token.
// Returns domain.ErrEmailInUse when the email is taken.
func (s *AuthService) Register(email, password string, name *string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", domain.ErrInvalidInput
	}
	if !ValidPassword(password) {
		return "", domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(&domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
	})
	if err != nil {
		return "", err
	}

	return s.signToken(user.ID)
}

// Login verifies credentials and returns a session token.
// Unknown email and wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.signToken(user.ID)
}

// ForgotPassword generates a reset token for the user and mails the reset
// link. It never reveals whether the email exists.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.ErrInvalidInput
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Same outcome as success, prevents email enumeration
		return nil
	}

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiry := time.Now().Add(resetTokenTTL)

	if err := s.userRepo.SetResetToken(user.ID, token, expiry); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(user.Email, token); err != nil {
		log.Error().Err(err).Int32("user_id", user.ID).Msg("Failed to send reset email")
		return err
	}
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset token
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrInvalidInput
	}
	if !ValidPassword(newPassword) {
		return domain.ErrWeakPassword
	}

	user, err := s.userRepo.GetByResetToken(token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.ResetPassword(user.ID, string(hash))
}

// ValidateToken parses a session token and returns the user ID it was issued to
func (s *AuthService) ValidateToken(tokenString string) (int32, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	userID, err := strconv.ParseInt(subject, 10, 32)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return int32(userID), nil
}

func (s *AuthService) signToken(userID int32) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(int64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	return token.SignedString(s.jwtSecret)
}

// ValidPassword reports whether a password meets the policy: at least 8
// characters including a lowercase letter, an uppercase letter, a digit and a
// symbol.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
