package service

import (
	"fmt"
	"strings"

	"github.com/cohenoa33/cashflow/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ProfileService handles user profile operations
type ProfileService struct {
	userRepo domain.UserRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo domain.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// GetProfile retrieves the user's profile
func (s *ProfileService) GetProfile(userID int32) (*domain.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile updates first/last name and recomputes the display name.
// Returns domain.ErrNoFields when nothing was provided.
func (s *ProfileService) UpdateProfile(userID int32, firstName, lastName *string) (*domain.User, error) {
	if firstName == nil && lastName == nil {
		return nil, domain.ErrNoFields
	}

	existing, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	first := valueOr(firstName, existing.FirstName)
	last := valueOr(lastName, existing.LastName)
	name := makeFullName(first, last)

	return s.userRepo.UpdateProfile(userID, firstName, lastName, name)
}

// ChangePassword verifies the current password before setting a new one
func (s *ProfileService) ChangePassword(userID int32, currentPassword, newPassword string) error {
	if !ValidPassword(newPassword) {
		return domain.ErrWeakPassword
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(userID, string(hash))
}

func valueOr(v *string, fallback *string) string {
	if v != nil {
		return *v
	}
	if fallback != nil {
		return *fallback
	}
	return ""
}

// makeFullName builds a "First Last" display name with each part capitalized
func makeFullName(firstName, lastName string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{firstName, lastName} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(p[:1])+strings.ToLower(p[1:]))
	}
	return strings.Join(parts, " ")
}
