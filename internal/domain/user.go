package domain

import "time"

// User represents a registered user
type User struct {
	ID               int32      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             *string    `json:"name,omitempty"`
	FirstName        *string    `json:"firstName,omitempty"`
	LastName         *string    `json:"lastName,omitempty"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	Create(user *User) (*User, error)
	GetByID(id int32) (*User, error)
	GetByEmail(email string) (*User, error)
	UpdateProfile(id int32, firstName, lastName *string, name string) (*User, error)
	UpdatePassword(id int32, passwordHash string) error
	SetResetToken(id int32, token string, expiry time.Time) error
	// GetByResetToken returns the user holding an unexpired reset token.
	GetByResetToken(token string) (*User, error)
	// ResetPassword sets a new password hash and clears the reset token.
	ResetPassword(id int32, passwordHash string) error
}
