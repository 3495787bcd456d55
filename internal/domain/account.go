package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID              int32           `json:"id"`
	OwnerID         int32           `json:"ownerId"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	Description     *string         `json:"description,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// DefaultCurrency is used when an account is created without one
const DefaultCurrency = "USD"

// AccountUpdate holds a partial account update; nil fields are left unchanged
type AccountUpdate struct {
	Name        *string
	Currency    *string
	Description *string
	Notes       *string
}

// Empty reports whether the update would change nothing
func (u *AccountUpdate) Empty() bool {
	return u.Name == nil && u.Currency == nil && u.Description == nil && u.Notes == nil
}

type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(id int32) (*Account, error)
	// GetAllForUser returns accounts the user owns or is authorized to view, ordered by id.
	GetAllForUser(userID int32) ([]*Account, error)
	Update(id int32, update *AccountUpdate) (*Account, error)
	// Delete removes the account together with its transactions and
	// authorized-user links in a single database transaction.
	Delete(id int32) error
	// CanView reports whether the user owns the account or is an authorized viewer.
	CanView(userID, accountID int32) (bool, error)
	IsOwner(userID, accountID int32) (bool, error)
	AuthorizeUser(accountID, userID int32) error
	RevokeUser(accountID, userID int32) error
}
