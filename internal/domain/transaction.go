package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether the type is one of the known tags
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type Transaction struct {
	ID          int32           `json:"id"`
	AccountID   int32           `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionUpdate holds a partial transaction update; nil fields are left unchanged
type TransactionUpdate struct {
	Amount      *decimal.Decimal
	Type        *TransactionType
	Description *string
	Category    *string
	Date        *time.Time
}

// CategorySuggestion maps a normalized (trimmed, lowercased) description to a
// category drawn from the user's transaction history.
type CategorySuggestion struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	CreateBatch(transactions []*Transaction) ([]*Transaction, error)
	GetByID(id int32) (*Transaction, error)
	// GetByAccount returns the account's transactions ordered by date;
	// ascending order is the contract the balance engine relies on.
	GetByAccount(accountID int32, ascending bool) ([]*Transaction, error)
	Update(id int32, update *TransactionUpdate) (*Transaction, error)
	Delete(id int32) error
	// SuggestCategories looks up categorized transactions of the user whose
	// descriptions match (case-insensitively) any of the given values.
	SuggestCategories(userID int32, descriptions []string) ([]*CategorySuggestion, error)
}
