package service

import (
	"strings"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountService handles account business logic and access control
type AccountService struct {
	accountRepo domain.AccountRepository
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name            string
	Currency        string
	Description     *string
	Notes           *string
	StartingBalance decimal.Decimal
}

// CreateAccount creates a new account owned by the given user
func (s *AccountService) CreateAccount(ownerID int32, input CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxAccountNameLength {
		return nil, domain.ErrNameTooLong
	}

	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	return s.accountRepo.Create(&domain.Account{
		OwnerID:         ownerID,
		Name:            name,
		Currency:        currency,
		Description:     input.Description,
		Notes:           input.Notes,
		StartingBalance: input.StartingBalance,
	})
}

// GetAccounts retrieves accounts the user owns or is authorized to view
func (s *AccountService) GetAccounts(userID int32) ([]*domain.Account, error) {
	return s.accountRepo.GetAllForUser(userID)
}

// GetAccount retrieves a single account the user may view.
// Non-viewable accounts surface as not found, matching the list behavior.
func (s *AccountService) GetAccount(userID, accountID int32) (*domain.Account, error) {
	ok, err := s.accountRepo.CanView(userID, accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.accountRepo.GetByID(accountID)
}

// UpdateAccount applies a partial update; only the owner may edit
func (s *AccountService) UpdateAccount(userID, accountID int32, update *domain.AccountUpdate) (*domain.Account, error) {
	owner, err := s.accountRepo.IsOwner(userID, accountID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, domain.ErrForbidden
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxAccountNameLength {
			return nil, domain.ErrNameTooLong
		}
		update.Name = &name
	}

	return s.accountRepo.Update(accountID, update)
}

// DeleteAccount removes the account and its transactions; only the owner may delete
func (s *AccountService) DeleteAccount(userID, accountID int32) error {
	owner, err := s.accountRepo.IsOwner(userID, accountID)
	if err != nil {
		return err
	}
	if !owner {
		return domain.ErrForbidden
	}
	return s.accountRepo.Delete(accountID)
}

// CanView reports whether the user may view the account
func (s *AccountService) CanView(userID, accountID int32) (bool, error) {
	return s.accountRepo.CanView(userID, accountID)
}

// IsOwner reports whether the user owns the account
func (s *AccountService) IsOwner(userID, accountID int32) (bool, error) {
	return s.accountRepo.IsOwner(userID, accountID)
}

// AuthorizeUser grants another user view access; only the owner may share
func (s *AccountService) AuthorizeUser(ownerID, accountID, userID int32) error {
	owner, err := s.accountRepo.IsOwner(ownerID, accountID)
	if err != nil {
		return err
	}
	if !owner {
		return domain.ErrForbidden
	}
	return s.accountRepo.AuthorizeUser(accountID, userID)
}

// RevokeUser removes another user's view access; only the owner may revoke
func (s *AccountService) RevokeUser(ownerID, accountID, userID int32) error {
	owner, err := s.accountRepo.IsOwner(ownerID, accountID)
	if err != nil {
		return err
	}
	if !owner {
		return domain.ErrForbidden
	}
	return s.accountRepo.RevokeUser(accountID, userID)
}
