package service

import (
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/websocket"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	publisher       websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository, publisher websocket.EventPublisher) *TransactionService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		publisher:       publisher,
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	AccountID   int32
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Description *string
	Category    *string
	Date        *time.Time
}

// CreateTransaction creates a transaction on an account the user may view
func (s *TransactionService) CreateTransaction(userID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidType
	}

	ok, err := s.accountRepo.CanView(userID, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}

	created, err := s.transactionRepo.Create(&domain.Transaction{
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
		Category:    input.Category,
		Date:        date,
	})
	if err != nil {
		return nil, err
	}

	s.publishToOwner(input.AccountID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransaction retrieves a transaction the user may view
func (s *TransactionService) GetTransaction(userID, id int32) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.accountRepo.CanView(userID, transaction.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return transaction, nil
}

// GetByAccount lists an account's transactions, newest first
func (s *TransactionService) GetByAccount(userID, accountID int32) ([]*domain.Transaction, error) {
	ok, err := s.accountRepo.CanView(userID, accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.transactionRepo.GetByAccount(accountID, false)
}

// UpdateTransaction applies a partial update to a transaction the user may view
func (s *TransactionService) UpdateTransaction(userID, id int32, update *domain.TransactionUpdate) (*domain.Transaction, error) {
	if update.Type != nil && !update.Type.Valid() {
		return nil, domain.ErrInvalidType
	}

	existing, err := s.transactionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.accountRepo.CanView(userID, existing.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	updated, err := s.transactionRepo.Update(id, update)
	if err != nil {
		return nil, err
	}

	s.publishToOwner(updated.AccountID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction removes a transaction; only the account owner may delete
func (s *TransactionService) DeleteTransaction(userID, id int32) error {
	existing, err := s.transactionRepo.GetByID(id)
	if err != nil {
		return err
	}

	owner, err := s.accountRepo.IsOwner(userID, existing.AccountID)
	if err != nil {
		return err
	}
	if !owner {
		return domain.ErrForbidden
	}

	if err := s.transactionRepo.Delete(id); err != nil {
		return err
	}

	s.publishToOwner(existing.AccountID, websocket.TransactionDeleted(existing))
	return nil
}

// publishToOwner broadcasts an event to the account owner's connected clients
func (s *TransactionService) publishToOwner(accountID int32, event websocket.Event) {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return
	}
	s.publisher.Publish(account.OwnerID, event)
}
