package testutil

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/websocket"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users   map[int32]*domain.User
	ByEmail map[string]*domain.User
	NextID  int32
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:   make(map[int32]*domain.User),
		ByEmail: make(map[string]*domain.User),
		NextID:  1,
	}
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	if user.ID == 0 {
		user.ID = m.NextID
		m.NextID++
	} else if user.ID >= m.NextID {
		m.NextID = user.ID + 1
	}
	m.Users[user.ID] = user
	m.ByEmail[strings.ToLower(user.Email)] = user
}

// Create creates a new user
func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	if _, ok := m.ByEmail[strings.ToLower(user.Email)]; ok {
		return nil, domain.ErrEmailInUse
	}
	user.ID = m.NextID
	m.NextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.Users[user.ID] = user
	m.ByEmail[strings.ToLower(user.Email)] = user
	return user, nil
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id int32) (*domain.User, error) {
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(email string) (*domain.User, error) {
	if user, ok := m.ByEmail[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// UpdateProfile updates the user's name fields
func (m *MockUserRepository) UpdateProfile(id int32, firstName, lastName *string, name string) (*domain.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if firstName != nil {
		user.FirstName = firstName
	}
	if lastName != nil {
		user.LastName = lastName
	}
	user.Name = &name
	user.UpdatedAt = time.Now()
	return user, nil
}

// UpdatePassword replaces the user's password hash
func (m *MockUserRepository) UpdatePassword(id int32, passwordHash string) error {
	user, ok := m.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// SetResetToken stores a password reset token for the user
func (m *MockUserRepository) SetResetToken(id int32, token string, expiry time.Time) error {
	user, ok := m.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.ResetToken = &token
	user.ResetTokenExpiry = &expiry
	return nil
}

// GetByResetToken retrieves the user holding an unexpired reset token
func (m *MockUserRepository) GetByResetToken(token string) (*domain.User, error) {
	for _, user := range m.Users {
		if user.ResetToken != nil && *user.ResetToken == token {
			if user.ResetTokenExpiry == nil || user.ResetTokenExpiry.Before(time.Now()) {
				return nil, domain.ErrInvalidResetToken
			}
			return user, nil
		}
	}
	return nil, domain.ErrInvalidResetToken
}

// ResetPassword sets a new password hash and clears the reset token
func (m *MockUserRepository) ResetPassword(id int32, passwordHash string) error {
	user, ok := m.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	return nil
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts   map[int32]*domain.Account
	Authorized map[int32]map[int32]bool // accountID -> userID
	NextID     int32
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts:   make(map[int32]*domain.Account),
		Authorized: make(map[int32]map[int32]bool),
		NextID:     1,
	}
}

// AddAccount adds an account to the mock repository (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	if account.ID == 0 {
		account.ID = m.NextID
		m.NextID++
	} else if account.ID >= m.NextID {
		m.NextID = account.ID + 1
	}
	m.Accounts[account.ID] = account
}

// Create creates a new account
func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	account.ID = m.NextID
	m.NextID++
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.Accounts[account.ID] = account
	return account, nil
}

// GetByID retrieves an account by ID
func (m *MockAccountRepository) GetByID(id int32) (*domain.Account, error) {
	if account, ok := m.Accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

// GetAllForUser returns accounts the user owns or may view
func (m *MockAccountRepository) GetAllForUser(userID int32) ([]*domain.Account, error) {
	var accounts []*domain.Account
	for id := int32(1); id < m.NextID; id++ {
		account, ok := m.Accounts[id]
		if !ok {
			continue
		}
		if account.OwnerID == userID || m.Authorized[id][userID] {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Update applies a partial update to an account
func (m *MockAccountRepository) Update(id int32, update *domain.AccountUpdate) (*domain.Account, error) {
	account, ok := m.Accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if update.Name != nil {
		account.Name = *update.Name
	}
	if update.Currency != nil {
		account.Currency = *update.Currency
	}
	if update.Description != nil {
		account.Description = update.Description
	}
	if update.Notes != nil {
		account.Notes = update.Notes
	}
	account.UpdatedAt = time.Now()
	return account, nil
}

// Delete removes an account
func (m *MockAccountRepository) Delete(id int32) error {
	if _, ok := m.Accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(m.Accounts, id)
	delete(m.Authorized, id)
	return nil
}

// CanView reports whether the user owns the account or is authorized
func (m *MockAccountRepository) CanView(userID, accountID int32) (bool, error) {
	account, ok := m.Accounts[accountID]
	if !ok {
		return false, nil
	}
	return account.OwnerID == userID || m.Authorized[accountID][userID], nil
}

// IsOwner reports whether the user owns the account
func (m *MockAccountRepository) IsOwner(userID, accountID int32) (bool, error) {
	account, ok := m.Accounts[accountID]
	if !ok {
		return false, nil
	}
	return account.OwnerID == userID, nil
}

// AuthorizeUser grants view access to a user
func (m *MockAccountRepository) AuthorizeUser(accountID, userID int32) error {
	if m.Authorized[accountID] == nil {
		m.Authorized[accountID] = make(map[int32]bool)
	}
	m.Authorized[accountID][userID] = true
	return nil
}

// RevokeUser removes view access from a user
func (m *MockAccountRepository) RevokeUser(accountID, userID int32) error {
	delete(m.Authorized[accountID], userID)
	return nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	// OwnerByAccount links accounts to owners for SuggestCategories
	OwnerByAccount map[int32]int32
	NextID         int32
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions:   make(map[int32]*domain.Transaction),
		OwnerByAccount: make(map[int32]int32),
		NextID:         1,
	}
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	if transaction.ID == 0 {
		transaction.ID = m.NextID
		m.NextID++
	} else if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
	m.Transactions[transaction.ID] = transaction
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	transaction.ID = m.NextID
	m.NextID++
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// CreateBatch creates all transactions or none
func (m *MockTransactionRepository) CreateBatch(transactions []*domain.Transaction) ([]*domain.Transaction, error) {
	created := make([]*domain.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		t, err := m.Create(transaction)
		if err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	return created, nil
}

// GetByID retrieves a transaction by ID
func (m *MockTransactionRepository) GetByID(id int32) (*domain.Transaction, error) {
	if transaction, ok := m.Transactions[id]; ok {
		return transaction, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByAccount returns the account's transactions ordered by date
func (m *MockTransactionRepository) GetByAccount(accountID int32, ascending bool) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for id := int32(1); id < m.NextID; id++ {
		transaction, ok := m.Transactions[id]
		if !ok || transaction.AccountID != accountID {
			continue
		}
		result = append(result, transaction)
	}
	// insertion sort keeps equal dates in id order
	for i := 1; i < len(result); i++ {
		for j := i; j > 0; j-- {
			before := result[j].Date.Before(result[j-1].Date)
			if ascending && before || !ascending && result[j-1].Date.Before(result[j].Date) {
				result[j], result[j-1] = result[j-1], result[j]
			} else {
				break
			}
		}
	}
	return result, nil
}

// Update applies a partial update to a transaction
func (m *MockTransactionRepository) Update(id int32, update *domain.TransactionUpdate) (*domain.Transaction, error) {
	transaction, ok := m.Transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	if update.Amount != nil {
		transaction.Amount = *update.Amount
	}
	if update.Type != nil {
		transaction.Type = *update.Type
	}
	if update.Description != nil {
		transaction.Description = update.Description
	}
	if update.Category != nil {
		transaction.Category = update.Category
	}
	if update.Date != nil {
		transaction.Date = *update.Date
	}
	transaction.UpdatedAt = time.Now()
	return transaction, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(id int32) error {
	if _, ok := m.Transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// SuggestCategories matches the user's categorized history by normalized description
func (m *MockTransactionRepository) SuggestCategories(userID int32, descriptions []string) ([]*domain.CategorySuggestion, error) {
	wanted := make(map[string]bool, len(descriptions))
	for _, d := range descriptions {
		wanted[strings.ToLower(strings.TrimSpace(d))] = true
	}
	var suggestions []*domain.CategorySuggestion
	for id := int32(1); id < m.NextID; id++ {
		transaction, ok := m.Transactions[id]
		if !ok || transaction.Description == nil || transaction.Category == nil {
			continue
		}
		if m.OwnerByAccount[transaction.AccountID] != userID {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(*transaction.Description))
		if wanted[normalized] {
			suggestions = append(suggestions, &domain.CategorySuggestion{
				Description: normalized,
				Category:    *transaction.Category,
			})
		}
	}
	return suggestions, nil
}

// MockPublisher records published websocket events
type MockPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	UserID int32
	Event  websocket.Event
}

// Publish implements websocket.EventPublisher
func (m *MockPublisher) Publish(userID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{UserID: userID, Event: event})
}

// EventTypes returns the recorded event type strings in order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}

// MockMailer records password reset emails
type MockMailer struct {
	Sent []SentMail
	Err  error
}

// SentMail is one recorded SendPasswordReset call
type SentMail struct {
	To    string
	Token string
}

// SendPasswordReset implements service.Mailer
func (m *MockMailer) SendPasswordReset(to, token string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Token: token})
	return nil
}

// MockArchiveRepository records uploaded archives
type MockArchiveRepository struct {
	Uploads map[string][]byte
	Err     error
}

// NewMockArchiveRepository creates a new MockArchiveRepository
func NewMockArchiveRepository() *MockArchiveRepository {
	return &MockArchiveRepository{Uploads: make(map[string][]byte)}
}

// Upload implements storage.ArchiveRepository
func (m *MockArchiveRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Uploads[objectPath] = raw
	return objectPath, nil
}

// Delete implements storage.ArchiveRepository
func (m *MockArchiveRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Uploads, objectPath)
	return nil
}

// GeneratePresignedURL implements storage.ArchiveRepository
func (m *MockArchiveRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://example.com/" + objectPath, nil
}
