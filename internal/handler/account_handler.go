package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/middleware"
	"github.com/cohenoa33/cashflow/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	balanceService *service.BalanceService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, balanceService *service.BalanceService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		balanceService: balanceService,
	}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	Name        string  `json:"name"`
	Currency    string  `json:"currency,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	// Accepts a JSON number or a numeric string; anything else coerces to zero
	StartingBalance json.RawMessage `json:"startingBalance,omitempty"`
}

// UpdateAccountRequest represents the update account request body
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// AuthorizeUserRequest represents the authorize user request body
type AuthorizeUserRequest struct {
	UserID int32 `json:"userId"`
}

// DailyBalancePointResponse is one series entry in API responses
type DailyBalancePointResponse struct {
	Date    string  `json:"date"`
	Balance string  `json:"balance"`
	Income  *string `json:"income,omitempty"`
	Expense *string `json:"expense,omitempty"`
}

// AccountResponse represents an account with its balance summary
type AccountResponse struct {
	ID              int32                       `json:"id"`
	OwnerID         int32                       `json:"ownerId"`
	Name            string                      `json:"name"`
	Currency        string                      `json:"currency"`
	Description     *string                     `json:"description,omitempty"`
	Notes           *string                     `json:"notes,omitempty"`
	StartingBalance string                      `json:"startingBalance"`
	CurrentBalance  string                      `json:"currentBalance"`
	ForecastBalance string                      `json:"forecastBalance"`
	DailySeries     []DailyBalancePointResponse `json:"dailySeries"`
	CreatedAt       string                      `json:"createdAt"`
	UpdatedAt       string                      `json:"updatedAt"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Name == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	}

	input := service.CreateAccountInput{
		Name:            req.Name,
		Currency:        req.Currency,
		Description:     req.Description,
		Notes:           req.Notes,
		StartingBalance: domain.ParseAmount(strings.Trim(string(req.StartingBalance), `"`)),
	}

	account, err := h.accountService.CreateAccount(userID, input)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		}
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to create account")
		return NewInternalError(c, "Failed to create account")
	}

	log.Info().Int32("user_id", userID).Int32("account_id", account.ID).Str("name", account.Name).Msg("Account created")

	// A fresh account has no transactions: both balances equal the
	// starting balance and the series is empty.
	resp := toAccountResponse(account, &domain.BalanceSummary{
		CurrentBalance:  account.StartingBalance,
		ForecastBalance: account.StartingBalance,
		DailySeries:     []domain.DailyBalancePoint{},
	})
	return c.JSON(http.StatusCreated, resp)
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := h.accountService.GetAccounts(userID)
	if err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to get accounts")
		return NewInternalError(c, "Failed to get accounts")
	}

	// The overview only needs scalar balances; skip the series
	response := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		summary, err := h.balanceService.SummaryForAccount(account.ID, service.BalanceOptions{IgnoreSeries: true})
		if err != nil {
			log.Error().Err(err).Int32("account_id", account.ID).Msg("Failed to compute balance summary")
			return NewInternalError(c, "Failed to compute balances")
		}
		response = append(response, toAccountResponse(account, summary))
	}

	return c.JSON(http.StatusOK, response)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.GetAccount(userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to get account")
		return NewInternalError(c, "Failed to get account")
	}

	summary, err := h.balanceService.SummaryForAccount(account.ID, service.BalanceOptions{WithBreakdown: true})
	if err != nil {
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to compute balance summary")
		return NewInternalError(c, "Failed to compute balances")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account, summary))
}

// UpdateAccount handles PATCH /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := h.accountService.UpdateAccount(userID, id, &domain.AccountUpdate{
		Name:        req.Name,
		Currency:    req.Currency,
		Description: req.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return NewForbiddenError(c, "Only the owner can edit this account")
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		}
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to update account")
		return NewInternalError(c, "Failed to update account")
	}

	summary, err := h.balanceService.SummaryForAccount(account.ID, service.BalanceOptions{WithBreakdown: true})
	if err != nil {
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to compute balance summary")
		return NewInternalError(c, "Failed to compute balances")
	}

	log.Info().Int32("user_id", userID).Int32("account_id", account.ID).Msg("Account updated")
	return c.JSON(http.StatusOK, toAccountResponse(account, summary))
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.DeleteAccount(userID, id); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return NewForbiddenError(c, "Only the owner can delete this account")
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to delete account")
		return NewInternalError(c, "Failed to delete account")
	}

	log.Info().Int32("user_id", userID).Int32("account_id", id).Msg("Account deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetBalanceHistory handles GET /api/v1/accounts/:id/balance-history
func (h *AccountHandler) GetBalanceHistory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	ok, err := h.accountService.CanView(userID, id)
	if err != nil {
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to check account access")
		return NewInternalError(c, "Failed to get balance history")
	}
	if !ok {
		return NewNotFoundError(c, "Account not found")
	}

	summary, err := h.balanceService.SummaryForAccount(id, service.BalanceOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to compute balance history")
		return NewInternalError(c, "Failed to get balance history")
	}

	return c.JSON(http.StatusOK, toSeriesResponse(summary.DailySeries))
}

// AuthorizeUser handles POST /api/v1/accounts/:id/authorized-users
func (h *AccountHandler) AuthorizeUser(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req AuthorizeUserRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return NewValidationError(c, "userId required", nil)
	}

	if err := h.accountService.AuthorizeUser(userID, id, req.UserID); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return NewForbiddenError(c, "Only the owner can share this account")
		}
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to authorize user")
		return NewInternalError(c, "Failed to authorize user")
	}

	return c.NoContent(http.StatusNoContent)
}

// RevokeUser handles DELETE /api/v1/accounts/:id/authorized-users/:userId
func (h *AccountHandler) RevokeUser(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}
	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		return NewValidationError(c, "Invalid user ID", nil)
	}

	if err := h.accountService.RevokeUser(userID, id, targetID); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return NewForbiddenError(c, "Only the owner can share this account")
		}
		log.Error().Err(err).Int32("account_id", id).Msg("Failed to revoke user")
		return NewInternalError(c, "Failed to revoke user")
	}

	return c.NoContent(http.StatusNoContent)
}

func parseIDParam(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func toAccountResponse(account *domain.Account, summary *domain.BalanceSummary) AccountResponse {
	return AccountResponse{
		ID:              account.ID,
		OwnerID:         account.OwnerID,
		Name:            account.Name,
		Currency:        account.Currency,
		Description:     account.Description,
		Notes:           account.Notes,
		StartingBalance: account.StartingBalance.StringFixed(2),
		CurrentBalance:  summary.CurrentBalance.StringFixed(2),
		ForecastBalance: summary.ForecastBalance.StringFixed(2),
		DailySeries:     toSeriesResponse(summary.DailySeries),
		CreatedAt:       account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       account.UpdatedAt.Format(time.RFC3339),
	}
}

func toSeriesResponse(series []domain.DailyBalancePoint) []DailyBalancePointResponse {
	response := make([]DailyBalancePointResponse, len(series))
	for i, point := range series {
		entry := DailyBalancePointResponse{
			Date:    point.Date,
			Balance: point.Balance.StringFixed(2),
		}
		if point.Income != nil {
			income := point.Income.StringFixed(2)
			entry.Income = &income
		}
		if point.Expense != nil {
			expense := point.Expense.StringFixed(2)
			entry.Expense = &expense
		}
		response[i] = entry
	}
	return response
}
