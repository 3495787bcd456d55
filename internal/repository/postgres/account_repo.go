package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, owner_id, name, currency, description, notes, starting_balance, created_at, updated_at`

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	startingBalance, err := decimalToPgNumeric(account.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid starting balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (owner_id, name, currency, description, notes, starting_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		account.OwnerID, account.Name, account.Currency, account.Description, account.Notes, startingBalance)

	return scanAccount(row)
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(id int32) (*domain.Account, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAllForUser retrieves accounts the user owns or is authorized to view
func (r *AccountRepository) GetAllForUser(userID int32) ([]*domain.Account, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		WHERE a.owner_id = $1
		   OR EXISTS (
			SELECT 1 FROM account_users au
			WHERE au.account_id = a.id AND au.user_id = $1
		   )
		ORDER BY a.id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Update applies a partial update; nil fields are left unchanged
func (r *AccountRepository) Update(id int32, update *domain.AccountUpdate) (*domain.Account, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name        = COALESCE($2, name),
		    currency    = COALESCE($3, currency),
		    description = COALESCE($4, description),
		    notes       = COALESCE($5, notes),
		    updated_at  = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, update.Name, update.Currency, update.Description, update.Notes)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// Delete removes the account, its transactions and authorized-user links atomically
func (r *AccountRepository) Delete(id int32) error {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM account_users WHERE account_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return tx.Commit(ctx)
}

// CanView reports whether the user owns the account or is authorized to view it
func (r *AccountRepository) CanView(userID, accountID int32) (bool, error) {
	ctx := context.Background()

	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM accounts a
			WHERE a.id = $2
			  AND (a.owner_id = $1 OR EXISTS (
				SELECT 1 FROM account_users au
				WHERE au.account_id = a.id AND au.user_id = $1
			  ))
		)`,
		userID, accountID).Scan(&ok)
	return ok, err
}

// IsOwner reports whether the user owns the account
func (r *AccountRepository) IsOwner(userID, accountID int32) (bool, error) {
	ctx := context.Background()

	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $2 AND owner_id = $1)`,
		userID, accountID).Scan(&ok)
	return ok, err
}

// AuthorizeUser grants view access to another user
func (r *AccountRepository) AuthorizeUser(accountID, userID int32) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_users (account_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		accountID, userID)
	return err
}

// RevokeUser removes a user's view access
func (r *AccountRepository) RevokeUser(accountID, userID int32) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		DELETE FROM account_users WHERE account_id = $1 AND user_id = $2`,
		accountID, userID)
	return err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account         domain.Account
		startingBalance pgtype.Numeric
	)
	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Name,
		&account.Currency,
		&account.Description,
		&account.Notes,
		&startingBalance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.StartingBalance = pgNumericToDecimal(startingBalance)
	return &account, nil
}

// Helper functions

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
