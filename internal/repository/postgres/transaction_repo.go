package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, account_id, amount, type, description, category, date, created_at, updated_at`

// Create creates a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (account_id, amount, type, description, category, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+transactionColumns,
		transaction.AccountID, amount, string(transaction.Type),
		transaction.Description, transaction.Category, transaction.Date)

	return scanTransaction(row)
}

// CreateBatch inserts transactions in a single database transaction
func (r *TransactionRepository) CreateBatch(transactions []*domain.Transaction) ([]*domain.Transaction, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created := make([]*domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		amount, err := decimalToPgNumeric(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO transactions (account_id, amount, type, description, category, date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+transactionColumns,
			t.AccountID, amount, string(t.Type), t.Description, t.Category, t.Date)

		inserted, err := scanTransaction(row)
		if err != nil {
			return nil, err
		}
		created = append(created, inserted)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(id int32) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	transaction, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByAccount retrieves the account's transactions ordered by date
func (r *TransactionRepository) GetByAccount(accountID int32, ascending bool) ([]*domain.Transaction, error) {
	ctx := context.Background()

	order := "DESC"
	if ascending {
		order = "ASC"
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		ORDER BY date `+order+`, id `+order,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

// Update applies a partial update; nil fields are left unchanged
func (r *TransactionRepository) Update(id int32, update *domain.TransactionUpdate) (*domain.Transaction, error) {
	ctx := context.Background()

	var amount *pgtype.Numeric
	if update.Amount != nil {
		num, err := decimalToPgNumeric(*update.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		amount = &num
	}

	var txType *string
	if update.Type != nil {
		s := string(*update.Type)
		txType = &s
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET amount      = COALESCE($2, amount),
		    type        = COALESCE($3, type),
		    description = COALESCE($4, description),
		    category    = COALESCE($5, category),
		    date        = COALESCE($6, date),
		    updated_at  = now()
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, amount, txType, update.Description, update.Category, update.Date)

	transaction, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SuggestCategories returns description->category pairs from the user's
// categorized transactions whose descriptions match the given values
// case-insensitively. Earlier transactions win on duplicates.
func (r *TransactionRepository) SuggestCategories(userID int32, descriptions []string) ([]*domain.CategorySuggestion, error) {
	ctx := context.Background()

	if len(descriptions) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT t.description, t.category
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.owner_id = $1
		  AND t.category IS NOT NULL
		  AND t.description IS NOT NULL
		  AND lower(trim(t.description)) = ANY($2)
		ORDER BY t.id ASC`,
		userID, descriptions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []*domain.CategorySuggestion
	for rows.Next() {
		var s domain.CategorySuggestion
		if err := rows.Scan(&s.Description, &s.Category); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, &s)
	}
	return suggestions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		transaction domain.Transaction
		amount      pgtype.Numeric
		txType      string
	)
	err := row.Scan(
		&transaction.ID,
		&transaction.AccountID,
		&amount,
		&txType,
		&transaction.Description,
		&transaction.Category,
		&transaction.Date,
		&transaction.CreatedAt,
		&transaction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	transaction.Amount = pgNumericToDecimal(amount)
	transaction.Type = domain.TransactionType(txType)
	return &transaction, nil
}
