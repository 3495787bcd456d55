package service

import (
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/shopspring/decimal"
)

// BalanceOptions controls how a balance summary is built.
type BalanceOptions struct {
	// Today is the reference date separating current from future
	// transactions. The zero value means the wall clock; tests inject a
	// fixed date for determinism.
	Today time.Time

	// IgnoreSeries skips building the daily series. The scalar balances are
	// computed identically either way.
	IgnoreSeries bool

	// WithBreakdown adds per-day income/expense subtotals to the series.
	WithBreakdown bool
}

// BuildBalanceSummary folds a starting balance and a list of transactions into
// a BalanceSummary.
//
// Transactions are processed in input order; callers supply them ordered by
// date ascending. A transaction counts toward CurrentBalance iff it is dated
// before the start of the day after Today, i.e. on Today or any earlier day.
// The daily series carries the cumulative running balance as of each day's
// last transaction, future days included.
func BuildBalanceSummary(startingBalance decimal.Decimal, transactions []*domain.Transaction, opts BalanceOptions) *domain.BalanceSummary {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	cutoff := startOfNextDay(today)

	current := startingBalance
	running := startingBalance
	series := []domain.DailyBalancePoint{}

	var (
		dayKey     string
		dayIncome  decimal.Decimal
		dayExpense decimal.Decimal
		haveDay    bool
	)

	flushDay := func() {
		point := domain.DailyBalancePoint{
			Date:    dayKey,
			Balance: running,
		}
		if opts.WithBreakdown {
			income, expense := dayIncome, dayExpense
			point.Income = &income
			point.Expense = &expense
		}
		series = append(series, point)
		dayIncome = decimal.Zero
		dayExpense = decimal.Zero
	}

	for _, tx := range transactions {
		if tx == nil {
			continue
		}

		// Flush the previous day before this transaction touches the running
		// total, so the point carries that day's closing balance.
		if !opts.IgnoreSeries {
			key := calendarDayKey(tx.Date)
			if haveDay && key != dayKey {
				flushDay()
			}
			dayKey = key
			haveDay = true
		}

		if tx.Date.Before(cutoff) {
			current = current.Add(tx.Amount)
		}
		running = running.Add(tx.Amount)

		if !opts.IgnoreSeries && opts.WithBreakdown {
			if isIncome(tx) {
				dayIncome = dayIncome.Add(tx.Amount)
			} else {
				dayExpense = dayExpense.Add(tx.Amount)
			}
		}
	}

	if haveDay && !opts.IgnoreSeries {
		flushDay()
	}

	return &domain.BalanceSummary{
		CurrentBalance:  current,
		ForecastBalance: running,
		DailySeries:     series,
	}
}

// isIncome buckets a transaction for the per-day breakdown. The type tag wins
// when present; otherwise the amount's sign decides. Balance arithmetic always
// follows the signed amount, so a disagreeing tag only moves the subtotal, not
// the balance.
func isIncome(tx *domain.Transaction) bool {
	switch tx.Type {
	case domain.TransactionTypeIncome:
		return true
	case domain.TransactionTypeExpense:
		return false
	}
	return !tx.Amount.IsNegative()
}

// startOfNextDay returns midnight of the day after t, in t's location.
func startOfNextDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
}

// calendarDayKey derives the YYYY-MM-DD key from the value's own local
// calendar-day components, not a UTC slice.
func calendarDayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// BalanceService computes balance summaries for stored accounts
type BalanceService struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository) *BalanceService {
	return &BalanceService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// SummaryForAccount loads the account's starting balance and its transactions
// in date-ascending order and folds them into a summary.
func (s *BalanceService) SummaryForAccount(accountID int32, opts BalanceOptions) (*domain.BalanceSummary, error) {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.GetByAccount(accountID, true)
	if err != nil {
		return nil, err
	}

	return BuildBalanceSummary(account.StartingBalance, transactions, opts), nil
}
