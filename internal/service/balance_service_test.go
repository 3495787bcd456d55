package service

import (
	"testing"
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(dateValue string, amount float64) *domain.Transaction {
	return &domain.Transaction{
		Amount: decimal.NewFromFloat(amount),
		Date:   date(dateValue),
	}
}

func typedTx(dateValue string, amount float64, txType domain.TransactionType) *domain.Transaction {
	t := tx(dateValue, amount)
	t.Type = txType
	return t
}

func TestBuildBalanceSummary_NoTransactions(t *testing.T) {
	summary := BuildBalanceSummary(decimal.NewFromInt(100), nil, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.ForecastBalance.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, summary.DailySeries)
	assert.NotNil(t, summary.DailySeries, "series should marshal as [], not null")
}

func TestBuildBalanceSummary_AllPastTransactions(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-08T10:00:00Z", 50),
		tx("2025-01-09T15:00:00Z", -20),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(100), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	// 100 + 50 - 20 = 130, and forecast equals current with no future txs
	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(130)))
	assert.True(t, summary.ForecastBalance.Equal(decimal.NewFromInt(130)))

	require.Len(t, summary.DailySeries, 2)
	assert.Equal(t, "2025-01-08", summary.DailySeries[0].Date)
	assert.True(t, summary.DailySeries[0].Balance.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "2025-01-09", summary.DailySeries[1].Date)
	assert.True(t, summary.DailySeries[1].Balance.Equal(decimal.NewFromInt(130)))
}

func TestBuildBalanceSummary_FutureTransactions(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-08T10:00:00Z", 100),
		tx("2025-01-12T10:00:00Z", -50),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(200), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	// Only the past transaction counts toward current
	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(300)))
	// Forecast includes both
	assert.True(t, summary.ForecastBalance.Equal(decimal.NewFromInt(250)))

	// The series still includes the future day
	require.Len(t, summary.DailySeries, 2)
	assert.Equal(t, "2025-01-08", summary.DailySeries[0].Date)
	assert.True(t, summary.DailySeries[0].Balance.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "2025-01-12", summary.DailySeries[1].Date)
	assert.True(t, summary.DailySeries[1].Balance.Equal(decimal.NewFromInt(250)))
}

func TestBuildBalanceSummary_ForecastMinusCurrentIsFutureSum(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-05T08:00:00Z", 40),
		tx("2025-01-10T23:59:00Z", 10),
		tx("2025-01-11T00:00:00Z", -25),
		tx("2025-01-20T12:00:00Z", 7),
	}

	summary := BuildBalanceSummary(decimal.Zero, txs, BalanceOptions{
		Today: date("2025-01-10T12:00:00Z"),
	})

	futureSum := decimal.NewFromInt(-25).Add(decimal.NewFromInt(7))
	assert.True(t, summary.ForecastBalance.Sub(summary.CurrentBalance).Equal(futureSum))
}

func TestBuildBalanceSummary_SameDayTransactionsSumIntoOnePoint(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-05T09:00:00Z", 50),
		tx("2025-01-05T18:00:00Z", 5),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(100), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	require.Len(t, summary.DailySeries, 1)
	assert.Equal(t, "2025-01-05", summary.DailySeries[0].Date)
	assert.True(t, summary.DailySeries[0].Balance.Equal(decimal.NewFromInt(155)))
}

func TestBuildBalanceSummary_SameDayThenNextDay(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-05T09:00:00Z", 10),
		tx("2025-01-05T18:00:00Z", 5),
		tx("2025-01-06T12:00:00Z", -3),
	}

	summary := BuildBalanceSummary(decimal.Zero, txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(12)))
	assert.True(t, summary.ForecastBalance.Equal(decimal.NewFromInt(12)))

	require.Len(t, summary.DailySeries, 2)
	assert.True(t, summary.DailySeries[0].Balance.Equal(decimal.NewFromInt(15)))
	assert.True(t, summary.DailySeries[1].Balance.Equal(decimal.NewFromInt(12)))
}

func TestBuildBalanceSummary_DayPointExcludesNextDayTransaction(t *testing.T) {
	// A day's point closes before the next day's first transaction is
	// applied, even when that transaction is large enough to dominate.
	txs := []*domain.Transaction{
		tx("2025-01-08T10:00:00Z", 50),
		tx("2025-01-09T00:00:01Z", -1000),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(100), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	require.Len(t, summary.DailySeries, 2)
	assert.True(t, summary.DailySeries[0].Balance.Equal(decimal.NewFromInt(150)),
		"first day closes at 150 before the next day's withdrawal")
	assert.True(t, summary.DailySeries[1].Balance.Equal(decimal.NewFromInt(-850)))
	assert.True(t, summary.ForecastBalance.Equal(summary.DailySeries[1].Balance))
}

func TestBuildBalanceSummary_IgnoreSeriesKeepsScalars(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-08T10:00:00Z", 50),
		tx("2025-01-09T10:00:00Z", 25),
		tx("2025-01-14T10:00:00Z", -5),
	}
	today := date("2025-01-10T00:00:00Z")

	full := BuildBalanceSummary(decimal.NewFromInt(100), txs, BalanceOptions{Today: today})
	scalars := BuildBalanceSummary(decimal.NewFromInt(100), txs, BalanceOptions{Today: today, IgnoreSeries: true})

	assert.True(t, scalars.CurrentBalance.Equal(full.CurrentBalance))
	assert.True(t, scalars.ForecastBalance.Equal(full.ForecastBalance))
	assert.True(t, scalars.CurrentBalance.Equal(decimal.NewFromInt(175)))
	assert.Empty(t, scalars.DailySeries)
	assert.Len(t, full.DailySeries, 3)
}

func TestBuildBalanceSummary_StringStartingBalance(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-09T10:00:00Z", 25),
	}

	summary := BuildBalanceSummary(domain.ParseAmount("200.50"), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromFloat(225.5)))
	assert.True(t, summary.ForecastBalance.Equal(decimal.NewFromFloat(225.5)))
}

func TestBuildBalanceSummary_TodayBoundary(t *testing.T) {
	txs := []*domain.Transaction{
		// Late on "today" still counts as current
		tx("2025-01-10T23:59:59Z", 10),
		// Midnight of tomorrow does not
		tx("2025-01-11T00:00:00Z", 100),
	}

	summary := BuildBalanceSummary(decimal.Zero, txs, BalanceOptions{
		Today: date("2025-01-10T08:00:00Z"),
	})

	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(10)))
	assert.True(t, summary.ForecastBalance.Equal(decimal.NewFromInt(110)))
}

func TestBuildBalanceSummary_Breakdown(t *testing.T) {
	txs := []*domain.Transaction{
		typedTx("2025-01-05T09:00:00Z", 100, domain.TransactionTypeIncome),
		typedTx("2025-01-05T12:00:00Z", -40, domain.TransactionTypeExpense),
		typedTx("2025-01-06T12:00:00Z", -10, domain.TransactionTypeExpense),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(20), txs, BalanceOptions{
		Today:         date("2025-01-10T00:00:00Z"),
		WithBreakdown: true,
	})

	require.Len(t, summary.DailySeries, 2)

	day1 := summary.DailySeries[0]
	require.NotNil(t, day1.Income)
	require.NotNil(t, day1.Expense)
	assert.True(t, day1.Income.Equal(decimal.NewFromInt(100)))
	assert.True(t, day1.Expense.Equal(decimal.NewFromInt(-40)), "expense keeps its natural sign")
	// Day balance = opening + income + expense
	assert.True(t, day1.Balance.Equal(decimal.NewFromInt(80)))

	day2 := summary.DailySeries[1]
	assert.True(t, day2.Income.Equal(decimal.Zero), "subtotals reset per day")
	assert.True(t, day2.Expense.Equal(decimal.NewFromInt(-10)))
	assert.True(t, day2.Balance.Equal(decimal.NewFromInt(70)))
}

func TestBuildBalanceSummary_BreakdownSignDecidesWhenUntagged(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-05T09:00:00Z", 30),
		tx("2025-01-05T10:00:00Z", -12),
	}

	summary := BuildBalanceSummary(decimal.Zero, txs, BalanceOptions{
		Today:         date("2025-01-10T00:00:00Z"),
		WithBreakdown: true,
	})

	require.Len(t, summary.DailySeries, 1)
	assert.True(t, summary.DailySeries[0].Income.Equal(decimal.NewFromInt(30)))
	assert.True(t, summary.DailySeries[0].Expense.Equal(decimal.NewFromInt(-12)))
}

func TestBuildBalanceSummary_TagDisagreesWithSign(t *testing.T) {
	// Tagged income but negative: the sign drives the balance, the tag only
	// picks the breakdown bucket.
	txs := []*domain.Transaction{
		typedTx("2025-01-05T09:00:00Z", -15, domain.TransactionTypeIncome),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(50), txs, BalanceOptions{
		Today:         date("2025-01-10T00:00:00Z"),
		WithBreakdown: true,
	})

	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(35)))
	require.Len(t, summary.DailySeries, 1)
	assert.True(t, summary.DailySeries[0].Income.Equal(decimal.NewFromInt(-15)))
	assert.True(t, summary.DailySeries[0].Expense.Equal(decimal.Zero))
	assert.True(t, summary.DailySeries[0].Balance.Equal(decimal.NewFromInt(35)))
}

func TestBuildBalanceSummary_DayKeyUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2025-01-05 23:30 UTC is already 2025-01-06 in UTC+10
	late := time.Date(2025, 1, 6, 9, 30, 0, 0, loc)

	summary := BuildBalanceSummary(decimal.Zero, []*domain.Transaction{
		{Amount: decimal.NewFromInt(5), Date: late},
	}, BalanceOptions{Today: date("2025-01-10T00:00:00Z")})

	require.Len(t, summary.DailySeries, 1)
	assert.Equal(t, "2025-01-06", summary.DailySeries[0].Date)
}

func TestBuildBalanceSummary_NilTransactionSkipped(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-08T10:00:00Z", 50),
		nil,
		tx("2025-01-09T10:00:00Z", -20),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(100), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	assert.True(t, summary.CurrentBalance.Equal(decimal.NewFromInt(130)))
	assert.Len(t, summary.DailySeries, 2)
}

func TestBuildBalanceSummary_ForecastMatchesLastSeriesPoint(t *testing.T) {
	txs := []*domain.Transaction{
		tx("2025-01-02T10:00:00Z", 11),
		tx("2025-01-03T10:00:00Z", -4),
		tx("2025-02-01T10:00:00Z", 2),
	}

	summary := BuildBalanceSummary(decimal.NewFromInt(7), txs, BalanceOptions{
		Today: date("2025-01-10T00:00:00Z"),
	})

	require.NotEmpty(t, summary.DailySeries)
	last := summary.DailySeries[len(summary.DailySeries)-1]
	assert.True(t, summary.ForecastBalance.Equal(last.Balance))
}

func TestParseAmount(t *testing.T) {
	assert.True(t, domain.ParseAmount("200.50").Equal(decimal.NewFromFloat(200.5)))
	assert.True(t, domain.ParseAmount(" -3.25 ").Equal(decimal.NewFromFloat(-3.25)))
	assert.True(t, domain.ParseAmount("").IsZero())
	assert.True(t, domain.ParseAmount("not a number").IsZero())
}
