package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/testutil"
	"github.com/shopspring/decimal"
)

func newImportFixture() (*testutil.MockTransactionRepository, *testutil.MockAccountRepository, *testutil.MockArchiveRepository, *testutil.MockPublisher, *ImportService) {
	transactionRepo := testutil.NewMockTransactionRepository()
	accountRepo := testutil.NewMockAccountRepository()
	archiveRepo := testutil.NewMockArchiveRepository()
	publisher := &testutil.MockPublisher{}
	importService := NewImportService(transactionRepo, accountRepo, archiveRepo, publisher)
	return transactionRepo, accountRepo, archiveRepo, publisher, importService
}

func TestImportCSV_Success(t *testing.T) {
	transactionRepo, accountRepo, archiveRepo, publisher, importService := newImportFixture()
	accountRepo.AddAccount(&domain.Account{OwnerID: 1, Name: "Checking"})

	csvData := strings.Join([]string{
		"Date,Amount,Description,Category",
		"2026-01-05,\"$1,200.00\",Paycheck,Salary",
		"01/07/2026,(45.50),Groceries,",
		"2026-01-08,-12.00,Coffee,Eating Out",
	}, "\n")

	result, err := importService.ImportCSV(context.Background(), 1, 1, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Created != 3 {
		t.Errorf("Expected 3 created, got %d", result.Created)
	}
	if result.Skipped != 1 {
		t.Errorf("Expected the header row to be skipped, got %d", result.Skipped)
	}

	transactions, err := transactionRepo.GetByAccount(1, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(transactions))
	}

	paycheck := transactions[0]
	if !paycheck.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected amount 1200, got %s", paycheck.Amount.String())
	}
	if paycheck.Type != domain.TransactionTypeIncome {
		t.Errorf("Expected positive amount to import as income, got %s", paycheck.Type)
	}
	if !paycheck.Date.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected date 2026-01-05, got %v", paycheck.Date)
	}

	groceries := transactions[1]
	if !groceries.Amount.Equal(decimal.NewFromFloat(-45.50)) {
		t.Errorf("Expected parenthesized amount to be negative, got %s", groceries.Amount.String())
	}
	if groceries.Type != domain.TransactionTypeExpense {
		t.Errorf("Expected negative amount to import as expense, got %s", groceries.Type)
	}
	if !groceries.Date.Equal(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected US-format date 01/07/2026, got %v", groceries.Date)
	}

	// Raw file is archived under the batch ID
	if result.ArchivePath == "" {
		t.Error("Expected an archive path")
	}
	if _, ok := archiveRepo.Uploads[result.ArchivePath]; !ok {
		t.Errorf("Expected archive upload at %s", result.ArchivePath)
	}

	types := publisher.EventTypes()
	if len(types) != 1 || types[0] != "transaction.imported" {
		t.Errorf("Expected a transaction.imported event, got %v", types)
	}
}

func TestImportCSV_SuggestsMissingCategories(t *testing.T) {
	transactionRepo, accountRepo, _, _, importService := newImportFixture()
	accountRepo.AddAccount(&domain.Account{OwnerID: 1, Name: "Checking"})
	transactionRepo.OwnerByAccount[1] = 1

	// History: "Groceries" was categorized before
	description := "Groceries"
	category := "Food"
	transactionRepo.AddTransaction(&domain.Transaction{
		AccountID:   1,
		Amount:      decimal.NewFromInt(-30),
		Type:        domain.TransactionTypeExpense,
		Description: &description,
		Category:    &category,
		Date:        time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	})

	csvData := "2026-01-07,-45.50,groceries,\n"
	result, err := importService.ImportCSV(context.Background(), 1, 1, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("Expected 1 created, got %d", result.Created)
	}

	row := result.Rows[0]
	if !row.CategorySuggested {
		t.Error("Expected the category to be marked as suggested")
	}
	if row.Category == nil || *row.Category != "Food" {
		t.Errorf("Expected suggested category 'Food', got %v", row.Category)
	}

	transactions, _ := transactionRepo.GetByAccount(1, true)
	imported := transactions[len(transactions)-1]
	if imported.Category == nil || *imported.Category != "Food" {
		t.Errorf("Expected imported transaction to carry 'Food', got %v", imported.Category)
	}
}

func TestImportCSV_SkipsBadRows(t *testing.T) {
	_, accountRepo, _, _, importService := newImportFixture()
	accountRepo.AddAccount(&domain.Account{OwnerID: 1, Name: "Checking"})

	csvData := strings.Join([]string{
		"2026-01-05,not-a-number,Mystery,",
		"bad-date,12.00,Shop,",
		"2026-01-06,12.00,Shop,",
	}, "\n")

	result, err := importService.ImportCSV(context.Background(), 1, 1, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Created != 1 {
		t.Errorf("Expected 1 created, got %d", result.Created)
	}
	if result.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", result.Skipped)
	}
	if result.Rows[0].Reason != "missing or unparseable amount" {
		t.Errorf("Unexpected skip reason %q", result.Rows[0].Reason)
	}
	if result.Rows[1].Reason != "unrecognized date" {
		t.Errorf("Unexpected skip reason %q", result.Rows[1].Reason)
	}
}

func TestImportCSV_ForeignAccount(t *testing.T) {
	_, accountRepo, _, _, importService := newImportFixture()
	accountRepo.AddAccount(&domain.Account{OwnerID: 1, Name: "Checking"})

	_, err := importService.ImportCSV(context.Background(), 2, 1, strings.NewReader("2026-01-06,12.00,Shop,\n"))
	if err != domain.ErrAccountNotFound {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestImportCSV_ArchiveFailureDoesNotFailImport(t *testing.T) {
	transactionRepo, accountRepo, archiveRepo, _, importService := newImportFixture()
	accountRepo.AddAccount(&domain.Account{OwnerID: 1, Name: "Checking"})
	archiveRepo.Err = context.DeadlineExceeded

	result, err := importService.ImportCSV(context.Background(), 1, 1, strings.NewReader("2026-01-06,12.00,Shop,\n"))
	if err != nil {
		t.Fatalf("Expected import to succeed despite archive failure, got %v", err)
	}
	if result.Created != 1 {
		t.Errorf("Expected 1 created, got %d", result.Created)
	}
	if result.ArchivePath != "" {
		t.Errorf("Expected empty archive path on failure, got %s", result.ArchivePath)
	}

	transactions, _ := transactionRepo.GetByAccount(1, true)
	if len(transactions) != 1 {
		t.Errorf("Expected the transaction to exist, got %d", len(transactions))
	}
}

func TestSuggestCategories_FirstMatchWins(t *testing.T) {
	transactionRepo, _, _, _, importService := newImportFixture()
	transactionRepo.OwnerByAccount[1] = 1

	description := "Coffee"
	first := "Eating Out"
	second := "Treats"
	transactionRepo.AddTransaction(&domain.Transaction{AccountID: 1, Amount: decimal.NewFromInt(-4), Type: domain.TransactionTypeExpense, Description: &description, Category: &first, Date: time.Now()})
	transactionRepo.AddTransaction(&domain.Transaction{AccountID: 1, Amount: decimal.NewFromInt(-5), Type: domain.TransactionTypeExpense, Description: &description, Category: &second, Date: time.Now()})

	suggestions, err := importService.SuggestCategories(1, []string{"  COFFEE "})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if suggestions["coffee"] != "Eating Out" {
		t.Errorf("Expected the earliest category to win, got %q", suggestions["coffee"])
	}
}

func TestSuggestCategories_EmptyInput(t *testing.T) {
	_, _, _, _, importService := newImportFixture()

	suggestions, err := importService.SuggestCategories(1, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("Expected no suggestions, got %v", suggestions)
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want decimal.Decimal
	}{
		{"$1,234.56", decimal.NewFromFloat(1234.56)},
		{"(45.00)", decimal.NewFromInt(-45)},
		{"-12.50", decimal.NewFromFloat(-12.5)},
		{" 99 ", decimal.NewFromInt(99)},
		{"", decimal.Zero},
		{"abc", decimal.Zero},
		{"($20.00)", decimal.NewFromInt(-20)},
	}
	for _, c := range cases {
		if got := ParseMoney(c.in); !got.Equal(c.want) {
			t.Errorf("ParseMoney(%q) = %s, want %s", c.in, got.String(), c.want.String())
		}
	}
}

func TestParseCSVRows_HeaderAndBlankLines(t *testing.T) {
	raw := []byte("Date,Amount,Description\n\n2026-01-06,12.00,Shop\n")
	rows, results := parseCSVRows(raw)

	if len(rows) != 1 {
		t.Fatalf("Expected 1 accepted row, got %d", len(rows))
	}
	if rows[0].description != "Shop" {
		t.Errorf("Expected description 'Shop', got %q", rows[0].description)
	}

	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	if skipped != 1 {
		t.Errorf("Expected only the header to be skipped, got %d", skipped)
	}
}
