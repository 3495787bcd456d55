package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/repository/storage"
	"github.com/cohenoa33/cashflow/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ImportService imports transactions from uploaded bank CSV files
type ImportService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	archiveRepo     storage.ArchiveRepository
	publisher       websocket.EventPublisher
}

// NewImportService creates a new ImportService
func NewImportService(transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository, archiveRepo storage.ArchiveRepository, publisher websocket.EventPublisher) *ImportService {
	if archiveRepo == nil {
		archiveRepo = &storage.NoOpArchiveRepository{}
	}
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &ImportService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		archiveRepo:     archiveRepo,
		publisher:       publisher,
	}
}

// ImportRowResult describes the outcome for a single CSV line
type ImportRowResult struct {
	Line              int     `json:"line"`
	Description       string  `json:"description,omitempty"`
	Category          *string `json:"category,omitempty"`
	CategorySuggested bool    `json:"categorySuggested,omitempty"`
	Skipped           bool    `json:"skipped,omitempty"`
	Reason            string  `json:"reason,omitempty"`
}

// ImportResult summarizes a completed CSV import
type ImportResult struct {
	BatchID     uuid.UUID         `json:"batchId"`
	AccountID   int32             `json:"accountId"`
	Created     int               `json:"created"`
	Skipped     int               `json:"skipped"`
	ArchivePath string            `json:"archivePath,omitempty"`
	Rows        []ImportRowResult `json:"rows"`
}

// importedRow is a parsed, accepted CSV row awaiting insertion
type importedRow struct {
	line        int
	date        time.Time
	amount      decimal.Decimal
	description string
	category    *string
}

// ImportCSV parses the uploaded file (columns: date, amount, description,
// category) and creates a transaction per valid row on the given account.
// Rows without a category get one suggested from the user's history. The raw
// file is archived to object storage keyed by the batch ID; archive failures
// are logged but do not fail the import.
func (s *ImportService) ImportCSV(ctx context.Context, userID, accountID int32, file io.Reader) (*ImportResult, error) {
	ok, err := s.accountRepo.CanView(userID, accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	rows, rowResults := parseCSVRows(raw)

	// Suggest categories for rows that arrived without one
	s.fillSuggestedCategories(userID, rows, rowResults)

	batch := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txType := domain.TransactionTypeIncome
		if row.amount.IsNegative() {
			txType = domain.TransactionTypeExpense
		}
		description := row.description
		batch = append(batch, &domain.Transaction{
			AccountID:   accountID,
			Amount:      row.amount,
			Type:        txType,
			Description: &description,
			Category:    row.category,
			Date:        row.date,
		})
	}

	created, err := s.transactionRepo.CreateBatch(batch)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		BatchID:   uuid.New(),
		AccountID: accountID,
		Created:   len(created),
		Rows:      rowResults,
	}
	for _, r := range rowResults {
		if r.Skipped {
			result.Skipped++
		}
	}

	archivePath := fmt.Sprintf("imports/%d/%s.csv", userID, result.BatchID)
	if _, err := s.archiveRepo.Upload(ctx, archivePath, bytes.NewReader(raw), "text/csv", int64(len(raw))); err != nil {
		log.Warn().Err(err).Str("path", archivePath).Msg("Failed to archive import file")
	} else {
		result.ArchivePath = archivePath
	}

	if account, err := s.accountRepo.GetByID(accountID); err == nil {
		s.publisher.Publish(account.OwnerID, websocket.TransactionsImported(result))
	}

	log.Info().
		Int32("user_id", userID).
		Int32("account_id", accountID).
		Str("batch_id", result.BatchID.String()).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("CSV import complete")

	return result, nil
}

// SuggestCategories maps normalized descriptions to categories from the
// user's categorized transactions. First match wins.
func (s *ImportService) SuggestCategories(userID int32, descriptions []string) (map[string]string, error) {
	normalized := normalizeDescriptions(descriptions)
	if len(normalized) == 0 {
		return map[string]string{}, nil
	}

	matches, err := s.transactionRepo.SuggestCategories(userID, normalized)
	if err != nil {
		return nil, err
	}

	suggestions := make(map[string]string)
	for _, m := range matches {
		key := strings.ToLower(strings.TrimSpace(m.Description))
		if key == "" || m.Category == "" {
			continue
		}
		if _, exists := suggestions[key]; !exists {
			suggestions[key] = m.Category
		}
	}
	return suggestions, nil
}

func (s *ImportService) fillSuggestedCategories(userID int32, rows []*importedRow, rowResults []ImportRowResult) {
	var missing []string
	for _, row := range rows {
		if row.category == nil {
			missing = append(missing, row.description)
		}
	}
	if len(missing) == 0 {
		return
	}

	suggestions, err := s.SuggestCategories(userID, missing)
	if err != nil {
		log.Warn().Err(err).Int32("user_id", userID).Msg("Category suggestion lookup failed")
		return
	}

	byLine := make(map[int]*ImportRowResult, len(rowResults))
	for i := range rowResults {
		byLine[rowResults[i].Line] = &rowResults[i]
	}

	for _, row := range rows {
		if row.category != nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row.description))
		if category, ok := suggestions[key]; ok {
			c := category
			row.category = &c
			if r := byLine[row.line]; r != nil {
				r.Category = &c
				r.CategorySuggested = true
			}
		}
	}
}

// parseCSVRows maps raw CSV bytes to accepted rows plus a per-line report.
// Expected columns: date, amount, description, category (optional).
func parseCSVRows(raw []byte) ([]*importedRow, []ImportRowResult) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []*importedRow
	var results []ImportRowResult

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			results = append(results, ImportRowResult{Line: line, Skipped: true, Reason: "malformed row"})
			continue
		}
		if len(record) == 0 {
			continue
		}

		dateRaw := field(record, 0)
		amountRaw := field(record, 1)
		description := field(record, 2)

		amount := ParseMoney(amountRaw)
		if amount.IsZero() {
			// Empty lines, headers and unparseable amounts all land here
			results = append(results, ImportRowResult{Line: line, Description: description, Skipped: true, Reason: "missing or unparseable amount"})
			continue
		}

		date, ok := parseImportDate(dateRaw)
		if !ok {
			results = append(results, ImportRowResult{Line: line, Description: description, Skipped: true, Reason: "unrecognized date"})
			continue
		}

		row := &importedRow{
			line:        line,
			date:        date,
			amount:      amount,
			description: description,
		}
		if category := field(record, 3); category != "" {
			row.category = &category
		}

		rows = append(rows, row)
		results = append(results, ImportRowResult{Line: line, Description: description, Category: row.category})
	}

	return rows, results
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ParseMoney coerces bank-export money strings to a decimal: "$1,234.56",
// "(45.00)" (negative), plain numbers. Unparseable input yields zero.
func ParseMoney(s string) decimal.Decimal {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero
	}

	negative := strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")")

	cleaned := strings.NewReplacer("$", "", "(", "", ")", "", ",", "").Replace(trimmed)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}

// importDateFormats are accepted in order; bank exports commonly use the
// US-style slash format.
var importDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
}

func parseImportDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range importDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeDescriptions(descriptions []string) []string {
	seen := make(map[string]bool, len(descriptions))
	var normalized []string
	for _, d := range descriptions {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		normalized = append(normalized, d)
	}
	return normalized
}
