package handler

import (
	"errors"
	"net/http"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/middleware"
	"github.com/cohenoa33/cashflow/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// maxImportFileSize caps uploaded CSV files at 5 MB
const maxImportFileSize = 5 << 20

// ImportHandler handles CSV import HTTP requests
type ImportHandler struct {
	importService *service.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// SuggestCategoriesRequest represents the suggest categories request body
type SuggestCategoriesRequest struct {
	Descriptions []string `json:"descriptions"`
}

// ImportCSV handles POST /api/v1/accounts/:id/import
func (h *ImportHandler) ImportCSV(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accountID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "A CSV file is required", []ValidationError{
			{Field: "file", Message: "Upload a file under the 'file' form field"},
		})
	}
	if fileHeader.Size > maxImportFileSize {
		return NewValidationError(c, "File too large", []ValidationError{
			{Field: "file", Message: "File must be 5 MB or less"},
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	result, err := h.importService.ImportCSV(c.Request().Context(), userID, accountID, file)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account not found")
		}
		log.Error().Err(err).Int32("account_id", accountID).Msg("CSV import failed")
		return NewInternalError(c, "Import failed")
	}

	return c.JSON(http.StatusCreated, result)
}

// SuggestCategories handles POST /api/v1/transactions/suggest-categories
func (h *ImportHandler) SuggestCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req SuggestCategoriesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if len(req.Descriptions) == 0 {
		return c.JSON(http.StatusOK, map[string]string{})
	}

	suggestions, err := h.importService.SuggestCategories(userID, req.Descriptions)
	if err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to suggest categories")
		return NewInternalError(c, "Failed to suggest categories")
	}

	return c.JSON(http.StatusOK, suggestions)
}
