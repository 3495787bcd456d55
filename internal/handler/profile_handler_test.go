package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/service"
	"github.com/cohenoa33/cashflow/internal/testutil"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func newProfileFixture(t *testing.T) (*domain.User, *ProfileHandler) {
	t.Helper()
	userRepo := testutil.NewMockUserRepository()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	user := &domain.User{Email: "alice@example.com", PasswordHash: string(hash)}
	userRepo.AddUser(user)
	return user, NewProfileHandler(service.NewProfileService(userRepo))
}

func TestGetProfileHandler_Success(t *testing.T) {
	e := echo.New()
	user, handler := newProfileFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setAuthContext(c, user.ID)

	if err := handler.GetProfile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response ProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", response.Email)
	}
}

func TestGetProfileHandler_Unauthenticated(t *testing.T) {
	e := echo.New()
	_, handler := newProfileFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetProfile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestUpdateProfileHandler_Success(t *testing.T) {
	e := echo.New()
	user, handler := newProfileFixture(t)

	reqBody := `{"firstName": "alice", "lastName": "smith"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/profile", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setAuthContext(c, user.ID)

	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response ProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name == nil || *response.Name != "Alice Smith" {
		t.Errorf("Expected display name 'Alice Smith', got %v", response.Name)
	}
}

func TestChangePasswordHandler_WrongCurrent(t *testing.T) {
	e := echo.New()
	user, handler := newProfileFixture(t)

	reqBody := `{"currentPassword": "Wrong0ne!", "newPassword": "N3w!password"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/password", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setAuthContext(c, user.ID)

	if err := handler.ChangePassword(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
