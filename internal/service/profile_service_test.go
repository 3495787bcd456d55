package service

import (
	"errors"
	"testing"

	"github.com/cohenoa33/cashflow/internal/domain"
	"github.com/cohenoa33/cashflow/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func addUser(t *testing.T, userRepo *testutil.MockUserRepository, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	user := &domain.User{Email: email, PasswordHash: string(hash)}
	userRepo.AddUser(user)
	return user
}

func TestGetProfile_Success(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)

	got, err := profileService.GetProfile(user.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", got.Email)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	_, err := profileService.GetProfile(42)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfile_BuildsDisplayName(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)

	first := "alice"
	last := "SMITH"
	updated, err := profileService.UpdateProfile(user.ID, &first, &last)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.Name == nil || *updated.Name != "Alice Smith" {
		t.Errorf("Expected display name 'Alice Smith', got %v", updated.Name)
	}
}

func TestUpdateProfile_PartialKeepsOtherField(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)
	existingLast := "Smith"
	user.LastName = &existingLast

	first := "alice"
	updated, err := profileService.UpdateProfile(user.ID, &first, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.LastName == nil || *updated.LastName != "Smith" {
		t.Errorf("Expected last name to survive, got %v", updated.LastName)
	}
	if updated.Name == nil || *updated.Name != "Alice Smith" {
		t.Errorf("Expected display name 'Alice Smith', got %v", updated.Name)
	}
}

func TestUpdateProfile_NoFields(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)

	_, err := profileService.UpdateProfile(user.ID, nil, nil)
	if !errors.Is(err, domain.ErrNoFields) {
		t.Errorf("Expected ErrNoFields, got %v", err)
	}
}

func TestChangePassword_Success(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)

	newPassword := "N3w!password"
	if err := profileService.ChangePassword(user.ID, goodPassword, newPassword); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)); err != nil {
		t.Errorf("Expected new password to match stored hash, got %v", err)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)

	err := profileService.ChangePassword(user.ID, "Wrong0ne!", "N3w!password")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	profileService := NewProfileService(userRepo)

	user := addUser(t, userRepo, "alice@example.com", goodPassword)

	err := profileService.ChangePassword(user.ID, goodPassword, "weak")
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}
}

func TestMakeFullName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"alice", "smith", "Alice Smith"},
		{"ALICE", "", "Alice"},
		{"", "smith", "Smith"},
		{"", "", ""},
		{"  alice  ", " smith ", "Alice Smith"},
	}
	for _, c := range cases {
		if got := makeFullName(c.first, c.last); got != c.want {
			t.Errorf("makeFullName(%q, %q) = %q, want %q", c.first, c.last, got, c.want)
		}
	}
}
