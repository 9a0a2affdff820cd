package auth

import (
	"testing"

	"github.com/staffdesk/staffdesk/internal/db/models"
)

func TestUpsert_CreatesUserOnFirstLogin(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	user, err := resolver.Upsert(models.ProviderMicrosoft, NormalizedClaims{
		Subject:   "abc-123",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Miller",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if user.ID != "microsoft_abc-123" {
		t.Fatalf("expected provider-prefixed id, got %q", user.ID)
	}

	if user.IsAdmin {
		t.Fatal("new users must never be created as admin")
	}

	if user.EmailString() != "jane@example.com" {
		t.Fatalf("expected email to be stored, got %q", user.EmailString())
	}
}

func TestUpsert_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	claims := NormalizedClaims{
		Subject:   "sub-1",
		Email:     "kay@example.com",
		FirstName: "Kay",
	}

	first, err := resolver.Upsert(models.ProviderReplit, claims)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second, err := resolver.Upsert(models.ProviderReplit, claims)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same user on repeat login, got %q and %q", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)

	if count != 1 {
		t.Fatalf("expected exactly one user row, got %d", count)
	}
}

func TestUpsert_FindsExistingAccountByEmail(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	// account created by an earlier direct login
	email := "lee@example.com"
	existing := models.User{
		ID:           "direct_lee_1700000000",
		Email:        &email,
		FirstName:    "Lee",
		AuthProvider: models.ProviderDirect,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("failed to create existing user: %v", err)
	}

	user, err := resolver.Upsert(models.ProviderMicrosoft, NormalizedClaims{
		Subject: "ms-sub-lee",
		Email:   "lee@example.com",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if user.ID != existing.ID {
		t.Fatalf("expected the existing account to be reused, got %q", user.ID)
	}
}

func TestUpsert_NeverEscalatesAdmin(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	email := "root@example.com"
	admin := models.User{
		ID:           "microsoft_admin-sub",
		Email:        &email,
		AuthProvider: models.ProviderMicrosoft,
		IsAdmin:      true,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	// a repeat login keeps the flag as is
	user, err := resolver.Upsert(models.ProviderMicrosoft, NormalizedClaims{
		Subject: "admin-sub",
		Email:   "root@example.com",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if !user.IsAdmin {
		t.Fatal("existing admin flag must survive a login")
	}

	// a fresh account from claims never gets the flag
	fresh, err := resolver.Upsert(models.ProviderMicrosoft, NormalizedClaims{
		Subject: "other-sub",
		Email:   "other@example.com",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if fresh.IsAdmin {
		t.Fatal("a login callback must not create admins")
	}
}

func TestUpsert_LinksEmployeeByEmailAndSyncsProfile(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	employee := models.Employee{
		FirstName: "Maria",
		LastName:  "Nguyen",
		Email:     "maria@example.com",
		Position:  "Engineer",
		Status:    models.StatusActive,
	}
	if err := db.Create(&employee).Error; err != nil {
		t.Fatalf("failed to create employee: %v", err)
	}

	// the provider reports a stale name; the employee record wins
	user, err := resolver.Upsert(models.ProviderReplit, NormalizedClaims{
		Subject:   "maria-sub",
		Email:     "maria@example.com",
		FirstName: "M.",
		LastName:  "N.",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if user.EmployeeID == nil || *user.EmployeeID != employee.ID {
		t.Fatalf("expected user linked to employee %d, got %v", employee.ID, user.EmployeeID)
	}

	if user.FirstName != "Maria" || user.LastName != "Nguyen" {
		t.Fatalf("expected profile synced from employee, got %q %q", user.FirstName, user.LastName)
	}
}

func TestUpsert_ClearsStaleEmployeeLink(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	gone := uint64(4242)
	email := "nils@example.com"
	user := models.User{
		ID:           "replit_nils-sub",
		Email:        &email,
		AuthProvider: models.ProviderReplit,
		EmployeeID:   &gone,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	updated, err := resolver.Upsert(models.ProviderReplit, NormalizedClaims{
		Subject: "nils-sub",
		Email:   "nils@example.com",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if updated.EmployeeID != nil {
		t.Fatalf("expected stale employee link to be cleared, got %v", *updated.EmployeeID)
	}
}
