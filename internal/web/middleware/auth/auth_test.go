package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"gorm.io/gorm"

	coreauth "github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web/handler/msauth"
	"github.com/staffdesk/staffdesk/internal/web/handler/replitauth"
	"github.com/staffdesk/staffdesk/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.EmployeeRole{},
	)
	if err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func initSessionStore() {
	session.Init(&testStorage{data: make(map[string][]byte)})
}

func createUser(t *testing.T, db *gorm.DB, id string, isAdmin bool) *models.User {
	t.Helper()

	user := models.User{
		ID:           id,
		AuthProvider: models.ProviderDirect,
		IsAdmin:      isAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return &user
}

func writeSession(t *testing.T, data *session.Data) string {
	t.Helper()

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session id: %v", err)
	}

	if err := data.Write(sessionID, time.Minute); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	return sessionID
}

// resolveWith runs Resolve inside a live fiber handler, since fiber.Ctx
// cannot be constructed standalone.
func resolveWith(t *testing.T, unifier *Unifier, sessionID string) (*coreauth.CurrentUser, error) {
	t.Helper()

	var (
		current    *coreauth.CurrentUser
		resolveErr error
	)

	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		current, resolveErr = unifier.Resolve(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	_ = resp.Body.Close()

	return current, resolveErr
}

func TestResolve_DirectSession(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	user := createUser(t, db, "direct_alice_1700000000", true)
	unifier := NewUnifier(db, nil, time.Minute)

	sessionID := writeSession(t, &session.Data{
		Direct: &session.DirectIdentity{UserID: user.ID},
	})

	current, err := resolveWith(t, unifier, sessionID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if current.ID != user.ID || !current.IsAdmin {
		t.Fatalf("unexpected current user: %+v", current)
	}

	if current.AuthProvider != models.ProviderDirect {
		t.Fatalf("expected direct provider, got %q", current.AuthProvider)
	}
}

func TestResolve_NoCookieAndUnknownSession(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	unifier := NewUnifier(db, nil, time.Minute)

	if _, err := resolveWith(t, unifier, ""); !errors.Is(err, coreauth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without cookie, got %v", err)
	}

	if _, err := resolveWith(t, unifier, "not-a-session"); !errors.Is(err, coreauth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown session, got %v", err)
	}
}

func TestResolve_DeletedUserIsUnauthenticated(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	unifier := NewUnifier(db, nil, time.Minute)

	sessionID := writeSession(t, &session.Data{
		Direct: &session.DirectIdentity{UserID: "direct_gone_1700000000"},
	})

	if _, err := resolveWith(t, unifier, sessionID); !errors.Is(err, coreauth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted user, got %v", err)
	}
}

func TestResolve_DirectWinsOverOtherIdentities(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	directUser := createUser(t, db, "direct_first_1700000000", false)
	replitUser := createUser(t, db, "replit_second", true)

	unifier := NewUnifier(db, nil, time.Minute)

	// a session should never hold two identities, but if it does the
	// precedence order decides deterministically
	sessionID := writeSession(t, &session.Data{
		Direct: &session.DirectIdentity{UserID: directUser.ID},
		Replit: &session.ReplitIdentity{
			UserID:    replitUser.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	})

	current, err := resolveWith(t, unifier, sessionID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if current.ID != directUser.ID {
		t.Fatalf("expected direct identity to win, got %q", current.ID)
	}

	if current.IsAdmin {
		t.Fatal("admin flag must come from the winning identity only")
	}
}

func TestResolve_ExpiredMicrosoftIsRejected(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	user := createUser(t, db, "microsoft_sub-1", false)
	unifier := NewUnifier(db, nil, time.Minute)

	expired := writeSession(t, &session.Data{
		Microsoft: &session.MicrosoftIdentity{
			UserID:    user.ID,
			ExpiresOn: time.Now().Add(-time.Minute),
		},
	})

	_, err := resolveWith(t, unifier, expired)

	var lapsed *ExpiredLoginError
	if !errors.As(err, &lapsed) || lapsed.Provider != models.ProviderMicrosoft {
		t.Fatalf("expected expired microsoft login error, got %v", err)
	}

	valid := writeSession(t, &session.Data{
		Microsoft: &session.MicrosoftIdentity{
			UserID:    user.ID,
			ExpiresOn: time.Now().Add(time.Hour),
		},
	})

	current, err := resolveWith(t, unifier, valid)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if current.AuthProvider != models.ProviderMicrosoft {
		t.Fatalf("expected microsoft provider, got %q", current.AuthProvider)
	}
}

func TestResolve_ExpiredReplitWithoutProviderIsRejected(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	user := createUser(t, db, "replit_sub-2", false)

	// no replit provider configured: refresh cannot run
	unifier := NewUnifier(db, nil, time.Minute)

	sessionID := writeSession(t, &session.Data{
		Replit: &session.ReplitIdentity{
			UserID:       user.ID,
			RefreshToken: "refresh-token",
			ExpiresAt:    time.Now().Add(-time.Minute),
		},
	})

	_, err := resolveWith(t, unifier, sessionID)

	var lapsed *ExpiredLoginError
	if !errors.As(err, &lapsed) || lapsed.Provider != models.ProviderReplit {
		t.Fatalf("expected expired replit login error, got %v", err)
	}
}

func TestMiddleware_RedirectsLapsedSessions(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	microsoftUser := createUser(t, db, "microsoft_sub-3", false)
	replitUser := createUser(t, db, "replit_sub-3", false)

	unifier := NewUnifier(db, nil, time.Minute)

	app := fiber.New()
	app.Use(unifier.Middleware)
	app.Get("/any", RequireAuth, func(c *fiber.Ctx) error { return c.SendString("ok") })

	microsoftSession := writeSession(t, &session.Data{
		Microsoft: &session.MicrosoftIdentity{
			UserID:    microsoftUser.ID,
			ExpiresOn: time.Now().Add(-time.Minute),
		},
	})
	replitSession := writeSession(t, &session.Data{
		Replit: &session.ReplitIdentity{
			UserID:       replitUser.ID,
			RefreshToken: "refresh-token",
			ExpiresAt:    time.Now().Add(-time.Minute),
		},
	})

	cases := []struct {
		name      string
		sessionID string
		want      string
	}{
		{"expired microsoft", microsoftSession, msauth.LoginPath},
		{"expired replit", replitSession, replitauth.LoginPath},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/any", nil)
			req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tc.sessionID})

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test failed: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusFound {
				t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
			}

			if location := resp.Header.Get("Location"); location != tc.want {
				t.Fatalf("expected redirect to %q, got %q", tc.want, location)
			}
		})
	}

	// a request without any session still falls through to the guards
	req := httptest.NewRequest(http.MethodGet, "/any", nil)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
}

func TestResolve_EnrichesRoles(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	employee := models.Employee{FirstName: "Ada", Email: "ada@example.com", Status: models.StatusActive}
	if err := db.Create(&employee).Error; err != nil {
		t.Fatalf("failed to create employee: %v", err)
	}

	role := models.Role{Name: coreauth.RoleManager}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("failed to create role: %v", err)
	}

	if err := db.Create(&models.EmployeeRole{EmployeeID: employee.ID, RoleID: role.ID}).Error; err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	user := models.User{
		ID:           "direct_ada_1700000000",
		AuthProvider: models.ProviderDirect,
		EmployeeID:   &employee.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	unifier := NewUnifier(db, nil, time.Minute)

	sessionID := writeSession(t, &session.Data{
		Direct: &session.DirectIdentity{UserID: user.ID},
	})

	current, err := resolveWith(t, unifier, sessionID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if !current.HasRole(coreauth.RoleManager) {
		t.Fatalf("expected manager role, got %v", current.Roles)
	}
}

func TestGuards(t *testing.T) {
	db := newTestDB(t)
	initSessionStore()

	admin := createUser(t, db, "direct_admin_1700000000", true)
	regular := createUser(t, db, "direct_user_1700000000", false)

	unifier := NewUnifier(db, nil, time.Minute)

	app := fiber.New()
	app.Use(unifier.Middleware)
	app.Get("/any", RequireAuth, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/manager", RequireRole(coreauth.RoleManager), func(c *fiber.Ctx) error { return c.SendString("ok") })

	adminSession := writeSession(t, &session.Data{
		Direct: &session.DirectIdentity{UserID: admin.ID},
	})
	userSession := writeSession(t, &session.Data{
		Direct: &session.DirectIdentity{UserID: regular.ID},
	})

	cases := []struct {
		name      string
		path      string
		sessionID string
		want      int
	}{
		{"anonymous auth", "/any", "", http.StatusUnauthorized},
		{"user auth", "/any", userSession, http.StatusOK},
		{"anonymous admin", "/admin", "", http.StatusUnauthorized},
		{"user admin", "/admin", userSession, http.StatusForbidden},
		{"admin admin", "/admin", adminSession, http.StatusOK},
		{"user manager", "/manager", userSession, http.StatusForbidden},
		{"admin bypasses role", "/manager", adminSession, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.sessionID != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tc.sessionID})
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test failed: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
