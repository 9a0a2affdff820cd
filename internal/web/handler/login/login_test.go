package login

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/models"
	websess "github.com/staffdesk/staffdesk/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Credential{},
		&models.Employee{},
		&models.AuthSettings{},
	)
	if err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
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

	if s.data == nil {
		s.data = make(map[string][]byte)
	}

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
	websess.Init(&testStorage{data: make(map[string][]byte)})
}

func performLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func responseMessage(t *testing.T, resp *http.Response) string {
	t.Helper()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		t.Fatalf("response is not JSON: %q", string(bodyBytes))
	}

	return body.Message
}

func TestPost_Success_ReturnsUserAndSetsCookie(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := auth.NewDirectProvider(db).CreateAccount("bob", "bob@example.com", "s3cr3t-pw", "Bob", "Doe", true); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	resp := performLogin(t, app, `{"username":"bob","password":"s3cr3t-pw"}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, "session=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag when DevMode=false, got %q", setCookie)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)

	var body struct {
		User struct {
			ID      string `json:"id"`
			IsAdmin bool   `json:"isAdmin"`
		} `json:"user"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		t.Fatalf("response is not JSON: %q", string(bodyBytes))
	}

	if !strings.HasPrefix(body.User.ID, "direct_bob_") {
		t.Fatalf("expected direct-prefixed user id, got %q", body.User.ID)
	}

	if !body.User.IsAdmin {
		t.Fatal("expected isAdmin true for seeded admin")
	}
}

func TestPost_WrongPasswordAndUnknownUserGetSameBody(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := auth.NewDirectProvider(db).CreateAccount("carol", "carol@example.com", "right-pass", "Carol", "Doe", false); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	wrong := performLogin(t, app, `{"username":"carol","password":"wrong-pass"}`)
	defer func() { _ = wrong.Body.Close() }()

	unknown := performLogin(t, app, `{"username":"nobody","password":"wrong-pass"}`)
	defer func() { _ = unknown.Body.Close() }()

	if wrong.StatusCode != http.StatusUnauthorized || unknown.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrong.StatusCode, unknown.StatusCode)
	}

	wrongMsg := responseMessage(t, wrong)
	unknownMsg := responseMessage(t, unknown)

	if wrongMsg != unknownMsg {
		t.Fatalf("bodies must be indistinguishable, got %q and %q", wrongMsg, unknownMsg)
	}
}

func TestPost_DisabledAccountGetsGenericBody(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	provider := auth.NewDirectProvider(db)

	user, err := provider.CreateAccount("dave", "dave@example.com", "dave-pass", "Dave", "Doe", false)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	if err := provider.Credentials().SetEnabled(user.ID, false); err != nil {
		t.Fatalf("failed to disable account: %v", err)
	}

	resp := performLogin(t, app, `{"username":"dave","password":"dave-pass"}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// body carries no hint that the account exists but is disabled
	wrong := performLogin(t, app, `{"username":"nobody","password":"x-pass"}`)
	defer func() { _ = wrong.Body.Close() }()

	if responseMessage(t, resp) != responseMessage(t, wrong) {
		t.Fatal("disabled account body must match the generic failure body")
	}
}

func TestPost_ProviderDisabled(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := auth.NewDirectProvider(db).CreateAccount("erin", "erin@example.com", "erin-pass", "Erin", "Doe", false); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	db.Create(&models.AuthSettings{
		DirectLoginEnabled:    false,
		MicrosoftLoginEnabled: true,
		ReplitLoginEnabled:    true,
	})

	resp := performLogin(t, app, `{"username":"erin","password":"erin-pass"}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestPost_MissingFields(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := fiber.New()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	resp := performLogin(t, app, `{"username":"no-password"}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
