package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// Store is the global session store instance.
var Store *session.Store

// DirectIdentity is the session payload of a username/password login.
type DirectIdentity struct {
	UserID string
}

// MicrosoftIdentity is the session payload of a Microsoft OIDC login.
type MicrosoftIdentity struct {
	UserID    string
	ExpiresOn time.Time
}

// ReplitIdentity is the session payload of a Replit OIDC login. The token set
// is kept so an expired access token can be refreshed in place.
type ReplitIdentity struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PendingLogin holds PKCE material between the redirect to the provider and
// the callback.
type PendingLogin struct {
	Provider string
	State    string
	Verifier string
}

// Data represents the session data structure. At most one identity field is
// set per session; which provider authenticated the user is recoverable from
// which field is non-nil.
type Data struct {
	Direct    *DirectIdentity
	Microsoft *MicrosoftIdentity
	Replit    *ReplitIdentity
	Pending   *PendingLogin
}

// SetPending stores PKCE material for an in-flight provider login.
func (s *Data) SetPending(provider, state, verifier string) {
	s.Pending = &PendingLogin{
		Provider: provider,
		State:    state,
		Verifier: verifier,
	}
}

// TakePending consumes the pending login for the given provider. Returns nil
// when none is stored or the provider does not match.
func (s *Data) TakePending(provider string) *PendingLogin {
	pending := s.Pending
	s.Pending = nil

	if pending == nil || pending.Provider != provider {
		return nil
	}

	return pending
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	return json.Unmarshal(byteData, s)
}

// Destroy removes the session from the backing store.
func Destroy(sessionID string) error {
	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
func Init(storage storage.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
