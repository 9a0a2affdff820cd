package session

import (
	"sync"
	"testing"
	"time"

	"github.com/gofiber/storage"
)

type memStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*memStorage)(nil)

func (s *memStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]byte(nil), s.data[key]...), nil
}

func (s *memStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), val...)

	return nil
}

func (s *memStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *memStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *memStorage) Close() error { return nil }

func TestDataRoundTrip(t *testing.T) {
	Init(&memStorage{data: make(map[string][]byte)})

	sessionID, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session id: %v", err)
	}

	in := &Data{
		Replit: &ReplitIdentity{
			UserID:       "replit_sub-1",
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		},
	}

	if err := in.Write(sessionID, time.Minute); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := new(Data)
	if err := out.Read(sessionID); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if out.Replit == nil || out.Replit.UserID != in.Replit.UserID {
		t.Fatalf("identity lost in round trip: %+v", out)
	}

	if out.Direct != nil || out.Microsoft != nil || out.Pending != nil {
		t.Fatalf("unexpected extra fields after round trip: %+v", out)
	}

	if err := Destroy(sessionID); err != nil {
		t.Fatalf("destroy failed: %v", err)
	}

	if err := new(Data).Read(sessionID); err == nil {
		t.Fatal("expected read to fail after destroy")
	}
}

func TestTakePending(t *testing.T) {
	data := new(Data)
	data.SetPending("microsoft", "state-1", "verifier-1")

	// wrong provider consumes the challenge without returning it
	if got := data.TakePending("replit"); got != nil {
		t.Fatalf("expected nil for wrong provider, got %+v", got)
	}

	if data.Pending != nil {
		t.Fatal("pending challenge must be single-use")
	}

	data.SetPending("microsoft", "state-2", "verifier-2")

	got := data.TakePending("microsoft")
	if got == nil || got.State != "state-2" || got.Verifier != "verifier-2" {
		t.Fatalf("expected stored challenge, got %+v", got)
	}

	if data.TakePending("microsoft") != nil {
		t.Fatal("a consumed challenge must not be returned again")
	}
}

func TestGenerateSessionID_Unique(t *testing.T) {
	first, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session id: %v", err)
	}

	second, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session id: %v", err)
	}

	if first == second {
		t.Fatal("session ids must be unique")
	}

	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}
