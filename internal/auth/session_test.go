package auth

import (
	"testing"
	"time"
)

func TestResolveSessionRejectsExpiredToken(t *testing.T) {
	m := NewManager()
	m.sessionTTL = time.Millisecond

	_, token, err := m.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, _, ok := m.ResolveSession(token); ok {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestResolveSessionRefreshesExpiry(t *testing.T) {
	m := NewManager()
	m.sessionTTL = 20 * time.Millisecond

	_, token, err := m.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Resolve three times, sleeping less than the TTL each time: each resolve
	// should push ExpiresAt forward so the session never lapses.
	for i := 0; i < 3; i++ {
		time.Sleep(12 * time.Millisecond)
		if _, _, ok := m.ResolveSession(token); !ok {
			t.Fatalf("expected resolve %d to refresh and succeed", i)
		}
	}
}
