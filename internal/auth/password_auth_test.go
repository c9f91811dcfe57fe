package auth

import (
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	m := NewManager()

	userID, token, err := m.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if userID == 0 {
		t.Fatalf("expected user id")
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	resolvedID, username, ok := m.ResolveSession(token)
	if !ok {
		t.Fatalf("expected valid session")
	}
	if resolvedID != userID {
		t.Fatalf("expected same user id, got %d and %d", userID, resolvedID)
	}
	if username != "alice_01" {
		t.Fatalf("expected username alice_01, got %s", username)
	}

	loginID, loginToken, err := m.Login("alice_01", "secret12")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loginID != userID {
		t.Fatalf("expected same user id after login")
	}
	if loginToken == "" {
		t.Fatalf("expected login token")
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	m := NewManager()
	if _, _, err := m.Register("alice_01", "secret12"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := m.Register("Alice_01", "secret12"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	m := NewManager()
	if _, _, err := m.Register("alice_01", "secret12"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := m.Login("alice_01", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	m := NewManager()
	_, token, err := m.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	m.Logout(token)
	if _, _, ok := m.ResolveSession(token); ok {
		t.Fatalf("expected logged out token to be invalid")
	}
}
