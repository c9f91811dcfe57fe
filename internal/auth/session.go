package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// defaultSessionTTL is long enough to span a multi-day cash-game habit
	// without forcing a reconnecting player back through /api/auth/login.
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// Manager is the in-memory Service backend, used for AUTH_MODE=memory and
// by this package's tests. userID is the same identifier
// space internal/ledger keys its balances on and internal/table seats
// players by, so every lookup here is phrased in terms of userID rather
// than a separate "account" concept.
type Manager struct {
	mu sync.Mutex

	nextUserID      uint64
	sessionTTL      time.Duration
	sessions        map[string]sessionRecord // token -> userID
	usersByID       map[uint64]userRecord    // userID -> profile
	usersByUsername map[string]uint64        // normalized username -> userID
}

type sessionRecord struct {
	UserID    uint64
	ExpiresAt time.Time
}

type userRecord struct {
	UserID        uint64
	Username      string
	PasswordHash  []byte
	Registered    bool
	LastLoginTime time.Time
}

func NewManager() *Manager {
	return &Manager{
		nextUserID:      100000, // leave room below for seeded/system users
		sessionTTL:      defaultSessionTTL,
		sessions:        make(map[string]sessionRecord),
		usersByID:       make(map[uint64]userRecord),
		usersByUsername: make(map[string]uint64),
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if !usernamePattern.MatchString(trimmed) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

func (m *Manager) issueSessionLocked(userID uint64, now time.Time) string {
	sessionToken := mustToken()
	m.sessions[sessionToken] = sessionRecord{
		UserID:    userID,
		ExpiresAt: now.Add(m.sessionTTL),
	}
	return sessionToken
}

func (m *Manager) resolveSessionLocked(token string, now time.Time) (userID uint64, username string, ok bool) {
	if token == "" {
		return 0, "", false
	}
	rec, exists := m.sessions[token]
	if !exists {
		return 0, "", false
	}
	if !now.Before(rec.ExpiresAt) {
		delete(m.sessions, token)
		return 0, "", false
	}
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = rec

	profile := m.usersByID[rec.UserID]
	return rec.UserID, profile.Username, true
}

// Register creates a new user and returns an authenticated session token.
func (m *Manager) Register(username, password string) (userID uint64, sessionToken string, err error) {
	if err = validateUsername(username); err != nil {
		return 0, "", err
	}
	if err = validatePassword(password); err != nil {
		return 0, "", err
	}

	normalized := normalizeUsername(username)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByUsername[normalized]; exists {
		return 0, "", ErrUsernameTaken
	}

	m.nextUserID++
	userID = m.nextUserID
	now := time.Now()
	m.usersByID[userID] = userRecord{
		UserID:        userID,
		Username:      normalized,
		PasswordHash:  passwordHash,
		Registered:    true,
		LastLoginTime: now,
	}
	m.usersByUsername[normalized] = userID

	sessionToken = m.issueSessionLocked(userID, now)
	return userID, sessionToken, nil
}

// Login validates credentials and returns a fresh authenticated session.
func (m *Manager) Login(username, password string) (userID uint64, sessionToken string, err error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	userID, exists := m.usersByUsername[normalized]
	if !exists {
		return 0, "", ErrInvalidCredentials
	}

	profile := m.usersByID[userID]
	if !profile.Registered || len(profile.PasswordHash) == 0 {
		return 0, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(profile.PasswordHash, []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}

	now := time.Now()
	profile.LastLoginTime = now
	m.usersByID[userID] = profile
	sessionToken = m.issueSessionLocked(userID, now)
	return userID, sessionToken, nil
}

// ResolveSession validates and refreshes a session token.
func (m *Manager) ResolveSession(token string) (userID uint64, username string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveSessionLocked(token, time.Now())
}

// Logout invalidates a session token.
func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
