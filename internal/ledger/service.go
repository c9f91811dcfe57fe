// Package ledger is the persistence adapter (spec.md §4.9): it tracks each
// user's chip balance and records finished hands for history/statistics.
package ledger

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"holdemlite/card"
	"holdemlite/holdem"
)

const (
	defaultRecentLimit = 50
)

var (
	ErrNotFound         = errors.New("ledger: not found")
	ErrInsufficientFund = errors.New("ledger: insufficient balance")
)

// PlayerGameRecord is one participant's row within a FinishedHand (spec.md §6
// persisted-state schema, table player_games).
type PlayerGameRecord struct {
	UserID        uint64
	HoleCards     []string
	Bet           int64
	NetStackDelta int64
	ResultingBal  int64
	WonHand       bool
}

// FinishedHand is the record persisted once a hand reaches FINISHED
// (spec.md §6 persisted-state schema, table finished_games).
type FinishedHand struct {
	UUID       string
	TableID    string
	PlayedAt   time.Time
	Pot        int64
	Board      []string
	WinnerIDs  []uint64
	Players    []PlayerGameRecord
}

// Statistics is one user's aggregate record (spec.md §3, table player_stats).
type Statistics struct {
	UserID    uint64
	HandsWon  int64
	HandsLost int64
	MaxBalance int64
	MaxBet    int64
	LostStack int64
	WonStack  int64
}

// HistoryItem is one row returned by ListRecent.
type HistoryItem struct {
	HandID   string    `json:"hand_id"`
	TableID  string    `json:"table_id"`
	PlayedAt time.Time `json:"played_at"`
	Pot      int64     `json:"pot"`
	Won      bool      `json:"won"`
	NetDelta int64     `json:"net_delta"`
}

// Service is the persistence-adapter contract consumed by the table runtime
// and the HTTP surface.
type Service interface {
	Close() error

	// Balance returns a user's current balance, or 0 for a user with no
	// balance record; it does not create a record.
	Balance(ctx context.Context, userID uint64) (int64, error)
	// AdjustBalance applies delta (positive or negative) to a user's balance
	// and returns the resulting balance. Used on seat buy-in (negative) and
	// leave cash-out (positive), per spec.md §4.9.
	AdjustBalance(ctx context.Context, userID uint64, delta int64) (int64, error)

	// RecordFinishedHand persists a finished hand and its participants, and
	// upserts each participant's statistics aggregate (spec.md §4.9, §3).
	RecordFinishedHand(ctx context.Context, hand FinishedHand) error

	Stats(ctx context.Context, userID uint64) (Statistics, error)
	ListRecent(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error)
}

// ledgerModeFromEnv mirrors auth's AUTH_MODE convention for the ledger's own
// backend selection (spec.md §4.12).
func ledgerModeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_MODE")))
	switch raw {
	case "", "db", "postgres", "postgresql":
		return "db"
	case "local", "sqlite":
		return "local"
	case "memory", "mem":
		return "memory"
	default:
		return raw
	}
}

// NewServiceFromEnv selects a backend consistent with the auth service's
// mode when the ledger's own mode is unset, matching the teacher's
// `NewServiceFromEnv(authMode)` convention.
func NewServiceFromEnv(authMode string) (Service, string, error) {
	mode := ledgerModeFromEnv()
	if strings.TrimSpace(os.Getenv("LEDGER_MODE")) == "" {
		mode = authMode
	}

	switch mode {
	case "memory", "mem":
		return newMemoryService(), "memory", nil
	case "local", "sqlite":
		svc, err := NewSQLiteServiceFromEnv()
		if err != nil {
			return nil, "local", err
		}
		return svc, "local", nil
	default:
		svc, err := NewPostgresServiceFromEnv()
		if err != nil {
			return nil, "db", err
		}
		return svc, "db", nil
	}
}

// SettlementToFinishedHand builds the persisted record from a just-finished
// hand's personalized snapshot (with show_all so every hole card is visible)
// and the pre-hand starting stacks, per spec.md §4.9.
func SettlementToFinishedHand(uuid, tableID string, playedAt time.Time, snap *holdem.Snapshot, startStacks map[uint64]int64) FinishedHand {
	fh := FinishedHand{
		UUID:      uuid,
		TableID:   tableID,
		PlayedAt:  playedAt,
		Pot:       snap.Pot,
		Board:     cardStrings(snap.Board),
		WinnerIDs: append([]uint64{}, snap.Winners...),
	}
	won := make(map[uint64]bool, len(snap.Winners))
	for _, w := range snap.Winners {
		won[w] = true
	}
	for _, sp := range snap.Players {
		fh.Players = append(fh.Players, PlayerGameRecord{
			UserID:        sp.UserID,
			HoleCards:     cardStrings(sp.HoleCards),
			Bet:           sp.Bet,
			NetStackDelta: sp.Stack - startStacks[sp.UserID],
			ResultingBal:  sp.Stack,
			WonHand:       won[sp.UserID],
		})
	}
	return fh
}

func cardStrings(cards []card.Card) []string {
	if len(cards) == 0 {
		return nil
	}
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func envIntOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
