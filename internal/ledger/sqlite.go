package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalLedgerDBName = "holdem_ledger.db"

// SQLiteService is the pure-Go alternate backend, matching the teacher's
// single-connection-pool / PRAGMA busy_timeout discipline.
type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath, err := ledgerLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{
		db:          db,
		recentLimit: envIntOrDefault("LEDGER_RECENT_LIMIT", defaultRecentLimit),
	}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) Balance(ctx context.Context, userID uint64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM user_balances WHERE user_id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

func (s *SQLiteService) AdjustBalance(ctx context.Context, userID uint64, delta int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM user_balances WHERE user_id = ?`, userID).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	next := balance + delta
	if next < 0 {
		return balance, ErrInsufficientFund
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO user_balances (user_id, balance) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET balance = excluded.balance
`, userID, next); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *SQLiteService) RecordFinishedHand(ctx context.Context, hand FinishedHand) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertFinishedHandSQLite(ctx, tx, hand); err != nil {
		return err
	}
	for _, p := range hand.Players {
		if err := insertPlayerGameSQLite(ctx, tx, hand.UUID, hand.TableID, p); err != nil {
			return err
		}
		if err := upsertPlayerStatsSQLite(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertFinishedHandSQLite(ctx context.Context, tx *sql.Tx, hand FinishedHand) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO finished_games (uuid, table_id, played_at, pot, board, winners)
VALUES (?, ?, ?, ?, ?, ?)
`, hand.UUID, hand.TableID, hand.PlayedAt.UTC(), hand.Pot, joinCSV(hand.Board), joinUint64CSV(hand.WinnerIDs))
	return err
}

func insertPlayerGameSQLite(ctx context.Context, tx *sql.Tx, handUUID, tableID string, p PlayerGameRecord) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO player_games (
    finished_game_uuid, table_id, user_id, hole_cards, bet, net_stack_delta, resulting_balance, won_hand
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, handUUID, tableID, p.UserID, joinCSV(p.HoleCards), p.Bet, p.NetStackDelta, p.ResultingBal, p.WonHand)
	return err
}

func upsertPlayerStatsSQLite(ctx context.Context, tx *sql.Tx, p PlayerGameRecord) error {
	wonDelta, lostDelta := int64(0), int64(0)
	wonStack, lostStack := int64(0), int64(0)
	if p.WonHand {
		wonDelta = 1
		wonStack = p.NetStackDelta
	} else {
		lostDelta = 1
		lostStack = -p.NetStackDelta
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO player_stats (user_id, hands_won, hands_lost, max_balance, max_bet, lost_stack, won_stack)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    hands_won  = player_stats.hands_won + excluded.hands_won,
    hands_lost = player_stats.hands_lost + excluded.hands_lost,
    max_balance = max(player_stats.max_balance, excluded.max_balance),
    max_bet     = max(player_stats.max_bet, excluded.max_bet),
    lost_stack  = max(player_stats.lost_stack, excluded.lost_stack),
    won_stack   = max(player_stats.won_stack, excluded.won_stack)
`, p.UserID, wonDelta, lostDelta, p.ResultingBal, p.Bet, lostStack, wonStack)
	return err
}

func (s *SQLiteService) Stats(ctx context.Context, userID uint64) (Statistics, error) {
	st := Statistics{UserID: userID}
	row := s.db.QueryRowContext(ctx, `
SELECT hands_won, hands_lost, max_balance, max_bet, lost_stack, won_stack
FROM player_stats WHERE user_id = ?
`, userID)
	err := row.Scan(&st.HandsWon, &st.HandsLost, &st.MaxBalance, &st.MaxBet, &st.LostStack, &st.WonStack)
	if err == sql.ErrNoRows {
		return st, nil
	}
	return st, err
}

func (s *SQLiteService) ListRecent(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT finished_game_uuid, table_id, bet, net_stack_delta, won_hand,
       (SELECT played_at FROM finished_games fg WHERE fg.uuid = player_games.finished_game_uuid),
       (SELECT pot FROM finished_games fg WHERE fg.uuid = player_games.finished_game_uuid)
FROM player_games
WHERE user_id = ?
ORDER BY rowid DESC
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryItem
	for rows.Next() {
		var item HistoryItem
		var bet int64
		if err := rows.Scan(&item.HandID, &item.TableID, &bet, &item.NetDelta, &item.Won, &item.PlayedAt, &item.Pot); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS user_balances (
    user_id INTEGER PRIMARY KEY,
    balance INTEGER NOT NULL DEFAULT 0
)`,
		`
CREATE TABLE IF NOT EXISTS finished_games (
    uuid TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    played_at TIMESTAMP NOT NULL,
    pot INTEGER NOT NULL,
    board TEXT NOT NULL DEFAULT '',
    winners TEXT NOT NULL DEFAULT ''
)`,
		`
CREATE TABLE IF NOT EXISTS player_games (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    finished_game_uuid TEXT NOT NULL REFERENCES finished_games(uuid) ON DELETE CASCADE,
    table_id TEXT NOT NULL,
    user_id INTEGER NOT NULL,
    hole_cards TEXT NOT NULL DEFAULT '',
    bet INTEGER NOT NULL,
    net_stack_delta INTEGER NOT NULL,
    resulting_balance INTEGER NOT NULL,
    won_hand INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_player_games_user ON player_games(user_id, id DESC)`,
		`
CREATE TABLE IF NOT EXISTS player_stats (
    user_id INTEGER PRIMARY KEY,
    hands_won INTEGER NOT NULL DEFAULT 0,
    hands_lost INTEGER NOT NULL DEFAULT 0,
    max_balance INTEGER NOT NULL DEFAULT 0,
    max_bet INTEGER NOT NULL DEFAULT 0,
    lost_stack INTEGER NOT NULL DEFAULT 0,
    won_stack INTEGER NOT NULL DEFAULT 0
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func ledgerLocalDatabasePathFromEnv() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("LEDGER_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("LOCAL_DATABASE_PATH")),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "holdemlite", defaultLocalLedgerDBName), nil
}

func joinCSV(parts []string) string {
	return strings.Join(parts, ",")
}

func joinUint64CSV(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
