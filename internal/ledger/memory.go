package ledger

import (
	"context"
	"sync"
)

// memoryService is an in-process Service for tests and AUTH_MODE=memory
// deployments; it has no durability across restarts.
type memoryService struct {
	mu       sync.Mutex
	balances map[uint64]int64
	stats    map[uint64]*Statistics
	history  map[uint64][]HistoryItem
}

func newMemoryService() *memoryService {
	return &memoryService{
		balances: make(map[uint64]int64),
		stats:    make(map[uint64]*Statistics),
		history:  make(map[uint64][]HistoryItem),
	}
}

func (m *memoryService) Close() error { return nil }

func (m *memoryService) Balance(_ context.Context, userID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *memoryService) AdjustBalance(_ context.Context, userID uint64, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.balances[userID] + delta
	if next < 0 {
		return m.balances[userID], ErrInsufficientFund
	}
	m.balances[userID] = next
	return next, nil
}

func (m *memoryService) RecordFinishedHand(_ context.Context, hand FinishedHand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range hand.Players {
		st := m.stats[p.UserID]
		if st == nil {
			st = &Statistics{UserID: p.UserID}
			m.stats[p.UserID] = st
		}
		if p.WonHand {
			st.HandsWon++
			if p.NetStackDelta > st.WonStack {
				st.WonStack = p.NetStackDelta
			}
		} else {
			st.HandsLost++
			lost := -p.NetStackDelta
			if lost > st.LostStack {
				st.LostStack = lost
			}
		}
		if p.Bet > st.MaxBet {
			st.MaxBet = p.Bet
		}
		if p.ResultingBal > st.MaxBalance {
			st.MaxBalance = p.ResultingBal
		}

		m.history[p.UserID] = append(m.history[p.UserID], HistoryItem{
			HandID:   hand.UUID,
			TableID:  hand.TableID,
			PlayedAt: hand.PlayedAt,
			Pot:      hand.Pot,
			Won:      p.WonHand,
			NetDelta: p.NetStackDelta,
		})
	}
	return nil
}

func (m *memoryService) Stats(_ context.Context, userID uint64) (Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats[userID]
	if st == nil {
		return Statistics{UserID: userID}, nil
	}
	return *st, nil
}

func (m *memoryService) ListRecent(_ context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.history[userID]
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	start := len(items) - limit
	out := make([]HistoryItem, limit)
	copy(out, items[start:])
	// most recent first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
