package ledger

import (
	"context"
	"testing"
	"time"
)

func TestAdjustBalanceRejectsOverdraft(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	if _, err := svc.AdjustBalance(ctx, 1, 1000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := svc.AdjustBalance(ctx, 1, -2000); err != ErrInsufficientFund {
		t.Fatalf("err = %v, want ErrInsufficientFund", err)
	}
	balance, err := svc.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 1000 {
		t.Fatalf("balance = %d, want 1000 (rejected overdraft must not mutate)", balance)
	}
}

func TestRecordFinishedHandUpdatesStatsAndHistory(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	hand := FinishedHand{
		UUID:      "hand-1",
		TableID:   "t1",
		PlayedAt:  time.Unix(1000, 0),
		Pot:       300,
		Board:     []string{"AS", "KD", "QC", "JH", "TS"},
		WinnerIDs: []uint64{1},
		Players: []PlayerGameRecord{
			{UserID: 1, Bet: 150, NetStackDelta: 150, ResultingBal: 1150, WonHand: true},
			{UserID: 2, Bet: 150, NetStackDelta: -150, ResultingBal: 850, WonHand: false},
		},
	}
	if err := svc.RecordFinishedHand(ctx, hand); err != nil {
		t.Fatalf("RecordFinishedHand: %v", err)
	}

	winnerStats, err := svc.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if winnerStats.HandsWon != 1 || winnerStats.WonStack != 150 {
		t.Fatalf("winner stats = %+v, want HandsWon=1 WonStack=150", winnerStats)
	}

	loserStats, err := svc.Stats(ctx, 2)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if loserStats.HandsLost != 1 || loserStats.LostStack != 150 {
		t.Fatalf("loser stats = %+v, want HandsLost=1 LostStack=150", loserStats)
	}

	history, err := svc.ListRecent(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(history) != 1 || history[0].HandID != "hand-1" || !history[0].Won {
		t.Fatalf("history = %+v, want one won hand-1 entry", history)
	}
}
