package holdem

import "testing"

func TestLeaveBetweenHandsCashesOutImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 6
	tbl, err := NewTable("lobby1", cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	tbl.Seat(1, 500, false)
	tbl.Seat(2, 700, false)

	cashOut, err := tbl.Leave(1)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if cashOut != 500 {
		t.Fatalf("cashOut = %d, want 500", cashOut)
	}
	if len(tbl.Players) != 1 {
		t.Fatalf("Players len = %d, want 1", len(tbl.Players))
	}
	if tbl.Players[0].Position != 0 {
		t.Fatalf("remaining seat not re-densed: position = %d, want 0", tbl.Players[0].Position)
	}
}

func TestLeaveDuringHandForceFoldsAndDefersEviction(t *testing.T) {
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 3
	cfg.MinPlayers = 2
	cfg.ForcedDealerPosition = &dealer
	cfg.Seed = 3
	tbl, _ := NewTable("t3", cfg)
	tbl.Seat(1, 1000, false)
	tbl.Seat(2, 1000, false)
	tbl.Seat(3, 1000, false)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	leavingUser := uint64(2) // not necessarily on turn
	cashOut, err := tbl.Leave(leavingUser)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if cashOut != 0 {
		t.Fatalf("mid-hand leave must not refund chips, got %d", cashOut)
	}
	if !tbl.PendingLeave[leavingUser] {
		t.Fatalf("leaving user must be marked PendingLeave")
	}
	if len(tbl.Players) != 3 {
		t.Fatalf("seat must not be removed until the hand ends, Players len = %d", len(tbl.Players))
	}
	var left *PlayerState
	for _, p := range tbl.Players {
		if p.UserID == leavingUser {
			left = p
		}
	}
	if left == nil {
		t.Fatalf("player disappeared from Players before hand end")
	}
	if left.Status != StatusFolded {
		t.Fatalf("status = %v, want Folded", left.Status)
	}
	if left.Stack != 0 {
		t.Fatalf("stack = %d, want 0 after mid-hand leave", left.Stack)
	}

	// Drive the hand to completion; eviction should happen once it ends.
	for tbl.Game.handActive {
		actorID := tbl.Players[tbl.Game.currentActor].UserID
		if err := tbl.ApplyAction(actorID, ActionFold, 0); err != nil {
			t.Fatalf("Fold: %v", err)
		}
	}
	if len(tbl.Players) != 2 {
		t.Fatalf("Players len after hand end = %d, want 2 (pending leaver evicted)", len(tbl.Players))
	}
	for _, p := range tbl.Players {
		if p.UserID == leavingUser {
			t.Fatalf("pending leaver was not evicted after hand end")
		}
	}
}

func TestLeaveIsRejectedForUnknownUser(t *testing.T) {
	cfg := DefaultConfig()
	tbl, _ := NewTable("t4", cfg)
	tbl.Seat(1, 500, false)
	if _, err := tbl.Leave(99); err != ErrNotSeated {
		t.Fatalf("err = %v, want ErrNotSeated", err)
	}
}

func TestSpectatorLeaveIsFreeAndImmediate(t *testing.T) {
	cfg := DefaultConfig()
	tbl, _ := NewTable("t5", cfg)
	tbl.Seat(1, 0, true)
	if len(tbl.Spectators) != 1 {
		t.Fatalf("expected one spectator")
	}
	cashOut, err := tbl.Leave(1)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if cashOut != 0 {
		t.Fatalf("spectator leave must not produce a cash-out")
	}
	if len(tbl.Spectators) != 0 {
		t.Fatalf("spectator was not removed")
	}
}

func TestSeatingDuringAHandMarksWaiting(t *testing.T) {
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 6
	cfg.ForcedDealerPosition = &dealer
	tbl, _ := NewTable("t6", cfg)
	tbl.Seat(1, 1000, false)
	tbl.Seat(2, 1000, false)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if _, err := tbl.Seat(3, 1000, false); err != nil {
		t.Fatalf("Seat mid-hand: %v", err)
	}
	p := tbl.findSeated(3)
	if p.Status != StatusWaiting {
		t.Fatalf("status = %v, want Waiting for a seat taken mid-hand", p.Status)
	}
}
