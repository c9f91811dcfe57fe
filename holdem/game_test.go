package holdem

import "testing"

func newHeadsUpTable(t *testing.T, buyIn int64) (*Table, uint64, uint64) {
	t.Helper()
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	cfg.MinPlayers = 2
	cfg.ForcedDealerPosition = &dealer
	cfg.Seed = 1
	tbl, err := NewTable("t1", cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	const userA, userB = uint64(1), uint64(2)
	if _, err := tbl.Seat(userA, buyIn, false); err != nil {
		t.Fatalf("seat A: %v", err)
	}
	if _, err := tbl.Seat(userB, buyIn, false); err != nil {
		t.Fatalf("seat B: %v", err)
	}
	return tbl, userA, userB
}

// Scenario 2 (spec.md §8): heads-up fold awards the pot to the other player.
func TestHeadsUpFoldAwardsPot(t *testing.T) {
	tbl, userA, _ := newHeadsUpTable(t, 1000)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// Dealer at position 0 posts SB=0, BB=1: heads-up is special-cased to
	// the standard convention where the dealer posts the small blind and
	// acts first preflop (spec.md §8 scenario 2).
	if tbl.Game.sbPos != 0 || tbl.Game.bbPos != 1 {
		t.Fatalf("sb/bb = %d/%d, want 0/1", tbl.Game.sbPos, tbl.Game.bbPos)
	}
	firstActor := tbl.Game.currentActor
	if firstActor != 0 {
		t.Fatalf("first actor = %d, want 0 (dealer/small blind acts first preflop heads-up)", firstActor)
	}
	dealerUser := tbl.Players[0].UserID
	if dealerUser != userA {
		t.Fatalf("dealer user = %d, want userA (%d)", dealerUser, userA)
	}

	if err := tbl.ApplyAction(dealerUser, ActionFold, 0); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	if tbl.Game.handActive {
		t.Fatalf("hand should have ended on heads-up fold")
	}
	if tbl.Game.phase != PhaseFinished {
		t.Fatalf("phase = %v, want Finished", tbl.Game.phase)
	}

	var dealer, other *PlayerState
	for _, p := range tbl.Players {
		if p.UserID == dealerUser {
			dealer = p
		} else {
			other = p
		}
	}
	if other.Stack != 1050 {
		t.Fatalf("other.Stack = %d, want 1050", other.Stack)
	}
	if dealer.Stack != 950 {
		t.Fatalf("dealer.Stack = %d, want 950", dealer.Stack)
	}
	if dealer.Stack+other.Stack != 2000 {
		t.Fatalf("chip conservation violated: total = %d, want 2000", dealer.Stack+other.Stack)
	}
}

// Scenario 3 (spec.md §8): checking while facing a live bet is rejected.
func TestIllegalCheckRejected(t *testing.T) {
	tbl, _, _ := newHeadsUpTable(t, 1000)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	actorID := tbl.Players[tbl.Game.currentActor].UserID
	err := tbl.ApplyAction(actorID, ActionCheck, 0)
	if err == nil {
		t.Fatalf("expected error checking while facing a live bet")
	}
	if _, ok := err.(*ActionError); !ok {
		t.Fatalf("err type = %T, want *ActionError", err)
	}
}

// Scenario 4 (spec.md §8): a raise smaller than the minimum raise size is rejected.
func TestMinimumRaiseEnforced(t *testing.T) {
	tbl, _, _ := newHeadsUpTable(t, 1000)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	actorID := tbl.Players[tbl.Game.currentActor].UserID
	// currentBet is 100 (the big blind); minRaise is 100, so a raise to 150
	// (a raise of only 50) must be rejected.
	err := tbl.ApplyAction(actorID, ActionRaise, 150)
	if err == nil {
		t.Fatalf("expected error for a below-minimum raise")
	}
	if tbl.Game.currentBet != 100 {
		t.Fatalf("currentBet mutated by rejected raise: got %d, want 100", tbl.Game.currentBet)
	}
}

// Scenario 5 (spec.md §8, §9): a short all-in raise does not reopen action
// for players who have already acted this round.
func TestShortAllInDoesNotReopenAction(t *testing.T) {
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 3
	cfg.MinPlayers = 2
	cfg.ForcedDealerPosition = &dealer
	cfg.Seed = 7
	tbl, err := NewTable("t2", cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	const user0, user1, user2 = uint64(10), uint64(11), uint64(12)
	mustSeat := func(userID uint64, buyIn int64) {
		if _, err := tbl.Seat(userID, buyIn, false); err != nil {
			t.Fatalf("seat %d: %v", userID, err)
		}
	}
	mustSeat(user0, 1000)
	mustSeat(user1, 1000)
	mustSeat(user2, 150) // short stack: posts BB=100, leaving 50 behind.

	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if tbl.Game.dealerPos != 0 || tbl.Game.sbPos != 1 || tbl.Game.bbPos != 2 {
		t.Fatalf("dealer/sb/bb = %d/%d/%d, want 0/1/2", tbl.Game.dealerPos, tbl.Game.sbPos, tbl.Game.bbPos)
	}

	// Position 0 (dealer) calls the big blind.
	if err := tbl.ApplyAction(user0, ActionCall, 0); err != nil {
		t.Fatalf("p0 call: %v", err)
	}
	// Position 1 (small blind) calls.
	if err := tbl.ApplyAction(user1, ActionCall, 0); err != nil {
		t.Fatalf("p1 call: %v", err)
	}
	if !tbl.Game.handActive {
		t.Fatalf("hand ended prematurely")
	}

	// Position 2 (big blind, short stack) goes all-in for only 50 more chips
	// on top of its posted blind: a raise of 50, below minRaise of 100.
	if err := tbl.ApplyAction(user2, ActionAllIn, 0); err != nil {
		t.Fatalf("p2 all-in: %v", err)
	}

	if tbl.Game.currentBet != 150 {
		t.Fatalf("currentBet = %d, want 150", tbl.Game.currentBet)
	}
	// Because the all-in raise was short, the round must have completed
	// immediately instead of giving p0/p1 another chance to act, advancing
	// straight to the flop.
	if tbl.Game.phase != PhaseFlop {
		t.Fatalf("phase = %v, want Flop (short all-in must not reopen action)", tbl.Game.phase)
	}
	if len(tbl.Game.board) != 3 {
		t.Fatalf("board has %d cards, want 3", len(tbl.Game.board))
	}
	// The new betting round starts from the first active player after the dealer.
	if tbl.Game.currentActor != 1 {
		t.Fatalf("current actor after flop deal = %d, want 1", tbl.Game.currentActor)
	}
}

func TestActingOutOfTurnIsRejected(t *testing.T) {
	tbl, _, _ := newHeadsUpTable(t, 1000)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	// Find the player who is NOT the current actor.
	var notActing uint64
	for _, p := range tbl.Players {
		if p.Position != tbl.Game.currentActor {
			notActing = p.UserID
		}
	}
	if err := tbl.ApplyAction(notActing, ActionFold, 0); err != ErrOutOfTurn {
		t.Fatalf("err = %v, want ErrOutOfTurn", err)
	}
}

func TestStartHandRequiresTwoEligiblePlayers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 6
	tbl, err := NewTable("solo", cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, err := tbl.Seat(1, 1000, false); err != nil {
		t.Fatalf("seat: %v", err)
	}
	if err := tbl.StartHand(); err != ErrNotEnoughPlayers {
		t.Fatalf("err = %v, want ErrNotEnoughPlayers", err)
	}
}
