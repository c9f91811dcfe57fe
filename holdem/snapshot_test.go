package holdem

import "testing"

func TestSnapshotHidesOpponentHoleCardsDuringHand(t *testing.T) {
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	cfg.ForcedDealerPosition = &dealer
	cfg.Seed = 5
	tbl, _ := NewTable("snap1", cfg)
	tbl.Seat(1, 1000, false)
	tbl.Seat(2, 1000, false)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	snap := BuildSnapshot(tbl, 1, false)
	if snap.Phase != PhasePreflop {
		t.Fatalf("phase = %v, want Preflop", snap.Phase)
	}
	if !snap.HandActive {
		t.Fatalf("expected HandActive")
	}
	for _, sp := range snap.Players {
		if sp.UserID == 1 {
			if len(sp.HoleCards) != 2 {
				t.Fatalf("viewer's own hole cards must be visible, got %d", len(sp.HoleCards))
			}
		} else {
			if len(sp.HoleCards) != 0 {
				t.Fatalf("opponent hole cards must be hidden mid-hand, got %d", len(sp.HoleCards))
			}
		}
	}
}

func TestSnapshotRevealsAllHandsAfterShowdown(t *testing.T) {
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	cfg.ForcedDealerPosition = &dealer
	cfg.Seed = 9
	tbl, _ := NewTable("snap2", cfg)
	tbl.Seat(1, 1000, false)
	tbl.Seat(2, 1000, false)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	firstActor := tbl.Players[tbl.Game.currentActor].UserID
	if err := tbl.ApplyAction(firstActor, ActionFold, 0); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	// A viewer uninvolved in the hand (a spectator id, not seated) still sees
	// both hands once the hand is FINISHED with a declared winner.
	snap := BuildSnapshot(tbl, 999, false)
	if !snap.HasWinners {
		t.Fatalf("expected HasWinners after a hand-ending fold")
	}
	for _, sp := range snap.Players {
		if len(sp.HoleCards) != 2 {
			t.Fatalf("all hole cards must be visible after the hand ends, position %d has %d", sp.Position, len(sp.HoleCards))
		}
	}
}

func TestSnapshotPotTotalMatchesContributions(t *testing.T) {
	dealer := 0
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	cfg.ForcedDealerPosition = &dealer
	cfg.Seed = 11
	tbl, _ := NewTable("snap3", cfg)
	tbl.Seat(1, 1000, false)
	tbl.Seat(2, 1000, false)
	if err := tbl.StartHand(); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	snap := BuildSnapshot(tbl, 1, false)
	if snap.Pot != 150 { // small blind 50 + big blind 100
		t.Fatalf("pot = %d, want 150", snap.Pot)
	}
}
