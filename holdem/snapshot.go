package holdem

import "holdemlite/card"

// SnapshotPlayer is one seat's view within a personalized Snapshot.
type SnapshotPlayer struct {
	UserID     uint64
	Position   int
	Stack      int64
	Bet        int64
	Status     PlayerStatus
	LastAction ActionType
	// HoleCards is populated only when the visibility rule in spec.md §4.7
	// grants this viewer sight of this seat's cards.
	HoleCards []card.Card
}

// Snapshot is a server-authored, per-viewer view of a table (spec.md §4.7).
type Snapshot struct {
	TableID    string
	Phase      Phase
	HandActive bool
	Pot        int64
	Board      []card.Card

	Players    []SnapshotPlayer
	Spectators []uint64

	Winners      []uint64
	BestHandRank HandRank
	HasWinners   bool

	CurrentActorUserID uint64
	HasCurrentActor    bool
	CurrentBet         int64
	MinBet             int64
}

// BuildSnapshot composes the view of the table for a single viewer.
// showAll is the viewer's own "reveal all" toggle (spectators only,
// spec.md §4.8). Hole cards are included for a seat when the viewer is that
// player, OR showAll is set, OR the hand is FINISHED with winners declared
// (spec.md §4.7) — that last condition is naturally satisfied here because
// the GameState for a just-finished hand is kept around, players and all,
// until the next hand starts (spec.md §9's "last hand snapshot").
func BuildSnapshot(t *Table, viewerUserID uint64, showAll bool) *Snapshot {
	snap := &Snapshot{TableID: t.ID}

	var players []*PlayerState
	if t.Game != nil {
		g := t.Game
		snap.Phase = g.phase
		snap.HandActive = g.handActive
		snap.Board = g.board
		snap.CurrentBet = g.currentBet
		snap.MinBet = g.minRaise
		snap.Pot = g.potTotal()
		if g.currentActor != noPosition {
			snap.CurrentActorUserID = g.players[g.currentActor].UserID
			snap.HasCurrentActor = true
		}
		if g.settlement != nil && len(g.settlement.WinnerPos) > 0 {
			snap.HasWinners = true
			snap.BestHandRank = g.settlement.BestRank
			for _, pos := range g.settlement.WinnerPos {
				snap.Winners = append(snap.Winners, g.players[pos].UserID)
			}
		}
		players = g.players
	} else {
		snap.Phase = PhaseFinished
		players = t.PublicPlayers()
	}

	revealAll := showAll || (snap.Phase == PhaseFinished && snap.HasWinners)
	for _, p := range players {
		sp := SnapshotPlayer{
			UserID:     p.UserID,
			Position:   p.Position,
			Stack:      p.Stack,
			Bet:        p.Bet,
			Status:     p.Status,
			LastAction: p.LastAction,
		}
		if p.UserID == viewerUserID || revealAll {
			sp.HoleCards = p.HoleCards
		}
		snap.Players = append(snap.Players, sp)
	}
	for _, p := range t.PublicSpectators() {
		snap.Spectators = append(snap.Spectators, p.UserID)
	}
	return snap
}

// potTotal is the hand's total committed chips, i.e. the pot. Once a hand
// reaches FINISHED its pot has already been distributed into stacks
// (spec.md §4.4 "After distribution pot := 0").
func (g *GameState) potTotal() int64 {
	if g.phase == PhaseFinished {
		return 0
	}
	var total int64
	for _, p := range g.players {
		total += p.TotalCommitted
	}
	return total
}
