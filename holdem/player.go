package holdem

import "holdemlite/card"

// PlayerState is a single seat's per-hand and per-round mutable state.
// Position is dense within the table's seated-player slice (spec.md §3).
type PlayerState struct {
	UserID   uint64
	Position int

	Stack int64
	Bet   int64
	// TotalCommitted accumulates every chip committed across the whole hand
	// (all betting rounds), used to compute side pots at hand end.
	TotalCommitted int64

	Status     PlayerStatus
	HoleCards  []card.Card
	LastAction ActionType

	IsSmallBlind bool
	IsBigBlind   bool
	HasActed     bool

	evalResult *handEval
}

// ResetForNewHand applies spec.md §4.3's reset_for_new_hand transition.
func (p *PlayerState) ResetForNewHand() {
	switch {
	case p.Status == StatusSpectator:
		// stays SPECTATOR
	case p.Stack == 0:
		p.Status = StatusOut
	default:
		p.Status = StatusActive
	}
	p.HoleCards = nil
	p.Bet = 0
	p.TotalCommitted = 0
	p.LastAction = ActionType(0)
	p.IsSmallBlind = false
	p.IsBigBlind = false
	p.HasActed = false
	p.evalResult = nil
}

// ResetForBettingRound applies spec.md §4.3's reset_for_betting_round transition.
func (p *PlayerState) ResetForBettingRound() {
	p.Bet = 0
	p.HasActed = p.Status != StatusActive
}

// InHand reports whether this seat is still a contender (ACTIVE or ALL_IN).
func (p *PlayerState) InHand() bool {
	return p.Status.InPlay()
}

func (p *PlayerState) fold() {
	p.Status = StatusFolded
	p.HasActed = true
	p.LastAction = ActionFold
}

func (p *PlayerState) check() {
	p.HasActed = true
	p.LastAction = ActionCheck
}

// commit moves min(amount, stack) from stack to bet, going ALL_IN if the
// stack is exhausted. Returns the amount actually committed.
func (p *PlayerState) commit(amount int64) int64 {
	if amount < 0 {
		amount = 0
	}
	if amount >= p.Stack {
		amount = p.Stack
		p.Status = StatusAllIn
	}
	p.Stack -= amount
	p.Bet += amount
	p.TotalCommitted += amount
	return amount
}

func (p *PlayerState) call(required int64) int64 {
	committed := p.commit(required)
	p.HasActed = true
	p.LastAction = ActionCall
	return committed
}

func (p *PlayerState) betChips(amount int64) int64 {
	committed := p.commit(amount)
	p.HasActed = true
	p.LastAction = ActionBet
	return committed
}

func (p *PlayerState) raiseBet(required int64) int64 {
	committed := p.commit(required)
	p.HasActed = true
	p.LastAction = ActionRaise
	return committed
}

func (p *PlayerState) allIn() int64 {
	committed := p.commit(p.Stack)
	p.HasActed = true
	p.LastAction = ActionAllIn
	return committed
}
