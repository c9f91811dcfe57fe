package holdem

import (
	"math/rand"
	"time"

	"holdemlite/card"
)

// Table is one poker table: seated players (dense positions), spectators,
// the dealer button, and the currently-running hand (if any). It owns its
// PlayerStates and its current GameState (spec.md §3 Ownership).
type Table struct {
	ID     string
	Config Config

	Players    []*PlayerState
	Spectators map[uint64]*PlayerState

	DealerPosition int
	Game           *GameState

	// PendingLeave holds user ids force-folded mid-hand whose eviction is
	// deferred until the hand ends (spec.md §4.5 leave).
	PendingLeave map[uint64]bool

	rng       *rand.Rand
	playedOne bool
}

// NewTable constructs an empty table ready to seat players.
func NewTable(id string, cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Table{
		ID:           id,
		Config:       cfg,
		Spectators:   make(map[uint64]*PlayerState),
		PendingLeave: make(map[uint64]bool),
		rng:          rand.New(rand.NewSource(seedOrTime(cfg.Seed))),
	}, nil
}

func seedOrTime(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func (t *Table) findSeated(userID uint64) *PlayerState {
	for _, p := range t.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// Seat adds userID to the table, either as a seated player with the given
// buy-in or as a stackless spectator (spec.md §4.5).
func (t *Table) Seat(userID uint64, buyIn int64, spectator bool) (int, error) {
	if t.findSeated(userID) != nil || t.Spectators[userID] != nil {
		return 0, ErrAlreadySeated
	}
	if spectator {
		t.Spectators[userID] = &PlayerState{UserID: userID, Position: -1, Status: StatusSpectator}
		return -1, nil
	}
	if len(t.Players) >= t.Config.MaxPlayers {
		return 0, ErrTableFull
	}
	status := StatusActive
	if t.Game != nil && t.Game.handActive {
		status = StatusWaiting
	}
	p := &PlayerState{
		UserID:   userID,
		Position: len(t.Players),
		Stack:    buyIn,
		Status:   status,
	}
	t.Players = append(t.Players, p)
	return p.Position, nil
}

// Leave removes userID from the table. Between hands it returns immediately
// with the player's stack as a cash-out. During a hand, it force-folds the
// player, zeroes their stack without refund, and defers eviction until the
// hand ends (spec.md §4.5, §9 "Pending-leave chip fate").
func (t *Table) Leave(userID uint64) (int64, error) {
	if _, ok := t.Spectators[userID]; ok {
		delete(t.Spectators, userID)
		return 0, nil
	}
	p := t.findSeated(userID)
	if p == nil {
		return 0, ErrNotSeated
	}
	if t.Game == nil || !t.Game.handActive {
		cashOut := p.Stack
		t.removeSeat(p.Position)
		return cashOut, nil
	}
	t.PendingLeave[userID] = true
	t.Game.forceFold(p.Position)
	p.Stack = 0
	if !t.Game.handActive {
		t.evictPendingLeavers()
	}
	return 0, nil
}

// removeSeat deletes the player at pos and re-denses remaining positions.
// It builds a fresh backing slice rather than shifting in place so that a
// GameState still holding the pre-eviction player list (to keep a finished
// hand's hole cards visible, spec.md §9) is never corrupted by this mutation.
func (t *Table) removeSeat(pos int) {
	next := make([]*PlayerState, 0, len(t.Players))
	for i, p := range t.Players {
		if i == pos {
			continue
		}
		next = append(next, p)
	}
	for i, p := range next {
		p.Position = i
	}
	t.Players = next
	if len(t.Players) > 0 {
		t.DealerPosition = t.DealerPosition % len(t.Players)
	} else {
		t.DealerPosition = 0
	}
}

// evictPendingLeavers removes every user marked PendingLeave, called after a
// hand ends (spec.md §4.5).
func (t *Table) evictPendingLeavers() {
	if len(t.PendingLeave) == 0 {
		return
	}
	for userID := range t.PendingLeave {
		if p := t.findSeated(userID); p != nil {
			t.removeSeat(p.Position)
		}
	}
	t.PendingLeave = make(map[uint64]bool)
}

// PublicPlayers returns seated players excluding anyone pending eviction.
func (t *Table) PublicPlayers() []*PlayerState {
	out := make([]*PlayerState, 0, len(t.Players))
	for _, p := range t.Players {
		if t.PendingLeave[p.UserID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PublicSpectators returns the current spectator set.
func (t *Table) PublicSpectators() []*PlayerState {
	out := make([]*PlayerState, 0, len(t.Spectators))
	for _, p := range t.Spectators {
		out = append(out, p)
	}
	return out
}

// StartHand begins a new hand: it requires at least two eligible seats
// (stack>0), resets per-hand state, rotates the dealer, posts blinds, deals
// hole cards and opens the first betting round (spec.md §4.4 "Start").
func (t *Table) StartHand() error {
	eligible := 0
	for _, p := range t.Players {
		if p.Stack > 0 {
			eligible++
		}
	}
	if eligible < 2 {
		return ErrNotEnoughPlayers
	}

	for _, p := range t.Players {
		p.ResetForNewHand()
	}

	dealer, err := t.pickDealer()
	if err != nil {
		return err
	}
	t.DealerPosition = dealer
	t.playedOne = true

	// Heads-up is special-cased to the standard two-handed convention: the
	// dealer posts the small blind and acts first preflop (spec.md §8
	// scenario 2). With three or more eligible seats, blinds run dealer ->
	// SB -> BB in seat order.
	var sb, bb int
	if eligible == 2 {
		sb = dealer
		bb, err = t.nextEligibleIndex(dealer)
		if err != nil {
			return err
		}
	} else {
		sb, err = t.nextEligibleIndex(dealer)
		if err != nil {
			return err
		}
		bb, err = t.nextEligibleIndex(sb)
		if err != nil {
			return err
		}
	}

	var deck *card.Deck
	if len(t.Config.DeckOverride) == 52 {
		deck = card.NewDeckFromOrder(t.Config.DeckOverride)
	} else {
		deck = card.NewDeck(t.rng)
	}

	g := &GameState{
		players:       t.Players,
		deck:          deck,
		phase:         PhasePreflop,
		dealerPos:     dealer,
		sbPos:         sb,
		bbPos:         bb,
		currentActor:  noPosition,
		lastAggressor: noPosition,
		handActive:    true,
		config:        t.Config,
	}
	t.Game = g

	if t.Config.Ante > 0 {
		for _, p := range t.Players {
			if p.Status == StatusActive {
				p.commit(t.Config.Ante)
			}
		}
	}

	t.Players[sb].IsSmallBlind = true
	t.Players[sb].commit(t.Config.SmallBlind)
	t.Players[bb].IsBigBlind = true
	t.Players[bb].commit(t.Config.BigBlind)

	var maxBet int64
	for _, p := range t.Players {
		if p.Bet > maxBet {
			maxBet = p.Bet
		}
	}
	g.currentBet = maxBet
	g.minRaise = t.Config.BigBlind

	g.dealHoleCards()

	g.startBettingRound(g.nextIndex(bb))
	return nil
}

func (t *Table) pickDealer() (int, error) {
	if t.Config.ForcedDealerPosition != nil {
		return *t.Config.ForcedDealerPosition, nil
	}
	if !t.playedOne {
		candidates := make([]int, 0, len(t.Players))
		for _, p := range t.Players {
			if p.Stack > 0 {
				candidates = append(candidates, p.Position)
			}
		}
		return candidates[t.rng.Intn(len(candidates))], nil
	}
	return t.nextEligibleIndex(t.DealerPosition)
}

func (t *Table) nextIndex(i int) int {
	return (i + 1) % len(t.Players)
}

func (t *Table) nextEligibleIndex(from int) (int, error) {
	idx := t.nextIndex(from)
	for i := 0; i < len(t.Players); i++ {
		p := t.Players[idx]
		if p.Status != StatusOut && p.Stack > 0 {
			return idx, nil
		}
		idx = t.nextIndex(idx)
	}
	return 0, ErrNotEnoughPlayers
}

// HandActive reports whether a hand is currently running, for callers
// outside the package (the table runtime's maybe_start_game/notify_changed
// contracts, spec.md §4.6) that cannot see GameState's private fields.
func (t *Table) HandActive() bool {
	return t.Game != nil && t.Game.handActive
}

// EligibleCount reports how many seated players have a positive stack and
// could take part in a new hand (spec.md §4.4 "Start" precondition).
func (t *Table) EligibleCount() int {
	n := 0
	for _, p := range t.Players {
		if p.Stack > 0 {
			n++
		}
	}
	return n
}

// ApplyAction routes a player's action to the running hand. On hand end it
// evicts pending-leavers (spec.md §4.5); the dealer button moves to the next
// eligible seat when StartHand begins the following hand.
func (t *Table) ApplyAction(userID uint64, action ActionType, amount int64) error {
	if t.Game == nil || !t.Game.handActive {
		return ErrHandEnded
	}
	p := t.findSeated(userID)
	if p == nil {
		return ErrNotSeated
	}
	if err := t.Game.act(p.Position, action, amount); err != nil {
		return err
	}
	if !t.Game.handActive {
		t.evictPendingLeavers()
	}
	return nil
}

// LegalActions reports the actions currently legal for userID, if it is
// their turn in a running hand.
func (t *Table) LegalActions(userID uint64) (actions []ActionType, toCall int64, minRaiseTo int64) {
	if t.Game == nil {
		return nil, 0, 0
	}
	p := t.findSeated(userID)
	if p == nil {
		return nil, 0, 0
	}
	return t.Game.LegalActions(p.Position)
}

// GameState drives a single hand from PREFLOP through FINISHED. It borrows
// the table's seat slice (spec.md §9 "Cyclic references") and never holds a
// back-reference to the Table.
type GameState struct {
	players []*PlayerState
	deck    *card.Deck
	board   []card.Card
	phase   Phase
	config  Config

	dealerPos int
	sbPos     int
	bbPos     int

	currentBet    int64
	minRaise      int64
	currentActor  int
	lastAggressor int

	handActive bool
	settlement *SettlementResult
}

func (g *GameState) nextIndex(i int) int {
	return (i + 1) % len(g.players)
}

func (g *GameState) countInHand() int {
	n := 0
	for _, p := range g.players {
		if p.InHand() {
			n++
		}
	}
	return n
}

func (g *GameState) dealHoleCards() {
	for round := 0; round < 2; round++ {
		for _, p := range g.players {
			if p.Status != StatusActive {
				continue
			}
			c, err := g.deck.Draw()
			if err != nil {
				continue
			}
			p.HoleCards = append(p.HoleCards, c)
		}
	}
}

// startBettingRound initializes HasActed for the coming round (players who
// cannot act are marked done) and sets the first actor starting at startPos.
func (g *GameState) startBettingRound(startPos int) {
	for _, p := range g.players {
		p.HasActed = p.Status != StatusActive
	}
	g.currentActor = g.findNextActor(startPos)
}

func (g *GameState) findNextActor(from int) int {
	n := len(g.players)
	idx := from
	for i := 0; i < n; i++ {
		p := g.players[idx]
		if p.Status == StatusActive && !p.HasActed {
			return idx
		}
		idx = g.nextIndex(idx)
	}
	return noPosition
}

func (g *GameState) resetOthersHasActed(except int) {
	for i, p := range g.players {
		if i == except {
			p.HasActed = true
			continue
		}
		p.HasActed = p.Status != StatusActive
	}
}

// LegalActions reports which actions are currently legal for pos, plus the
// amount required to call and the minimum legal bet/raise size — a pure
// projection with no side effects, for building client action prompts.
func (g *GameState) LegalActions(pos int) (actions []ActionType, toCall int64, minRaiseTo int64) {
	if !g.handActive || pos != g.currentActor || pos < 0 || pos >= len(g.players) {
		return nil, 0, 0
	}
	p := g.players[pos]
	toCall = g.currentBet - p.Bet
	if toCall < 0 {
		toCall = 0
	}
	actions = append(actions, ActionFold)
	if toCall == 0 {
		actions = append(actions, ActionCheck)
	} else {
		actions = append(actions, ActionCall)
	}
	if p.Stack > 0 {
		actions = append(actions, ActionAllIn)
		if g.currentBet == 0 {
			actions = append(actions, ActionBet)
			minRaiseTo = g.minRaise
		} else {
			actions = append(actions, ActionRaise)
			minRaiseTo = g.currentBet + g.minRaise
		}
	}
	return actions, toCall, minRaiseTo
}

// act validates and applies a single player action (spec.md §4.4 "Action validation").
func (g *GameState) act(pos int, action ActionType, amount int64) error {
	if !g.handActive {
		return ErrHandEnded
	}
	if pos != g.currentActor {
		return ErrOutOfTurn
	}
	p := g.players[pos]
	if p.Status != StatusActive {
		return &InvalidStateError{Msg: "actor is not active"}
	}

	switch action {
	case ActionFold:
		p.fold()
		if g.countInHand() <= 1 {
			g.finishSingleSurvivor()
			return nil
		}
		g.advanceTurn(pos)

	case ActionCheck:
		if p.Bet != g.currentBet {
			return newActionError("invalid_action", "cannot check when facing a bet")
		}
		p.check()
		g.advanceTurn(pos)

	case ActionCall:
		required := g.currentBet - p.Bet
		if required < 0 {
			required = 0
		}
		p.call(required)
		g.advanceTurn(pos)

	case ActionBet:
		if g.currentBet != 0 {
			return newActionError("invalid_action", "betting is not available after someone has bet")
		}
		if amount < g.minRaise {
			return newActionError("invalid_action", "bet amount is smaller than minimum bet")
		}
		g.applyAggressiveAction(p, pos, amount, ActionBet)
		g.advanceTurn(pos)

	case ActionRaise:
		if g.currentBet == 0 {
			return newActionError("invalid_action", "no bet to raise")
		}
		if amount <= g.currentBet {
			return newActionError("invalid_action", "raise must exceed the current bet")
		}
		raiseSize := amount - g.currentBet
		if raiseSize < g.minRaise {
			return newActionError("invalid_action", "raise is below the minimum allowed size")
		}
		g.applyAggressiveAction(p, pos, amount, ActionRaise)
		g.advanceTurn(pos)

	case ActionAllIn:
		if p.Stack <= 0 {
			return newActionError("invalid_action", "cannot go all-in with zero stack")
		}
		g.applyAggressiveAction(p, pos, p.Bet+p.Stack, ActionAllIn)
		g.advanceTurn(pos)

	default:
		return newActionError("invalid_action", "unsupported action")
	}
	return nil
}

// applyAggressiveAction commits the chips needed to bring p's total round
// bet to targetBet (capped by stack, going ALL_IN if exhausted) and applies
// the reopening rule: a full raise (delta >= minRaise) updates current_bet,
// minRaise and the last aggressor and forces every other ACTIVE player to
// act again; a short all-in raises current_bet without reopening action to
// players who already acted this round (spec.md §4.4 "ALL_IN", §9 scenario 5).
func (g *GameState) applyAggressiveAction(p *PlayerState, pos int, targetBet int64, actionType ActionType) {
	previousCurrentBet := g.currentBet
	delta := targetBet - p.Bet
	p.commit(delta)
	p.HasActed = true
	p.LastAction = actionType

	if p.Bet <= previousCurrentBet {
		return
	}
	raiseSize := p.Bet - previousCurrentBet
	g.currentBet = p.Bet
	if raiseSize >= g.minRaise {
		g.minRaise = raiseSize
		g.lastAggressor = pos
		g.resetOthersHasActed(pos)
	}
}

func (g *GameState) advanceTurn(pos int) {
	if g.countInHand() <= 1 {
		g.finishSingleSurvivor()
		return
	}
	next := g.findNextActor(g.nextIndex(pos))
	g.currentActor = next
	if next == noPosition {
		g.advancePhase()
	}
}

// advancePhase moves through FLOP/TURN/RIVER, skipping straight through any
// street where no ACTIVE player can act (e.g. everyone remaining is all-in),
// and runs the showdown from RIVER (spec.md §4.4 "Phase advancement").
func (g *GameState) advancePhase() {
	if !g.handActive {
		return
	}
	for {
		switch g.phase {
		case PhasePreflop:
			g.phase = PhaseFlop
			g.dealBoardCards(3)
			g.startNewBettingRound()
		case PhaseFlop:
			g.phase = PhaseTurn
			g.dealBoardCards(1)
			g.startNewBettingRound()
		case PhaseTurn:
			g.phase = PhaseRiver
			g.dealBoardCards(1)
			g.startNewBettingRound()
		case PhaseRiver:
			g.runShowdown()
			return
		default:
			return
		}
		if g.currentActor != noPosition {
			return
		}
		if g.phase == PhaseShowdown || g.phase == PhaseFinished {
			return
		}
	}
}

func (g *GameState) startNewBettingRound() {
	for _, p := range g.players {
		p.ResetForBettingRound()
	}
	g.currentBet = 0
	g.minRaise = g.config.BigBlind
	g.startBettingRound(g.nextIndex(g.dealerPos))
}

func (g *GameState) dealBoardCards(n int) {
	g.deck.Draw() // burn
	cards, _ := g.deck.DrawMany(n)
	g.board = append(g.board, cards...)
}

func (g *GameState) runShowdown() {
	g.phase = PhaseShowdown
	g.currentActor = noPosition
	g.settlement = settleHand(g.players, g.board, g.sbPos)
	g.phase = PhaseFinished
	g.handActive = false
}

func (g *GameState) finishSingleSurvivor() {
	g.currentActor = noPosition
	g.settlement = settleHand(g.players, g.board, g.sbPos)
	g.phase = PhaseFinished
	g.handActive = false
}

// forceFold applies spec.md §4.4's "Force-fold": the runtime removes a
// seated player mid-hand by folding on their behalf regardless of turn.
func (g *GameState) forceFold(pos int) {
	if !g.handActive || pos < 0 || pos >= len(g.players) {
		return
	}
	p := g.players[pos]
	if !p.InHand() {
		return
	}
	wasActor := g.currentActor == pos
	p.fold()
	if g.countInHand() <= 1 {
		g.finishSingleSurvivor()
		return
	}
	if wasActor {
		next := g.findNextActor(g.nextIndex(pos))
		g.currentActor = next
		if next == noPosition {
			g.advancePhase()
		}
	}
}
