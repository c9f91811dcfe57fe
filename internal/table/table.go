// Package table implements the table runtime (spec.md §4.6): one serial
// executor per table that owns the holdem.Table, the registry of connected
// sessions, and the deferred-leave / deferred-next-hand timers.
package table

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"holdemlite/holdem"
	"holdemlite/internal/codec"
	"holdemlite/internal/ledger"
)

const (
	// LeaveGrace is how long a disconnected user's seat is held before the
	// runtime force-leaves them (spec.md §4.6).
	LeaveGrace = 60 * time.Second
	// NextHandDelay is the pause between a hand finishing and the next one
	// starting (spec.md §4.6).
	NextHandDelay = 5 * time.Second
)

// Sender delivers one server envelope to a connected session. A non-nil
// error means the send failed; notifyChanged drops that session from the
// registry when it happens.
type Sender func(*codec.ServerEnvelope) error

// ActionError is returned by HandlePlayerAction/HandleToggleShowAll when the
// request is rejected for a wire-protocol reason (spec.md §6 error codes),
// as opposed to an internal failure.
type ActionError struct {
	Code string
	Msg  string
}

func (e *ActionError) Error() string { return e.Msg }

func actionErr(code, msg string) error { return &ActionError{Code: code, Msg: msg} }

type runtimeErr string

func (e runtimeErr) Error() string { return string(e) }

// ErrRuntimeClosed is returned by API calls once the runtime has stopped.
const ErrRuntimeClosed = runtimeErr("table: runtime closed")

// ErrInsufficientBuyIn is returned by Seat when the user's ledger balance
// cannot cover the requested buy-in.
const ErrInsufficientBuyIn = runtimeErr("table: balance below requested buy-in")

type sessionInfo struct {
	userID  uint64
	showAll bool
	send    Sender
}

// Runtime is the per-table serial executor. All mutation of its
// holdem.Table happens on the run() goroutine; submit (and enqueue, for
// timer callbacks) are the only entrypoints other goroutines use, matching
// the teacher's actor pattern —
// the single goroutine's exclusive ownership is what serializes access, so
// no separate mutex guards Table.
type Runtime struct {
	ID     string
	Table  *holdem.Table
	ledger ledger.Service

	events chan Event
	done   chan struct{}

	sessions      map[string]*sessionInfo
	sessionsByUsr map[uint64]map[string]bool

	leaveTimers   map[uint64]*time.Timer
	nextHandTimer *time.Timer

	startStacks map[uint64]int64
	stopped     bool

	// leaveGrace/nextHandDelay default to LeaveGrace/NextHandDelay; tests in
	// this package shrink them to avoid real-time sleeps.
	leaveGrace    time.Duration
	nextHandDelay time.Duration
}

// eventType enumerates the messages a Runtime's actor loop understands.
type eventType int

const (
	evRegisterSession eventType = iota
	evUnregisterSession
	evToggleShowAll
	evPlayerAction
	evSeat
	evLeaveRequest
	evLeaveTimerFired
	evNextHandTimerFired
	evClose
	evIsEmpty
)

// Event is one message submitted to the table's actor loop.
type Event struct {
	typ       eventType
	sessionID string
	userID    uint64
	buyIn     int64
	spectator bool
	show      bool
	action    holdem.ActionType
	amount    int64
	sender    Sender

	response chan eventResult
}

type eventResult struct {
	value any
	err   error
}

// New constructs a Runtime for a freshly created table and starts its
// actor goroutine.
func New(id string, cfg holdem.Config, ledgerService ledger.Service) (*Runtime, error) {
	tbl, err := holdem.NewTable(id, cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		ID:            id,
		Table:         tbl,
		ledger:        ledgerService,
		events:        make(chan Event, 256),
		done:          make(chan struct{}),
		sessions:      make(map[string]*sessionInfo),
		sessionsByUsr: make(map[uint64]map[string]bool),
		leaveTimers:   make(map[uint64]*time.Timer),
		startStacks:   make(map[uint64]int64),
		leaveGrace:    LeaveGrace,
		nextHandDelay: NextHandDelay,
	}
	go rt.run()
	return rt, nil
}

func (rt *Runtime) run() {
	for {
		select {
		case e := <-rt.events:
			res := rt.handle(e)
			if e.response != nil {
				e.response <- res
			}
		case <-rt.done:
			return
		}
	}
}

// submit enqueues e and blocks for the actor loop's response.
func (rt *Runtime) submit(e Event) (any, error) {
	e.response = make(chan eventResult, 1)
	select {
	case rt.events <- e:
	case <-rt.done:
		return nil, ErrRuntimeClosed
	}
	select {
	case res := <-e.response:
		return res.value, res.err
	case <-rt.done:
		return nil, ErrRuntimeClosed
	}
}

// --- public API used by gateway/lobby ---

// RegisterSession attaches a connected session to the table and cancels any
// pending delayed-leave timer for its user.
func (rt *Runtime) RegisterSession(sessionID string, userID uint64, send Sender) error {
	_, err := rt.submit(Event{typ: evRegisterSession, sessionID: sessionID, userID: userID, sender: send})
	return err
}

// UnregisterSession detaches a disconnected session. If it was the user's
// last session, a delayed-leave timer is armed.
func (rt *Runtime) UnregisterSession(sessionID string) {
	rt.submit(Event{typ: evUnregisterSession, sessionID: sessionID})
}

// HandleToggleShowAll processes a spectator's toggle_show_all message.
func (rt *Runtime) HandleToggleShowAll(sessionID string, show bool) error {
	_, err := rt.submit(Event{typ: evToggleShowAll, sessionID: sessionID, show: show})
	return err
}

// HandlePlayerAction processes a seated player's action message. If no hand
// is active it starts one first (spec.md §4.4: any eligible action may
// begin the next hand).
func (rt *Runtime) HandlePlayerAction(userID uint64, action holdem.ActionType, amount int64) error {
	_, err := rt.submit(Event{typ: evPlayerAction, userID: userID, action: action, amount: amount})
	return err
}

// Seat seats or spectates a user, debiting the ledger for a player buy-in.
func (rt *Runtime) Seat(userID uint64, buyIn int64, spectator bool) (int, error) {
	v, err := rt.submit(Event{typ: evSeat, userID: userID, buyIn: buyIn, spectator: spectator})
	if err != nil {
		return 0, err
	}
	pos, _ := v.(int)
	return pos, nil
}

// Leave removes a user from the table. Between hands the seat is freed at
// once and the cash-out is credited; during a hand the user is force-folded,
// gets no cash-out, and is evicted when the hand ends.
func (rt *Runtime) Leave(userID uint64) (int64, error) {
	v, err := rt.submit(Event{typ: evLeaveRequest, userID: userID})
	if err != nil {
		return 0, err
	}
	cashOut, _ := v.(int64)
	return cashOut, nil
}

// IsEmpty reports whether no sessions and no seated players or spectators
// remain (used by the lobby's idle-table cleanup, spec.md §4.6).
func (rt *Runtime) IsEmpty() bool {
	v, err := rt.submit(Event{typ: evIsEmpty})
	if err != nil {
		return true
	}
	empty, _ := v.(bool)
	return empty
}

// Stop shuts down the runtime's actor loop and cancels its timers.
func (rt *Runtime) Stop() {
	rt.submit(Event{typ: evClose})
}

// --- actor loop dispatch ---

func (rt *Runtime) handle(e Event) eventResult {
	switch e.typ {
	case evRegisterSession:
		rt.handleRegisterSession(e)
		return eventResult{}
	case evUnregisterSession:
		rt.handleUnregisterSession(e.sessionID)
		return eventResult{}
	case evToggleShowAll:
		return rt.handleToggleShowAll(e)
	case evPlayerAction:
		return rt.handlePlayerAction(e)
	case evSeat:
		return rt.handleSeat(e)
	case evLeaveRequest:
		return rt.handleLeaveRequest(e.userID)
	case evLeaveTimerFired:
		rt.handleLeaveTimerFired(e.userID)
		return eventResult{}
	case evNextHandTimerFired:
		rt.handleNextHandTimerFired()
		return eventResult{}
	case evClose:
		rt.handleClose()
		return eventResult{}
	case evIsEmpty:
		empty := len(rt.sessions) == 0 && len(rt.Table.PublicPlayers()) == 0 && len(rt.Table.PublicSpectators()) == 0
		return eventResult{value: empty}
	default:
		return eventResult{}
	}
}

func (rt *Runtime) handleRegisterSession(e Event) {
	rt.sessions[e.sessionID] = &sessionInfo{userID: e.userID, send: e.sender}
	if rt.sessionsByUsr[e.userID] == nil {
		rt.sessionsByUsr[e.userID] = make(map[string]bool)
	}
	rt.sessionsByUsr[e.userID][e.sessionID] = true
	rt.cancelLeaveTimer(e.userID)
	rt.notifyChanged()
}

func (rt *Runtime) handleUnregisterSession(sessionID string) {
	info, ok := rt.sessions[sessionID]
	if !ok {
		return
	}
	delete(rt.sessions, sessionID)
	set := rt.sessionsByUsr[info.userID]
	delete(set, sessionID)
	if len(set) == 0 {
		delete(rt.sessionsByUsr, info.userID)
		if rt.isSeated(info.userID) {
			rt.scheduleDelayedLeave(info.userID)
		}
	}
}

func (rt *Runtime) handleToggleShowAll(e Event) eventResult {
	info, ok := rt.sessions[e.sessionID]
	if !ok {
		return eventResult{err: ErrRuntimeClosed}
	}
	if !rt.isSpectator(info.userID) {
		return eventResult{err: actionErr(codec.ErrSpectatorOnly, "toggle_show_all is for spectators only")}
	}
	info.showAll = e.show
	rt.notifyChanged()
	return eventResult{}
}

func (rt *Runtime) handleSeat(e Event) eventResult {
	balance, err := rt.ledger.Balance(context.Background(), e.userID)
	if err != nil {
		return eventResult{err: err}
	}
	if !e.spectator && balance < e.buyIn {
		return eventResult{err: ErrInsufficientBuyIn}
	}
	pos, err := rt.Table.Seat(e.userID, e.buyIn, e.spectator)
	if err != nil {
		return eventResult{err: err}
	}
	if !e.spectator && e.buyIn > 0 {
		if _, err := rt.ledger.AdjustBalance(context.Background(), e.userID, -e.buyIn); err != nil {
			rt.Table.Leave(e.userID) // rollback the in-memory seat (spec.md §4.9)
			return eventResult{err: err}
		}
	}
	rt.maybeStartGame()
	rt.notifyChanged()
	return eventResult{value: pos}
}

func (rt *Runtime) handleLeaveRequest(userID uint64) eventResult {
	cashOut, err := rt.Table.Leave(userID)
	if err != nil {
		return eventResult{err: err}
	}
	if cashOut > 0 {
		if _, err := rt.ledger.AdjustBalance(context.Background(), userID, cashOut); err != nil {
			log.Printf("[Table %s] credit cash-out failed for user %d: %v", rt.ID, userID, err)
		}
	}
	rt.notifyChanged()
	return eventResult{value: cashOut}
}

func (rt *Runtime) handlePlayerAction(e Event) eventResult {
	if rt.isSpectator(e.userID) {
		return eventResult{err: actionErr(codec.ErrSpectatorCannotAct, "spectators cannot act")}
	}
	if !rt.isSeated(e.userID) {
		return eventResult{err: actionErr(codec.ErrPlayerNotSeated, "not seated at this table")}
	}

	if !rt.Table.HandActive() {
		rt.cancelNextHandTimer()
		if err := rt.startHand(); err != nil {
			return eventResult{err: actionErr(codec.ErrStartHandFailed, err.Error())}
		}
	}

	wasActive := rt.Table.HandActive()
	if err := rt.Table.ApplyAction(e.userID, e.action, e.amount); err != nil {
		return eventResult{err: actionErr(codec.ErrActionFailed, err.Error())}
	}
	rt.notifyChanged()
	if wasActive && !rt.Table.HandActive() {
		rt.onHandFinished()
	}
	return eventResult{}
}

func (rt *Runtime) handleLeaveTimerFired(userID uint64) {
	delete(rt.leaveTimers, userID)
	if len(rt.sessionsByUsr[userID]) > 0 {
		return // reconnected since the timer was scheduled
	}
	cashOut, err := rt.Table.Leave(userID)
	if err != nil {
		return
	}
	if cashOut > 0 {
		if _, err := rt.ledger.AdjustBalance(context.Background(), userID, cashOut); err != nil {
			log.Printf("[Table %s] credit cash-out failed for user %d: %v", rt.ID, userID, err)
		}
	}
	rt.notifyChanged()
}

func (rt *Runtime) handleNextHandTimerFired() {
	rt.nextHandTimer = nil
	rt.maybeStartGame()
}

func (rt *Runtime) handleClose() {
	if rt.stopped {
		return
	}
	rt.stopped = true
	rt.cancelNextHandTimer()
	for userID, timer := range rt.leaveTimers {
		timer.Stop()
		delete(rt.leaveTimers, userID)
	}
	close(rt.done)
}

// --- spec.md §4.6 contracts ---

// notifyChanged computes a personalized snapshot for every connected
// session and sends it best-effort, dropping sessions whose send fails.
func (rt *Runtime) notifyChanged() {
	for sessionID, info := range rt.sessions {
		snap := holdem.BuildSnapshot(rt.Table, info.userID, info.showAll)
		env := codec.TableStateEnvelope(snap)
		if err := info.send(env); err != nil {
			delete(rt.sessions, sessionID)
			set := rt.sessionsByUsr[info.userID]
			delete(set, sessionID)
			if len(set) == 0 {
				delete(rt.sessionsByUsr, info.userID)
			}
		}
	}
}

// maybeStartGame starts a hand if none is active and at least two eligible
// seated players exist.
func (rt *Runtime) maybeStartGame() {
	if rt.Table.HandActive() {
		return
	}
	if rt.Table.EligibleCount() < 2 {
		return
	}
	if err := rt.startHand(); err != nil {
		log.Printf("[Table %s] maybe_start_game: %v", rt.ID, err)
		return
	}
	rt.notifyChanged()
}

func (rt *Runtime) startHand() error {
	rt.startStacks = make(map[uint64]int64, len(rt.Table.PublicPlayers()))
	for _, p := range rt.Table.PublicPlayers() {
		rt.startStacks[p.UserID] = p.Stack
	}
	return rt.Table.StartHand()
}

// onHandFinished persists the settled hand and schedules the next one.
func (rt *Runtime) onHandFinished() {
	snap := holdem.BuildSnapshot(rt.Table, 0, true)
	handUUID := uuid.NewString()
	hand := ledger.SettlementToFinishedHand(handUUID, rt.ID, time.Now(), snap, rt.startStacks)
	if err := rt.ledger.RecordFinishedHand(context.Background(), hand); err != nil {
		log.Printf("[Table %s] persist finished hand failed: %v", rt.ID, err)
	}
	rt.scheduleNextHand()
}

// scheduleNextHand arms the deferred-next-hand timer if one is not already
// pending.
func (rt *Runtime) scheduleNextHand() {
	if rt.nextHandTimer != nil || rt.stopped {
		return
	}
	rt.nextHandTimer = time.AfterFunc(rt.nextHandDelay, func() {
		rt.enqueue(Event{typ: evNextHandTimerFired})
	})
}

func (rt *Runtime) cancelNextHandTimer() {
	if rt.nextHandTimer != nil {
		rt.nextHandTimer.Stop()
		rt.nextHandTimer = nil
	}
}

// scheduleDelayedLeave arms the grace timer for a user with no remaining
// connected session.
func (rt *Runtime) scheduleDelayedLeave(userID uint64) {
	rt.cancelLeaveTimer(userID)
	if rt.stopped {
		return
	}
	rt.leaveTimers[userID] = time.AfterFunc(rt.leaveGrace, func() {
		rt.enqueue(Event{typ: evLeaveTimerFired, userID: userID})
	})
}

func (rt *Runtime) cancelLeaveTimer(userID uint64) {
	if timer, ok := rt.leaveTimers[userID]; ok {
		timer.Stop()
		delete(rt.leaveTimers, userID)
	}
}

// enqueue is used by timer callbacks, which run on their own goroutine and
// must not touch Runtime state directly.
func (rt *Runtime) enqueue(e Event) {
	select {
	case rt.events <- e:
	case <-rt.done:
	}
}

func (rt *Runtime) isSpectator(userID uint64) bool {
	_, ok := rt.Table.Spectators[userID]
	return ok
}

func (rt *Runtime) isSeated(userID uint64) bool {
	for _, p := range rt.Table.PublicPlayers() {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
