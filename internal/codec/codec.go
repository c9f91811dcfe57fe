// Package codec defines the JSON wire envelopes exchanged with a connected
// client (spec.md §6) and the conversions between them and the holdem
// engine's types.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"holdemlite/card"
	"holdemlite/holdem"
)

// ClientEnvelope is one text frame received from a client.
type ClientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PlayerActionPayload is the payload of a "player_action" client message.
type PlayerActionPayload struct {
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

// ToggleShowAllPayload is the payload of a "toggle_show_all" client message.
type ToggleShowAllPayload struct {
	Show bool `json:"show"`
}

// ParseClientEnvelope decodes a raw client frame.
func ParseClientEnvelope(raw []byte) (*ClientEnvelope, error) {
	var env ClientEnvelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// DecodePlayerAction parses the payload of a "player_action" message.
func (e *ClientEnvelope) DecodePlayerAction() (PlayerActionPayload, error) {
	var p PlayerActionPayload
	if len(e.Payload) == 0 {
		return p, fmt.Errorf("codec: missing payload")
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, err
	}
	return p, nil
}

// DecodeToggleShowAll parses the payload of a "toggle_show_all" message.
func (e *ClientEnvelope) DecodeToggleShowAll() (ToggleShowAllPayload, error) {
	var p ToggleShowAllPayload
	if len(e.Payload) == 0 {
		return p, fmt.Errorf("codec: missing payload")
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, err
	}
	return p, nil
}

// Client message type strings, per spec.md §6.
const (
	TypePlayerAction  = "player_action"
	TypeToggleShowAll = "toggle_show_all"
)

// Server message type strings, per spec.md §6.
const (
	TypeTableState = "table_state"
	TypeError      = "error"
)

// ServerEnvelope is one text frame sent to a client.
type ServerEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// TableStateEnvelope wraps a personalized snapshot for the wire.
func TableStateEnvelope(snap *holdem.Snapshot) *ServerEnvelope {
	return &ServerEnvelope{Type: TypeTableState, Payload: SnapshotToWire(snap)}
}

// ErrorEnvelope wraps a structured error for the wire (spec.md §7).
func ErrorEnvelope(code, message string) *ServerEnvelope {
	return &ServerEnvelope{Type: TypeError, Code: code, Message: message}
}

// Error codes, per spec.md §6.
const (
	ErrMissingToken       = "missing_token"
	ErrInvalidToken       = "invalid_token"
	ErrInvalidTableID     = "invalid_table_id"
	ErrTableNotFound      = "table_not_found"
	ErrInvalidJSON        = "invalid_json"
	ErrUnknownMessageType = "unknown_message_type"
	ErrMissingAction      = "missing_action"
	ErrInvalidAction      = "invalid_action"
	ErrSpectatorOnly      = "spectator_only"
	ErrSpectatorCannotAct = "spectator_cannot_act"
	ErrPlayerNotSeated    = "player_not_seated"
	ErrStartHandFailed    = "start_hand_failed"
	ErrActionFailed       = "action_failed"
	ErrBroadcastFailed    = "broadcast_failed"
)

// WirePlayer is a SnapshotPlayer shaped for JSON per spec.md §4.7.
type WirePlayer struct {
	UserID     uint64   `json:"user_id"`
	Position   int      `json:"position"`
	Stack      int64    `json:"stack"`
	Bet        int64    `json:"bet"`
	Status     string   `json:"status"`
	LastAction string   `json:"last_action"`
	HoleCards  []string `json:"hole_cards,omitempty"`
}

// WireSnapshot is a holdem.Snapshot shaped for JSON transmission.
type WireSnapshot struct {
	TableID    string   `json:"table_id"`
	Phase      string   `json:"phase"`
	HandActive bool     `json:"hand_active"`
	Pot        int64    `json:"pot"`
	Board      []string `json:"board"`

	Players    []WirePlayer `json:"players"`
	Spectators []uint64     `json:"spectators"`

	Winners      []uint64 `json:"winners,omitempty"`
	BestHandRank string   `json:"best_hand_rank,omitempty"`
	HasWinners   bool     `json:"has_winners"`

	CurrentActorUserID uint64 `json:"current_actor_user_id,omitempty"`
	HasCurrentActor    bool   `json:"has_current_actor"`
	CurrentBet         int64  `json:"current_bet"`
	MinBet             int64  `json:"min_bet"`
}

// SnapshotToWire converts an engine snapshot to its wire representation,
// serializing cards as spec.md §6 rank+suit tokens via card.Card.String().
func SnapshotToWire(snap *holdem.Snapshot) *WireSnapshot {
	w := &WireSnapshot{
		TableID:             snap.TableID,
		Phase:               snap.Phase.String(),
		HandActive:          snap.HandActive,
		Pot:                 snap.Pot,
		Board:               cardsToWire(snap.Board),
		Spectators:          snap.Spectators,
		Winners:             snap.Winners,
		HasWinners:          snap.HasWinners,
		CurrentActorUserID:  snap.CurrentActorUserID,
		HasCurrentActor:     snap.HasCurrentActor,
		CurrentBet:          snap.CurrentBet,
		MinBet:              snap.MinBet,
	}
	if snap.HasWinners {
		w.BestHandRank = snap.BestHandRank.String()
	}
	for _, p := range snap.Players {
		w.Players = append(w.Players, WirePlayer{
			UserID:     p.UserID,
			Position:   p.Position,
			Stack:      p.Stack,
			Bet:        p.Bet,
			Status:     p.Status.String(),
			LastAction: p.LastAction.String(),
			HoleCards:  cardsToWire(p.HoleCards),
		})
	}
	return w
}

func cardsToWire(cards []card.Card) []string {
	if len(cards) == 0 {
		return nil
	}
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
