package model

import "time"

// RoundID uniquely identifies a round
type RoundID string

// Phase represents the current stage of a round
type Phase string

const (
	PhaseBetting    Phase = "betting"     // Waiting for a wager
	PhasePlayerTurn Phase = "player_turn" // Player may hit, stand or double
	PhaseDealerTurn Phase = "dealer_turn" // Dealer draws to 17
	PhaseSettled    Phase = "settled"     // Outcome decided, ledger applied
)

// Outcome is the result of a settled round from the player's side
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeTie  Outcome = "tie"
)

// Round is the unit of play
type Round struct {
	ID          RoundID `json:"id"`
	Username    string  `json:"username"`
	Bet         int64   `json:"bet"`
	PlayerHand  Hand    `json:"player_hand"`
	DealerHand  Hand    `json:"dealer_hand"`
	Phase       Phase   `json:"phase"`
	Outcome     Outcome `json:"outcome,omitempty"`
	DoubledDown bool    `json:"doubled_down,omitempty"`

	// Settled is set once the ledger has been applied for this round.
	// While true no further ledger effect is allowed.
	Settled bool `json:"settled"`

	CreatedAt time.Time `json:"created_at"`
	SettledAt time.Time `json:"settled_at,omitempty"`
}

// IsTerminal returns true once the round has reached the settled phase
func (r *Round) IsTerminal() bool {
	return r.Phase == PhaseSettled
}

// Table is a player's explicit game session state: the shoe they draw from
// and their current round. It replaces any ambient per-session storage.
type Table struct {
	Username  string    `json:"username"`
	Shoe      *Shoe     `json:"shoe"`
	Round     *Round    `json:"round,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Phase returns the phase of the current round, or betting when there is none
func (t *Table) Phase() Phase {
	if t.Round == nil {
		return PhaseBetting
	}
	return t.Round.Phase
}

// Clone returns a deep copy of the round
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	c.PlayerHand = append(Hand(nil), r.PlayerHand...)
	c.DealerHand = append(Hand(nil), r.DealerHand...)
	return &c
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	return &Table{
		Username:  t.Username,
		Shoe:      t.Shoe.Clone(),
		Round:     t.Round.Clone(),
		UpdatedAt: t.UpdatedAt,
	}
}
