package model

import "time"

// DefaultStartingBalance is the balance granted to a newly registered profile
const DefaultStartingBalance int64 = 1000

// Profile is the persistent per-player record, keyed by username
type Profile struct {
	Username      string    `json:"username"`
	PasswordHash  string    `json:"password_hash"` // bcrypt hash, never the raw credential
	Balance       int64     `json:"balance"`
	GamesPlayed   int       `json:"games_played"`
	GamesWon      int       `json:"games_won"`
	TotalWinnings int64     `json:"total_winnings"`
	BiggestWin    int64     `json:"biggest_win"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// LastSettledRound is the id of the most recent round applied to this
	// profile by the ledger
	LastSettledRound RoundID `json:"last_settled_round,omitempty"`
	// LastSettledOutcome and LastSettledBet are what the ledger applied for
	// LastSettledRound
	LastSettledOutcome Outcome `json:"last_settled_outcome,omitempty"`
	LastSettledBet     int64   `json:"last_settled_bet,omitempty"`
}

// NewProfile creates a profile with all statistics at their defaults
func NewProfile(username, passwordHash string, startingBalance int64, now time.Time) *Profile {
	return &Profile{
		Username:     username,
		PasswordHash: passwordHash,
		Balance:      startingBalance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// WinRate returns games won as a percentage of games played
func (p *Profile) WinRate() float64 {
	played := p.GamesPlayed
	if played < 1 {
		played = 1
	}
	return float64(p.GamesWon) / float64(played) * 100
}

// Clone returns a copy of the profile
func (p *Profile) Clone() *Profile {
	c := *p
	return &c
}
