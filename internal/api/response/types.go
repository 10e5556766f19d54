package response

import (
	"time"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/services/admin"
	"github.com/mcoot/blackjack-go/internal/services/auth"
	"github.com/mcoot/blackjack-go/internal/services/scoring"
)

// Profile represents a player profile in API responses
type Profile struct {
	Username      string    `json:"username"`
	Balance       int64     `json:"balance"`
	GamesPlayed   int       `json:"games_played"`
	GamesWon      int       `json:"games_won"`
	WinRate       float64   `json:"win_rate"`
	TotalWinnings int64     `json:"total_winnings"`
	BiggestWin    int64     `json:"biggest_win"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileFromModel converts a model.Profile, dropping the credential hash
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		Username:      p.Username,
		Balance:       p.Balance,
		GamesPlayed:   p.GamesPlayed,
		GamesWon:      p.GamesWon,
		WinRate:       p.WinRate(),
		TotalWinnings: p.TotalWinnings,
		BiggestWin:    p.BiggestWin,
		IsAdmin:       p.IsAdmin,
		CreatedAt:     p.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Username     string    `json:"username"`
	IsAdmin      bool      `json:"is_admin"`
	Operator     bool      `json:"operator,omitempty"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Profile      *Profile  `json:"profile,omitempty"`
}

// AuthResponseFromSession creates an AuthResponse from a session.
// profile is nil for operator sessions.
func AuthResponseFromSession(s *auth.Session, profile *model.Profile) AuthResponse {
	resp := AuthResponse{
		Username:     s.Username,
		IsAdmin:      s.IsAdmin,
		Operator:     s.Operator,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
	if profile != nil {
		p := ProfileFromModel(profile)
		resp.Profile = &p
	}
	return resp
}

// Card represents a single card
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// Hand represents a hand of cards with its value.
// Hidden counts cards dealt but not shown.
type Hand struct {
	Cards  []Card `json:"cards"`
	Value  int    `json:"value"`
	Soft   bool   `json:"soft,omitempty"`
	Hidden int    `json:"hidden,omitempty"`
}

// HandFromModel converts a full hand
func HandFromModel(h model.Hand) Hand {
	cards := make([]Card, len(h))
	for i, c := range h {
		cards[i] = Card{Rank: string(c.Rank), Suit: string(c.Suit)}
	}
	return Hand{
		Cards: cards,
		Value: scoring.Value(h),
		Soft:  scoring.IsSoft(h),
	}
}

// dealerHand shows only the up card until the round is settled
func dealerHand(r *model.Round) Hand {
	if r.IsTerminal() || len(r.DealerHand) == 0 {
		return HandFromModel(r.DealerHand)
	}
	up := HandFromModel(r.DealerHand[:1])
	up.Hidden = len(r.DealerHand) - 1
	return up
}

// Round represents the player's view of a round
type Round struct {
	ID          string `json:"id"`
	Bet         int64  `json:"bet"`
	Phase       string `json:"phase"`
	Outcome     string `json:"outcome,omitempty"`
	DoubledDown bool   `json:"doubled_down,omitempty"`
	Settled     bool   `json:"settled"`
	Player      Hand   `json:"player"`
	Dealer      Hand   `json:"dealer"`
}

// RoundFromModel converts a model.Round, hiding the dealer's hole card
// while the round is in play
func RoundFromModel(r *model.Round) Round {
	return Round{
		ID:          string(r.ID),
		Bet:         r.Bet,
		Phase:       string(r.Phase),
		Outcome:     string(r.Outcome),
		DoubledDown: r.DoubledDown,
		Settled:     r.Settled,
		Player:      HandFromModel(r.PlayerHand),
		Dealer:      dealerHand(r),
	}
}

// Table represents a player's table in API responses
type Table struct {
	Phase         string `json:"phase"`
	ShoeRemaining int    `json:"shoe_remaining"`
	Balance       int64  `json:"balance"`
	Round         *Round `json:"round"`
}

// TableFromModel converts a model.Table together with the current balance
func TableFromModel(t *model.Table, balance int64) Table {
	var round *Round
	if t.Round != nil {
		r := RoundFromModel(t.Round)
		round = &r
	}
	return Table{
		Phase:         string(t.Phase()),
		ShoeRemaining: t.Shoe.Remaining(),
		Balance:       balance,
		Round:         round,
	}
}

// Transaction represents a transaction log entry
type Transaction struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Type          string    `json:"transaction_type"`
	Timestamp     time.Time `json:"timestamp"`
	Admin         string    `json:"admin"`
}

// TransactionFromModel converts a model.Transaction
func TransactionFromModel(t *model.Transaction) Transaction {
	return Transaction{
		ID:            t.ID,
		Username:      t.Username,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Type:          string(t.Type),
		Timestamp:     t.Timestamp,
		Admin:         t.Admin,
	}
}

// TransactionsFromModel converts a slice of transactions
func TransactionsFromModel(txs []*model.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, t := range txs {
		out[i] = TransactionFromModel(t)
	}
	return out
}

// CreditResponse is returned by balance-changing admin operations
type CreditResponse struct {
	Profile     Profile     `json:"profile"`
	Transaction Transaction `json:"transaction"`
}

// CreditResponseFromResult converts an admin.CreditResult
func CreditResponseFromResult(r *admin.CreditResult) CreditResponse {
	return CreditResponse{
		Profile:     ProfileFromModel(r.Profile),
		Transaction: TransactionFromModel(r.Transaction),
	}
}

// History is a filtered page of the transaction log
type History struct {
	Transactions     []Transaction `json:"transactions"`
	Matched          int           `json:"matched"`
	TotalCreditsSold int64         `json:"total_credits_sold"`
}

// HistoryFromResult converts an admin.History
func HistoryFromResult(h *admin.History) History {
	return History{
		Transactions:     TransactionsFromModel(h.Transactions),
		Matched:          h.Matched,
		TotalCreditsSold: h.TotalCreditsSold,
	}
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Username    string  `json:"username"`
	Balance     int64   `json:"balance"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
	IsAdmin     bool    `json:"is_admin,omitempty"`
}

// LeaderboardFromResult converts ranked entries
func LeaderboardFromResult(entries []admin.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{
			Rank:        e.Rank,
			Username:    e.Username,
			Balance:     e.Balance,
			GamesPlayed: e.GamesPlayed,
			WinRate:     e.WinRate,
			IsAdmin:     e.IsAdmin,
		}
	}
	return out
}

// Stats summarises every profile
type Stats struct {
	TotalUsers         int                `json:"total_users"`
	TotalBalance       int64              `json:"total_balance"`
	AdminUsers         int                `json:"admin_users"`
	TotalGames         int                `json:"total_games"`
	TotalWinnings      int64              `json:"total_winnings"`
	AverageWinRate     float64            `json:"average_win_rate"`
	EstimatedHouseEdge int64              `json:"estimated_house_edge"`
	TotalTransactions  int                `json:"total_transactions"`
	TopPlayers         []LeaderboardEntry `json:"top_players"`
}

// StatsFromResult converts admin.Stats
func StatsFromResult(s *admin.Stats) Stats {
	return Stats{
		TotalUsers:         s.TotalUsers,
		TotalBalance:       s.TotalBalance,
		AdminUsers:         s.AdminUsers,
		TotalGames:         s.TotalGames,
		TotalWinnings:      s.TotalWinnings,
		AverageWinRate:     s.AverageWinRate,
		EstimatedHouseEdge: s.EstimatedHouseEdge,
		TotalTransactions:  s.TotalTransactions,
		TopPlayers:         LeaderboardFromResult(s.TopPlayers),
	}
}

// MethodTotal is the summed amount for one payment method
type MethodTotal struct {
	Method string `json:"payment_method"`
	Total  int64  `json:"total"`
	Count  int    `json:"count"`
}

// MethodTotalsFromResult converts per-method totals
func MethodTotalsFromResult(totals []admin.MethodTotal) []MethodTotal {
	out := make([]MethodTotal, len(totals))
	for i, t := range totals {
		out[i] = MethodTotal{Method: t.Method, Total: t.Total, Count: t.Count}
	}
	return out
}

// Export is the full data export
type Export struct {
	Profiles     []admin.ProfileExport `json:"profiles"`
	Transactions []Transaction         `json:"transactions"`
	ExportedAt   time.Time             `json:"exported_at"`
}

// ExportFromResult converts an admin.Export
func ExportFromResult(e *admin.Export) Export {
	return Export{
		Profiles:     e.Profiles,
		Transactions: TransactionsFromModel(e.Transactions),
		ExportedAt:   e.ExportedAt,
	}
}
