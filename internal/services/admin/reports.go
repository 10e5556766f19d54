package admin

import (
	"context"
	"sort"
	"time"

	"github.com/mcoot/blackjack-go/internal/dependencies/clock"
	"github.com/mcoot/blackjack-go/internal/model"
)

// Window limits transaction history to a recent period
type Window string

const (
	WindowAll   Window = "all"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
)

// IsValid returns true for a known window, treating empty as all
func (w Window) IsValid() bool {
	switch w {
	case "", WindowAll, WindowToday, WindowWeek:
		return true
	}
	return false
}

// HistoryFilter selects transactions. Empty fields match everything.
type HistoryFilter struct {
	Username      string
	PaymentMethod string
	Window        Window
}

// History is a filtered view of the transaction log
type History struct {
	// Transactions holds the newest HistoryLimit matches, newest first
	Transactions []*model.Transaction
	// Matched counts every transaction that passed the filter
	Matched int
	// TotalCreditsSold sums credit purchases among the matches
	TotalCreditsSold int64
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Rank        int
	Username    string
	Balance     int64
	GamesPlayed int
	WinRate     float64
	IsAdmin     bool
}

// Stats summarises every profile
type Stats struct {
	TotalUsers         int
	TotalBalance       int64
	AdminUsers         int
	TotalGames         int
	TotalWinnings      int64
	AverageWinRate     float64
	EstimatedHouseEdge int64
	TotalTransactions  int
	TopPlayers         []LeaderboardEntry
}

// MethodTotal is the summed amount for one payment method
type MethodTotal struct {
	Method string
	Total  int64
	Count  int
}

// ProfileExport is a profile without its credential hash
type ProfileExport struct {
	Username      string    `json:"username"`
	Balance       int64     `json:"balance"`
	GamesPlayed   int       `json:"games_played"`
	GamesWon      int       `json:"games_won"`
	TotalWinnings int64     `json:"total_winnings"`
	BiggestWin    int64     `json:"biggest_win"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Service) windowStart(w Window) time.Time {
	switch w {
	case WindowToday:
		return clock.StartOfDay(s.clock)
	case WindowWeek:
		return s.clock.Now().AddDate(0, 0, -7)
	default:
		return time.Time{}
	}
}

// History returns matching transactions, newest first
func (s *Service) History(ctx context.Context, filter HistoryFilter) (*History, error) {
	txs, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	since := s.windowStart(filter.Window)
	var matched []*model.Transaction
	for _, tx := range txs {
		if filter.Username != "" && tx.Username != filter.Username {
			continue
		}
		if filter.PaymentMethod != "" && tx.PaymentMethod != filter.PaymentMethod {
			continue
		}
		if !since.IsZero() && tx.Timestamp.Before(since) {
			continue
		}
		matched = append(matched, tx)
	}

	h := &History{Matched: len(matched), Transactions: []*model.Transaction{}}
	for _, tx := range matched {
		if tx.Type == model.TransactionCreditPurchase {
			h.TotalCreditsSold += tx.Amount
		}
	}

	start := len(matched) - HistoryLimit
	if start < 0 {
		start = 0
	}
	for i := len(matched) - 1; i >= start; i-- {
		h.Transactions = append(h.Transactions, matched[i])
	}
	return h, nil
}

// PaymentMethodTotals sums every logged amount per payment method
func (s *Service) PaymentMethodTotals(ctx context.Context) ([]MethodTotal, error) {
	txs, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	byMethod := make(map[string]*MethodTotal)
	for _, tx := range txs {
		mt, ok := byMethod[tx.PaymentMethod]
		if !ok {
			mt = &MethodTotal{Method: tx.PaymentMethod}
			byMethod[tx.PaymentMethod] = mt
		}
		mt.Total += tx.Amount
		mt.Count++
	}

	totals := make([]MethodTotal, 0, len(byMethod))
	for _, mt := range byMethod {
		totals = append(totals, *mt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Method < totals[j].Method })
	return totals, nil
}

// Leaderboard returns the top players by balance
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return rank(profiles, limit), nil
}

func rank(sorted []*model.Profile, limit int) []LeaderboardEntry {
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			Username:    p.Username,
			Balance:     p.Balance,
			GamesPlayed: p.GamesPlayed,
			WinRate:     p.WinRate(),
			IsAdmin:     p.IsAdmin,
		})
	}
	return entries
}

// Stats aggregates profile and transaction totals
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		TotalUsers:        len(profiles),
		TotalTransactions: len(txs),
	}
	var winRates float64
	for _, p := range profiles {
		st.TotalBalance += p.Balance
		st.TotalGames += p.GamesPlayed
		st.TotalWinnings += p.TotalWinnings
		if p.IsAdmin {
			st.AdminUsers++
		}
		winRates += p.WinRate()
	}
	if len(profiles) > 0 {
		st.AverageWinRate = winRates / float64(len(profiles))
	}
	if st.TotalGames > 0 {
		st.EstimatedHouseEdge = int64(st.TotalGames)*nominalBet - st.TotalWinnings
	}
	st.TopPlayers = rank(profiles, TopPlayersSize)
	return st, nil
}

// ExportProfiles returns every profile without credential hashes
func (s *Service) ExportProfiles(ctx context.Context) ([]ProfileExport, error) {
	profiles, err := s.storage.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProfileExport, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ProfileExport{
			Username:      p.Username,
			Balance:       p.Balance,
			GamesPlayed:   p.GamesPlayed,
			GamesWon:      p.GamesWon,
			TotalWinnings: p.TotalWinnings,
			BiggestWin:    p.BiggestWin,
			IsAdmin:       p.IsAdmin,
			CreatedAt:     p.CreatedAt,
		})
	}
	return out, nil
}

// ExportTransactions returns the whole transaction log in insertion order
func (s *Service) ExportTransactions(ctx context.Context) ([]*model.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

// Export is a snapshot of every profile and the transaction log
type Export struct {
	Profiles     []ProfileExport
	Transactions []*model.Transaction
	ExportedAt   time.Time
}

// Export collects profiles and transactions for download
func (s *Service) Export(ctx context.Context) (*Export, error) {
	profiles, err := s.ExportProfiles(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.ExportTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return &Export{
		Profiles:     profiles,
		Transactions: txs,
		ExportedAt:   s.clock.Now(),
	}, nil
}
