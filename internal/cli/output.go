package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, pterm.Success.Sprint(msg))
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case AuthResult:
		o.printAuthResult(v)
	case Table:
		o.printTable(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case Players:
		o.printPlayers(v)
	case CreditResult:
		o.printCreditResult(v)
	case History:
		o.printHistory(v)
	case MethodTotals:
		o.printMethodTotals(v)
	case Stats:
		o.printStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Profile response type (matches API)
type Profile struct {
	Username      string  `json:"username"`
	Balance       int64   `json:"balance"`
	GamesPlayed   int     `json:"games_played"`
	GamesWon      int     `json:"games_won"`
	WinRate       float64 `json:"win_rate"`
	TotalWinnings int64   `json:"total_winnings"`
	BiggestWin    int64   `json:"biggest_win"`
	IsAdmin       bool    `json:"is_admin"`
}

// Players is the admin player listing
type Players []Profile

// AuthResult is returned by register and login
type AuthResult struct {
	Username     string   `json:"username"`
	IsAdmin      bool     `json:"is_admin"`
	Operator     bool     `json:"operator,omitempty"`
	SessionToken string   `json:"session_token"`
	Profile      *Profile `json:"profile,omitempty"`
}

// Card response type
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// Hand response type
type Hand struct {
	Cards  []Card `json:"cards"`
	Value  int    `json:"value"`
	Soft   bool   `json:"soft,omitempty"`
	Hidden int    `json:"hidden,omitempty"`
}

// Round response type
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

// Table response type
type Table struct {
	Phase         string `json:"phase"`
	ShoeRemaining int    `json:"shoe_remaining"`
	Balance       int64  `json:"balance"`
	Round         *Round `json:"round"`
}

// Transaction response type
type Transaction struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	Type          string `json:"transaction_type"`
	Timestamp     string `json:"timestamp"`
	Admin         string `json:"admin"`
}

// CreditResult is returned by balance-changing admin commands
type CreditResult struct {
	Profile     Profile     `json:"profile"`
	Transaction Transaction `json:"transaction"`
}

// History is a filtered page of the transaction log
type History struct {
	Transactions     []Transaction `json:"transactions"`
	Matched          int           `json:"matched"`
	TotalCreditsSold int64         `json:"total_credits_sold"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Username    string  `json:"username"`
	Balance     int64   `json:"balance"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
	IsAdmin     bool    `json:"is_admin,omitempty"`
}

// Leaderboard is a ranked list of players
type Leaderboard []LeaderboardEntry

// MethodTotal response type
type MethodTotal struct {
	Method string `json:"payment_method"`
	Total  int64  `json:"total"`
	Count  int    `json:"count"`
}

// MethodTotals is the payment method report
type MethodTotals []MethodTotal

// Stats response type
type Stats struct {
	TotalUsers         int         `json:"total_users"`
	TotalBalance       int64       `json:"total_balance"`
	AdminUsers         int         `json:"admin_users"`
	TotalGames         int         `json:"total_games"`
	TotalWinnings      int64       `json:"total_winnings"`
	AverageWinRate     float64     `json:"average_win_rate"`
	EstimatedHouseEdge int64       `json:"estimated_house_edge"`
	TotalTransactions  int         `json:"total_transactions"`
	TopPlayers         Leaderboard `json:"top_players"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

var suitSymbols = map[string]string{"H": "♥", "D": "♦", "C": "♣", "S": "♠"}

func formatCard(c Card) string {
	s := c.Rank + suitSymbols[c.Suit]
	if c.Suit == "H" || c.Suit == "D" {
		return pterm.Red(s)
	}
	return s
}

func formatHand(h Hand) string {
	parts := make([]string, 0, len(h.Cards)+h.Hidden)
	for _, c := range h.Cards {
		parts = append(parts, formatCard(c))
	}
	for i := 0; i < h.Hidden; i++ {
		parts = append(parts, "??")
	}

	value := strconv.Itoa(h.Value)
	if h.Soft {
		value = "soft " + value
	}
	if h.Value > 21 {
		value = pterm.LightRed(value + " BUST")
	}
	return fmt.Sprintf("%s  (%s)", strings.Join(parts, " "), value)
}

func formatOutcome(outcome string) string {
	switch outcome {
	case "win":
		return pterm.LightGreen("YOU WIN")
	case "lose":
		return pterm.LightRed("DEALER WINS")
	case "tie":
		return pterm.LightYellow("PUSH")
	default:
		return outcome
	}
}

func (o *Output) renderTable(rows [][]string) {
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		o.printJSON(rows)
		return
	}
	fmt.Fprintln(o.w, rendered)
}

func (o *Output) printProfile(p Profile) {
	fmt.Fprintf(o.w, "Player: %s\n", p.Username)
	fmt.Fprintf(o.w, "Balance: %d\n", p.Balance)
	fmt.Fprintf(o.w, "Games: %d played, %d won (%.1f%%)\n", p.GamesPlayed, p.GamesWon, p.WinRate)
	fmt.Fprintf(o.w, "Winnings: %d total, %d biggest\n", p.TotalWinnings, p.BiggestWin)
	if p.IsAdmin {
		fmt.Fprintln(o.w, "Admin: yes")
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	if a.Profile != nil {
		o.printProfile(*a.Profile)
	} else {
		fmt.Fprintf(o.w, "Operator: %s\n", a.Username)
	}
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printTable(t Table) {
	fmt.Fprintf(o.w, "Balance: %d   Shoe: %d cards\n", t.Balance, t.ShoeRemaining)
	if t.Round == nil {
		fmt.Fprintln(o.w, "No round in play. Place a bet to deal.")
		return
	}

	r := t.Round
	body := fmt.Sprintf("Dealer: %s\nYou:    %s\nBet:    %d", formatHand(r.Dealer), formatHand(r.Player), r.Bet)
	if r.DoubledDown {
		body += " (doubled)"
	}
	title := strings.ReplaceAll(r.Phase, "_", " ")
	if r.Settled {
		title = formatOutcome(r.Outcome)
	}
	fmt.Fprintln(o.w, pterm.DefaultBox.WithTitle(title).WithTitleTopCenter().Sprint(body))
}

func (o *Output) printLeaderboard(entries Leaderboard) {
	rows := [][]string{{"#", "Player", "Balance", "Games", "Win %"}}
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Username,
			strconv.FormatInt(e.Balance, 10),
			strconv.Itoa(e.GamesPlayed),
			fmt.Sprintf("%.1f", e.WinRate),
		})
	}
	o.renderTable(rows)
}

func (o *Output) printPlayers(players Players) {
	rows := [][]string{{"Player", "Balance", "Games", "Won", "Admin"}}
	for _, p := range players {
		admin := ""
		if p.IsAdmin {
			admin = "yes"
		}
		rows = append(rows, []string{
			p.Username,
			strconv.FormatInt(p.Balance, 10),
			strconv.Itoa(p.GamesPlayed),
			strconv.Itoa(p.GamesWon),
			admin,
		})
	}
	o.renderTable(rows)
}

func (o *Output) printCreditResult(c CreditResult) {
	fmt.Fprintf(o.w, "Transaction #%d: %+d to %s via %s\n",
		c.Transaction.ID, c.Transaction.Amount, c.Transaction.Username, c.Transaction.PaymentMethod)
	fmt.Fprintf(o.w, "New balance: %d\n", c.Profile.Balance)
}

func (o *Output) printHistory(h History) {
	rows := [][]string{{"ID", "Time", "Player", "Amount", "Method", "Type", "By"}}
	for _, t := range h.Transactions {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Timestamp,
			t.Username,
			fmt.Sprintf("%+d", t.Amount),
			t.PaymentMethod,
			t.Type,
			t.Admin,
		})
	}
	o.renderTable(rows)
	fmt.Fprintf(o.w, "Showing %d of %d matches. Credits sold: %d\n", len(h.Transactions), h.Matched, h.TotalCreditsSold)
}

func (o *Output) printMethodTotals(totals MethodTotals) {
	rows := [][]string{{"Method", "Count", "Total"}}
	for _, t := range totals {
		rows = append(rows, []string{t.Method, strconv.Itoa(t.Count), strconv.FormatInt(t.Total, 10)})
	}
	o.renderTable(rows)
}

func (o *Output) printStats(s Stats) {
	fmt.Fprintf(o.w, "Users: %d (%d admin)\n", s.TotalUsers, s.AdminUsers)
	fmt.Fprintf(o.w, "Total balance: %d\n", s.TotalBalance)
	fmt.Fprintf(o.w, "Games played: %d\n", s.TotalGames)
	fmt.Fprintf(o.w, "Total winnings: %d\n", s.TotalWinnings)
	fmt.Fprintf(o.w, "Average win rate: %.1f%%\n", s.AverageWinRate)
	fmt.Fprintf(o.w, "Estimated house edge: %d\n", s.EstimatedHouseEdge)
	fmt.Fprintf(o.w, "Transactions: %d\n", s.TotalTransactions)
	if len(s.TopPlayers) > 0 {
		fmt.Fprintln(o.w, "\nTop players:")
		o.printLeaderboard(s.TopPlayers)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
