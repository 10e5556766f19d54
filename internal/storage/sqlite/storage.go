// Package sqlite is a SQLite-backed implementation of the storage interface
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens/creates a SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Storage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serialises every transaction, including UpdateProfile
	db.SetMaxOpenConns(1)
	s := &Storage{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error { return s.db.Close() }

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			balance INTEGER NOT NULL,
			games_played INTEGER NOT NULL DEFAULT 0,
			games_won INTEGER NOT NULL DEFAULT 0,
			total_winnings INTEGER NOT NULL DEFAULT 0,
			biggest_win INTEGER NOT NULL DEFAULT 0,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_settled_round TEXT NOT NULL DEFAULT '',
			last_settled_outcome TEXT NOT NULL DEFAULT '',
			last_settled_bet INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_balance ON profiles(balance DESC);`,

		// Tables hold a whole shoe and round, stored as one JSON document
		`CREATE TABLE IF NOT EXISTS tables (
			username TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,

		// Ids are max+1, so they restart at 1 after a bulk clear
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL,
			amount INTEGER NOT NULL,
			payment_method TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			admin TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_username ON transactions(username);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const profileColumns = `username, password_hash, balance, games_played, games_won,
	total_winnings, biggest_win, is_admin, created_at, updated_at, last_settled_round,
	last_settled_outcome, last_settled_bet`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var (
		p                  model.Profile
		isAdmin            int
		createdAt, updated string
		lastRound          string
		lastOutcome        string
	)
	err := row.Scan(&p.Username, &p.PasswordHash, &p.Balance, &p.GamesPlayed, &p.GamesWon,
		&p.TotalWinnings, &p.BiggestWin, &isAdmin, &createdAt, &updated, &lastRound,
		&lastOutcome, &p.LastSettledBet)
	if err != nil {
		return nil, err
	}
	p.IsAdmin = isAdmin != 0
	p.LastSettledRound = model.RoundID(lastRound)
	p.LastSettledOutcome = model.Outcome(lastOutcome)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func profileArgs(p *model.Profile) []any {
	return []any{
		p.Username, p.PasswordHash, p.Balance, p.GamesPlayed, p.GamesWon,
		p.TotalWinnings, p.BiggestWin, boolToInt(p.IsAdmin),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt), string(p.LastSettledRound),
		string(p.LastSettledOutcome), p.LastSettledBet,
	}
}

func getProfile(ctx context.Context, q queryer, username string) (*model.Profile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = ?`, username)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func upsertProfile(ctx context.Context, q queryer, p *model.Profile) error {
	_, err := q.ExecContext(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			balance = excluded.balance,
			games_played = excluded.games_played,
			games_won = excluded.games_won,
			total_winnings = excluded.total_winnings,
			biggest_win = excluded.biggest_win,
			is_admin = excluded.is_admin,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_settled_round = excluded.last_settled_round,
			last_settled_outcome = excluded.last_settled_outcome,
			last_settled_bet = excluded.last_settled_bet`, profileArgs(p)...)
	return err
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING`, profileArgs(profile)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrUsernameExists
	}
	return nil
}

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	return upsertProfile(ctx, s.db, profile)
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	return getProfile(ctx, s.db, username)
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Storage) UpdateProfile(ctx context.Context, username string, fn storage.ProfileUpdateFunc) (*model.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	p, err := getProfile(ctx, tx, username)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := upsertProfile(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

// Table operations

func (s *Storage) SaveTable(ctx context.Context, table *model.Table) error {
	state, err := json.Marshal(table)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tables (username, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		table.Username, string(state), formatTime(table.UpdatedAt))
	return err
}

func (s *Storage) GetTable(ctx context.Context, username string) (*model.Table, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM tables WHERE username = ?`, username).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTableNotFound
		}
		return nil, err
	}

	var table model.Table
	if err := json.NewDecoder(strings.NewReader(state)).Decode(&table); err != nil {
		return nil, err
	}
	return &table, nil
}

// Transaction operations

func (s *Storage) AppendTransaction(ctx context.Context, t *model.Transaction) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(username, amount, payment_method, transaction_type, timestamp, admin)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Username, t.Amount, t.PaymentMethod, string(t.Type), formatTime(t.Timestamp), t.Admin)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Storage) ListTransactions(ctx context.Context) ([]*model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, amount, payment_method,
		transaction_type, timestamp, admin FROM transactions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*model.Transaction{}
	for rows.Next() {
		var (
			t        model.Transaction
			txType   string
			occurred string
		)
		if err := rows.Scan(&t.ID, &t.Username, &t.Amount, &t.PaymentMethod, &txType, &occurred, &t.Admin); err != nil {
			return nil, err
		}
		t.Type = model.TransactionType(txType)
		if t.Timestamp, err = parseTime(occurred); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

func (s *Storage) ClearTransactions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions`)
	return err
}
