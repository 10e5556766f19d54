package admin

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mcoot/blackjack-go/internal/dependencies/clock"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

const (
	// MinCredit and MaxCredit bound a single credit purchase or quick add
	MinCredit int64 = 1
	MaxCredit int64 = 1000

	// HistoryLimit is the number of transactions returned by History
	HistoryLimit = 50

	// LeaderboardSize and TopPlayersSize size the public and admin rankings
	LeaderboardSize = 10
	TopPlayersSize  = 5

	// nominalBet feeds the rough house edge estimate in Stats
	nominalBet int64 = 50
)

// Service implements cashier and admin operations on profiles and the
// transaction log. Balance edits here bypass the ledger and are always
// recorded as transactions.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new admin Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// CreditResult is the outcome of a balance-changing admin operation
type CreditResult struct {
	Profile     *model.Profile
	Transaction *model.Transaction
}

func validateCredit(amount int64) error {
	if amount < MinCredit || amount > MaxCredit {
		return model.ErrInvalidAmount
	}
	return nil
}

// AddCredits records a paid credit purchase for a player
func (s *Service) AddCredits(ctx context.Context, operator, username string, amount int64, method string) (*CreditResult, error) {
	if err := validateCredit(amount); err != nil {
		return nil, err
	}
	if !model.IsValidPaymentMethod(method) {
		return nil, model.ErrInvalidPaymentMethod
	}
	return s.credit(ctx, operator, username, amount, method, model.TransactionCreditPurchase)
}

// QuickAdd grants credits without a payment method selection
func (s *Service) QuickAdd(ctx context.Context, operator, username string, amount int64) (*CreditResult, error) {
	if err := validateCredit(amount); err != nil {
		return nil, err
	}
	return s.credit(ctx, operator, username, amount, model.PaymentAdminQuickAdd, model.TransactionQuickCredit)
}

func (s *Service) credit(ctx context.Context, operator, username string, amount int64, method string, txType model.TransactionType) (*CreditResult, error) {
	now := s.clock.Now()
	profile, err := s.storage.UpdateProfile(ctx, username, func(p *model.Profile) error {
		p.Balance += amount
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.record(ctx, operator, username, amount, method, txType, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info("credits added",
		slog.String("operator", operator),
		slog.String("username", username),
		slog.Int64("amount", amount),
		slog.String("payment_method", method),
		slog.Int64("transaction_id", tx.ID),
	)

	return &CreditResult{Profile: profile, Transaction: tx}, nil
}

// SetBalance overwrites a player's balance and logs the signed difference
func (s *Service) SetBalance(ctx context.Context, operator, username string, balance int64) (*CreditResult, error) {
	if balance < 0 {
		return nil, model.ErrInvalidAmount
	}

	now := s.clock.Now()
	var delta int64
	profile, err := s.storage.UpdateProfile(ctx, username, func(p *model.Profile) error {
		delta = balance - p.Balance
		p.Balance = balance
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.record(ctx, operator, username, delta, model.PaymentAdminAdjustment, model.TransactionBalanceAdjustment, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance adjusted",
		slog.String("operator", operator),
		slog.String("username", username),
		slog.Int64("balance", balance),
		slog.Int64("delta", delta),
	)

	return &CreditResult{Profile: profile, Transaction: tx}, nil
}

func (s *Service) record(ctx context.Context, operator, username string, amount int64, method string, txType model.TransactionType, at time.Time) (*model.Transaction, error) {
	tx := &model.Transaction{
		Username:      username,
		Amount:        amount,
		PaymentMethod: method,
		Type:          txType,
		Timestamp:     at,
		Admin:         operator,
	}
	id, err := s.storage.AppendTransaction(ctx, tx)
	if err != nil {
		// The balance change already landed; surface it loudly for reconciliation
		s.logger.Error("failed to record transaction",
			slog.String("username", username),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	tx.ID = id
	return tx, nil
}

// SetAdmin grants or revokes admin rights. Nobody may change their own flag.
func (s *Service) SetAdmin(ctx context.Context, actor, username string, isAdmin bool) (*model.Profile, error) {
	if actor == username {
		return nil, model.ErrCannotChangeOwnAdmin
	}

	profile, err := s.storage.UpdateProfile(ctx, username, func(p *model.Profile) error {
		p.IsAdmin = isAdmin
		p.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin status changed",
		slog.String("actor", actor),
		slog.String("username", username),
		slog.Bool("is_admin", isAdmin),
	)
	return profile, nil
}

// ListProfiles returns every profile, richest first
func (s *Service) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.storage.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	sortByBalance(profiles)
	return profiles, nil
}

// ClearTransactions deletes the whole transaction log
func (s *Service) ClearTransactions(ctx context.Context, operator string) error {
	if err := s.storage.ClearTransactions(ctx); err != nil {
		return err
	}
	s.logger.Warn("transaction history cleared", slog.String("operator", operator))
	return nil
}

// sortByBalance orders profiles by balance descending, then username
func sortByBalance(profiles []*model.Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Balance != profiles[j].Balance {
			return profiles[i].Balance > profiles[j].Balance
		}
		return profiles[i].Username < profiles[j].Username
	})
}
