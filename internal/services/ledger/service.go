package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/blackjack-go/internal/dependencies/clock"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// ErrNoOutcome is returned when settling a round that has not been decided
var ErrNoOutcome = errors.New("round has no outcome")

// Apply folds one round's result into a profile's game statistics.
// It is the only writer of the game-derived fields.
func Apply(p *model.Profile, outcome model.Outcome, bet int64) {
	p.GamesPlayed++

	switch outcome {
	case model.OutcomeWin:
		p.GamesWon++
		p.Balance += bet
		p.TotalWinnings += bet
		if bet > p.BiggestWin {
			p.BiggestWin = bet
		}
	case model.OutcomeLose:
		p.Balance -= bet
	case model.OutcomeTie:
		// Push: bet returned
	}
}

// Service applies settled rounds to persisted profiles
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new ledger service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Settlement is what the ledger applied for one round
type Settlement struct {
	Profile *model.Profile
	Outcome model.Outcome
	Bet     int64
	// Replayed is true when the profile had already applied this round id.
	// Outcome and Bet are then the values recorded at the first settle.
	Replayed bool
}

// Settle applies the round's outcome to its player's profile in one atomic
// read-modify-write. A profile that already recorded this round id is left
// unchanged, so repeated calls for the same round have a single effect.
func (s *Service) Settle(ctx context.Context, round *model.Round) (*Settlement, error) {
	if round.Outcome == model.OutcomeNone {
		return nil, ErrNoOutcome
	}

	var replayed bool
	profile, err := s.storage.UpdateProfile(ctx, round.Username, func(p *model.Profile) error {
		replayed = p.LastSettledRound == round.ID
		if replayed {
			return nil
		}
		Apply(p, round.Outcome, round.Bet)
		p.LastSettledRound = round.ID
		p.LastSettledOutcome = round.Outcome
		p.LastSettledBet = round.Bet
		p.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		s.logger.Error("failed to settle round",
			slog.String("round_id", string(round.ID)),
			slog.String("username", round.Username),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if replayed {
		settlement := &Settlement{Profile: profile, Outcome: round.Outcome, Bet: round.Bet, Replayed: true}
		// Profiles written before outcomes were recorded only carry the id
		if profile.LastSettledOutcome != model.OutcomeNone {
			settlement.Outcome = profile.LastSettledOutcome
			settlement.Bet = profile.LastSettledBet
		}
		s.logger.Warn("round already applied to profile",
			slog.String("round_id", string(round.ID)),
			slog.String("username", round.Username),
			slog.String("applied_outcome", string(settlement.Outcome)),
			slog.String("requested_outcome", string(round.Outcome)),
		)
		return settlement, nil
	}

	s.logger.Info("round settled",
		slog.String("round_id", string(round.ID)),
		slog.String("username", round.Username),
		slog.String("outcome", string(round.Outcome)),
		slog.Int64("bet", round.Bet),
		slog.Int64("balance", profile.Balance),
	)
	return &Settlement{Profile: profile, Outcome: round.Outcome, Bet: round.Bet}, nil
}
