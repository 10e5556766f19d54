package round

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/blackjack-go/internal/dependencies/clock"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/services/ledger"
	"github.com/mcoot/blackjack-go/internal/services/scoring"
	"github.com/mcoot/blackjack-go/internal/services/shoe"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// Controller manages the round state machine for each player's table
type Controller struct {
	storage storage.Storage
	shoes   *shoe.Service
	ledger  *ledger.Service
	clock   clock.Clock
	logger  *slog.Logger

	// newRoundID is swapped in tests for predictable ids
	newRoundID func() model.RoundID

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewController creates a new round Controller
func NewController(
	storage storage.Storage,
	shoes *shoe.Service,
	ledger *ledger.Service,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		shoes:   shoes,
		ledger:  ledger,
		clock:   clock,
		logger:  logger,
		newRoundID: func() model.RoundID {
			return model.RoundID(uuid.NewString())
		},
		locks: make(map[string]*sync.Mutex),
	}
}

// lockTable serialises actions on one player's table within this process
func (c *Controller) lockTable(username string) func() {
	c.locksMu.Lock()
	mu, ok := c.locks[username]
	if !ok {
		mu = &sync.Mutex{}
		c.locks[username] = mu
	}
	c.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// loadTable returns the stored table, or a fresh empty one
func (c *Controller) loadTable(ctx context.Context, username string) (*model.Table, error) {
	table, err := c.storage.GetTable(ctx, username)
	if errors.Is(err, model.ErrTableNotFound) {
		return &model.Table{Username: username}, nil
	}
	return table, err
}

func (c *Controller) saveTable(ctx context.Context, table *model.Table) error {
	table.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveTable(ctx, table); err != nil {
		c.logger.Error("failed to save table",
			slog.String("username", table.Username),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// activeRound loads the table and checks the round is in the player's turn
func (c *Controller) activeRound(ctx context.Context, username string) (*model.Table, error) {
	table, err := c.loadTable(ctx, username)
	if err != nil {
		return nil, err
	}
	if table.Round == nil {
		return nil, model.ErrNoActiveRound
	}
	if table.Round.Phase != model.PhasePlayerTurn {
		return nil, model.ErrInvalidPhase
	}
	return table, nil
}

// GetTable returns the player's table. A player who has never bet gets an
// empty table in the betting phase.
func (c *Controller) GetTable(ctx context.Context, username string) (*model.Table, error) {
	return c.loadTable(ctx, username)
}

// PlaceBet starts a round: the shoe is replaced if running low, then two
// cards are dealt to the player followed by two to the dealer.
func (c *Controller) PlaceBet(ctx context.Context, username string, bet int64) (*model.Table, error) {
	unlock := c.lockTable(username)
	defer unlock()

	profile, err := c.storage.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	table, err := c.loadTable(ctx, username)
	if err != nil {
		return nil, err
	}
	if table.Phase() != model.PhaseBetting {
		return nil, model.ErrInvalidPhase
	}

	if bet < 1 || bet > profile.Balance {
		return nil, model.ErrInvalidBet
	}

	table.Shoe = c.shoes.Ensure(table.Shoe)

	round := &model.Round{
		ID:         c.newRoundID(),
		Username:   username,
		Bet:        bet,
		PlayerHand: model.Hand{},
		DealerHand: model.Hand{},
		Phase:      model.PhaseBetting,
		CreatedAt:  c.clock.Now(),
	}

	for _, hand := range []*model.Hand{&round.PlayerHand, &round.PlayerHand, &round.DealerHand, &round.DealerHand} {
		card, err := table.Shoe.Draw()
		if err != nil {
			return nil, err
		}
		hand.Add(card)
	}
	round.Phase = model.PhasePlayerTurn
	table.Round = round

	if err := c.saveTable(ctx, table); err != nil {
		return nil, err
	}

	c.logger.Info("bet placed",
		slog.String("round_id", string(round.ID)),
		slog.String("username", username),
		slog.Int64("bet", bet),
		slog.Int("shoe_remaining", table.Shoe.Remaining()),
	)

	return table, nil
}

// Hit draws one card for the player. Going over 21 settles the round
// immediately as a loss without playing the dealer.
func (c *Controller) Hit(ctx context.Context, username string) (*model.Table, error) {
	unlock := c.lockTable(username)
	defer unlock()

	table, err := c.activeRound(ctx, username)
	if err != nil {
		return nil, err
	}
	before := table.Clone()

	card, err := table.Shoe.Draw()
	if err != nil {
		return nil, c.recoverShoe(ctx, before, err)
	}
	table.Round.PlayerHand.Add(card)

	if scoring.IsBust(table.Round.PlayerHand) {
		if err := c.settle(ctx, table); err != nil {
			return nil, err
		}
	}

	if err := c.saveTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// Stand ends the player's turn, plays the dealer and settles the round
func (c *Controller) Stand(ctx context.Context, username string) (*model.Table, error) {
	unlock := c.lockTable(username)
	defer unlock()

	table, err := c.activeRound(ctx, username)
	if err != nil {
		return nil, err
	}
	before := table.Clone()

	if err := c.finish(ctx, table); err != nil {
		return nil, c.recoverShoe(ctx, before, err)
	}

	if err := c.saveTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// DoubleDown doubles the bet, draws exactly one card and stands.
// The balance must cover the current bet.
func (c *Controller) DoubleDown(ctx context.Context, username string) (*model.Table, error) {
	unlock := c.lockTable(username)
	defer unlock()

	table, err := c.activeRound(ctx, username)
	if err != nil {
		return nil, err
	}

	profile, err := c.storage.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if profile.Balance < table.Round.Bet {
		return nil, model.ErrInsufficientBalance
	}
	before := table.Clone()

	card, err := table.Shoe.Draw()
	if err != nil {
		return nil, c.recoverShoe(ctx, before, err)
	}
	table.Round.Bet *= 2
	table.Round.DoubledDown = true
	table.Round.PlayerHand.Add(card)

	if scoring.IsBust(table.Round.PlayerHand) {
		err = c.settle(ctx, table)
	} else {
		err = c.finish(ctx, table)
	}
	if err != nil {
		return nil, c.recoverShoe(ctx, before, err)
	}

	if err := c.saveTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// NewRound clears a settled round so the player can bet again.
// The shoe carries over between rounds.
func (c *Controller) NewRound(ctx context.Context, username string) (*model.Table, error) {
	unlock := c.lockTable(username)
	defer unlock()

	table, err := c.loadTable(ctx, username)
	if err != nil {
		return nil, err
	}

	switch table.Phase() {
	case model.PhaseBetting:
		return table, nil
	case model.PhaseSettled:
		table.Round = nil
	default:
		return nil, model.ErrInvalidPhase
	}

	if err := c.saveTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// recoverShoe handles a shoe that ran dry during an action. The table is
// stored as it was before the action, with a fresh shoe, so the player can
// retry. The exhaustion is still returned to the caller.
func (c *Controller) recoverShoe(ctx context.Context, before *model.Table, err error) error {
	if !errors.Is(err, model.ErrShoeExhausted) {
		return err
	}
	before.Shoe = c.shoes.Fresh()
	if saveErr := c.saveTable(ctx, before); saveErr != nil {
		return saveErr
	}
	c.logger.Warn("shoe exhausted mid-round, replaced",
		slog.String("username", before.Username),
		slog.String("round_id", string(before.Round.ID)),
	)
	return err
}

// finish runs the dealer's turn and settles
func (c *Controller) finish(ctx context.Context, table *model.Table) error {
	table.Round.Phase = model.PhaseDealerTurn

	// Dealer stands on every 17, soft or hard
	for scoring.DealerShouldDraw(table.Round.DealerHand) {
		card, err := table.Shoe.Draw()
		if err != nil {
			return err
		}
		table.Round.DealerHand.Add(card)
	}

	return c.settle(ctx, table)
}

// settle decides the outcome and applies it to the ledger unless the
// round has already been settled.
func (c *Controller) settle(ctx context.Context, table *model.Table) error {
	round := table.Round
	if round.Settled {
		return nil
	}

	round.Outcome = scoring.DetermineOutcome(
		scoring.Value(round.PlayerHand),
		scoring.Value(round.DealerHand),
	)

	applied, err := c.ledger.Settle(ctx, round)
	if err != nil {
		return err
	}
	// A replayed round keeps the result the ledger already applied
	round.Outcome = applied.Outcome
	round.Bet = applied.Bet

	round.Settled = true
	round.Phase = model.PhaseSettled
	round.SettledAt = c.clock.Now()
	return nil
}
