package shoe

import (
	"log/slog"

	"github.com/mcoot/blackjack-go/internal/dependencies/random"
	"github.com/mcoot/blackjack-go/internal/model"
)

// DefaultDecks is the number of decks in a fresh shoe
const DefaultDecks = 4

// Service builds shuffled shoes
type Service struct {
	random    random.Random
	logger    *slog.Logger
	decks     int
	threshold int
}

// Config holds shoe settings
type Config struct {
	// Decks is the number of 52-card decks per shoe
	Decks int
	// ReshuffleThreshold replaces the shoe when fewer cards than this remain
	ReshuffleThreshold int
}

// DefaultConfig returns a four-deck shoe replaced below one deck's worth
func DefaultConfig() Config {
	return Config{
		Decks:              DefaultDecks,
		ReshuffleThreshold: model.DeckSize,
	}
}

// New creates a new shoe service
func New(rnd random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.Decks <= 0 {
		cfg.Decks = DefaultDecks
	}
	// Below one deck a shoe can run dry mid-round
	if cfg.ReshuffleThreshold < model.DeckSize {
		cfg.ReshuffleThreshold = model.DeckSize
	}
	return &Service{
		random:    rnd,
		logger:    logger,
		decks:     cfg.Decks,
		threshold: cfg.ReshuffleThreshold,
	}
}

// New returns a shoe of deckCount complete decks in uniformly random order
func (s *Service) New(deckCount int) *model.Shoe {
	cards := make([]model.Card, 0, deckCount*model.DeckSize)
	for d := 0; d < deckCount; d++ {
		for _, suit := range model.Suits {
			for _, rank := range model.Ranks {
				cards = append(cards, model.Card{Rank: rank, Suit: suit})
			}
		}
	}

	s.random.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return &model.Shoe{Decks: deckCount, Cards: cards}
}

// Fresh returns a new shoe of the configured size
func (s *Service) Fresh() *model.Shoe {
	return s.New(s.decks)
}

// NeedsReshuffle returns true if the shoe is missing or below the threshold
func (s *Service) NeedsReshuffle(sh *model.Shoe) bool {
	return sh.Remaining() < s.threshold
}

// Ensure returns sh unchanged, or a fresh shoe when it needs replacing
func (s *Service) Ensure(sh *model.Shoe) *model.Shoe {
	if !s.NeedsReshuffle(sh) {
		return sh
	}
	fresh := s.Fresh()
	s.logger.Info("shoe replaced",
		slog.Int("previous_remaining", sh.Remaining()),
		slog.Int("decks", s.decks),
	)
	return fresh
}
