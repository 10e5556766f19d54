package shoe

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blackjack-go/internal/dependencies/mocks"
	"github.com/mcoot/blackjack-go/internal/dependencies/random"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	random  *mocks.MockRandom
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.service = New(s.random, DefaultConfig(), testutil.NopLogger())
}

func rankCounts(sh *model.Shoe) map[model.Rank]int {
	counts := make(map[model.Rank]int)
	for _, c := range sh.Cards {
		counts[c.Rank]++
	}
	return counts
}

func (s *ServiceSuite) TestNewFourDeckShoeHas208Cards() {
	sh := s.service.New(4)

	s.Equal(208, sh.Remaining())
	s.Equal(4, sh.Decks)
	counts := rankCounts(sh)
	s.Len(counts, 13)
	for _, rank := range model.Ranks {
		s.Equal(16, counts[rank], "rank %s", rank)
	}
}

func (s *ServiceSuite) TestNewShuffles() {
	s.service.New(1)
	s.Equal(1, s.random.ShuffleCalls())
}

func (s *ServiceSuite) TestCompositionInvariantAcrossShuffles() {
	svc := New(random.New(), DefaultConfig(), testutil.NopLogger())

	first := svc.New(4)
	second := svc.New(4)

	s.Equal(rankCounts(first), rankCounts(second))
	s.ElementsMatch(first.Cards, second.Cards)
}

func (s *ServiceSuite) TestDrawReducesRemainingByOne() {
	sh := s.service.New(1)

	for i := 1; i <= model.DeckSize; i++ {
		_, err := sh.Draw()
		s.Require().NoError(err)
		s.Equal(model.DeckSize-i, sh.Remaining())
	}

	_, err := sh.Draw()
	s.ErrorIs(err, model.ErrShoeExhausted)
}

func (s *ServiceSuite) TestNeedsReshuffleBelowOneDeck() {
	sh := s.service.New(1)
	s.False(s.service.NeedsReshuffle(sh))

	_, _ = sh.Draw()
	s.True(s.service.NeedsReshuffle(sh))
	s.True(s.service.NeedsReshuffle(nil))
}

func (s *ServiceSuite) TestEnsureKeepsHealthyShoe() {
	sh := s.service.New(2)
	s.Same(sh, s.service.Ensure(sh))
}

func (s *ServiceSuite) TestEnsureReplacesLowShoe() {
	low := &model.Shoe{Decks: 4, Cards: make([]model.Card, 10)}

	fresh := s.service.Ensure(low)
	s.Equal(208, fresh.Remaining())
	s.Equal(208, s.service.Ensure(nil).Remaining())
}

func (s *ServiceSuite) TestConfigDefaultsApplied() {
	svc := New(s.random, Config{}, testutil.NopLogger())
	s.Equal(DefaultDecks, svc.decks)
	s.Equal(model.DeckSize, svc.threshold)
}

func (s *ServiceSuite) TestThresholdBelowOneDeckIsRaised() {
	svc := New(s.random, Config{Decks: 1, ReshuffleThreshold: 4}, testutil.NopLogger())
	s.Equal(model.DeckSize, svc.threshold)

	shoe := svc.Fresh()
	for i := 0; i < 4; i++ {
		_, err := shoe.Draw()
		s.Require().NoError(err)
	}
	s.NotSame(shoe, svc.Ensure(shoe))
}
