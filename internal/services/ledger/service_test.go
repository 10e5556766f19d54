package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blackjack-go/internal/dependencies/mocks"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage/memory"
	"github.com/mcoot/blackjack-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	p := model.NewProfile("alice", "hash", 1000, s.clock.Now())
	s.Require().NoError(s.storage.CreateProfile(s.ctx, p))
}

func (s *ServiceSuite) profile() *model.Profile {
	p, err := s.storage.GetProfile(s.ctx, "alice")
	s.Require().NoError(err)
	return p
}

// Apply tests

func (s *ServiceSuite) TestApplyWin() {
	p := &model.Profile{Balance: 1000, BiggestWin: 40}
	Apply(p, model.OutcomeWin, 100)

	s.Equal(int64(1100), p.Balance)
	s.Equal(1, p.GamesPlayed)
	s.Equal(1, p.GamesWon)
	s.Equal(int64(100), p.TotalWinnings)
	s.Equal(int64(100), p.BiggestWin)
}

func (s *ServiceSuite) TestApplyWinKeepsLargerBiggestWin() {
	p := &model.Profile{Balance: 1000, BiggestWin: 500}
	Apply(p, model.OutcomeWin, 100)
	s.Equal(int64(500), p.BiggestWin)
}

func (s *ServiceSuite) TestApplyLose() {
	p := &model.Profile{Balance: 1000}
	Apply(p, model.OutcomeLose, 100)

	s.Equal(int64(900), p.Balance)
	s.Equal(1, p.GamesPlayed)
	s.Equal(0, p.GamesWon)
	s.Equal(int64(0), p.TotalWinnings)
}

func (s *ServiceSuite) TestApplyTie() {
	p := &model.Profile{Balance: 1000}
	Apply(p, model.OutcomeTie, 100)

	s.Equal(int64(1000), p.Balance)
	s.Equal(1, p.GamesPlayed)
	s.Equal(0, p.GamesWon)
}

// Settle tests

func (s *ServiceSuite) TestSettlePersistsOutcome() {
	round := &model.Round{ID: "r1", Username: "alice", Bet: 100, Outcome: model.OutcomeWin}

	res, err := s.service.Settle(s.ctx, round)
	s.Require().NoError(err)
	s.Equal(int64(1100), res.Profile.Balance)
	s.False(res.Replayed)

	stored := s.profile()
	s.Equal(int64(1100), stored.Balance)
	s.Equal(1, stored.GamesWon)
	s.Equal(model.RoundID("r1"), stored.LastSettledRound)
	s.Equal(model.OutcomeWin, stored.LastSettledOutcome)
	s.Equal(int64(100), stored.LastSettledBet)
	s.True(s.clock.Now().Equal(stored.UpdatedAt))
}

func (s *ServiceSuite) TestSettleSameRoundTwiceAppliesOnce() {
	round := &model.Round{ID: "r1", Username: "alice", Bet: 100, Outcome: model.OutcomeLose}

	_, err := s.service.Settle(s.ctx, round)
	s.Require().NoError(err)
	res, err := s.service.Settle(s.ctx, round)
	s.Require().NoError(err)

	s.True(res.Replayed)
	s.Equal(int64(900), res.Profile.Balance)
	s.Equal(1, s.profile().GamesPlayed)
}

func (s *ServiceSuite) TestSettleReplayReportsAppliedResult() {
	_, err := s.service.Settle(s.ctx, &model.Round{ID: "r1", Username: "alice", Bet: 100, Outcome: model.OutcomeLose})
	s.Require().NoError(err)

	// Same round id replayed with a different result, e.g. a lost table write
	// followed by a doubled hand that won
	res, err := s.service.Settle(s.ctx, &model.Round{ID: "r1", Username: "alice", Bet: 200, Outcome: model.OutcomeWin})
	s.Require().NoError(err)

	s.True(res.Replayed)
	s.Equal(model.OutcomeLose, res.Outcome)
	s.Equal(int64(100), res.Bet)
	s.Equal(int64(900), s.profile().Balance)
	s.Equal(0, s.profile().GamesWon)
}

func (s *ServiceSuite) TestSettleReplayLogsBothResults() {
	logger, logs := testutil.CaptureLogger()
	svc := New(s.storage, s.clock, logger)

	_, err := svc.Settle(s.ctx, &model.Round{ID: "r1", Username: "alice", Bet: 100, Outcome: model.OutcomeLose})
	s.Require().NoError(err)
	s.Require().NotNil(logs.Find("round settled"))

	_, err = svc.Settle(s.ctx, &model.Round{ID: "r1", Username: "alice", Bet: 200, Outcome: model.OutcomeWin})
	s.Require().NoError(err)

	entry := logs.Find("round already applied to profile")
	s.Require().NotNil(entry)
	s.Equal("WARN", entry["level"])
	s.Equal("lose", entry["applied_outcome"])
	s.Equal("win", entry["requested_outcome"])
}

func (s *ServiceSuite) TestSettleDistinctRoundsBothApply() {
	_, err := s.service.Settle(s.ctx, &model.Round{ID: "r1", Username: "alice", Bet: 100, Outcome: model.OutcomeWin})
	s.Require().NoError(err)
	_, err = s.service.Settle(s.ctx, &model.Round{ID: "r2", Username: "alice", Bet: 50, Outcome: model.OutcomeLose})
	s.Require().NoError(err)

	p := s.profile()
	s.Equal(int64(1050), p.Balance)
	s.Equal(2, p.GamesPlayed)
	s.Equal(1, p.GamesWon)
}

func (s *ServiceSuite) TestSettleWithoutOutcomeFails() {
	_, err := s.service.Settle(s.ctx, &model.Round{ID: "r1", Username: "alice", Bet: 100})
	s.ErrorIs(err, ErrNoOutcome)
	s.Equal(0, s.profile().GamesPlayed)
}

func (s *ServiceSuite) TestSettleUnknownProfile() {
	_, err := s.service.Settle(s.ctx, &model.Round{ID: "r1", Username: "bob", Bet: 1, Outcome: model.OutcomeWin})
	s.ErrorIs(err, model.ErrProfileNotFound)
}
