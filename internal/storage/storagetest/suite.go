// Package storagetest holds the behavioural contract every storage backend
// must satisfy.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// Suite runs the storage contract against the backend returned by NewStorage
type Suite struct {
	suite.Suite

	// NewStorage returns a fresh, empty backend for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

// SetupTest creates a fresh backend
func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) createProfile(username string, balance int64) *model.Profile {
	p := model.NewProfile(username, "hash", balance, testTime)
	s.Require().NoError(s.Storage.CreateProfile(s.Ctx, p))
	return p
}

// Profile tests

func (s *Suite) TestCreateAndGetProfile() {
	s.createProfile("alice", 1000)

	p, err := s.Storage.GetProfile(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", p.Username)
	s.Equal(int64(1000), p.Balance)
	s.Equal("hash", p.PasswordHash)
	s.True(testTime.Equal(p.CreatedAt))
}

func (s *Suite) TestCreateProfileRejectsDuplicate() {
	s.createProfile("alice", 1000)

	err := s.Storage.CreateProfile(s.Ctx, model.NewProfile("alice", "other", 5, testTime))
	s.ErrorIs(err, model.ErrUsernameExists)

	p, err := s.Storage.GetProfile(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(1000), p.Balance)
}

func (s *Suite) TestGetProfileNotFound() {
	_, err := s.Storage.GetProfile(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestSaveProfileOverwrites() {
	p := s.createProfile("alice", 1000)
	p.Balance = 250
	p.IsAdmin = true
	p.LastSettledRound = "round-7"
	p.LastSettledOutcome = model.OutcomeWin
	p.LastSettledBet = 40
	s.Require().NoError(s.Storage.SaveProfile(s.Ctx, p))

	got, err := s.Storage.GetProfile(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(250), got.Balance)
	s.True(got.IsAdmin)
	s.Equal(model.RoundID("round-7"), got.LastSettledRound)
	s.Equal(model.OutcomeWin, got.LastSettledOutcome)
	s.Equal(int64(40), got.LastSettledBet)
}

func (s *Suite) TestGetProfileReturnsCopy() {
	s.createProfile("alice", 1000)

	p, _ := s.Storage.GetProfile(s.Ctx, "alice")
	p.Balance = 1

	got, _ := s.Storage.GetProfile(s.Ctx, "alice")
	s.Equal(int64(1000), got.Balance)
}

func (s *Suite) TestListProfilesSortedByUsername() {
	s.createProfile("carol", 1)
	s.createProfile("alice", 2)
	s.createProfile("bob", 3)

	profiles, err := s.Storage.ListProfiles(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(profiles, 3)
	s.Equal("alice", profiles[0].Username)
	s.Equal("bob", profiles[1].Username)
	s.Equal("carol", profiles[2].Username)
}

func (s *Suite) TestListProfilesEmpty() {
	profiles, err := s.Storage.ListProfiles(s.Ctx)
	s.Require().NoError(err)
	s.Empty(profiles)
}

func (s *Suite) TestUpdateProfileAppliesChange() {
	s.createProfile("alice", 1000)

	updated, err := s.Storage.UpdateProfile(s.Ctx, "alice", func(p *model.Profile) error {
		p.Balance += 50
		p.GamesPlayed++
		return nil
	})
	s.Require().NoError(err)
	s.Equal(int64(1050), updated.Balance)

	got, _ := s.Storage.GetProfile(s.Ctx, "alice")
	s.Equal(int64(1050), got.Balance)
	s.Equal(1, got.GamesPlayed)
}

func (s *Suite) TestUpdateProfileAbortsOnError() {
	s.createProfile("alice", 1000)
	boom := errors.New("boom")

	_, err := s.Storage.UpdateProfile(s.Ctx, "alice", func(p *model.Profile) error {
		p.Balance = 0
		return boom
	})
	s.ErrorIs(err, boom)

	got, _ := s.Storage.GetProfile(s.Ctx, "alice")
	s.Equal(int64(1000), got.Balance)
}

func (s *Suite) TestUpdateProfileNotFound() {
	_, err := s.Storage.UpdateProfile(s.Ctx, "nobody", func(p *model.Profile) error { return nil })
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestUpdateProfileConcurrentWritesAreSerialised() {
	s.createProfile("alice", 0)

	const workers = 8
	const perWorker = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := s.Storage.UpdateProfile(s.Ctx, "alice", func(p *model.Profile) error {
					p.Balance++
					return nil
				})
				s.NoError(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Storage.GetProfile(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(workers*perWorker), got.Balance)
}

// Table tests

func (s *Suite) TestSaveAndGetTable() {
	table := &model.Table{
		Username: "alice",
		Shoe: &model.Shoe{Decks: 1, Cards: []model.Card{
			{Rank: model.RankAce, Suit: model.SuitSpades},
			{Rank: model.RankTen, Suit: model.SuitHearts},
		}},
		Round: &model.Round{
			ID:         "round-1",
			Username:   "alice",
			Bet:        100,
			Phase:      model.PhasePlayerTurn,
			PlayerHand: model.Hand{{Rank: model.RankNine}},
			DealerHand: model.Hand{{Rank: model.RankKing}},
			CreatedAt:  testTime,
		},
		UpdatedAt: testTime,
	}
	s.Require().NoError(s.Storage.SaveTable(s.Ctx, table))

	got, err := s.Storage.GetTable(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, got.Shoe.Remaining())
	s.Equal(model.RankAce, got.Shoe.Cards[0].Rank)
	s.Require().NotNil(got.Round)
	s.Equal(model.RoundID("round-1"), got.Round.ID)
	s.Equal(int64(100), got.Round.Bet)
	s.Equal(model.PhasePlayerTurn, got.Round.Phase)
	s.Equal(model.RankNine, got.Round.PlayerHand[0].Rank)
	s.False(got.Round.Settled)
}

func (s *Suite) TestSaveTableClearsFinishedRound() {
	settled := &model.Table{
		Username: "alice",
		Round:    &model.Round{ID: "round-1", Username: "alice", Bet: 10, Phase: model.PhaseSettled, Settled: true},
	}
	s.Require().NoError(s.Storage.SaveTable(s.Ctx, settled))
	s.Require().NoError(s.Storage.SaveTable(s.Ctx, &model.Table{Username: "alice"}))

	got, err := s.Storage.GetTable(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Nil(got.Round)
	s.Equal(model.PhaseBetting, got.Phase())
}

func (s *Suite) TestGetTableNotFound() {
	_, err := s.Storage.GetTable(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrTableNotFound)
}

// Transaction tests

func (s *Suite) appendTx(username string, amount int64) int64 {
	id, err := s.Storage.AppendTransaction(s.Ctx, &model.Transaction{
		Username:      username,
		Amount:        amount,
		PaymentMethod: model.PaymentCash,
		Type:          model.TransactionCreditPurchase,
		Timestamp:     testTime,
		Admin:         "cashier",
	})
	s.Require().NoError(err)
	return id
}

func (s *Suite) TestAppendTransactionAssignsSequentialIDs() {
	s.Equal(int64(1), s.appendTx("alice", 50))
	s.Equal(int64(2), s.appendTx("bob", 20))
	s.Equal(int64(3), s.appendTx("alice", -10))
}

func (s *Suite) TestListTransactionsInInsertionOrder() {
	s.appendTx("alice", 50)
	s.appendTx("bob", 20)
	s.appendTx("alice", -10)

	txs, err := s.Storage.ListTransactions(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(txs, 3)
	s.Equal(int64(1), txs[0].ID)
	s.Equal("alice", txs[0].Username)
	s.Equal(int64(50), txs[0].Amount)
	s.Equal(model.PaymentCash, txs[0].PaymentMethod)
	s.Equal(model.TransactionCreditPurchase, txs[0].Type)
	s.Equal("cashier", txs[0].Admin)
	s.Equal("bob", txs[1].Username)
	s.Equal(int64(-10), txs[2].Amount)
}

func (s *Suite) TestListTransactionsEmpty() {
	txs, err := s.Storage.ListTransactions(s.Ctx)
	s.Require().NoError(err)
	s.Empty(txs)
}

func (s *Suite) TestClearTransactions() {
	s.appendTx("alice", 50)
	s.appendTx("bob", 20)

	s.Require().NoError(s.Storage.ClearTransactions(s.Ctx))

	txs, err := s.Storage.ListTransactions(s.Ctx)
	s.Require().NoError(err)
	s.Empty(txs)

	// Ids restart after a bulk clear
	s.Equal(int64(1), s.appendTx("carol", 5))
}
