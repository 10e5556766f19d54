package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
	"github.com/mcoot/blackjack-go/internal/storage/storagetest"
)

func TestStorageContract(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func() storage.Storage { return New() },
	})
}

type StorageSuite struct {
	suite.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
}

func (s *StorageSuite) TestSavedTableIsIsolatedFromCaller() {
	ctx := s.T().Context()
	table := &model.Table{
		Username: "alice",
		Shoe:     &model.Shoe{Decks: 1, Cards: []model.Card{{Rank: model.RankAce}, {Rank: model.RankTwo}}},
		Round:    &model.Round{ID: "r1", PlayerHand: model.Hand{{Rank: model.RankTen}}},
	}
	s.Require().NoError(s.storage.SaveTable(ctx, table))

	// Mutating the caller's copy must not leak into storage
	_, _ = table.Shoe.Draw()
	table.Round.PlayerHand.Add(model.Card{Rank: model.RankFive})

	got, err := s.storage.GetTable(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, got.Shoe.Remaining())
	s.Len(got.Round.PlayerHand, 1)
}
