package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/blackjack-go/internal/dependencies/mocks"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/services/auth"
	"github.com/mcoot/blackjack-go/internal/services/shoe"
	"github.com/mcoot/blackjack-go/internal/storage/memory"
	"github.com/mcoot/blackjack-go/internal/testutil"
)

// TestOperatorPassword is the operator password accepted by a TestApp
const TestOperatorPassword = "cashier-pass"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The mock random leaves shoes unshuffled, so each deck deals hearts A..K,
// then diamonds, clubs and spades.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestOperatorPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	authCfg := auth.Config{
		SessionDuration:   time.Hour,
		StartingBalance:   model.DefaultStartingBalance,
		BcryptCost:        bcrypt.MinCost,
		AdminPasswordHash: string(hash),
	}
	app := newWithDependencies(store, mockClock, mockRandom, shoe.DefaultConfig(), authCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
