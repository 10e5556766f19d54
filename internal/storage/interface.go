package storage

import (
	"context"

	"github.com/mcoot/blackjack-go/internal/model"
)

// ProfileUpdateFunc mutates a profile inside an UpdateProfile call.
// Returning an error aborts the update and leaves the stored profile unchanged.
type ProfileUpdateFunc func(p *model.Profile) error

// Storage defines the interface for data persistence
type Storage interface {
	// Profile operations
	CreateProfile(ctx context.Context, profile *model.Profile) error
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, username string) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]*model.Profile, error)

	// UpdateProfile performs a serialised read-modify-write of one profile.
	// Concurrent updates of the same username never lose writes.
	UpdateProfile(ctx context.Context, username string, fn ProfileUpdateFunc) (*model.Profile, error)

	// Table operations
	SaveTable(ctx context.Context, table *model.Table) error
	GetTable(ctx context.Context, username string) (*model.Table, error)

	// Transaction log operations
	AppendTransaction(ctx context.Context, tx *model.Transaction) (int64, error)
	ListTransactions(ctx context.Context) ([]*model.Transaction, error)
	ClearTransactions(ctx context.Context) error
}
