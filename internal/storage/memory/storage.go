package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	profiles     map[string]*model.Profile
	tables       map[string]*model.Table
	transactions []*model.Transaction
	nextTxID     int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles: make(map[string]*model.Profile),
		tables:   make(map[string]*model.Table),
		nextTxID: 1,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.Username]; ok {
		return model.ErrUsernameExists
	}
	s.profiles[profile.Username] = profile.Clone()
	return nil
}

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Username] = profile.Clone()
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[username]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := make([]*model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p.Clone())
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Username < profiles[j].Username
	})
	return profiles, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, username string, fn storage.ProfileUpdateFunc) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[username]
	if !ok {
		return nil, model.ErrProfileNotFound
	}

	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	s.profiles[username] = updated
	return updated.Clone(), nil
}

// Table operations

func (s *Storage) SaveTable(ctx context.Context, table *model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table.Username] = table.Clone()
	return nil
}

func (s *Storage) GetTable(ctx context.Context, username string) (*model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[username]
	if !ok {
		return nil, model.ErrTableNotFound
	}
	return t.Clone(), nil
}

// Transaction operations

func (s *Storage) AppendTransaction(ctx context.Context, tx *model.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *tx
	stored.ID = s.nextTxID
	s.nextTxID++
	s.transactions = append(s.transactions, &stored)
	return stored.ID, nil
}

func (s *Storage) ListTransactions(ctx context.Context) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := make([]*model.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		c := *tx
		txs = append(txs, &c)
	}
	return txs, nil
}

func (s *Storage) ClearTransactions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.nextTxID = 1
	return nil
}
