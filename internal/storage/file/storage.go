// Package file stores profiles, tables and transactions as JSON documents in a
// directory. Writes are atomic renames and every operation holds an advisory
// file lock, so several processes may share one data directory.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

const (
	profilesFile     = "profiles.json"
	tablesFile       = "tables.json"
	transactionsFile = "transactions.json"
	lockFile         = ".lock"
)

// transactionLog is the on-disk shape of transactions.json
type transactionLog struct {
	NextID       int64                `json:"next_id"`
	Transactions []*model.Transaction `json:"transactions"`
}

// Storage is a JSON-file implementation of the storage interface
type Storage struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// New creates a file storage rooted at dir, creating the directory if needed
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Storage{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFile)),
	}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// withLock serialises fn against other goroutines and other processes
func (s *Storage) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// readJSON decodes name into v, leaving v untouched if the file does not exist
func (s *Storage) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *Storage) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(s.dir, name), bytes.NewReader(data))
}

func (s *Storage) loadProfiles() (map[string]*model.Profile, error) {
	profiles := make(map[string]*model.Profile)
	if err := s.readJSON(profilesFile, &profiles); err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return profiles, nil
}

func (s *Storage) loadTables() (map[string]*model.Table, error) {
	tables := make(map[string]*model.Table)
	if err := s.readJSON(tablesFile, &tables); err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return tables, nil
}

func (s *Storage) loadTransactions() (*transactionLog, error) {
	log := &transactionLog{NextID: 1}
	if err := s.readJSON(transactionsFile, log); err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	if log.NextID < 1 {
		log.NextID = 1
	}
	return log, nil
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	return s.withLock(func() error {
		profiles, err := s.loadProfiles()
		if err != nil {
			return err
		}
		if _, ok := profiles[profile.Username]; ok {
			return model.ErrUsernameExists
		}
		profiles[profile.Username] = profile
		return s.writeJSON(profilesFile, profiles)
	})
}

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	return s.withLock(func() error {
		profiles, err := s.loadProfiles()
		if err != nil {
			return err
		}
		profiles[profile.Username] = profile
		return s.writeJSON(profilesFile, profiles)
	})
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	var profile *model.Profile
	err := s.withLock(func() error {
		profiles, err := s.loadProfiles()
		if err != nil {
			return err
		}
		p, ok := profiles[username]
		if !ok {
			return model.ErrProfileNotFound
		}
		profile = p
		return nil
	})
	return profile, err
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	var result []*model.Profile
	err := s.withLock(func() error {
		profiles, err := s.loadProfiles()
		if err != nil {
			return err
		}
		result = make([]*model.Profile, 0, len(profiles))
		for _, p := range profiles {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, username string, fn storage.ProfileUpdateFunc) (*model.Profile, error) {
	var updated *model.Profile
	err := s.withLock(func() error {
		profiles, err := s.loadProfiles()
		if err != nil {
			return err
		}
		p, ok := profiles[username]
		if !ok {
			return model.ErrProfileNotFound
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := s.writeJSON(profilesFile, profiles); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Table operations

func (s *Storage) SaveTable(ctx context.Context, table *model.Table) error {
	return s.withLock(func() error {
		tables, err := s.loadTables()
		if err != nil {
			return err
		}
		tables[table.Username] = table
		return s.writeJSON(tablesFile, tables)
	})
}

func (s *Storage) GetTable(ctx context.Context, username string) (*model.Table, error) {
	var table *model.Table
	err := s.withLock(func() error {
		tables, err := s.loadTables()
		if err != nil {
			return err
		}
		t, ok := tables[username]
		if !ok {
			return model.ErrTableNotFound
		}
		table = t
		return nil
	})
	return table, err
}

// Transaction operations

func (s *Storage) AppendTransaction(ctx context.Context, tx *model.Transaction) (int64, error) {
	var id int64
	err := s.withLock(func() error {
		log, err := s.loadTransactions()
		if err != nil {
			return err
		}
		stored := *tx
		stored.ID = log.NextID
		log.NextID++
		log.Transactions = append(log.Transactions, &stored)
		if err := s.writeJSON(transactionsFile, log); err != nil {
			return err
		}
		id = stored.ID
		return nil
	})
	return id, err
}

func (s *Storage) ListTransactions(ctx context.Context) ([]*model.Transaction, error) {
	var txs []*model.Transaction
	err := s.withLock(func() error {
		log, err := s.loadTransactions()
		if err != nil {
			return err
		}
		txs = log.Transactions
		return nil
	})
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*model.Transaction{}
	}
	return txs, nil
}

func (s *Storage) ClearTransactions(ctx context.Context) error {
	return s.withLock(func() error {
		return s.writeJSON(transactionsFile, &transactionLog{NextID: 1, Transactions: []*model.Transaction{}})
	})
}
