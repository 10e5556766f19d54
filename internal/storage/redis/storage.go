package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// ErrUpdateConflict is returned when UpdateProfile keeps losing the optimistic lock
var ErrUpdateConflict = errors.New("profile update conflict")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxUpdateRetries <= 0 {
		cfg.MaxUpdateRetries = DefaultConfig().MaxUpdateRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	// SETNX gives atomic username uniqueness
	created, err := s.client.SetNX(ctx, profileKey(profile.Username), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrUsernameExists
	}
	return s.client.SAdd(ctx, profilesIndexKey(), profile.Username).Err()
}

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, profileKey(profile.Username), data, 0)
	pipe.SAdd(ctx, profilesIndexKey(), profile.Username)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	return getProfile(ctx, s.client, username)
}

// getProfile reads a profile through any command issuer, including a WATCH transaction
func getProfile(ctx context.Context, c redis.Cmdable, username string) (*model.Profile, error) {
	data, err := c.Get(ctx, profileKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	usernames, err := s.client.SMembers(ctx, profilesIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(usernames) == 0 {
		return []*model.Profile{}, nil
	}

	keys := make([]string, len(usernames))
	for i, u := range usernames {
		keys[i] = profileKey(u)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.Profile, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry without a profile; skip it
			continue
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Username < profiles[j].Username
	})
	return profiles, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, username string, fn storage.ProfileUpdateFunc) (*model.Profile, error) {
	key := profileKey(username)
	var updated *model.Profile

	txf := func(tx *redis.Tx) error {
		p, err := getProfile(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}

		// Only commits if the watched key is unchanged since the read
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = p
		}
		return err
	}

	for i := 0; i < s.cfg.MaxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrUpdateConflict, username)
}

// Table operations

func (s *Storage) SaveTable(ctx context.Context, table *model.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}

	ttl := s.cfg.TableTTL
	if table.Round != nil && !table.Round.Settled {
		// The wager is already off the balance
		ttl = 0
	}
	return s.client.Set(ctx, tableKey(table.Username), data, ttl).Err()
}

func (s *Storage) GetTable(ctx context.Context, username string) (*model.Table, error) {
	data, err := s.client.Get(ctx, tableKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTableNotFound
		}
		return nil, err
	}

	var table model.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// Transaction operations

func (s *Storage) AppendTransaction(ctx context.Context, tx *model.Transaction) (int64, error) {
	id, err := s.client.Incr(ctx, transactionSeqKey()).Result()
	if err != nil {
		return 0, err
	}

	stored := *tx
	stored.ID = id
	data, err := json.Marshal(&stored)
	if err != nil {
		return 0, err
	}

	if err := s.client.RPush(ctx, transactionsKey(), data).Err(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) ListTransactions(ctx context.Context) ([]*model.Transaction, error) {
	items, err := s.client.LRange(ctx, transactionsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	txs := make([]*model.Transaction, 0, len(items))
	for _, item := range items {
		var tx model.Transaction
		if err := json.Unmarshal([]byte(item), &tx); err != nil {
			return nil, err
		}
		txs = append(txs, &tx)
	}

	// RPUSH order can interleave with INCR order under concurrency
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

func (s *Storage) ClearTransactions(ctx context.Context) error {
	return s.client.Del(ctx, transactionsKey(), transactionSeqKey()).Err()
}
