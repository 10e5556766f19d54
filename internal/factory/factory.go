package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/blackjack-go/internal/config"
	"github.com/mcoot/blackjack-go/internal/dependencies/clock"
	"github.com/mcoot/blackjack-go/internal/dependencies/random"
	"github.com/mcoot/blackjack-go/internal/services/admin"
	"github.com/mcoot/blackjack-go/internal/services/auth"
	"github.com/mcoot/blackjack-go/internal/services/ledger"
	"github.com/mcoot/blackjack-go/internal/services/round"
	"github.com/mcoot/blackjack-go/internal/services/shoe"
	"github.com/mcoot/blackjack-go/internal/storage"
	filestorage "github.com/mcoot/blackjack-go/internal/storage/file"
	"github.com/mcoot/blackjack-go/internal/storage/memory"
	redisstorage "github.com/mcoot/blackjack-go/internal/storage/redis"
	sqlitestorage "github.com/mcoot/blackjack-go/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ShoeService     *shoe.Service
	LedgerService   *ledger.Service
	RoundController *round.Controller
	AuthService     *auth.Service
	AdminService    *admin.Service

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Storage selects the backend. An empty Type means memory.
	Storage config.StorageConfig
	// Shoe holds deck count and reshuffle threshold (optional)
	Shoe shoe.Config
	// AuthConfig holds configuration for the auth service (optional)
	// Zero fields fall back to auth.DefaultConfig()
	AuthConfig auth.Config
}

// ConfigFrom builds a factory Config from loaded server configuration
func ConfigFrom(cfg *config.Config, logger *slog.Logger) Config {
	return Config{
		Logger:  logger,
		Storage: cfg.Storage,
		Shoe: shoe.Config{
			Decks:              cfg.Game.Decks,
			ReshuffleThreshold: cfg.Game.ReshuffleThreshold,
		},
		AuthConfig: auth.Config{
			SessionDuration:   cfg.Auth.SessionDuration,
			StartingBalance:   cfg.Game.StartingBalance,
			AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		},
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := newStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg.Shoe, cfg.AuthConfig, logger)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	logger.Info("application wired", slog.String("storage", storageType(cfg.Storage)))
	return app, nil
}

func storageType(cfg config.StorageConfig) string {
	if cfg.Type == "" {
		return config.StorageMemory
	}
	return cfg.Type
}

// newStorage opens the configured backend. The closer is nil for memory.
func newStorage(cfg config.StorageConfig) (storage.Storage, io.Closer, error) {
	switch storageType(cfg) {
	case config.StorageMemory:
		return memory.New(), nil, nil
	case config.StorageRedis:
		if cfg.RedisURL == "" {
			return nil, nil, errors.New("redis_url required when storage type is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		if cfg.TableTTL > 0 {
			redisCfg.TableTTL = cfg.TableTTL
		}
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, store, nil
	case config.StorageFile:
		store, err := filestorage.New(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening data dir: %w", err)
		}
		return store, nil, nil
	case config.StorageSQLite:
		store, err := sqlitestorage.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid storage type %q", cfg.Type)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	shoeCfg shoe.Config,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	shoeService := shoe.New(rnd, shoeCfg, logger)
	ledgerService := ledger.New(store, clk, logger)
	roundController := round.NewController(store, shoeService, ledgerService, clk, logger)
	authService := auth.New(store, clk, authCfg, logger)
	adminService := admin.New(store, clk, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		ShoeService:     shoeService,
		LedgerService:   ledgerService,
		RoundController: roundController,
		AuthService:     authService,
		AdminService:    adminService,
	}
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
