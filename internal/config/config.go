package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/blackjack-go/internal/model"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config is the complete server configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Game    GameConfig    `mapstructure:"game"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for the listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Type       string        `mapstructure:"type"`
	RedisURL   string        `mapstructure:"redis_url"`
	TableTTL   time.Duration `mapstructure:"table_ttl"`
	DataDir    string        `mapstructure:"data_dir"`
	SQLitePath string        `mapstructure:"sqlite_path"`
}

// GameConfig holds table rules that may vary per deployment
type GameConfig struct {
	Decks              int   `mapstructure:"decks"`
	ReshuffleThreshold int   `mapstructure:"reshuffle_threshold"`
	StartingBalance    int64 `mapstructure:"starting_balance"`
}

// AuthConfig holds session and operator credential settings
type AuthConfig struct {
	SessionDuration time.Duration `mapstructure:"session_duration"`
	// AdminPasswordHash is a bcrypt hash; the plaintext is never configured
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageFile, StorageSQLite:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url required when storage.type is %q", StorageRedis)
		}
	default:
		return fmt.Errorf("invalid storage.type %q: must be memory, redis, file or sqlite", c.Storage.Type)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Game.Decks < 1 {
		return fmt.Errorf("game.decks must be at least 1, got %d", c.Game.Decks)
	}
	if c.Game.ReshuffleThreshold < model.DeckSize {
		return fmt.Errorf("game.reshuffle_threshold must be at least %d, got %d", model.DeckSize, c.Game.ReshuffleThreshold)
	}
	if c.Game.StartingBalance < 1 {
		return fmt.Errorf("game.starting_balance must be at least 1, got %d", c.Game.StartingBalance)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, fmt.Errorf("invalid log.level %q", level)
	}
	return l, nil
}

// NewLogger builds the process logger. JSON is the default format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
