package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BJ_SERVER_PORT
const EnvPrefix = "BJ"

// ConfigPaths are searched for bjgame.yaml when no file is given
var ConfigPaths = []string{
	".",
	"./configs",
	"/etc/bjgame",
}

// DotEnvPaths are tried in order; the first that exists is loaded
var DotEnvPaths = []string{
	".env",
	"./configs/.env",
}

// LoadOptions overrides where configuration is read from
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. Missing is an error when set.
	ConfigFile string
	// DotEnvFiles replaces DotEnvPaths when non-nil
	DotEnvFiles []string
}

// Load reads configuration from defaults, an optional YAML file, an
// optional .env file and BJ_* environment variables, later sources winning.
func Load(opts LoadOptions) (*Config, error) {
	dotEnv := DotEnvPaths
	if opts.DotEnvFiles != nil {
		dotEnv = opts.DotEnvFiles
	}
	if err := loadDotEnvFile(dotEnv); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("bjgame")
		for _, path := range ConfigPaths {
			v.AddConfigPath(path)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnvFile loads the first .env file found. Existing environment
// variables are never overwritten.
func loadDotEnvFile(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("could not load %s: %w", path, err)
		}
		return nil
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.table_ttl", "24h")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.sqlite_path", "data/bjgame.db")

	v.SetDefault("game.decks", 4)
	v.SetDefault("game.reshuffle_threshold", 52)
	v.SetDefault("game.starting_balance", 1000)

	v.SetDefault("auth.session_duration", "24h")
	v.SetDefault("auth.admin_password_hash", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
