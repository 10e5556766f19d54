package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TableTTL expires idle tables. A table holding an unsettled round, a
	// profile or a transaction never expires.
	TableTTL time.Duration

	// MaxUpdateRetries bounds optimistic-lock retries in UpdateProfile
	MaxUpdateRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		TableTTL:         24 * time.Hour,
		MaxUpdateRetries: 100,
	}
}
