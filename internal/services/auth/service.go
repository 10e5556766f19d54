package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/blackjack-go/internal/dependencies/clock"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/storage"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 4

// Errors
var (
	ErrInvalidSession   = errors.New("invalid or expired session")
	ErrInvalidUsername  = errors.New("username cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters long")
	ErrPasswordMismatch = errors.New("passwords don't match")
	ErrOperatorDisabled = errors.New("operator login is not configured")
)

// Session represents an authenticated session
type Session struct {
	Token    string
	Username string

	// IsAdmin grants the admin endpoints
	IsAdmin bool
	// Operator marks a cashier session that has no player profile
	Operator bool

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles registration, credential checks and session management
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration   time.Duration
	startingBalance   int64
	bcryptCost        int
	adminPasswordHash []byte
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	StartingBalance int64
	BcryptCost      int

	// AdminPasswordHash is the bcrypt hash of the shared operator password.
	// Operator login is refused while it is empty.
	AdminPasswordHash string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		StartingBalance: model.DefaultStartingBalance,
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	// Zero is unset here; config validation rejects a zero starting balance
	if cfg.StartingBalance == 0 {
		cfg.StartingBalance = defaults.StartingBalance
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		storage:           storage,
		clock:             clock,
		logger:            logger,
		sessions:          make(map[string]*Session),
		sessionDuration:   cfg.SessionDuration,
		startingBalance:   cfg.StartingBalance,
		bcryptCost:        cfg.BcryptCost,
		adminPasswordHash: []byte(cfg.AdminPasswordHash),
	}
}

// Register creates a profile and logs the new player in.
// An empty confirm skips the confirmation check.
func (s *Service) Register(ctx context.Context, username, password, confirm string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if confirm != "" && confirm != password {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	profile := model.NewProfile(username, string(hash), s.startingBalance, s.clock.Now())
	if err := s.storage.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile registered", slog.String("username", username))

	return s.createSession(username, false, false), nil
}

// Login verifies a player's credentials and creates a session.
// Profiles flagged as admin receive admin rights.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	profile, err := s.storage.GetProfile(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login rejected", slog.String("username", profile.Username))
		return nil, model.ErrCredentialMismatch
	}

	return s.createSession(profile.Username, profile.IsAdmin, false), nil
}

// Verify reports whether raw matches the stored credential for username
func (s *Service) Verify(ctx context.Context, username, raw string) bool {
	profile, err := s.storage.GetProfile(ctx, username)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(raw)) == nil
}

// AdminLogin authenticates a cashier against the configured operator password.
// The operator name is recorded on every transaction they create.
func (s *Service) AdminLogin(operator, password string) (*Session, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return nil, ErrInvalidUsername
	}
	if len(s.adminPasswordHash) == 0 {
		return nil, ErrOperatorDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		s.logger.Warn("operator login rejected", slog.String("operator", operator))
		return nil, model.ErrCredentialMismatch
	}

	s.logger.Info("operator logged in", slog.String("operator", operator))
	return s.createSession(operator, true, true), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// SetAdmin updates the admin flag on every live session of a player so a
// privilege change takes effect without logging in again.
func (s *Service) SetAdmin(username string, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.Username == username && !session.Operator {
			session.IsAdmin = isAdmin
		}
	}
}

// HashPassword returns a bcrypt hash suitable for AdminPasswordHash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// createSession creates a new session
func (s *Service) createSession(username string, isAdmin, operator bool) *Session {
	token := s.generateID("sess_")
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		Username:  username,
		IsAdmin:   isAdmin,
		Operator:  operator,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
