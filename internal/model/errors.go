package model

import "errors"

// Common errors used across the application
var (
	// Round errors
	ErrInvalidBet          = errors.New("bet must be at least 1 and no more than the balance")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrShoeExhausted       = errors.New("shoe is exhausted")
	ErrInvalidPhase        = errors.New("action not allowed in current phase")
	ErrNoActiveRound       = errors.New("no active round")
	ErrTableNotFound       = errors.New("table not found")

	// Profile errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrCredentialMismatch = errors.New("credential mismatch")

	// Admin errors
	ErrNotAdmin             = errors.New("admin privileges required")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCannotChangeOwnAdmin = errors.New("cannot change own admin status")
)
