package request

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginRequest is the request body for an operator login
type AdminLoginRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

// BetRequest is the request body for placing a bet
type BetRequest struct {
	Amount int64 `json:"amount"`
}

// CreditRequest is the request body for a credit purchase
type CreditRequest struct {
	Username      string `json:"username"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

// QuickCreditRequest is the request body for an admin quick add
type QuickCreditRequest struct {
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
}

// SetBalanceRequest is the request body for setting a balance directly
type SetBalanceRequest struct {
	Balance *int64 `json:"balance"`
}

// SetAdminRequest is the request body for toggling admin privileges
type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}
