package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/blackjack-go/internal/api/handler"
	"github.com/mcoot/blackjack-go/internal/api/middleware"
	"github.com/mcoot/blackjack-go/internal/services/admin"
	"github.com/mcoot/blackjack-go/internal/services/auth"
	"github.com/mcoot/blackjack-go/internal/services/round"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	RoundController *round.Controller
	AdminService    *admin.Service
	Profiles        handler.ProfileReader
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.Profiles)
	tableHandler := handler.NewTableHandler(cfg.RoundController, cfg.Profiles)
	adminHandler := handler.NewAdminHandler(cfg.AdminService, cfg.AuthService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", playerHandler.AdminLogin).Methods(http.MethodPost)
	api.HandleFunc("/leaderboard", adminHandler.Leaderboard).Methods(http.MethodGet)

	// Protected player routes
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Table routes need a player profile
	table := api.PathPrefix("/table").Subrouter()
	table.Use(authMiddleware, middleware.PlayerOnly)
	table.HandleFunc("", tableHandler.Get).Methods(http.MethodGet)
	table.HandleFunc("/bet", tableHandler.Bet).Methods(http.MethodPost)
	table.HandleFunc("/hit", tableHandler.Hit).Methods(http.MethodPost)
	table.HandleFunc("/stand", tableHandler.Stand).Methods(http.MethodPost)
	table.HandleFunc("/double", tableHandler.DoubleDown).Methods(http.MethodPost)
	table.HandleFunc("/new-round", tableHandler.NewRound).Methods(http.MethodPost)

	// Admin routes
	admins := api.PathPrefix("/admin").Subrouter()
	admins.Use(authMiddleware, middleware.AdminOnly)
	admins.HandleFunc("/credits", adminHandler.AddCredits).Methods(http.MethodPost)
	admins.HandleFunc("/quick-credit", adminHandler.QuickCredit).Methods(http.MethodPost)
	admins.HandleFunc("/players", adminHandler.ListPlayers).Methods(http.MethodGet)
	admins.HandleFunc("/players/{username}/balance", adminHandler.SetBalance).Methods(http.MethodPut)
	admins.HandleFunc("/players/{username}/admin", adminHandler.SetAdmin).Methods(http.MethodPut)
	admins.HandleFunc("/transactions", adminHandler.Transactions).Methods(http.MethodGet)
	admins.HandleFunc("/transactions", adminHandler.ClearTransactions).Methods(http.MethodDelete)
	admins.HandleFunc("/stats", adminHandler.Stats).Methods(http.MethodGet)
	admins.HandleFunc("/payment-methods", adminHandler.PaymentMethods).Methods(http.MethodGet)
	admins.HandleFunc("/export", adminHandler.Export).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
