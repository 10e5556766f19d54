package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/blackjack-go/internal/api/middleware"
	"github.com/mcoot/blackjack-go/internal/api/request"
	"github.com/mcoot/blackjack-go/internal/api/response"
	"github.com/mcoot/blackjack-go/internal/services/admin"
	"github.com/mcoot/blackjack-go/internal/services/auth"
)

// AdminHandler handles cashier and admin endpoints
type AdminHandler struct {
	adminService *admin.Service
	authService  *auth.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *admin.Service, authService *auth.Service) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		authService:  authService,
	}
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := admin.LeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.adminService.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LeaderboardFromResult(entries))
}

// AddCredits handles POST /api/v1/admin/credits
func (h *AdminHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	var req request.CreditRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	session := middleware.MustGetSession(r.Context())
	result, err := h.adminService.AddCredits(r.Context(), session.Username, req.Username, req.Amount, req.PaymentMethod)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CreditResponseFromResult(result))
}

// QuickCredit handles POST /api/v1/admin/quick-credit
func (h *AdminHandler) QuickCredit(w http.ResponseWriter, r *http.Request) {
	var req request.QuickCreditRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	session := middleware.MustGetSession(r.Context())
	result, err := h.adminService.QuickAdd(r.Context(), session.Username, req.Username, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CreditResponseFromResult(result))
}

// SetBalance handles PUT /api/v1/admin/players/{username}/balance
func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req request.SetBalanceRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Balance == nil {
		WriteError(w, NewInvalidRequestError("balance is required"))
		return
	}

	session := middleware.MustGetSession(r.Context())
	username := mux.Vars(r)["username"]
	result, err := h.adminService.SetBalance(r.Context(), session.Username, username, *req.Balance)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CreditResponseFromResult(result))
}

// SetAdmin handles PUT /api/v1/admin/players/{username}/admin
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req request.SetAdminRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session := middleware.MustGetSession(r.Context())
	username := mux.Vars(r)["username"]
	profile, err := h.adminService.SetAdmin(r.Context(), session.Username, username, req.IsAdmin)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Live sessions pick up the change without a fresh login
	h.authService.SetAdmin(username, req.IsAdmin)

	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}

// ListPlayers handles GET /api/v1/admin/players
func (h *AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.adminService.ListProfiles(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Profile, len(profiles))
	for i, p := range profiles {
		out[i] = response.ProfileFromModel(p)
	}
	response.JSON(w, http.StatusOK, out)
}

// Transactions handles GET /api/v1/admin/transactions
func (h *AdminHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := admin.HistoryFilter{
		Username:      q.Get("username"),
		PaymentMethod: q.Get("payment_method"),
		Window:        admin.Window(q.Get("window")),
	}
	if !filter.Window.IsValid() {
		WriteError(w, NewInvalidRequestError("window must be one of all, today, week"))
		return
	}

	history, err := h.adminService.History(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.HistoryFromResult(history))
}

// ClearTransactions handles DELETE /api/v1/admin/transactions
func (h *AdminHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	if err := h.adminService.ClearTransactions(r.Context(), session.Username); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatsFromResult(stats))
}

// PaymentMethods handles GET /api/v1/admin/payment-methods
func (h *AdminHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	totals, err := h.adminService.PaymentMethodTotals(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MethodTotalsFromResult(totals))
}

// Export handles GET /api/v1/admin/export
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.adminService.Export(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="bjgame-export.json"`)
	response.JSON(w, http.StatusOK, response.ExportFromResult(export))
}
