package handler

import (
	"net/http"

	"github.com/mcoot/blackjack-go/internal/api/middleware"
	"github.com/mcoot/blackjack-go/internal/api/request"
	"github.com/mcoot/blackjack-go/internal/api/response"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/services/round"
)

// TableHandler handles the player's blackjack table
type TableHandler struct {
	roundController *round.Controller
	profiles        ProfileReader
}

// NewTableHandler creates a new table handler
func NewTableHandler(roundController *round.Controller, profiles ProfileReader) *TableHandler {
	return &TableHandler{
		roundController: roundController,
		profiles:        profiles,
	}
}

// Get handles GET /api/v1/table
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	table, err := h.roundController.GetTable(r.Context(), session.Username)
	h.write(w, r, table, err)
}

// Bet handles POST /api/v1/table/bet
func (h *TableHandler) Bet(w http.ResponseWriter, r *http.Request) {
	var req request.BetRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session := middleware.MustGetSession(r.Context())
	table, err := h.roundController.PlaceBet(r.Context(), session.Username, req.Amount)
	h.write(w, r, table, err)
}

// Hit handles POST /api/v1/table/hit
func (h *TableHandler) Hit(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	table, err := h.roundController.Hit(r.Context(), session.Username)
	h.write(w, r, table, err)
}

// Stand handles POST /api/v1/table/stand
func (h *TableHandler) Stand(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	table, err := h.roundController.Stand(r.Context(), session.Username)
	h.write(w, r, table, err)
}

// DoubleDown handles POST /api/v1/table/double
func (h *TableHandler) DoubleDown(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	table, err := h.roundController.DoubleDown(r.Context(), session.Username)
	h.write(w, r, table, err)
}

// NewRound handles POST /api/v1/table/new-round
func (h *TableHandler) NewRound(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	table, err := h.roundController.NewRound(r.Context(), session.Username)
	h.write(w, r, table, err)
}

// write responds with the table and the player's balance after the action
func (h *TableHandler) write(w http.ResponseWriter, r *http.Request, table *model.Table, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), table.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TableFromModel(table, profile.Balance))
}
