package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/blackjack-go/internal/api/middleware"
	"github.com/mcoot/blackjack-go/internal/api/request"
	"github.com/mcoot/blackjack-go/internal/api/response"
	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/services/auth"
)

// ProfileReader looks up profiles by username
type ProfileReader interface {
	GetProfile(ctx context.Context, username string) (*model.Profile, error)
}

// PlayerHandler handles player and operator authentication endpoints
type PlayerHandler struct {
	authService *auth.Service
	profiles    ProfileReader
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, profiles ProfileReader) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		profiles:    profiles,
	}
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeSession(w, r, http.StatusCreated, session)
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeSession(w, r, http.StatusOK, session)
}

// AdminLogin handles POST /api/v1/admin/login
func (h *PlayerHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req request.AdminLoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.AdminLogin(req.Operator, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session, nil))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	if session.Operator {
		response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session, nil))
		return
	}
	h.writeSession(w, r, http.StatusOK, session)
}

// Logout handles POST /api/v1/players/logout
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	h.authService.InvalidateSession(session.Token)
	response.NoContent(w)
}

func (h *PlayerHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, session *auth.Session) {
	profile, err := h.profiles.GetProfile(r.Context(), session.Username)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, status, response.AuthResponseFromSession(session, profile))
}
