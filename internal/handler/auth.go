package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/issuedesk/internal/security/middleware"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

// AuthHandler handles authentication and account endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// AuthLoginRequest represents login request
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the public view of a fresh account
type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
	Team    TeamSummary `json:"team"`
}

// UserSummary is the compact user shape returned on registration
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TeamSummary is the compact team shape returned on registration
type TeamSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "user registered successfully",
		User: UserSummary{
			ID:       result.User.ID,
			Username: result.User.Username,
			Email:    result.User.Email,
		},
		Team: TeamSummary{ID: result.Team.ID, Name: result.Team.Name},
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthLoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.GetClaimsFromContext(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.authService.Me(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/users/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch service.ProfilePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), middleware.IdentityFromContext(r.Context()), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteMe handles DELETE /api/users/me
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.authService.DeleteAccount(ctx, middleware.IdentityFromContext(ctx), middleware.GetClaimsFromContext(ctx)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "account deleted"})
}
