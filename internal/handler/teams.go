package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security/middleware"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

// TeamHandler handles team and membership endpoints
type TeamHandler struct {
	teamService *service.TeamService
	logger      *slog.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *service.TeamService, logger *slog.Logger) *TeamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamHandler{teamService: teamService, logger: logger}
}

// CreateTeamRequest is the body of POST /api/teams
type CreateTeamRequest struct {
	Name string `json:"team_name"`
}

// List handles GET /api/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, r, h.logger, domain.UnauthenticatedError("authentication required"))
		return
	}

	teams, err := h.teamService.ListTeamsForUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// Create handles POST /api/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), middleware.IdentityFromContext(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// ListMembers handles GET /api/teams/{id}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	members, err := h.teamService.ListMembers(r.Context(), middleware.IdentityFromContext(r.Context()), teamID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// AddMember handles POST /api/teams/{id}/members
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.AddMemberInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	member, err := h.teamService.AddMember(r.Context(), middleware.IdentityFromContext(r.Context()), teamID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}
