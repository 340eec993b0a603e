package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

// AdminHandler exposes unscoped listings. It is only mounted when the
// admin routes flag is on.
type AdminHandler struct {
	authService  *service.AuthService
	siteService  *service.SiteService
	issueService *service.IssueService
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	authService *service.AuthService,
	siteService *service.SiteService,
	issueService *service.IssueService,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		authService:  authService,
		siteService:  siteService,
		issueService: issueService,
		logger:       logger,
	}
}

// Sites handles GET /api/admin/sites
func (h *AdminHandler) Sites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.siteService.ListAllSites(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// Issues handles GET /api/admin/issues
func (h *AdminHandler) Issues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueService.ListIssues(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// Users handles GET /api/admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
