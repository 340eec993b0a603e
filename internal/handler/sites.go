package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security/middleware"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

// SiteHandler handles site endpoints, including issues nested under a site
type SiteHandler struct {
	siteService  *service.SiteService
	issueService *service.IssueService
	logger       *slog.Logger
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(siteService *service.SiteService, issueService *service.IssueService, logger *slog.Logger) *SiteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteHandler{siteService: siteService, issueService: issueService, logger: logger}
}

// List handles GET /api/sites?team_id=
func (h *SiteHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("team_id")
	if raw == "" {
		writeError(w, r, h.logger, domain.ValidationError("team_id is required"))
		return
	}
	teamID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || teamID <= 0 {
		writeError(w, r, h.logger, domain.ValidationError("invalid team_id"))
		return
	}

	sites, err := h.siteService.ListSites(r.Context(), middleware.IdentityFromContext(r.Context()), teamID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// Create handles POST /api/sites
func (h *SiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSiteInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	site, err := h.siteService.CreateSite(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, site)
}

// Get handles GET /api/sites/{id}
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	site, err := h.siteService.GetSite(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// Update handles PUT /api/sites/{id}
func (h *SiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch domain.SitePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	site, err := h.siteService.UpdateSite(r.Context(), middleware.IdentityFromContext(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// Delete handles DELETE /api/sites/{id}
func (h *SiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.siteService.DeleteSite(r.Context(), middleware.IdentityFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "site deleted"})
}

// ListIssues handles GET /api/sites/{id}/issues
func (h *SiteHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	issues, err := h.issueService.ListIssuesForSite(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// CreateIssue handles POST /api/sites/{id}/issues. The site comes from the
// path; a site_id in the body is ignored.
func (h *SiteHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.CreateIssueInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.SiteID = id

	issue, err := h.issueService.CreateIssue(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}
