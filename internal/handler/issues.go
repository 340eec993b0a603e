package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security/middleware"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

// IssueHandler handles widget intake and trusted issue endpoints
type IssueHandler struct {
	issueService *service.IssueService
	logger       *slog.Logger
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(issueService *service.IssueService, logger *slog.Logger) *IssueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueHandler{issueService: issueService, logger: logger}
}

// Submit handles POST /api/issues from the embeddable widget. No token is
// required.
func (h *IssueHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var report service.IssueReport
	if err := decode(r, &report); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	issue, err := h.issueService.SubmitIssueReport(r.Context(), report)
	if err != nil {
		if domain.KindOf(err) == domain.KindValidation {
			h.logger.Info("issue report rejected",
				slog.String("request_id", middleware.GetRequestID(r.Context())),
				slog.String("reason", domain.MessageOf(err)),
			)
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

// List handles GET /api/issues
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueService.ListIssuesForUser(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// Get handles GET /api/issues/{id}
func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	issue, err := h.issueService.GetIssue(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// Update handles PUT /api/issues/{id}
func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch domain.IssuePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	issue, err := h.issueService.UpdateIssue(r.Context(), middleware.IdentityFromContext(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// Delete handles DELETE /api/issues/{id}
func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.issueService.DeleteIssue(r.Context(), middleware.IdentityFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "issue deleted"})
}
