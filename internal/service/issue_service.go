package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/issuedesk/internal/security"
)

// IssueService handles trusted issue management and public intake
type IssueService struct {
	store  domain.Store
	gate   *security.Gate
	logger *slog.Logger
	now    func() time.Time
}

// NewIssueService creates a new issue service
func NewIssueService(store domain.Store, gate *security.Gate, logger *slog.Logger) *IssueService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueService{store: store, gate: gate, logger: logger, now: time.Now}
}

// CreateIssueInput is the dashboard payload for a new issue
type CreateIssueInput struct {
	SiteID       int64           `json:"site_id"`
	Description  string          `json:"description"`
	URL          string          `json:"url"`
	Status       domain.Status   `json:"status"`
	Priority     domain.Priority `json:"priority"`
	ContactEmail *string         `json:"contact_email"`
	UserAgent    *string         `json:"user_agent"`
	Viewport     *string         `json:"viewport"`
	Diagnostics  json.RawMessage `json:"diagnostics"`
}

// CreateIssue stores an issue on behalf of a member of the site's team
func (s *IssueService) CreateIssue(ctx context.Context, identity *domain.Identity, in CreateIssueInput) (*domain.Issue, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	if in.SiteID == 0 || blank(in.Description) || blank(in.URL) {
		return nil, domain.ValidationError("site_id, description and url are required")
	}
	if in.Status == "" {
		in.Status = domain.StatusNew
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Status.Valid() {
		return nil, domain.ValidationError("invalid status")
	}
	if !in.Priority.Valid() {
		return nil, domain.ValidationError("invalid priority")
	}
	if len(in.Diagnostics) > 0 && !json.Valid(in.Diagnostics) {
		return nil, domain.ValidationError("diagnostics must be valid JSON")
	}

	site, err := s.store.Sites().GetByID(ctx, in.SiteID)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load site")
	}
	if err := s.gate.Authorize(ctx, identity, site.TeamID); err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		SiteID:       site.ID,
		Status:       in.Status,
		Priority:     in.Priority,
		Description:  in.Description,
		ContactEmail: emptyToNil(in.ContactEmail),
		URL:          in.URL,
		UserAgent:    emptyToNil(in.UserAgent),
		Viewport:     emptyToNil(in.Viewport),
		Diagnostics:  nullToEmpty(in.Diagnostics),
	}
	return s.insert(ctx, issue, site, "dashboard")
}

func (s *IssueService) insert(ctx context.Context, issue *domain.Issue, site *domain.Site, source string) (*domain.Issue, error) {
	issue.CreatedAt = s.now().UTC()
	if err := s.store.Issues().Create(ctx, issue); err != nil {
		s.logger.Error("failed to create issue",
			slog.Int64("site_id", issue.SiteID),
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return nil, domain.Wrap(err, "failed to create issue")
	}

	metrics.ObserveIssueCreated(source)
	s.logger.Info("issue created",
		slog.Int64("issue_id", issue.ID),
		slog.Int64("site_id", issue.SiteID),
		slog.String("source", source),
	)

	site.IssueCount++
	issue.Site = site.Ref()
	return issue, nil
}

// GetIssue returns an issue with its site for a member of the owning team
func (s *IssueService) GetIssue(ctx context.Context, identity *domain.Identity, id int64) (*domain.Issue, error) {
	return s.load(ctx, identity, id)
}

// ListIssues returns every issue, newest first
func (s *IssueService) ListIssues(ctx context.Context) ([]*domain.Issue, error) {
	issues, err := s.store.Issues().List(ctx)
	if err != nil {
		return nil, domain.UnexpectedError("failed to list issues", err)
	}
	return issues, nil
}

// ListIssuesForUser returns the issues of every site in the caller's teams
func (s *IssueService) ListIssuesForUser(ctx context.Context, identity *domain.Identity) ([]*domain.Issue, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	issues, err := s.store.Issues().ListForUser(ctx, identity.UserID)
	if err != nil {
		return nil, domain.UnexpectedError("failed to list issues", err)
	}
	return issues, nil
}

// ListIssuesForSite returns a site's issues, newest first
func (s *IssueService) ListIssuesForSite(ctx context.Context, identity *domain.Identity, siteID int64) ([]*domain.Issue, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	site, err := s.store.Sites().GetByID(ctx, siteID)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load site")
	}
	if err := s.gate.Authorize(ctx, identity, site.TeamID); err != nil {
		return nil, err
	}
	issues, err := s.store.Issues().ListBySite(ctx, siteID)
	if err != nil {
		return nil, domain.UnexpectedError("failed to list issues", err)
	}
	return issues, nil
}

// UpdateIssue applies a partial update. Status and priority may move between
// any of their values.
func (s *IssueService) UpdateIssue(ctx context.Context, identity *domain.Identity, id int64, patch domain.IssuePatch) (*domain.Issue, error) {
	issue, err := s.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	patch.Apply(issue)
	if err := s.store.Issues().Update(ctx, issue); err != nil {
		return nil, domain.Wrap(err, "failed to update issue")
	}

	s.logger.Info("issue updated",
		slog.Int64("issue_id", issue.ID),
		slog.String("status", string(issue.Status)),
		slog.String("priority", string(issue.Priority)),
	)
	return issue, nil
}

// DeleteIssue removes an issue
func (s *IssueService) DeleteIssue(ctx context.Context, identity *domain.Identity, id int64) error {
	issue, err := s.load(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := s.store.Issues().Delete(ctx, issue.ID); err != nil {
		return domain.Wrap(err, "failed to delete issue")
	}
	s.logger.Info("issue deleted",
		slog.Int64("issue_id", issue.ID),
		slog.Int64("site_id", issue.SiteID),
	)
	return nil
}

func (s *IssueService) load(ctx context.Context, identity *domain.Identity, id int64) (*domain.Issue, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	issue, err := s.store.Issues().GetByID(ctx, id)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load issue")
	}
	if err := s.gate.Authorize(ctx, identity, issue.Site.TeamID); err != nil {
		return nil, err
	}
	return issue, nil
}

func emptyToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

func nullToEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
