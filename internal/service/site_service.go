package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security"
)

// SiteService manages team owned sites
type SiteService struct {
	store  domain.Store
	gate   *security.Gate
	logger *slog.Logger
}

// NewSiteService creates a new site service
func NewSiteService(store domain.Store, gate *security.Gate, logger *slog.Logger) *SiteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteService{store: store, gate: gate, logger: logger}
}

// CreateSiteInput is the payload for registering a site
type CreateSiteInput struct {
	Name   string `json:"site_name"`
	URL    string `json:"site_url"`
	TeamID int64  `json:"team_id"`
}

// ListSites returns a team's sites, newest first, each with its issues
func (s *SiteService) ListSites(ctx context.Context, identity *domain.Identity, teamID int64) ([]*domain.Site, error) {
	if err := s.gate.Authorize(ctx, identity, teamID); err != nil {
		return nil, err
	}
	sites, err := s.store.Sites().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, domain.UnexpectedError("failed to list sites", err)
	}
	for _, site := range sites {
		if err := s.attachIssues(ctx, site); err != nil {
			return nil, err
		}
	}
	return sites, nil
}

// ListAllSites returns every site regardless of team
func (s *SiteService) ListAllSites(ctx context.Context) ([]*domain.Site, error) {
	sites, err := s.store.Sites().List(ctx)
	if err != nil {
		return nil, domain.UnexpectedError("failed to list sites", err)
	}
	for _, site := range sites {
		if err := s.attachIssues(ctx, site); err != nil {
			return nil, err
		}
	}
	return sites, nil
}

// GetSite returns a site with its issues for a member of the owning team
func (s *SiteService) GetSite(ctx context.Context, identity *domain.Identity, id int64) (*domain.Site, error) {
	site, err := s.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachIssues(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// CreateSite registers a site under a team the caller belongs to
func (s *SiteService) CreateSite(ctx context.Context, identity *domain.Identity, in CreateSiteInput) (*domain.Site, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	if in.Name == "" || in.URL == "" || in.TeamID == 0 {
		return nil, domain.ValidationError("site_name, site_url and team_id are required")
	}
	if err := s.gate.Authorize(ctx, identity, in.TeamID); err != nil {
		return nil, err
	}
	if err := checkField("site_url", in.URL, siteURLRule); err != nil {
		return nil, err
	}

	site := &domain.Site{TeamID: in.TeamID, Name: in.Name, URL: in.URL}
	if err := s.store.Sites().Create(ctx, site); err != nil {
		return nil, domain.Wrap(err, "failed to create site")
	}

	s.logger.Info("site created",
		slog.Int64("site_id", site.ID),
		slog.Int64("team_id", site.TeamID),
	)
	site.Issues = []*domain.Issue{}
	return site, nil
}

// UpdateSite changes the supplied fields of a site
func (s *SiteService) UpdateSite(ctx context.Context, identity *domain.Identity, id int64, patch domain.SitePatch) (*domain.Site, error) {
	site, err := s.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if patch.Name.Set {
		if patch.Name.Null || blank(patch.Name.Value) {
			return nil, domain.ValidationError("site_name cannot be empty")
		}
		patch.Name.Value = strings.TrimSpace(patch.Name.Value)
	}
	if patch.URL.Set {
		if patch.URL.Null || blank(patch.URL.Value) {
			return nil, domain.ValidationError("site_url cannot be empty")
		}
		patch.URL.Value = strings.TrimSpace(patch.URL.Value)
		if err := checkField("site_url", patch.URL.Value, siteURLRule); err != nil {
			return nil, err
		}
	}

	if !patch.Empty() {
		patch.Apply(site)
		if err := s.store.Sites().Update(ctx, site); err != nil {
			return nil, domain.Wrap(err, "failed to update site")
		}
		s.logger.Info("site updated", slog.Int64("site_id", site.ID))
	}
	if err := s.attachIssues(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// DeleteSite removes a site that has no issues
func (s *SiteService) DeleteSite(ctx context.Context, identity *domain.Identity, id int64) error {
	site, err := s.load(ctx, identity, id)
	if err != nil {
		return err
	}
	if site.IssueCount > 0 {
		return domain.ConflictError("site has %d dependent issues", site.IssueCount)
	}
	if err := s.store.Sites().Delete(ctx, id); err != nil {
		return domain.Wrap(err, "failed to delete site")
	}
	s.logger.Info("site deleted",
		slog.Int64("site_id", id),
		slog.Int64("team_id", site.TeamID),
	)
	return nil
}

// load fetches a site and checks the caller belongs to its team.
func (s *SiteService) load(ctx context.Context, identity *domain.Identity, id int64) (*domain.Site, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	site, err := s.store.Sites().GetByID(ctx, id)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load site")
	}
	if err := s.gate.Authorize(ctx, identity, site.TeamID); err != nil {
		return nil, err
	}
	return site, nil
}

func (s *SiteService) attachIssues(ctx context.Context, site *domain.Site) error {
	issues, err := s.store.Issues().ListBySite(ctx, site.ID)
	if err != nil {
		return domain.UnexpectedError("failed to list issues", err)
	}
	for _, issue := range issues {
		issue.Site = nil
	}
	site.Issues = issues
	site.IssueCount = len(issues)
	return nil
}
