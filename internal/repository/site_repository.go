package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

// SiteRepository implements domain.SiteRepository
type SiteRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(q Querier, logger *slog.Logger) *SiteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteRepository{q: q, logger: logger}
}

const siteSelect = `
	SELECT s.id, s.team_id, s.site_name, s.site_url, s.created_at,
		(SELECT COUNT(*) FROM issues i WHERE i.site_id = s.id) AS issue_count
	FROM sites s
`

func scanSite(row rowScanner) (*domain.Site, error) {
	s := &domain.Site{}
	if err := row.Scan(&s.ID, &s.TeamID, &s.Name, &s.URL, &s.CreatedAt, &s.IssueCount); err != nil {
		return nil, err
	}
	return s, nil
}

// Create creates a new site
func (r *SiteRepository) Create(ctx context.Context, site *domain.Site) error {
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO sites (team_id, site_name, site_url, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query, site.TeamID, site.Name, site.URL, site.CreatedAt).Scan(&site.ID)
	if err != nil {
		r.logger.Error("failed to create site",
			slog.Int64("team_id", site.TeamID),
			slog.String("error", err.Error()),
		)
		if cerr := classify(err, "site"); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to create site: %w", err)
	}
	return nil
}

// GetByID retrieves a site with its issue count
func (r *SiteRepository) GetByID(ctx context.Context, id int64) (*domain.Site, error) {
	site, err := scanSite(r.q.QueryRowContext(ctx, siteSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if cerr := classify(err, "site"); cerr != err {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// ListByTeam lists a team's sites, newest first
func (r *SiteRepository) ListByTeam(ctx context.Context, teamID int64) ([]*domain.Site, error) {
	return r.list(ctx, siteSelect+` WHERE s.team_id = $1 ORDER BY s.created_at DESC, s.id DESC`, teamID)
}

// List lists every site, newest first
func (r *SiteRepository) List(ctx context.Context) ([]*domain.Site, error) {
	return r.list(ctx, siteSelect+` ORDER BY s.created_at DESC, s.id DESC`)
}

func (r *SiteRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Site, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list sites",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	sites := []*domain.Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// Update overwrites a site's name and url
func (r *SiteRepository) Update(ctx context.Context, site *domain.Site) error {
	query := `
		UPDATE sites
		SET site_name = $1, site_url = $2
		WHERE id = $3
	`
	result, err := r.q.ExecContext(ctx, query, site.Name, site.URL, site.ID)
	if err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}
	return requireAffected(result, "site")
}

// Delete removes a site. Sites that still own issues are rejected by the
// foreign key.
func (r *SiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ConflictError("site has dependent issues")
		}
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return requireAffected(result, "site")
}

var _ domain.SiteRepository = (*SiteRepository)(nil)
