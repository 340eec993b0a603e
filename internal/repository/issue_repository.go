package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

// IssueRepository implements domain.IssueRepository
type IssueRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewIssueRepository creates a new issue repository
func NewIssueRepository(q Querier, logger *slog.Logger) *IssueRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueRepository{q: q, logger: logger}
}

// issueSelect joins every issue with its parent site.
const issueSelect = `
	SELECT i.id, i.site_id, i.status, i.priority, i.description, i.contact_email,
		i.url, i.user_agent, i.viewport, i.diagnostics, i.created_at, i.updated_at,
		s.id, s.team_id, s.site_name, s.site_url, s.created_at,
		(SELECT COUNT(*) FROM issues c WHERE c.site_id = s.id)
	FROM issues i
	JOIN sites s ON s.id = i.site_id
`

const issueOrder = ` ORDER BY i.created_at DESC, i.id DESC`

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var (
		issue        domain.Issue
		site         domain.SiteRef
		status       string
		priority     string
		contactEmail sql.NullString
		userAgent    sql.NullString
		viewport     sql.NullString
		diagnostics  []byte
	)
	err := row.Scan(
		&issue.ID,
		&issue.SiteID,
		&status,
		&priority,
		&issue.Description,
		&contactEmail,
		&issue.URL,
		&userAgent,
		&viewport,
		&diagnostics,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&site.ID,
		&site.TeamID,
		&site.Name,
		&site.URL,
		&site.CreatedAt,
		&site.IssueCount,
	)
	if err != nil {
		return nil, err
	}

	issue.Status = domain.Status(status)
	issue.Priority = domain.Priority(priority)
	issue.ContactEmail = stringPtr(contactEmail)
	issue.UserAgent = stringPtr(userAgent)
	issue.Viewport = stringPtr(viewport)
	if len(diagnostics) > 0 {
		issue.Diagnostics = json.RawMessage(diagnostics)
	}
	issue.Site = &site
	return &issue, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// Create inserts an issue and fills in its id and timestamps
func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = issue.CreatedAt

	query := `
		INSERT INTO issues (site_id, status, priority, description, contact_email,
			url, user_agent, viewport, diagnostics, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query,
		issue.SiteID,
		string(issue.Status),
		string(issue.Priority),
		issue.Description,
		nullString(issue.ContactEmail),
		issue.URL,
		nullString(issue.UserAgent),
		nullString(issue.Viewport),
		nullJSON(issue.Diagnostics),
		issue.CreatedAt,
		issue.UpdatedAt,
	).Scan(&issue.ID)
	if err != nil {
		r.logger.Error("failed to create issue",
			slog.Int64("site_id", issue.SiteID),
			slog.String("error", err.Error()),
		)
		if isForeignKeyViolation(err) {
			return domain.NotFoundError("site not found")
		}
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

// GetByID retrieves an issue with its parent site
func (r *IssueRepository) GetByID(ctx context.Context, id int64) (*domain.Issue, error) {
	issue, err := scanIssue(r.q.QueryRowContext(ctx, issueSelect+` WHERE i.id = $1`, id))
	if err != nil {
		if cerr := classify(err, "issue"); cerr != err {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

// List lists every issue, newest first
func (r *IssueRepository) List(ctx context.Context) ([]*domain.Issue, error) {
	return r.list(ctx, issueSelect+issueOrder)
}

// ListBySite lists a site's issues, newest first
func (r *IssueRepository) ListBySite(ctx context.Context, siteID int64) ([]*domain.Issue, error) {
	return r.list(ctx, issueSelect+` WHERE i.site_id = $1`+issueOrder, siteID)
}

// ListForUser lists the issues of every site owned by a team the user
// belongs to, newest first
func (r *IssueRepository) ListForUser(ctx context.Context, userID int64) ([]*domain.Issue, error) {
	query := issueSelect + `
		WHERE s.team_id IN (SELECT m.team_id FROM memberships m WHERE m.user_id = $1)` + issueOrder
	return r.list(ctx, query, userID)
}

func (r *IssueRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Issue, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list issues",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := []*domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Update overwrites every mutable field and bumps updated_at
func (r *IssueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	issue.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE issues
		SET status = $1, priority = $2, description = $3, contact_email = $4,
			url = $5, user_agent = $6, viewport = $7, diagnostics = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := r.q.ExecContext(ctx, query,
		string(issue.Status),
		string(issue.Priority),
		issue.Description,
		nullString(issue.ContactEmail),
		issue.URL,
		nullString(issue.UserAgent),
		nullString(issue.Viewport),
		nullJSON(issue.Diagnostics),
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	return requireAffected(result, "issue")
}

// Delete removes an issue
func (r *IssueRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	return requireAffected(result, "issue")
}

var _ domain.IssueRepository = (*IssueRepository)(nil)
