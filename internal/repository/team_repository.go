package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

// TeamRepository implements domain.TeamRepository, covering teams and their
// memberships
type TeamRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(q Querier, logger *slog.Logger) *TeamRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamRepository{q: q, logger: logger}
}

// Create creates a new team
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO teams (name, created_at)
		VALUES ($1, $2)
		RETURNING id
	`
	if err := r.q.QueryRowContext(ctx, query, team.Name, team.CreatedAt).Scan(&team.ID); err != nil {
		r.logger.Error("failed to create team",
			slog.String("name", team.Name),
			slog.String("error", err.Error()),
		)
		if cerr := classify(err, "team"); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by ID
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	t := &domain.Team{}
	query := `
		SELECT id, name, created_at
		FROM teams
		WHERE id = $1
	`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if cerr := classify(err, "team"); cerr != err {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return t, nil
}

// AddMember inserts a membership. A second membership for the same pair is a
// conflict.
func (r *TeamRepository) AddMember(ctx context.Context, m *domain.Membership) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO memberships (user_id, team_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.q.ExecContext(ctx, query, m.UserID, m.TeamID, string(m.Role), m.CreatedAt); err != nil {
		r.logger.Error("failed to add team member",
			slog.Int64("user_id", m.UserID),
			slog.Int64("team_id", m.TeamID),
			slog.String("error", err.Error()),
		)
		if isUniqueViolation(err) {
			return domain.ConflictError("user is already a member of this team")
		}
		if cerr := classify(err, "membership"); cerr != err {
			return cerr
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// GetRole returns the user's role in the team, or a not-found error when the
// user is not a member
func (r *TeamRepository) GetRole(ctx context.Context, userID, teamID int64) (domain.Role, error) {
	var role string
	query := `
		SELECT role
		FROM memberships
		WHERE user_id = $1 AND team_id = $2
	`
	if err := r.q.QueryRowContext(ctx, query, userID, teamID).Scan(&role); err != nil {
		if cerr := classify(err, "membership"); cerr != err {
			return "", cerr
		}
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	return domain.Role(role), nil
}

// ListForUser returns the teams a user belongs to in membership order
func (r *TeamRepository) ListForUser(ctx context.Context, userID int64) ([]domain.TeamMembership, error) {
	query := `
		SELECT t.id, t.name, m.role, t.created_at
		FROM memberships m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	out := []domain.TeamMembership{}
	for rows.Next() {
		var tm domain.TeamMembership
		var role string
		if err := rows.Scan(&tm.ID, &tm.Name, &role, &tm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		tm.Role = domain.Role(role)
		out = append(out, tm)
	}
	return out, rows.Err()
}

// ListMembers returns the members of a team in join order
func (r *TeamRepository) ListMembers(ctx context.Context, teamID int64) ([]domain.Member, error) {
	query := `
		SELECT u.id, u.username, u.email, m.role, m.created_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	out := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		var role string
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = domain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ domain.TeamRepository = (*TeamRepository)(nil)
