package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security"
)

// TeamService manages teams and memberships
type TeamService struct {
	store  domain.Store
	gate   *security.Gate
	logger *slog.Logger
}

// NewTeamService creates a new team service
func NewTeamService(store domain.Store, gate *security.Gate, logger *slog.Logger) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamService{store: store, gate: gate, logger: logger}
}

// AddMemberInput names an existing user to add to a team
type AddMemberInput struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ListTeamsForUser returns the user's teams in the order they joined them
func (s *TeamService) ListTeamsForUser(ctx context.Context, userID int64) ([]domain.TeamMembership, error) {
	teams, err := s.store.Teams().ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list teams",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, domain.UnexpectedError("failed to list teams", err)
	}
	return teams, nil
}

// CreateTeam creates a team owned by the caller
func (s *TeamService) CreateTeam(ctx context.Context, identity *domain.Identity, name string) (*domain.TeamMembership, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	if blank(name) {
		return nil, domain.ValidationError("team name is required")
	}
	if err := checkField("team_name", name, teamNameRule); err != nil {
		return nil, err
	}

	team := &domain.Team{Name: name}
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Users().GetByID(ctx, identity.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.UnauthenticatedError("account no longer exists")
			}
			return err
		}
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		return tx.Teams().AddMember(ctx, &domain.Membership{
			UserID: identity.UserID,
			TeamID: team.ID,
			Role:   domain.RoleOwner,
		})
	})
	if err != nil {
		s.logger.Error("failed to create team",
			slog.Int64("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		return nil, domain.Wrap(err, "failed to create team")
	}

	s.logger.Info("team created",
		slog.Int64("team_id", team.ID),
		slog.Int64("owner_id", identity.UserID),
	)
	return &domain.TeamMembership{
		ID:        team.ID,
		Name:      team.Name,
		Role:      domain.RoleOwner,
		CreatedAt: team.CreatedAt,
	}, nil
}

// IsMember reports whether the user belongs to the team
func (s *TeamService) IsMember(ctx context.Context, userID, teamID int64) (bool, error) {
	_, err := s.store.Teams().GetRole(ctx, userID, teamID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, domain.UnexpectedError("failed to check membership", err)
	}
}

// ListMembers lists a team's members for any member of that team
func (s *TeamService) ListMembers(ctx context.Context, identity *domain.Identity, teamID int64) ([]domain.Member, error) {
	if err := s.gate.Authorize(ctx, identity, teamID); err != nil {
		return nil, err
	}
	members, err := s.store.Teams().ListMembers(ctx, teamID)
	if err != nil {
		return nil, domain.UnexpectedError("failed to list members", err)
	}
	return members, nil
}

// AddMember adds an existing user to the team. Only owners may do this.
func (s *TeamService) AddMember(ctx context.Context, identity *domain.Identity, teamID int64, in AddMemberInput) (*domain.Member, error) {
	if err := s.gate.AuthorizeOwner(ctx, identity, teamID); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, domain.ValidationError("email is required")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, domain.ValidationError("invalid role")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load user")
	}

	membership := &domain.Membership{UserID: user.ID, TeamID: teamID, Role: role}
	if err := s.store.Teams().AddMember(ctx, membership); err != nil {
		return nil, domain.Wrap(err, "failed to add member")
	}

	s.logger.Info("team member added",
		slog.Int64("team_id", teamID),
		slog.Int64("user_id", user.ID),
		slog.String("role", string(role)),
	)
	return &domain.Member{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     role,
		JoinedAt: membership.CreatedAt,
	}, nil
}
