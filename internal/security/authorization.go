package security

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/observability/metrics"
)

// MembershipReader is the single store capability the gate relies on.
type MembershipReader interface {
	GetRole(ctx context.Context, userID, teamID int64) (domain.Role, error)
}

// Gate decides whether an identity may act on a team's resources. Membership
// is read from the store on every call; the team list inside a token is never
// consulted.
type Gate struct {
	memberships MembershipReader
	logger      *slog.Logger
}

// NewGate creates a new authorization gate
func NewGate(memberships MembershipReader, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		memberships: memberships,
		logger:      logger,
	}
}

// Authorize fails with an unauthenticated error for a nil identity and a
// forbidden error when the identity is not a member of teamID.
func (g *Gate) Authorize(ctx context.Context, identity *domain.Identity, teamID int64) error {
	_, err := g.role(ctx, identity, teamID)
	return err
}

// AuthorizeOwner additionally requires the owner role.
func (g *Gate) AuthorizeOwner(ctx context.Context, identity *domain.Identity, teamID int64) error {
	role, err := g.role(ctx, identity, teamID)
	if err != nil {
		return err
	}
	if role != domain.RoleOwner {
		metrics.ObserveAuthorizationDenied("not_owner")
		g.logger.Warn("team owner access denied",
			slog.Int64("user_id", identity.UserID),
			slog.Int64("team_id", teamID),
		)
		return domain.ForbiddenError("only team owners can do this")
	}
	return nil
}

func (g *Gate) role(ctx context.Context, identity *domain.Identity, teamID int64) (domain.Role, error) {
	if identity == nil {
		metrics.ObserveAuthorizationDenied("unauthenticated")
		return "", domain.UnauthenticatedError("authentication required")
	}

	role, err := g.memberships.GetRole(ctx, identity.UserID, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ObserveAuthorizationDenied("not_member")
			g.logger.Warn("team access denied",
				slog.Int64("user_id", identity.UserID),
				slog.Int64("team_id", teamID),
			)
			return "", domain.ForbiddenError("you do not have access to this team")
		}
		g.logger.Error("failed to check team membership",
			slog.Int64("user_id", identity.UserID),
			slog.Int64("team_id", teamID),
			slog.String("error", err.Error()),
		)
		return "", domain.UnexpectedError("failed to check team membership", err)
	}
	return role, nil
}
