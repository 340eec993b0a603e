package security

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

type key struct{ user, team int64 }

type fakeMemberships struct {
	roles map[key]domain.Role
	err   error
	calls int
}

func (f *fakeMemberships) GetRole(_ context.Context, userID, teamID int64) (domain.Role, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[key{userID, teamID}]
	if !ok {
		return "", domain.NotFoundError("membership not found")
	}
	return role, nil
}

func TestGate_Authorize(t *testing.T) {
	store := &fakeMemberships{roles: map[key]domain.Role{
		{1, 10}: domain.RoleOwner,
		{2, 10}: domain.RoleMember,
	}}
	gate := NewGate(store, nil)
	ctx := context.Background()

	assert.NoError(t, gate.Authorize(ctx, &domain.Identity{UserID: 1}, 10))
	assert.NoError(t, gate.Authorize(ctx, &domain.Identity{UserID: 2}, 10))
	assert.ErrorIs(t, gate.Authorize(ctx, &domain.Identity{UserID: 1}, 11), domain.ErrForbidden)
	assert.ErrorIs(t, gate.Authorize(ctx, nil, 10), domain.ErrUnauthenticated)
}

func TestGate_IgnoresTokenTeams(t *testing.T) {
	store := &fakeMemberships{roles: map[key]domain.Role{}}
	gate := NewGate(store, nil)

	// A stale token still lists the team after the membership is gone.
	identity := &domain.Identity{UserID: 1, Teams: []domain.TeamRef{{ID: 10, Name: "Acme", Role: domain.RoleOwner}}}
	err := gate.Authorize(context.Background(), identity, 10)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1, store.calls)
}

func TestGate_AuthorizeOwner(t *testing.T) {
	store := &fakeMemberships{roles: map[key]domain.Role{
		{1, 10}: domain.RoleOwner,
		{2, 10}: domain.RoleMember,
	}}
	gate := NewGate(store, nil)
	ctx := context.Background()

	assert.NoError(t, gate.AuthorizeOwner(ctx, &domain.Identity{UserID: 1}, 10))
	assert.ErrorIs(t, gate.AuthorizeOwner(ctx, &domain.Identity{UserID: 2}, 10), domain.ErrForbidden)
	assert.ErrorIs(t, gate.AuthorizeOwner(ctx, &domain.Identity{UserID: 3}, 10), domain.ErrForbidden)
}

func TestGate_StorageFailureIsUnexpected(t *testing.T) {
	gate := NewGate(&fakeMemberships{err: errors.New("connection refused")}, nil)

	err := gate.Authorize(context.Background(), &domain.Identity{UserID: 1}, 10)
	assert.ErrorIs(t, err, domain.ErrUnexpected)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
}
