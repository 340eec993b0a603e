package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/repository/repositorytest"
)

func seedTeam(t *testing.T, store domain.Store, username string) (*domain.User, *domain.Team) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{Email: username + "@example.com", Username: username, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, user))

	team := &domain.Team{Name: username + " team"}
	require.NoError(t, store.Teams().Create(ctx, team))
	require.NoError(t, store.Teams().AddMember(ctx, &domain.Membership{UserID: user.ID, TeamID: team.ID, Role: domain.RoleOwner}))
	return user, team
}

func TestUserRepository_DuplicateEmailIsConflict(t *testing.T) {
	store, _ := repositorytest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Users().Create(ctx, &domain.User{Email: "a@example.com", Username: "alice"}))
	err := store.Users().Create(ctx, &domain.User{Email: "a@example.com", Username: "alice2"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = store.Users().GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTeamRepository_MembershipIsUnique(t *testing.T) {
	store, _ := repositorytest.NewStore(t)
	ctx := context.Background()
	user, team := seedTeam(t, store, "alice")

	err := store.Teams().AddMember(ctx, &domain.Membership{UserID: user.ID, TeamID: team.ID, Role: domain.RoleMember})
	assert.ErrorIs(t, err, domain.ErrConflict)

	role, err := store.Teams().GetRole(ctx, user.ID, team.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	_, err = store.Teams().GetRole(ctx, user.ID, team.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTeamRepository_ListForUserInJoinOrder(t *testing.T) {
	store, _ := repositorytest.NewStore(t)
	ctx := context.Background()
	user, first := seedTeam(t, store, "alice")

	second := &domain.Team{Name: "Second"}
	require.NoError(t, store.Teams().Create(ctx, second))
	require.NoError(t, store.Teams().AddMember(ctx, &domain.Membership{
		UserID: user.ID, TeamID: second.ID, Role: domain.RoleMember,
		CreatedAt: time.Now().UTC().Add(time.Second),
	}))

	teams, err := store.Teams().ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, first.ID, teams[0].ID)
	assert.Equal(t, domain.RoleOwner, teams[0].Role)
	assert.Equal(t, second.ID, teams[1].ID)
	assert.Equal(t, domain.RoleMember, teams[1].Role)

	members, err := store.Teams().ListMembers(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Username)
}

func TestSiteRepository_DeleteWithIssuesIsConflict(t *testing.T) {
	store, _ := repositorytest.NewStore(t)
	ctx := context.Background()
	_, team := seedTeam(t, store, "alice")

	site := &domain.Site{TeamID: team.ID, Name: "Main", URL: "https://example.com"}
	require.NoError(t, store.Sites().Create(ctx, site))

	issue := &domain.Issue{SiteID: site.ID, Status: domain.StatusNew, Priority: domain.PriorityMedium, Description: "broken", URL: "https://example.com/a"}
	require.NoError(t, store.Issues().Create(ctx, issue))

	got, err := store.Sites().GetByID(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IssueCount)

	err = store.Sites().Delete(ctx, site.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, store.Issues().Delete(ctx, issue.ID))
	require.NoError(t, store.Sites().Delete(ctx, site.ID))

	_, err = store.Sites().GetByID(ctx, site.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssueRepository_RoundTripAndOrdering(t *testing.T) {
	store, _ := repositorytest.NewStore(t)
	ctx := context.Background()
	alice, team := seedTeam(t, store, "alice")
	bob, otherTeam := seedTeam(t, store, "bob")

	site := &domain.Site{TeamID: team.ID, Name: "Main", URL: "https://example.com"}
	require.NoError(t, store.Sites().Create(ctx, site))
	otherSite := &domain.Site{TeamID: otherTeam.ID, Name: "Other", URL: "https://other.example.com"}
	require.NoError(t, store.Sites().Create(ctx, otherSite))

	base := time.Now().UTC().Truncate(time.Millisecond)
	email := "reporter@example.com"
	older := &domain.Issue{
		SiteID: site.ID, Status: domain.StatusNew, Priority: domain.PriorityLow,
		Description: "older", URL: "https://example.com/1", ContactEmail: &email,
		Diagnostics: json.RawMessage(`{"breadcrumbs":[]}`), CreatedAt: base,
	}
	newer := &domain.Issue{
		SiteID: site.ID, Status: domain.StatusNew, Priority: domain.PriorityHigh,
		Description: "newer", URL: "https://example.com/2", CreatedAt: base.Add(time.Second),
	}
	foreign := &domain.Issue{
		SiteID: otherSite.ID, Status: domain.StatusNew, Priority: domain.PriorityMedium,
		Description: "foreign", URL: "https://other.example.com", CreatedAt: base.Add(2 * time.Second),
	}
	for _, issue := range []*domain.Issue{older, newer, foreign} {
		require.NoError(t, store.Issues().Create(ctx, issue))
	}

	got, err := store.Issues().GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ContactEmail)
	assert.Equal(t, email, *got.ContactEmail)
	assert.Nil(t, got.UserAgent)
	assert.JSONEq(t, `{"breadcrumbs":[]}`, string(got.Diagnostics))
	require.NotNil(t, got.Site)
	assert.Equal(t, team.ID, got.Site.TeamID)

	bySite, err := store.Issues().ListBySite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, bySite, 2)
	assert.Equal(t, newer.ID, bySite[0].ID)
	assert.Equal(t, older.ID, bySite[1].ID)

	forAlice, err := store.Issues().ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, forAlice, 2)

	forBob, err := store.Issues().ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, foreign.ID, forBob[0].ID)

	all, err := store.Issues().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, foreign.ID, all[0].ID)

	got.Status = domain.StatusResolved
	got.ContactEmail = nil
	require.NoError(t, store.Issues().Update(ctx, got))

	reread, err := store.Issues().GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, reread.Status)
	assert.Nil(t, reread.ContactEmail)
}

func TestSQLStore_WithinTxRollsBack(t *testing.T) {
	store, _ := repositorytest.NewStore(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx domain.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &domain.User{Email: "tx@example.com", Username: "txuser"}))
		return domain.ValidationError("abort")
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
