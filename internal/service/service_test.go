package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/repository"
	"github.com/aryan0dhankhar/issuedesk/internal/repository/repositorytest"
	"github.com/aryan0dhankhar/issuedesk/internal/security"
	"github.com/aryan0dhankhar/issuedesk/internal/security/auth"
)

type testEnv struct {
	store   *repository.SQLStore
	db      *sql.DB
	revoked *auth.MemoryRevocationStore
	auth    *AuthService
	teams   *TeamService
	sites   *SiteService
	issues  *IssueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, db := repositorytest.NewStore(t)
	gate := security.NewGate(store.Teams(), nil)
	revoked := auth.NewMemoryRevocationStore()
	tokens := auth.NewTokenManager("test-secret", "issuedesk-test", time.Hour)

	return &testEnv{
		store:   store,
		db:      db,
		revoked: revoked,
		auth:    NewAuthService(store, tokens, revoked, bcrypt.MinCost, nil),
		teams:   NewTeamService(store, gate, nil),
		sites:   NewSiteService(store, gate, nil),
		issues:  NewIssueService(store, gate, nil),
	}
}

// register signs up username with a valid password and returns the identity
// together with the team created alongside it.
func (e *testEnv) register(t *testing.T, username string) (*domain.Identity, *domain.Team) {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: "Passw0rdX",
		TeamName: username + " team",
	})
	require.NoError(t, err)
	return &domain.Identity{
		UserID:   res.User.ID,
		Username: res.User.Username,
		Email:    res.User.Email,
	}, res.Team
}

func (e *testEnv) site(t *testing.T, identity *domain.Identity, teamID int64) *domain.Site {
	t.Helper()
	site, err := e.sites.CreateSite(context.Background(), identity, CreateSiteInput{
		Name:   "Shop",
		URL:    "https://shop.example.com",
		TeamID: teamID,
	})
	require.NoError(t, err)
	return site
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
