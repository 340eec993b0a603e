package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

func testIdentity() *domain.Identity {
	return &domain.Identity{
		UserID:   7,
		Username: "abc123",
		Email:    "a@b.co",
		Teams:    []domain.TeamRef{{ID: 3, Name: "Acme", Role: domain.RoleOwner}},
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "issuedesk", time.Hour)

	token, issued, err := tm.GenerateToken(testIdentity())
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "7", claims.Subject)

	identity := claims.Identity()
	assert.Equal(t, int64(7), identity.UserID)
	assert.Equal(t, "abc123", identity.Username)
	require.Len(t, identity.Teams, 1)
	assert.Equal(t, "Acme", identity.Teams[0].Name)
	assert.Equal(t, domain.RoleOwner, identity.Teams[0].Role)
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	tm := NewTokenManager("secret", "", 0)
	_, a, err := tm.GenerateToken(testIdentity())
	require.NoError(t, err)
	_, b, err := tm.GenerateToken(testIdentity())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", "issuedesk", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", "issuedesk", time.Hour)
		token, _, err := other.GenerateToken(testIdentity())
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager("secret", "someone-else", time.Hour)
		token, _, err := other.GenerateToken(testIdentity())
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "issuedesk",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		_, _, err := tm.GenerateToken(&domain.Identity{})
		assert.Error(t, err)
	})
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer a b", "Bearer "} {
		_, err := ExtractToken(header)
		assert.Error(t, err, header)
	}
}
