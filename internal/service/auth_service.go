package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/issuedesk/internal/security/auth"
)

// DefaultBcryptCost is the work factor used for new password hashes
const DefaultBcryptCost = 12

// AuthService handles registration, credential checks and sessions
type AuthService struct {
	store      domain.Store
	tokens     *auth.TokenManager
	revoked    auth.RevocationStore
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store domain.Store,
	tokens *auth.TokenManager,
	revoked auth.RevocationStore,
	bcryptCost int,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	if revoked == nil {
		revoked = auth.NewMemoryRevocationStore()
	}

	return &AuthService{
		store:      store,
		tokens:     tokens,
		revoked:    revoked,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// RegisterInput is the self-service signup payload
type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	TeamName string `json:"teamName"`
}

// RegisterResult holds the created user and their first team
type RegisterResult struct {
	User *domain.User `json:"user"`
	Team *domain.Team `json:"team"`
}

// LoginResult represents login response
type LoginResult struct {
	Token     string           `json:"token"`
	TokenType string           `json:"token_type"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *domain.Identity `json:"user"`
}

// Profile is the current user with a freshly read team list
type Profile struct {
	User  *domain.User            `json:"user"`
	Teams []domain.TeamMembership `json:"teams"`
}

// ProfilePatch carries a partial profile update
type ProfilePatch struct {
	Email    domain.Optional[string] `json:"email"`
	Username domain.Optional[string] `json:"username"`
	Password domain.Optional[string] `json:"password"`
	Name     domain.Optional[string] `json:"name"`
}

func (in RegisterInput) validate() error {
	if blank(in.Email) || blank(in.Username) || in.Password == "" || blank(in.TeamName) {
		return domain.ValidationError("email, username, password and teamName are required")
	}
	if err := checkField("email", in.Email, emailRule); err != nil {
		return err
	}
	if err := checkField("username", in.Username, usernameRule); err != nil {
		return err
	}
	if err := checkField("password", in.Password, passwordRule); err != nil {
		return err
	}
	return checkField("team_name", in.TeamName, teamNameRule)
}

// Register creates a user, their first team and the owner membership in
// one transaction. All validation happens before storage is touched.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Email = strings.TrimSpace(in.Email)

	if err := in.validate(); err != nil {
		metrics.ObserveRegistration("invalid")
		return nil, err
	}

	if err := s.ensureAvailable(ctx, in.Email, in.Username, 0); err != nil {
		metrics.ObserveRegistration("conflict")
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.UnexpectedError("failed to register user", err)
	}

	user := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		Name:         in.Username,
		PasswordHash: string(hash),
	}
	team := &domain.Team{Name: in.TeamName}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		return tx.Teams().AddMember(ctx, &domain.Membership{
			UserID: user.ID,
			TeamID: team.ID,
			Role:   domain.RoleOwner,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.ObserveRegistration("conflict")
			return nil, domain.ConflictError("email or username already in use")
		}
		metrics.ObserveRegistration("error")
		s.logger.Error("failed to register user",
			slog.String("email", in.Email),
			slog.String("error", err.Error()),
		)
		return nil, domain.UnexpectedError("failed to register user", err)
	}

	metrics.ObserveRegistration("success")
	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.Int64("team_id", team.ID),
	)
	return &RegisterResult{User: user, Team: team}, nil
}

// ensureAvailable rejects an email or username held by a user other than
// exceptID.
func (s *AuthService) ensureAvailable(ctx context.Context, email, username string, exceptID int64) error {
	if email != "" {
		existing, err := s.store.Users().GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != exceptID:
			return domain.ConflictError("email already in use")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.UnexpectedError("failed to check email", err)
		}
	}
	if username != "" {
		existing, err := s.store.Users().GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != exceptID:
			return domain.ConflictError("username already in use")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.UnexpectedError("failed to check username", err)
		}
	}
	return nil
}

// Authenticate checks credentials and returns the identity with its current
// teams. It fails closed: unknown users, users without a password hash and
// wrong passwords all yield a nil identity and a nil error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to load user for login", slog.String("error", err.Error()))
		return nil, domain.UnexpectedError("failed to authenticate", err)
	}
	if user.PasswordHash == "" {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}

	return s.identityFor(ctx, user)
}

func (s *AuthService) identityFor(ctx context.Context, user *domain.User) (*domain.Identity, error) {
	teams, err := s.store.Teams().ListForUser(ctx, user.ID)
	if err != nil {
		return nil, domain.UnexpectedError("failed to load teams", err)
	}
	refs := make([]domain.TeamRef, 0, len(teams))
	for _, t := range teams {
		refs = append(refs, domain.TeamRef{ID: t.ID, Name: t.Name, Role: t.Role})
	}
	return &domain.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Teams:    refs,
	}, nil
}

// Login authenticates a user and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := s.Authenticate(ctx, email, password)
	if err != nil {
		metrics.ObserveLogin("error")
		return nil, err
	}
	if identity == nil {
		metrics.ObserveLogin("failure")
		s.logger.Info("login failed", slog.String("email", email))
		return nil, domain.UnauthenticatedError("invalid credentials")
	}

	token, claims, err := s.tokens.GenerateToken(identity)
	if err != nil {
		metrics.ObserveLogin("error")
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, domain.UnexpectedError("failed to generate token", err)
	}

	metrics.ObserveLogin("success")
	s.logger.Info("user logged in", slog.Int64("user_id", identity.UserID))
	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		User:      identity,
	}, nil
}

// VerifyToken validates a session token and rejects revoked ones
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, domain.UnauthenticatedError("invalid token")
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token revocation", slog.String("error", err.Error()))
		return nil, domain.UnexpectedError("failed to verify token", err)
	}
	if revoked {
		return nil, domain.UnauthenticatedError("token has been revoked")
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return domain.UnauthenticatedError("authentication required")
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.Int64("user_id", claims.UserID))
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *auth.Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return domain.ValidationError("token cannot be revoked")
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to revoke token", slog.String("error", err.Error()))
		return domain.UnexpectedError("failed to revoke token", err)
	}
	return nil
}

// Me returns the caller's profile with memberships read from the store
func (s *AuthService) Me(ctx context.Context, identity *domain.Identity) (*Profile, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}
	user, err := s.store.Users().GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load user")
	}
	teams, err := s.store.Teams().ListForUser(ctx, user.ID)
	if err != nil {
		return nil, domain.UnexpectedError("failed to load teams", err)
	}
	return &Profile{User: user, Teams: teams}, nil
}

// UpdateProfile changes the supplied profile fields with the registration
// rules and uniqueness checks
func (s *AuthService) UpdateProfile(ctx context.Context, identity *domain.Identity, patch ProfilePatch) (*domain.User, error) {
	if identity == nil {
		return nil, domain.UnauthenticatedError("authentication required")
	}

	for _, f := range []struct {
		name  string
		value domain.Optional[string]
		rule  string
	}{
		{"email", patch.Email, emailRule},
		{"username", patch.Username, usernameRule},
		{"password", patch.Password, passwordRule},
	} {
		if !f.value.Set {
			continue
		}
		if f.value.Null || blank(f.value.Value) {
			return nil, domain.ValidationError("%s cannot be empty", f.name)
		}
		value := f.value.Value
		if f.name == "email" {
			value = strings.TrimSpace(value)
		}
		if err := checkField(f.name, value, f.rule); err != nil {
			return nil, err
		}
	}

	user, err := s.store.Users().GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load user")
	}

	var email, username string
	if patch.Email.Present() {
		email = strings.TrimSpace(patch.Email.Value)
		user.Email = email
	}
	if patch.Username.Present() {
		username = patch.Username.Value
		user.Username = username
	}
	if patch.Name.Set {
		user.Name = patch.Name.Value
	}
	if err := s.ensureAvailable(ctx, email, username, user.ID); err != nil {
		return nil, err
	}
	if patch.Password.Present() {
		hash, err := bcrypt.GenerateFromPassword([]byte(patch.Password.Value), s.bcryptCost)
		if err != nil {
			return nil, domain.UnexpectedError("failed to update user", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		s.logger.Error("failed to update user",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, domain.Wrap(err, "failed to update user")
	}

	s.logger.Info("user updated", slog.Int64("user_id", user.ID))
	return user, nil
}

// DeleteAccount removes the caller and revokes the token the request came
// with. Memberships go with the user; teams and their sites stay.
func (s *AuthService) DeleteAccount(ctx context.Context, identity *domain.Identity, claims *auth.Claims) error {
	if identity == nil {
		return domain.UnauthenticatedError("authentication required")
	}
	if err := s.store.Users().Delete(ctx, identity.UserID); err != nil {
		return domain.Wrap(err, "failed to delete user")
	}
	if claims != nil {
		if err := s.revoke(ctx, claims); err != nil {
			return err
		}
	}
	s.logger.Info("user deleted", slog.Int64("user_id", identity.UserID))
	return nil
}

// ListUsers lists every account for the admin surface
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, domain.Wrap(err, "failed to list users")
	}
	return users, nil
}
