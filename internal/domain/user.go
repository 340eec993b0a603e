package domain

import (
	"context"
	"time"
)

// User represents a dashboard account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at"`
}

// Role is a user's role inside a team
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// Team is the tenancy boundary; it owns sites.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership associates a user with a team.
type Membership struct {
	UserID    int64     `json:"user_id"`
	TeamID    int64     `json:"team_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMembership is a team as seen by one of its members.
type TeamMembership struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user as listed inside a team.
type Member struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamRef is the compact team tuple carried inside an identity.
type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Identity is the authenticated actor behind a request. Its team list is a
// snapshot taken at login and is only used for coarse UI gating.
type Identity struct {
	UserID   int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Teams    []TeamRef `json:"teams"`
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*User, error)
}

// TeamRepository defines data access for teams and memberships
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id int64) (*Team, error)
	AddMember(ctx context.Context, membership *Membership) error
	GetRole(ctx context.Context, userID, teamID int64) (Role, error)
	ListForUser(ctx context.Context, userID int64) ([]TeamMembership, error)
	ListMembers(ctx context.Context, teamID int64) ([]Member, error)
}
