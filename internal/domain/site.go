package domain

import (
	"context"
	"time"
)

// Site is a tracked external website owned by exactly one team
type Site struct {
	ID         int64     `json:"id"`
	TeamID     int64     `json:"team_id"`
	Name       string    `json:"site_name"`
	URL        string    `json:"site_url"`
	CreatedAt  time.Time `json:"created_at"`
	IssueCount int       `json:"issue_count"`
	Issues     []*Issue  `json:"issues"`
}

// SiteRef is the site as embedded in an issue, without the nested issue list.
type SiteRef struct {
	ID         int64     `json:"id"`
	TeamID     int64     `json:"team_id"`
	Name       string    `json:"site_name"`
	URL        string    `json:"site_url"`
	CreatedAt  time.Time `json:"created_at"`
	IssueCount int       `json:"issue_count"`
}

// Ref returns the compact form of s.
func (s *Site) Ref() *SiteRef {
	return &SiteRef{
		ID:         s.ID,
		TeamID:     s.TeamID,
		Name:       s.Name,
		URL:        s.URL,
		CreatedAt:  s.CreatedAt,
		IssueCount: s.IssueCount,
	}
}

// SitePatch carries the fields of a partial site update.
type SitePatch struct {
	Name Optional[string] `json:"site_name"`
	URL  Optional[string] `json:"site_url"`
}

// Empty reports whether the patch changes nothing.
func (p SitePatch) Empty() bool {
	return !p.Name.Set && !p.URL.Set
}

// Apply copies the present fields onto s.
func (p SitePatch) Apply(s *Site) {
	if p.Name.Present() {
		s.Name = p.Name.Value
	}
	if p.URL.Present() {
		s.URL = p.URL.Value
	}
}

// SiteRepository defines data access for sites. Every read annotates sites
// with their issue count.
type SiteRepository interface {
	Create(ctx context.Context, site *Site) error
	GetByID(ctx context.Context, id int64) (*Site, error)
	ListByTeam(ctx context.Context, teamID int64) ([]*Site, error)
	List(ctx context.Context) ([]*Site, error)
	Update(ctx context.Context, site *Site) error
	Delete(ctx context.Context, id int64) error
}

// Store groups the repositories and the single transaction primitive the
// services need.
type Store interface {
	Users() UserRepository
	Teams() TeamRepository
	Sites() SiteRepository
	Issues() IssueRepository

	// WithinTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
