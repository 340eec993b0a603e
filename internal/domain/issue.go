package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle state of an issue. Transitions are unconstrained.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusWontFix    Status = "wont_fix"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved, StatusWontFix:
		return true
	}
	return false
}

// Priority ranks an issue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Issue is a bug report attached to a site
type Issue struct {
	ID           int64           `json:"id"`
	SiteID       int64           `json:"site_id"`
	Status       Status          `json:"status"`
	Priority     Priority        `json:"priority"`
	Description  string          `json:"description"`
	ContactEmail *string         `json:"contact_email"`
	URL          string          `json:"url"`
	UserAgent    *string         `json:"user_agent"`
	Viewport     *string         `json:"viewport"`
	Diagnostics  json.RawMessage `json:"diagnostics"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Site         *SiteRef        `json:"site,omitempty"`
}

// IssuePatch carries the fields of a partial issue update. Required fields
// reject null and the empty string; nullable fields are cleared by either.
type IssuePatch struct {
	Status       Optional[Status]          `json:"status"`
	Priority     Optional[Priority]        `json:"priority"`
	Description  Optional[string]          `json:"description"`
	ContactEmail Optional[string]          `json:"contact_email"`
	URL          Optional[string]          `json:"url"`
	UserAgent    Optional[string]          `json:"user_agent"`
	Viewport     Optional[string]          `json:"viewport"`
	Diagnostics  Optional[json.RawMessage] `json:"diagnostics"`
}

// Validate checks the supplied fields.
func (p IssuePatch) Validate() error {
	if p.Status.Set && (p.Status.Null || !p.Status.Value.Valid()) {
		return ValidationError("invalid status")
	}
	if p.Priority.Set && (p.Priority.Null || !p.Priority.Value.Valid()) {
		return ValidationError("invalid priority")
	}
	if p.Description.Set && (p.Description.Null || strings.TrimSpace(p.Description.Value) == "") {
		return ValidationError("description cannot be empty")
	}
	if p.URL.Set && (p.URL.Null || strings.TrimSpace(p.URL.Value) == "") {
		return ValidationError("url cannot be empty")
	}
	if p.Diagnostics.Present() && len(p.Diagnostics.Value) > 0 && !json.Valid(p.Diagnostics.Value) {
		return ValidationError("diagnostics must be valid JSON")
	}
	return nil
}

// Apply copies the supplied fields onto issue.
func (p IssuePatch) Apply(issue *Issue) {
	if p.Status.Present() {
		issue.Status = p.Status.Value
	}
	if p.Priority.Present() {
		issue.Priority = p.Priority.Value
	}
	if p.Description.Present() {
		issue.Description = p.Description.Value
	}
	if p.URL.Present() {
		issue.URL = p.URL.Value
	}
	if p.ContactEmail.Set {
		issue.ContactEmail = nullableString(p.ContactEmail)
	}
	if p.UserAgent.Set {
		issue.UserAgent = nullableString(p.UserAgent)
	}
	if p.Viewport.Set {
		issue.Viewport = nullableString(p.Viewport)
	}
	if p.Diagnostics.Set {
		if p.Diagnostics.Null || len(p.Diagnostics.Value) == 0 {
			issue.Diagnostics = nil
		} else {
			issue.Diagnostics = p.Diagnostics.Value
		}
	}
}

func nullableString(o Optional[string]) *string {
	if o.Null || o.Value == "" {
		return nil
	}
	v := o.Value
	return &v
}

// IssueRepository defines data access for issues. Lists are newest first.
type IssueRepository interface {
	Create(ctx context.Context, issue *Issue) error
	GetByID(ctx context.Context, id int64) (*Issue, error)
	List(ctx context.Context) ([]*Issue, error)
	ListBySite(ctx context.Context, siteID int64) ([]*Issue, error)
	ListForUser(ctx context.Context, userID int64) ([]*Issue, error)
	Update(ctx context.Context, issue *Issue) error
	Delete(ctx context.Context, id int64) error
}
