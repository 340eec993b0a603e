package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

func decodeReport(t *testing.T, body string) IssueReport {
	t.Helper()
	var report IssueReport
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	return report
}

func TestSubmitIssueReport(t *testing.T) {
	env := newTestEnv(t)
	alice, team := env.register(t, "alice")
	site := env.site(t, alice, team.ID)
	env.issues.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	report := decodeReport(t, fmt.Sprintf(`{
		"report": {"description": "Cart is empty", "contact_email": "v@example.com"},
		"context": {
			"site_id": "%d",
			"url": "https://shop.example.com/cart",
			"userAgent": "Mozilla/5.0",
			"viewport": {"width": 1280, "height": 720},
			"language": "en-US",
			"referrer": "https://google.com"
		},
		"diagnostics": {"console_errors": [{"message": "boom"}]},
		"status": "resolved",
		"priority": "critical"
	}`, site.ID))

	issue, err := env.issues.SubmitIssueReport(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, issue.Status)
	assert.Equal(t, domain.PriorityMedium, issue.Priority)
	assert.Equal(t, site.ID, issue.SiteID)
	require.NotNil(t, issue.ContactEmail)
	assert.Equal(t, "v@example.com", *issue.ContactEmail)
	require.NotNil(t, issue.UserAgent)
	assert.Equal(t, "Mozilla/5.0", *issue.UserAgent)
	require.NotNil(t, issue.Viewport)
	assert.JSONEq(t, `{"width":1280,"height":720}`, *issue.Viewport)

	assert.JSONEq(t, `{
		"console_errors": [{"message": "boom"}],
		"breadcrumbs": [],
		"screenshot_data": null,
		"technical_context": {
			"language": "en-US",
			"viewport": {"width": 1280, "height": 720},
			"referrer": "https://google.com"
		},
		"timestamp": "2024-05-01T12:30:00.000Z"
	}`, string(issue.Diagnostics))

	stored, err := env.issues.GetIssue(context.Background(), alice, issue.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(issue.Diagnostics), string(stored.Diagnostics))
}

func TestSubmitIssueReportKeepsClientTimestamp(t *testing.T) {
	env := newTestEnv(t)
	alice, team := env.register(t, "alice")
	site := env.site(t, alice, team.ID)

	report := decodeReport(t, fmt.Sprintf(`{
		"report": {"description": "d"},
		"context": {"site_id": %d, "url": "https://shop.example.com"},
		"visuals": {"screenshot_data": "data:image/png;base64,AAAA"},
		"timestamp": "2023-01-01T00:00:00.000Z"
	}`, site.ID))

	issue, err := env.issues.SubmitIssueReport(context.Background(), report)
	require.NoError(t, err)
	assert.Nil(t, issue.ContactEmail)
	assert.Nil(t, issue.Viewport)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(issue.Diagnostics, &doc))
	assert.Equal(t, "2023-01-01T00:00:00.000Z", doc["timestamp"])
	assert.Equal(t, "data:image/png;base64,AAAA", doc["screenshot_data"])
	assert.Equal(t, map[string]any{}, doc["technical_context"])
}

func TestSubmitIssueReportValidation(t *testing.T) {
	env := newTestEnv(t)
	alice, team := env.register(t, "alice")
	site := env.site(t, alice, team.ID)

	tests := []struct {
		name string
		body string
		kind error
	}{
		{"missing context", `{"report": {"description": "d"}}`, domain.ErrValidation},
		{"missing description", fmt.Sprintf(`{"report": {}, "context": {"site_id": %d, "url": "u"}}`, site.ID), domain.ErrValidation},
		{"missing url", fmt.Sprintf(`{"report": {"description": "d"}, "context": {"site_id": %d}}`, site.ID), domain.ErrValidation},
		{"zero site", `{"report": {"description": "d"}, "context": {"site_id": 0, "url": "u"}}`, domain.ErrValidation},
		{"non numeric site", `{"report": {"description": "d"}, "context": {"site_id": "abc", "url": "u"}}`, domain.ErrValidation},
		{"unknown site", `{"report": {"description": "d"}, "context": {"site_id": 9999, "url": "u"}}`, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.issues.SubmitIssueReport(context.Background(), decodeReport(t, tt.body))
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Equal(t, 0, env.count(t, "issues"))
}
