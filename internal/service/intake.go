package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

// IssueReport is the payload posted by the embeddable widget
type IssueReport struct {
	Report      *ReportBody        `json:"report"`
	Context     *IntakeContext     `json:"context"`
	Diagnostics *ReportDiagnostics `json:"diagnostics"`
	Visuals     *ReportVisuals     `json:"visuals"`
	Timestamp   json.RawMessage    `json:"timestamp"`
}

// ReportBody is what the visitor typed
type ReportBody struct {
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
}

// ReportDiagnostics is what the widget captured from the page
type ReportDiagnostics struct {
	ConsoleErrors json.RawMessage `json:"console_errors"`
	Breadcrumbs   json.RawMessage `json:"breadcrumbs"`
}

// ReportVisuals holds the optional screenshot
type ReportVisuals struct {
	ScreenshotData json.RawMessage `json:"screenshot_data"`
}

// IntakeContext is the browser context of a report. Keys the server does not
// know about are kept verbatim in Extra.
type IntakeContext struct {
	SiteID           json.RawMessage
	URL              json.RawMessage
	UserAgent        json.RawMessage
	Language         json.RawMessage
	Platform         json.RawMessage
	ScreenResolution json.RawMessage
	Viewport         json.RawMessage
	Extra            map[string]json.RawMessage
}

// UnmarshalJSON splits the context object into known fields and extras.
func (c *IntakeContext) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	known := map[string]*json.RawMessage{
		"site_id":          &c.SiteID,
		"url":              &c.URL,
		"userAgent":        &c.UserAgent,
		"language":         &c.Language,
		"platform":         &c.Platform,
		"screenResolution": &c.ScreenResolution,
		"viewport":         &c.Viewport,
	}
	c.Extra = map[string]json.RawMessage{}
	for key, value := range fields {
		if dst, ok := known[key]; ok {
			*dst = value
			continue
		}
		c.Extra[key] = value
	}
	return nil
}

// intakeDiagnostics is the document stored in the issue's diagnostics column.
type intakeDiagnostics struct {
	ConsoleErrors    json.RawMessage            `json:"console_errors"`
	Breadcrumbs      json.RawMessage            `json:"breadcrumbs"`
	ScreenshotData   json.RawMessage            `json:"screenshot_data"`
	TechnicalContext map[string]json.RawMessage `json:"technical_context"`
	Timestamp        json.RawMessage            `json:"timestamp"`
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var (
	emptyArray = json.RawMessage(`[]`)
	jsonNull   = json.RawMessage(`null`)
)

// SubmitIssueReport accepts an anonymous widget report. It runs no
// authorization: the widget only needs a site id. Status and priority are
// always new and medium.
func (s *IssueService) SubmitIssueReport(ctx context.Context, report IssueReport) (*domain.Issue, error) {
	if report.Report == nil || report.Context == nil {
		return nil, domain.ValidationError("report and context are required")
	}

	description := report.Report.Description
	url, urlOK := stringValue(report.Context.URL)
	if blank(description) || !urlOK || url == "" || falsy(report.Context.SiteID) {
		return nil, domain.ValidationError("site_id, url and description are required")
	}
	siteID, err := parseSiteID(report.Context.SiteID)
	if err != nil {
		return nil, err
	}

	site, err := s.store.Sites().GetByID(ctx, siteID)
	if err != nil {
		return nil, domain.Wrap(err, "failed to load site")
	}

	diagnostics, err := s.assembleDiagnostics(report)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		SiteID:       site.ID,
		Status:       domain.StatusNew,
		Priority:     domain.PriorityMedium,
		Description:  description,
		ContactEmail: optionalString(report.Report.ContactEmail),
		URL:          url,
		UserAgent:    columnString(report.Context.UserAgent),
		Viewport:     columnString(report.Context.Viewport),
		Diagnostics:  diagnostics,
	}
	return s.insert(ctx, issue, site, "widget")
}

func (s *IssueService) assembleDiagnostics(report IssueReport) (json.RawMessage, error) {
	doc := intakeDiagnostics{
		ConsoleErrors:    emptyArray,
		Breadcrumbs:      emptyArray,
		ScreenshotData:   jsonNull,
		TechnicalContext: map[string]json.RawMessage{},
	}
	if d := report.Diagnostics; d != nil {
		doc.ConsoleErrors = orDefault(d.ConsoleErrors, emptyArray)
		doc.Breadcrumbs = orDefault(d.Breadcrumbs, emptyArray)
	}
	if v := report.Visuals; v != nil {
		doc.ScreenshotData = orDefault(v.ScreenshotData, jsonNull)
	}

	c := report.Context
	for key, value := range c.Extra {
		doc.TechnicalContext[key] = value
	}
	for key, value := range map[string]json.RawMessage{
		"language":         c.Language,
		"platform":         c.Platform,
		"screenResolution": c.ScreenResolution,
		"viewport":         c.Viewport,
	} {
		if value != nil {
			doc.TechnicalContext[key] = value
		}
	}

	doc.Timestamp = report.Timestamp
	if falsy(doc.Timestamp) {
		ts, _ := json.Marshal(s.now().UTC().Format(isoMillis))
		doc.Timestamp = ts
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, domain.UnexpectedError("failed to encode diagnostics", err)
	}
	return out, nil
}

// parseSiteID accepts a JSON number or a numeric string.
func parseSiteID(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	if s, ok := stringValue(raw); ok {
		text = strings.TrimSpace(s)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError("site_id must be a positive integer")
	}
	return id, nil
}

// falsy reports whether a JSON value is absent, null, false, 0 or "".
func falsy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", `""`:
		return true
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil && f == 0 {
		return true
	}
	return false
}

func orDefault(raw, def json.RawMessage) json.RawMessage {
	if falsy(raw) {
		return def
	}
	return raw
}

func stringValue(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// columnString stores strings as they are and any other non-empty JSON value
// as its encoded text.
func columnString(raw json.RawMessage) *string {
	if falsy(raw) {
		return nil
	}
	if s, ok := stringValue(raw); ok {
		return &s
	}
	text := string(bytes.TrimSpace(raw))
	return &text
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
