package handler

// IssueReportSchema describes the widget payload accepted by POST /api/issues.
// It only pins down shapes; presence of site_id, url and description is
// checked by the intake service so empty values get the same answer as
// missing ones.
const IssueReportSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"report": {
			"type": ["object", "null"],
			"properties": {
				"description": {"type": ["string", "null"]},
				"contact_email": {"type": ["string", "null"]}
			}
		},
		"context": {
			"type": ["object", "null"],
			"properties": {
				"site_id": {"type": ["integer", "string", "null"]},
				"url": {"type": ["string", "null"]},
				"userAgent": {"type": ["string", "null"]}
			}
		},
		"diagnostics": {
			"type": ["object", "null"],
			"properties": {
				"console_errors": {"type": ["array", "null"]},
				"breadcrumbs": {"type": ["array", "null"]}
			}
		},
		"visuals": {"type": ["object", "null"]},
		"timestamp": {"type": ["string", "integer", "null"]}
	}
}`
