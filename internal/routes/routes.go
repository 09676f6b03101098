// Package routes defines HTTP route constants for the application.
package routes

const (
	RootPath      = "/"
	RobotsPath    = "/robots.txt"
	SyntaxCSSPath = "/syntax.css"

	// SSE
	SSEPath = "/sse"

	// API
	APIDrafts          = "/api/drafts"
	APIDraft           = "/api/drafts/{id}"
	APIDraftsBulk      = "/api/drafts/bulk-delete"
	APIDraftEdits      = "/api/drafts/{id}/edits"
	APIDraftSave       = "/api/drafts/{id}/save"
	APIDraftExportText = "/api/drafts/{id}/export.txt"
	APIDraftCopyText   = "/api/drafts/{id}/copy-text"
	APIDraftPrint      = "/api/drafts/{id}/print"
	APIExport          = "/api/export"
	APIPrintAll        = "/api/print"
)
