package config

const (
	HCType        = "Content-Type"
	HCacheControl = "Cache-Control"
	HDisposition  = "Content-Disposition"

	CTypeHTML  = "text/html; charset=utf-8"
	CTypeText  = "text/plain; charset=utf-8"
	CTypeJSON  = "application/json"
	CTypeEvent = "text/event-stream"
	CTypePDF   = "application/pdf"
)

const (
	HTTPErrDraftNotFound = "Draft not found"
	HTTPErrStorage       = "Storage unavailable"
)

const (
	QueryAssignmentID = "assignmentId"
	QueryExclude      = "exclude"
	QueryFormat       = "format"
	QueryURL          = "url"
	QueryTheme        = "theme"
)
