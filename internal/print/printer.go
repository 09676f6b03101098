package print

import (
	"context"
	"errors"
)

var (
	// ErrPrinterUnavailable means no print facility could be started.
	ErrPrinterUnavailable = errors.New("printer unavailable")
	// ErrNothingToPrint is returned when there is no saved record to print.
	ErrNothingToPrint = errors.New("nothing to print")
)

// Job is one print request: a standalone HTML document.
type Job struct {
	ID    string
	Title string
	Mode  Mode
	HTML  string
}

// Result describes the printed output.
type Result struct {
	JobID    string
	Filename string
	Path     string
	Data     []byte
	MimeType string
}

// Printer is the host print facility.
type Printer interface {
	Print(ctx context.Context, job Job) (Result, error)
}

// PrinterFunc adapts a function to Printer.
type PrinterFunc func(ctx context.Context, job Job) (Result, error)

func (f PrinterFunc) Print(ctx context.Context, job Job) (Result, error) {
	return f(ctx, job)
}
