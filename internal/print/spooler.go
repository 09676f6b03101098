package print

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/export"
)

var printLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	printLogger = l
}

// Spooler renders drafts, switches the view into print mode for the
// duration of a job and restores it afterwards, whatever the outcome.
type Spooler struct {
	view      *View
	printer   Printer
	formatter *export.Formatter
}

func NewSpooler(view *View, printer Printer, formatter *export.Formatter) *Spooler {
	if view == nil {
		view = NewView()
	}
	return &Spooler{view: view, printer: printer, formatter: formatter}
}

func (s *Spooler) View() *View {
	return s.view
}

// PrintSingle prints one record under title.
func (s *Spooler) PrintSingle(ctx context.Context, title string, r draft.Record) (Result, error) {
	body := s.formatter.RenderSingle("", r, export.FormatMarkup)
	return s.run(ctx, ModePrintSingle, title, body)
}

// PrintAll prints entries in the given order.
func (s *Spooler) PrintAll(ctx context.Context, entries []draft.Entry) (Result, error) {
	if len(entries) == 0 {
		return Result{}, ErrNothingToPrint
	}
	body := s.formatter.RenderAll(entries, export.FormatMarkup)
	return s.run(ctx, ModePrintAll, "", body)
}

func (s *Spooler) run(ctx context.Context, mode Mode, title, body string) (Result, error) {
	if s.printer == nil {
		return Result{}, ErrPrinterUnavailable
	}

	restore := s.view.Prepare(mode, body)
	defer restore()

	job := Job{
		ID:    uuid.NewString(),
		Title: title,
		Mode:  mode,
		HTML:  s.formatter.PrintDocument(title, body),
	}
	if job.Title == "" {
		job.Title = "alle-antworten"
	}

	printLogger.Debug().Str("job_id", job.ID).Str("mode", string(mode)).Msg("Print job started")
	res, err := s.printer.Print(ctx, job)
	if err != nil {
		printLogger.Error().Err(err).Str("job_id", job.ID).Msg("Print job failed")
		return res, err
	}
	return res, nil
}
