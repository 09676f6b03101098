package print

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/allgemeinbildung/abubox/internal/config"
)

var browserCandidates = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "chrome"}

// PDFPrinter prints jobs to PDF files with headless Chrome.
type PDFPrinter struct {
	outputDir  string
	timeout    time.Duration
	chromePath string

	lookPath func(string) (string, error)
}

func NewPDFPrinter(cfg config.PrintConfig) *PDFPrinter {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFPrinter{
		outputDir:  cfg.OutputDir,
		timeout:    timeout,
		chromePath: cfg.ChromePath,
		lookPath:   exec.LookPath,
	}
}

func (p *PDFPrinter) browser() (string, error) {
	if p.chromePath != "" {
		if path, err := p.lookPath(p.chromePath); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s not found", ErrPrinterUnavailable, p.chromePath)
	}
	for _, name := range browserCandidates {
		if path, err := p.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", ErrPrinterUnavailable)
}

func (p *PDFPrinter) Print(ctx context.Context, job Job) (Result, error) {
	execPath, err := p.browser()
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(job.HTML))

	var pdfData []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 in inches.
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.75).
				WithMarginBottom(0.75).
				WithMarginLeft(0.75).
				WithMarginRight(0.75).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return Result{}, fmt.Errorf("chrome pdf generation failed: %w", err)
	}

	res := Result{
		JobID:    job.ID,
		Filename: Filename(job),
		Data:     pdfData,
		MimeType: config.CTypePDF,
	}

	if p.outputDir != "" {
		if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
			return res, fmt.Errorf("failed to create print directory: %w", err)
		}
		res.Path = filepath.Join(p.outputDir, res.Filename)
		if err := os.WriteFile(res.Path, pdfData, 0o644); err != nil {
			return res, fmt.Errorf("failed to write pdf: %w", err)
		}
	}

	printLogger.Info().Str("job_id", job.ID).Str("path", res.Path).Int("bytes", len(pdfData)).Msg("Print job finished")
	return res, nil
}

// Filename derives a safe PDF file name from the job title and id.
func Filename(job Job) string {
	name := sanitizeFilename(job.Title)
	if len(job.ID) >= 8 {
		name += "-" + job.ID[:8]
	}
	return name + ".pdf"
}

func sanitizeFilename(title string) string {
	result := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result = append(result, r)
		case r == ' ':
			result = append(result, '-')
		case r == '-', r == '_':
			result = append(result, r)
		case r == 'ä', r == 'ö', r == 'ü', r == 'Ä', r == 'Ö', r == 'Ü', r == 'ß':
			result = append(result, r)
		}
	}

	if len(result) > 50 {
		result = result[:50]
	}
	if len(result) == 0 {
		return "druck"
	}
	return string(result)
}
