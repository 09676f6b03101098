// Package export renders drafts as plain text or markup for download, printing and copying.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/markup"
)

// Format is the output flavour of a rendered draft.
type Format string

const (
	FormatPlain  Format = "text"
	FormatMarkup Format = "html"
)

// ParseFormat maps a query or flag value to a Format. Empty means plain text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return FormatPlain, nil
	case "html", "markup":
		return FormatMarkup, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkup {
		return "html"
	}
	return "txt"
}

// MimeType returns the content type of documents in f.
func (f Format) MimeType() string {
	if f == FormatMarkup {
		return config.CTypeHTML
	}
	return config.CTypeText
}

// ErrNothingToExport is returned when an export has no records to include.
var ErrNothingToExport = errors.New("nothing to export")

const rule = "----------------------------------------"

// Document is a rendered file ready to be downloaded or written to disk.
type Document struct {
	Data     []byte
	Filename string
	MimeType string
}

type Options struct {
	TitlePrefix       string
	FallbackFilename  string
	ExportAllBasename string
	// SingleSlot drops slot B from every rendering, for variants with one editor.
	SingleSlot bool
}

// OptionsFromConfig builds Options from the page and feature settings.
func OptionsFromConfig(page config.PageConfig, features config.FeaturesConfig) Options {
	return Options{
		TitlePrefix:       page.TitlePrefix,
		FallbackFilename:  page.FallbackFilename,
		ExportAllBasename: page.ExportAllBasename,
		SingleSlot:        !features.SlotB,
	}
}

// Formatter renders records of one schema.
type Formatter struct {
	schema draft.Schema
	opts   Options
}

func NewFormatter(schema draft.Schema, opts Options) *Formatter {
	if opts.TitlePrefix == "" {
		opts.TitlePrefix = "Aufgabe"
	}
	if opts.FallbackFilename == "" {
		opts.FallbackFilename = "antwort.txt"
	}
	if opts.ExportAllBasename == "" {
		opts.ExportAllBasename = "alle-antworten"
	}
	return &Formatter{schema: schema, opts: opts}
}

func (f *Formatter) Schema() draft.Schema {
	return f.schema
}

// EntryTitle is the heading of id in listings and multi-record documents.
func (f *Formatter) EntryTitle(id string) string {
	return f.opts.TitlePrefix + " " + draft.DisplaySuffix(id)
}

// Title is the heading of the active page: "<parent> - Aufgabe: <suffix>",
// or without the parent part when it is empty.
func (f *Formatter) Title(parentTitle, id string) string {
	t := f.opts.TitlePrefix + ": " + draft.Label(id)
	if parentTitle == "" {
		return t
	}
	return parentTitle + " - " + t
}

type slot struct {
	Label string
	Text  string
	HTML  template.HTML
}

func (f *Formatter) slots(r draft.Record) []slot {
	out := []slot{{Label: f.schema.LabelA, Text: markup.PlainText(r.SlotA), HTML: template.HTML(r.SlotA)}}
	if !f.opts.SingleSlot {
		out = append(out, slot{Label: f.schema.LabelB, Text: markup.PlainText(r.SlotB), HTML: template.HTML(r.SlotB)})
	}
	return out
}

var blockTemplate = template.Must(template.New("block").Parse(
	`{{if .Title}}<h3>{{.Title}}</h3>
{{end}}{{range .Slots}}<div class="answerText"><strong>{{.Label}}:</strong> {{.HTML}}</div>
{{end}}<hr>
`))

// RenderSingle renders one record: the title (if any), each slot with its
// label in schema order, then a rule.
func (f *Formatter) RenderSingle(title string, r draft.Record, format Format) string {
	if format == FormatMarkup {
		var buf bytes.Buffer
		data := struct {
			Title string
			Slots []slot
		}{title, f.slots(r)}
		if err := blockTemplate.Execute(&buf, data); err != nil {
			exportLogger.Error().Err(err).Msg("Error rendering draft markup")
			return ""
		}
		return buf.String()
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(f.plainSlots(r))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	return b.String()
}

func (f *Formatter) plainSlots(r draft.Record) string {
	parts := make([]string, 0, 2)
	for _, s := range f.slots(r) {
		parts = append(parts, s.Label+":\n"+s.Text)
	}
	return strings.Join(parts, "\n\n")
}

// RenderAll concatenates RenderSingle blocks of entries in the given order.
func (f *Formatter) RenderAll(entries []draft.Entry, format Format) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, f.RenderSingle(f.EntryTitle(e.ID), e.Record, format))
	}
	if format == FormatMarkup {
		return strings.Join(blocks, "")
	}
	return strings.Join(blocks, "\n")
}

// Filename is DisplaySuffix(id) + ".txt", or the fallback name when the suffix is empty.
func (f *Formatter) Filename(id string) string {
	if s := draft.DisplaySuffix(id); s != "" {
		return s + ".txt"
	}
	return f.opts.FallbackFilename
}

// TextDocument is the plain-text download of a single record. The trailer
// names the page the record was written on and its raw id.
func (f *Formatter) TextDocument(id string, r draft.Record, sourceURL string) Document {
	body := fmt.Sprintf("%s\n\nURL: %s\nAssignment ID: %s", f.plainSlots(r), sourceURL, id)
	return Document{
		Data:     []byte(body),
		Filename: f.Filename(id),
		MimeType: FormatPlain.MimeType(),
	}
}

// AllDocument is the download of every record in entries.
func (f *Formatter) AllDocument(entries []draft.Entry, format Format) (Document, error) {
	if len(entries) == 0 {
		return Document{}, ErrNothingToExport
	}

	body := f.RenderAll(entries, format)
	if format == FormatMarkup {
		body = f.PrintDocument("", body)
	}
	return Document{
		Data:     []byte(body),
		Filename: f.opts.ExportAllBasename + "." + format.Extension(),
		MimeType: format.MimeType(),
	}, nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}}{{else}}{{.Fallback}}{{end}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.answerText { margin: 0.5em 0; }
hr { margin: 1.5em 0; }
</style>
</head>
<body>
{{if .Title}}<h2>{{.Title}}</h2>
{{end}}{{.Body}}</body>
</html>
`))

// PrintDocument wraps rendered markup in a standalone page for the print facility.
func (f *Formatter) PrintDocument(title, body string) string {
	var buf bytes.Buffer
	data := struct {
		Title    string
		Fallback string
		Body     template.HTML
	}{title, f.opts.ExportAllBasename, template.HTML(body)}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		exportLogger.Error().Err(err).Msg("Error rendering print document")
		return body
	}
	return buf.String()
}

// CopyText is the clipboard form of r: one "Label: text" line per slot.
func (f *Formatter) CopyText(r draft.Record) string {
	lines := make([]string, 0, 2)
	for _, s := range f.slots(r) {
		lines = append(lines, s.Label+": "+s.Text)
	}
	return strings.Join(lines, "\n")
}
