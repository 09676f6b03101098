// Package page ties one assignment's editors, autosave, saved view and draft
// list together. A Page is built once per page load and passed explicitly to
// everything that acts on it.
package page

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/autosave"
	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/editor"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/listview"
	"github.com/allgemeinbildung/abubox/internal/print"
)

var pageLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	pageLogger = l
}

var (
	// ErrCapabilityDisabled is returned for actions the page variant does not offer.
	ErrCapabilityDisabled = errors.New("capability disabled for this page")
	// ErrUnknownSlot is returned for an edit to a slot the page does not have.
	ErrUnknownSlot = errors.New("unknown slot")
)

// Slot names one of the two editors.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// ParseSlot accepts "a"/"b" or the schema's slot keys.
func ParseSlot(s string, schema draft.Schema) (Slot, error) {
	switch s {
	case "a", "A", schema.SlotAKey:
		return SlotA, nil
	case "b", "B", schema.SlotBKey:
		return SlotB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// Capabilities describe which parts a page variant has.
type Capabilities struct {
	SlotB     bool
	SavedView bool
	DraftList bool
	Copy      bool
	Export    bool
	Print     bool
	Reset     bool
}

func CapabilitiesFromConfig(f config.FeaturesConfig) Capabilities {
	return Capabilities(f)
}

// AllCapabilities is the full two-slot page.
var AllCapabilities = Capabilities{
	SlotB: true, SavedView: true, DraftList: true, Copy: true, Export: true, Print: true, Reset: true,
}

// Copier is the clipboard a page copies to.
type Copier interface {
	Copy(text string)
}

// SavedEvent is passed to OnSaved hooks after every successful save.
type SavedEvent struct {
	ID     string
	Record draft.Record
	At     time.Time
}

type Options struct {
	// AssignmentID is the raw id from the request; blank means DefaultID.
	AssignmentID string
	DefaultID    string
	// Referrer is the URL of the page that linked here.
	Referrer        string
	ReferrerSegment string
	// SourceURL is the address of this page, written into text exports.
	SourceURL string

	Capabilities Capabilities
	Delay        time.Duration

	Store     *draft.Store
	Formatter *export.Formatter
	Copier    Copier
	Spooler   *print.Spooler
	Prompter  listview.Prompter
	Clock     autosave.Clock
	Logger    *zerolog.Logger

	// EditorA and EditorB default to in-memory buffers.
	EditorA editor.Editor
	EditorB editor.Editor
}

// Page is the state of one open assignment.
type Page struct {
	id          string
	parentTitle string
	sourceURL   string
	caps        Capabilities

	store     *draft.Store
	formatter *export.Formatter
	copier    Copier
	spooler   *print.Spooler
	prompter  listview.Prompter
	logger    zerolog.Logger

	editorA   editor.Editor
	editorB   editor.Editor
	scheduler *autosave.Scheduler
	list      *listview.View

	mu       sync.Mutex
	saved    draft.Record
	hasSaved bool
	savedAt  time.Time
	lastErr  error
	hooks    []func(SavedEvent)
}

// Open resolves the page context and loads any saved draft into the editors
// without triggering a save.
func Open(opts Options) (*Page, error) {
	if opts.Store == nil {
		return nil, errors.New("page: store is required")
	}

	p := &Page{
		id:          draft.ResolveID(opts.AssignmentID, opts.DefaultID),
		parentTitle: ParentTitleFromReferrer(opts.Referrer, opts.ReferrerSegment),
		sourceURL:   opts.SourceURL,
		caps:        opts.Capabilities,
		store:       opts.Store,
		formatter:   opts.Formatter,
		copier:      opts.Copier,
		spooler:     opts.Spooler,
		prompter:    opts.Prompter,
		logger:      pageLogger,
		editorA:     opts.EditorA,
		editorB:     opts.EditorB,
	}
	if opts.Logger != nil {
		p.logger = *opts.Logger
	}
	p.logger = p.logger.With().Str("assignment_id", p.id).Logger()

	if p.formatter == nil {
		p.formatter = export.NewFormatter(opts.Store.Schema(), export.Options{SingleSlot: !p.caps.SlotB})
	}
	if p.prompter == nil {
		p.prompter = listview.AutoConfirm{}
	}
	if p.editorA == nil {
		p.editorA = editor.NewBuffer()
	}
	if p.editorB == nil {
		p.editorB = editor.NewBuffer()
	}

	delay := opts.Delay
	if delay == 0 {
		delay = autosave.DefaultDelay
	}
	schedOpts := []autosave.Option{autosave.WithLogger(p.logger)}
	if opts.Clock != nil {
		schedOpts = append(schedOpts, autosave.WithClock(opts.Clock))
	}
	p.scheduler = autosave.New(delay, p.autosave, schedOpts...)

	if p.caps.DraftList {
		listOpts := []listview.Option{listview.WithPrompter(p.prompter), listview.WithLogger(p.logger)}
		if p.spooler != nil {
			listOpts = append(listOpts, listview.WithSpooler(p.spooler))
		}
		p.list = listview.New(p.store, p.formatter, p.id, listOpts...)
	}

	p.load()

	p.editorA.OnChange(func(o autosave.Origin) { p.scheduler.Notify(o) })
	if p.caps.SlotB {
		p.editorB.OnChange(func(o autosave.Origin) { p.scheduler.Notify(o) })
	}

	if p.list != nil {
		p.list.Refresh()
	}

	p.logger.Debug().Str("parent_title", p.parentTitle).Msg("Page opened")
	return p, nil
}

func (p *Page) load() {
	r, found, err := p.store.Load(p.id)
	switch {
	case errors.Is(err, draft.ErrCorruptRecord):
		p.logger.Warn().Err(err).Msg("Saved draft is corrupt, starting empty")
		return
	case err != nil:
		p.logger.Error().Err(err).Msg("Error loading saved draft")
		p.setLastErr(err)
		return
	case !found:
		return
	}

	p.editorA.SetMarkup(r.SlotA, autosave.OriginAPI)
	if p.caps.SlotB {
		p.editorB.SetMarkup(r.SlotB, autosave.OriginAPI)
	}

	p.mu.Lock()
	p.saved, p.hasSaved = r, true
	p.mu.Unlock()
}

func (p *Page) ID() string                   { return p.id }
func (p *Page) Suffix() string               { return draft.DisplaySuffix(p.id) }
func (p *Page) Label() string                { return draft.Label(p.id) }
func (p *Page) ParentTitle() string          { return p.parentTitle }
func (p *Page) Capabilities() Capabilities   { return p.caps }
func (p *Page) Schema() draft.Schema         { return p.store.Schema() }
func (p *Page) Formatter() *export.Formatter { return p.formatter }
func (p *Page) Scheduler() *autosave.Scheduler {
	return p.scheduler
}

// SourceURL is the page address written into text exports.
func (p *Page) SourceURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sourceURL
}

// SetSourceURL updates the address once the page knows where it is served from.
func (p *Page) SetSourceURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceURL = u
}

// Title is the print heading of this page.
func (p *Page) Title() string {
	return p.formatter.Title(p.parentTitle, p.id)
}

// List is the saved-drafts list, or nil when the variant has none.
func (p *Page) List() *listview.View {
	return p.list
}

func (p *Page) Editor(slot Slot) (editor.Editor, error) {
	switch slot {
	case SlotA:
		return p.editorA, nil
	case SlotB:
		if p.caps.SlotB {
			return p.editorB, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
}

// Saved returns what the saved view shows: the last record loaded or saved.
func (p *Page) Saved() (draft.Record, time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.caps.SavedView {
		return draft.Record{}, time.Time{}, false
	}
	return p.saved, p.savedAt, p.hasSaved
}

// LastError is the most recent storage failure, cleared by the next successful save.
func (p *Page) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Page) setLastErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// OnSaved registers fn to run after every successful save.
func (p *Page) OnSaved(fn func(SavedEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, fn)
}

// Edit replaces the content of slot. User edits schedule an autosave.
func (p *Page) Edit(slot Slot, html string, origin autosave.Origin) error {
	ed, err := p.Editor(slot)
	if err != nil {
		return err
	}
	ed.SetMarkup(html, origin)
	return nil
}

func (p *Page) autosave() {
	if _, err := p.save(); err != nil {
		p.logger.Error().Err(err).Msg("Autosave failed")
	}
}

// SaveNow cancels any pending autosave and saves immediately. A page with
// nothing typed is not saved and the user is told so.
func (p *Page) SaveNow() (bool, error) {
	var (
		saved bool
		err   error
	)
	p.scheduler.Exclusive(func() { saved, err = p.save() })
	if err != nil {
		p.prompter.Alert(config.MsgStorageUnavailable)
		return false, err
	}
	if !saved {
		p.prompter.Alert(config.MsgEmptyDraft)
	}
	return saved, nil
}

func (p *Page) save() (bool, error) {
	a := p.editorA.Markup()
	var b string
	if p.caps.SlotB {
		b = p.editorB.Markup()
	}

	saved, err := p.store.Save(p.id, a, b)
	if err != nil {
		p.setLastErr(err)
		return false, err
	}
	if !saved {
		p.logger.Debug().Msg("Nothing to save")
		return false, nil
	}

	r := draft.Record{SlotA: a, SlotB: b}.Normalized()
	now := time.Now()

	p.mu.Lock()
	p.saved, p.hasSaved, p.savedAt, p.lastErr = r, true, now, nil
	hooks := slices.Clone(p.hooks)
	p.mu.Unlock()

	p.logger.Info().Msg("Draft saved")

	if p.list != nil {
		p.list.Refresh()
	}
	ev := SavedEvent{ID: p.id, Record: r, At: now}
	for _, fn := range hooks {
		fn(ev)
	}
	return true, nil
}

// Reset deletes every draft under the prefix after confirmation, clears the
// editors and hides the saved view.
func (p *Page) Reset() (int, error) {
	if !p.caps.Reset {
		return 0, ErrCapabilityDisabled
	}
	if !p.prompter.Confirm(config.MsgConfirmReset) {
		return 0, nil
	}

	// An autosave already under way finishes before the delete, never after it.
	var (
		n   int
		err error
	)
	p.scheduler.Exclusive(func() {
		if n, err = p.store.DeleteAll(); err != nil {
			return
		}
		p.editorA.SetMarkup("", autosave.OriginSilent)
		p.editorB.SetMarkup("", autosave.OriginSilent)

		p.mu.Lock()
		p.saved, p.hasSaved, p.savedAt = draft.Record{}, false, time.Time{}
		p.mu.Unlock()
	})
	if err != nil {
		p.prompter.Alert(config.MsgStorageUnavailable)
		return n, err
	}

	if p.list != nil {
		p.list.Refresh()
	}
	p.logger.Info().Int("count", n).Msg("All drafts reset")
	p.prompter.Alert(config.MsgResetDone)
	return n, nil
}

// current loads the stored record of this page. A missing record alerts with
// notice and returns found=false.
func (p *Page) current(notice string) (draft.Record, bool, error) {
	ok, err := p.store.Exists(p.id)
	if err != nil {
		p.prompter.Alert(config.MsgStorageUnavailable)
		return draft.Record{}, false, err
	}
	if !ok {
		p.prompter.Alert(notice)
		return draft.Record{}, false, nil
	}

	r, found, err := p.store.Load(p.id)
	if err != nil {
		p.prompter.Alert(config.MsgStorageUnavailable)
		return draft.Record{}, false, err
	}
	if !found {
		// Deleted between the two reads.
		p.prompter.Alert(notice)
	}
	return r, found, nil
}

// CopyBoth copies the saved slots to the clipboard and returns the copied text.
func (p *Page) CopyBoth() (string, error) {
	if !p.caps.Copy {
		return "", ErrCapabilityDisabled
	}
	r, found, err := p.current(config.MsgNothingToCopy)
	if err != nil || !found {
		return "", err
	}

	text := p.formatter.CopyText(r)
	if p.copier != nil {
		p.copier.Copy(text)
	}
	return text, nil
}

// ExportText renders the saved record as a text download.
func (p *Page) ExportText() (export.Document, error) {
	if !p.caps.Export {
		return export.Document{}, ErrCapabilityDisabled
	}
	r, found, err := p.current(config.MsgNothingToExport)
	if err != nil {
		return export.Document{}, err
	}
	if !found {
		return export.Document{}, export.ErrNothingToExport
	}
	return p.formatter.TextDocument(p.id, r, p.SourceURL()), nil
}

// ExportAll renders every saved record, this page's included.
func (p *Page) ExportAll(format export.Format) (export.Document, error) {
	if !p.caps.Export {
		return export.Document{}, ErrCapabilityDisabled
	}
	entries, err := p.store.List()
	if err != nil {
		p.prompter.Alert(config.MsgStorageUnavailable)
		return export.Document{}, err
	}
	doc, err := p.formatter.AllDocument(entries, format)
	if errors.Is(err, export.ErrNothingToExport) {
		p.prompter.Alert(config.MsgNothingToExportAll)
	}
	return doc, err
}

// PrintCurrent prints the saved record under the page title.
func (p *Page) PrintCurrent(ctx context.Context) (print.Result, error) {
	if !p.caps.Print || p.spooler == nil {
		return print.Result{}, ErrCapabilityDisabled
	}
	r, found, err := p.current(config.MsgNothingToPrint)
	if err != nil {
		return print.Result{}, err
	}
	if !found {
		return print.Result{}, print.ErrNothingToPrint
	}
	return p.spooler.PrintSingle(ctx, p.Title(), r)
}

// PrintAll prints every saved record, this page's included.
func (p *Page) PrintAll(ctx context.Context) (print.Result, error) {
	if !p.caps.Print || p.spooler == nil {
		return print.Result{}, ErrCapabilityDisabled
	}
	entries, err := p.store.List()
	if err != nil {
		p.prompter.Alert(config.MsgStorageUnavailable)
		return print.Result{}, err
	}
	if len(entries) == 0 {
		p.prompter.Alert(config.MsgNothingToPrintAll)
		return print.Result{}, print.ErrNothingToPrint
	}
	return p.spooler.PrintAll(ctx, entries)
}

// Close saves any pending edit and stops the autosave timer.
func (p *Page) Close() {
	if p.scheduler.Flush() {
		p.logger.Debug().Msg("Pending autosave flushed on close")
	}
	p.scheduler.Stop()
}
