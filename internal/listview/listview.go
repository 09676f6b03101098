// Package listview lists the drafts other than the one being edited and
// handles selection, bulk deletion and per-row actions.
package listview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/print"
)

// ErrEmptySelection is returned by BulkDelete when nothing is selected.
var ErrEmptySelection = errors.New("no drafts selected")

// Prompter asks the user for confirmation and shows notices.
type Prompter interface {
	Confirm(msg string) bool
	Alert(msg string)
}

// AutoConfirm accepts every confirmation and drops every notice.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string) bool { return true }
func (AutoConfirm) Alert(string)        {}

// Row is one listed draft.
type Row struct {
	ID       string
	Suffix   string
	Title    string
	Record   draft.Record
	Selected bool
}

// View is the saved-drafts list of one page.
type View struct {
	mu sync.Mutex

	store     *draft.Store
	formatter *export.Formatter
	spooler   *print.Spooler
	prompter  Prompter
	logger    zerolog.Logger

	activeID string
	rows     []Row
	selected map[string]bool
	message  string
}

type Option func(*View)

func WithPrompter(p Prompter) Option {
	return func(v *View) {
		v.prompter = p
	}
}

func WithSpooler(s *print.Spooler) Option {
	return func(v *View) {
		v.spooler = s
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(v *View) {
		v.logger = l
	}
}

// New returns a list of every draft except activeID. Call Refresh to load it.
func New(store *draft.Store, formatter *export.Formatter, activeID string, opts ...Option) *View {
	v := &View{
		store:     store,
		formatter: formatter,
		prompter:  AutoConfirm{},
		logger:    zerolog.Nop(),
		activeID:  activeID,
		selected:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Refresh reloads the rows. A storage failure leaves the list empty with a
// notice instead of returning an error.
func (v *View) Refresh() {
	entries, err := v.store.ListOthers(v.activeID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.logger.Error().Err(err).Msg("Error loading saved drafts")
		v.rows = nil
		v.selected = make(map[string]bool)
		v.message = config.MsgListUnavailable
		return
	}

	rows := make([]Row, 0, len(entries))
	selected := make(map[string]bool)
	for _, e := range entries {
		rows = append(rows, Row{
			ID:     e.ID,
			Suffix: draft.DisplaySuffix(e.ID),
			Title:  v.formatter.EntryTitle(e.ID),
			Record: e.Record,
		})
		if v.selected[e.ID] {
			selected[e.ID] = true
		}
	}
	v.rows = rows
	v.selected = selected

	v.message = ""
	if len(rows) == 0 {
		v.message = config.MsgNoDrafts
	}
	v.logger.Debug().Int("count", len(rows)).Msg("Draft list refreshed")
}

// Rows returns a snapshot of the listed drafts.
func (v *View) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Row, len(v.rows))
	for i, r := range v.rows {
		r.Selected = v.selected[r.ID]
		out[i] = r
	}
	return out
}

// Message is the notice shown instead of rows, if any.
func (v *View) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *View) hasRow(id string) bool {
	return slices.ContainsFunc(v.rows, func(r Row) bool { return r.ID == id })
}

// Toggle flips the selection of id and returns the new state. Unknown ids stay unselected.
func (v *View) Toggle(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasRow(id) {
		return false
	}
	if v.selected[id] {
		delete(v.selected, id)
		return false
	}
	v.selected[id] = true
	return true
}

func (v *View) Select(id string, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !on {
		delete(v.selected, id)
		return
	}
	if v.hasRow(id) {
		v.selected[id] = true
	}
}

// SelectAll selects or clears every row.
func (v *View) SelectAll(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = make(map[string]bool)
	if on {
		for _, r := range v.rows {
			v.selected[r.ID] = true
		}
	}
}

// SelectedIDs returns the selected ids in row order.
func (v *View) SelectedIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var ids []string
	for _, r := range v.rows {
		if v.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// DeleteEnabled reports whether the bulk delete action should be offered.
func (v *View) DeleteEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.selected) > 0
}

// BulkDelete removes every selected draft after confirmation and returns
// how many were removed. Declining the confirmation removes nothing.
func (v *View) BulkDelete() (int, error) {
	ids := v.SelectedIDs()
	if len(ids) == 0 {
		v.prompter.Alert(config.MsgEmptySelection)
		return 0, ErrEmptySelection
	}

	if !v.prompter.Confirm(fmt.Sprintf(config.MsgConfirmBulkFmt, len(ids))) {
		return 0, nil
	}

	removed := 0
	for _, id := range ids {
		if err := v.store.Delete(id); err != nil {
			v.prompter.Alert(config.MsgStorageUnavailable)
			v.Refresh()
			return removed, err
		}
		v.logger.Info().Str("assignment_id", id).Msg("Draft deleted")
		removed++
	}

	v.prompter.Alert(fmt.Sprintf(config.MsgBulkDeletedFmt, removed))
	v.Refresh()
	return removed, nil
}

// DeleteOne removes a single draft after confirmation.
func (v *View) DeleteOne(id string) (bool, error) {
	if !v.prompter.Confirm(fmt.Sprintf(config.MsgConfirmDeleteFmt, draft.Label(id))) {
		return false, nil
	}
	if err := v.store.Delete(id); err != nil {
		v.prompter.Alert(config.MsgStorageUnavailable)
		return false, err
	}
	v.logger.Info().Str("assignment_id", id).Msg("Draft deleted")
	v.Refresh()
	return true, nil
}

// PrintOne prints a listed draft under its list title.
func (v *View) PrintOne(ctx context.Context, id string) (print.Result, error) {
	v.mu.Lock()
	idx := slices.IndexFunc(v.rows, func(r Row) bool { return r.ID == id })
	var row Row
	if idx >= 0 {
		row = v.rows[idx]
	}
	v.mu.Unlock()

	if idx < 0 {
		return print.Result{}, print.ErrNothingToPrint
	}
	if v.spooler == nil {
		return print.Result{}, print.ErrPrinterUnavailable
	}
	return v.spooler.PrintSingle(ctx, row.Title, row.Record)
}
