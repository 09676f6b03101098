package page

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/allgemeinbildung/abubox/internal/autosave"
	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/editor"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/kv"
	"github.com/allgemeinbildung/abubox/internal/print"
)

type notices struct {
	confirm bool
	alerts  []string
}

func (n *notices) Confirm(string) bool { return n.confirm }
func (n *notices) Alert(msg string)    { n.alerts = append(n.alerts, msg) }

func (n *notices) last() string {
	if len(n.alerts) == 0 {
		return ""
	}
	return n.alerts[len(n.alerts)-1]
}

type copyRecorder struct{ texts []string }

func (c *copyRecorder) Copy(text string) { c.texts = append(c.texts, text) }

type fixture struct {
	store   *draft.Store
	mem     *kv.Memory
	clock   *autosave.FakeClock
	prompts *notices
	copier  *copyRecorder
	jobs    []print.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := kv.NewMemory()
	return &fixture{
		store:   draft.NewStore(mem, draft.NewCodec(""), draft.TaskSchema),
		mem:     mem,
		clock:   autosave.NewFakeClock(),
		prompts: &notices{confirm: true},
		copier:  &copyRecorder{},
	}
}

func (f *fixture) open(t *testing.T, id string, mutate ...func(*Options)) *Page {
	t.Helper()
	formatter := export.NewFormatter(draft.TaskSchema, export.Options{})
	opts := Options{
		AssignmentID:    id,
		ReferrerSegment: "allgemeinbildung",
		SourceURL:       "https://example.org/box?assignmentId=" + id,
		Capabilities:    AllCapabilities,
		Store:           f.store,
		Formatter:       formatter,
		Copier:          f.copier,
		Spooler: print.NewSpooler(nil, print.PrinterFunc(func(_ context.Context, job print.Job) (print.Result, error) {
			f.jobs = append(f.jobs, job)
			return print.Result{JobID: job.ID}, nil
		}), formatter),
		Prompter: f.prompts,
		Clock:    f.clock,
	}
	for _, m := range mutate {
		m(&opts)
	}
	p, err := Open(opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestOpen(t *testing.T) {
	f := newFixture(t)
	f.store.Save("assignment_3", "<p>gespeichert</p>", "<p>reflektiert</p>")
	f.store.Save("assignment_1", "<p>anderes</p>", "")

	p := f.open(t, "assignment_3", func(o *Options) {
		o.Referrer = "https://www.example.org/allgemeinbildung/recht-und-staat/vertrag_abschluss/"
	})

	t.Run("Resolves id, suffix and title", func(t *testing.T) {
		if p.ID() != "assignment_3" || p.Suffix() != "3" {
			t.Errorf("Unexpected id %q suffix %q", p.ID(), p.Suffix())
		}
		if p.ParentTitle() != "Recht Und Staat - Vertrag Abschluss" {
			t.Errorf("Unexpected parent title %q", p.ParentTitle())
		}
		if p.Title() != "Recht Und Staat - Vertrag Abschluss - Aufgabe: 3" {
			t.Errorf("Unexpected title %q", p.Title())
		}
	})

	t.Run("Loads the saved draft without scheduling a save", func(t *testing.T) {
		ed, _ := p.Editor(SlotA)
		if ed.Markup() != "<p>gespeichert</p>" {
			t.Errorf("Expected saved markup in editor, got %q", ed.Markup())
		}
		if p.Scheduler().Pending() {
			t.Error("Expected loading not to arm the autosave")
		}
		r, _, ok := p.Saved()
		if !ok || r.SlotB != "<p>reflektiert</p>" {
			t.Errorf("Expected saved view populated, got %+v %v", r, ok)
		}
	})

	t.Run("List shows the other drafts", func(t *testing.T) {
		rows := p.List().Rows()
		if len(rows) != 1 || rows[0].ID != "assignment_1" {
			t.Errorf("Expected only assignment_1, got %+v", rows)
		}
	})

	t.Run("Blank id uses the default sentinel", func(t *testing.T) {
		d := f.open(t, "  ")
		if d.ID() != draft.DefaultID || d.Label() != draft.DefaultID {
			t.Errorf("Expected default id, got %q", d.ID())
		}
	})

	t.Run("Corrupt saved draft opens empty", func(t *testing.T) {
		f.mem.Set("boxsuk-assignment_broken", "{")
		b := f.open(t, "broken")
		ed, _ := b.Editor(SlotA)
		if ed.Markup() != "" {
			t.Errorf("Expected empty editor, got %q", ed.Markup())
		}
	})
}

func TestAutosave(t *testing.T) {
	f := newFixture(t)
	p := f.open(t, "assignment_7")

	var events []SavedEvent
	p.OnSaved(func(ev SavedEvent) { events = append(events, ev) })

	p.Edit(SlotA, "<p>H</p>", autosave.OriginUser)
	f.clock.Advance(time.Second)
	p.Edit(SlotA, "<p>Hallo</p>", autosave.OriginUser)
	f.clock.Advance(time.Second)
	p.Edit(SlotB, "<p>Gut</p>", autosave.OriginUser)

	if _, found, _ := f.store.Load("assignment_7"); found {
		t.Fatal("Expected nothing saved before the idle delay")
	}

	f.clock.Advance(2 * time.Second)

	r, found, err := f.store.Load("assignment_7")
	if err != nil || !found {
		t.Fatalf("Expected draft saved after the delay, got %v %v", found, err)
	}
	if r.SlotA != "<p>Hallo</p>" || r.SlotB != "<p>Gut</p>" {
		t.Errorf("Expected latest content of both slots, got %+v", r)
	}
	if len(events) != 1 {
		t.Fatalf("Expected exactly one save, got %d", len(events))
	}
	if events[0].ID != "assignment_7" {
		t.Errorf("Unexpected event %+v", events[0])
	}

	t.Run("Programmatic edits never save", func(t *testing.T) {
		p.Edit(SlotA, "<p>api</p>", autosave.OriginAPI)
		f.clock.Advance(5 * time.Second)
		r, _, _ := f.store.Load("assignment_7")
		if r.SlotA != "<p>Hallo</p>" {
			t.Errorf("Expected API edit not to be saved, got %+v", r)
		}
	})

	t.Run("Close flushes a pending edit", func(t *testing.T) {
		p.Edit(SlotA, "<p>zuletzt</p>", autosave.OriginUser)
		p.Close()
		r, _, _ := f.store.Load("assignment_7")
		if r.SlotA != "<p>zuletzt</p>" {
			t.Errorf("Expected pending edit saved on close, got %+v", r)
		}
	})
}

func TestSaveNow(t *testing.T) {
	f := newFixture(t)
	p := f.open(t, "a1")

	t.Run("Empty draft is not saved", func(t *testing.T) {
		p.Edit(SlotA, "<p><br></p>", autosave.OriginUser)
		saved, err := p.SaveNow()
		if err != nil || saved {
			t.Errorf("Expected no save, got %v %v", saved, err)
		}
		if f.prompts.last() != config.MsgEmptyDraft {
			t.Errorf("Expected empty-draft notice, got %q", f.prompts.last())
		}
		if p.Scheduler().Pending() {
			t.Error("Expected SaveNow to cancel the pending autosave")
		}
	})

	t.Run("Storage failure is reported", func(t *testing.T) {
		p.Edit(SlotA, "<p>x</p>", autosave.OriginUser)
		f.mem.SetDisabled(true)
		defer f.mem.SetDisabled(false)

		if _, err := p.SaveNow(); !errors.Is(err, draft.ErrStorageUnavailable) {
			t.Errorf("Expected ErrStorageUnavailable, got %v", err)
		}
		if !errors.Is(p.LastError(), draft.ErrStorageUnavailable) {
			t.Errorf("Expected LastError to record the failure, got %v", p.LastError())
		}
	})

	t.Run("Successful save clears the error", func(t *testing.T) {
		if saved, err := p.SaveNow(); err != nil || !saved {
			t.Fatalf("Expected save, got %v %v", saved, err)
		}
		if p.LastError() != nil {
			t.Errorf("Expected error cleared, got %v", p.LastError())
		}
	})
}

func TestSingleSlotVariant(t *testing.T) {
	f := newFixture(t)
	caps := AllCapabilities
	caps.SlotB = false
	p := f.open(t, "solo", func(o *Options) { o.Capabilities = caps })

	if err := p.Edit(SlotB, "<p>x</p>", autosave.OriginUser); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("Expected ErrUnknownSlot, got %v", err)
	}
	p.Edit(SlotA, "<p>nur a</p>", autosave.OriginUser)
	p.SaveNow()

	r, _, _ := f.store.Load("solo")
	if r.SlotA != "<p>nur a</p>" || r.SlotB != "" {
		t.Errorf("Unexpected record %+v", r)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.store.Save("a1", "x", "")
	f.store.Save("a2", "y", "")
	f.mem.Set("other", "z")
	p := f.open(t, "a1")

	t.Run("Declined reset keeps everything", func(t *testing.T) {
		f.prompts.confirm = false
		defer func() { f.prompts.confirm = true }()
		if n, err := p.Reset(); n != 0 || err != nil {
			t.Errorf("Expected nothing removed, got %d %v", n, err)
		}
		if _, _, ok := p.Saved(); !ok {
			t.Error("Expected saved view to remain")
		}
	})

	n, err := p.Reset()
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 removed, got %d %v", n, err)
	}
	ed, _ := p.Editor(SlotA)
	if ed.Markup() != "" {
		t.Errorf("Expected editor cleared, got %q", ed.Markup())
	}
	if _, _, ok := p.Saved(); ok {
		t.Error("Expected saved view hidden")
	}
	if p.Scheduler().Pending() {
		t.Error("Expected clearing the editors not to schedule a save")
	}
	if len(p.List().Rows()) != 0 {
		t.Error("Expected empty list after reset")
	}
	if _, ok, _ := f.mem.Get("other"); !ok {
		t.Error("Expected keys outside the prefix to survive")
	}
	if f.prompts.last() != config.MsgResetDone {
		t.Errorf("Expected reset notice, got %q", f.prompts.last())
	}
}

// stallingEditor blocks the next Markup read until released, holding an
// autosave in the middle of its run.
type stallingEditor struct {
	*editor.Buffer

	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
}

func (e *stallingEditor) stallNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = make(chan struct{})
	e.release = make(chan struct{})
}

func (e *stallingEditor) Markup() string {
	e.mu.Lock()
	started, release := e.started, e.release
	e.started, e.release = nil, nil
	e.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	return e.Buffer.Markup()
}

func TestResetWaitsForRunningAutosave(t *testing.T) {
	f := newFixture(t)
	ed := &stallingEditor{Buffer: editor.NewBuffer()}
	p := f.open(t, "a1", func(o *Options) { o.EditorA = ed })

	p.Edit(SlotA, "<p>entwurf</p>", autosave.OriginUser)
	ed.stallNext()
	started, release := ed.started, ed.release

	go f.clock.Advance(autosave.DefaultDelay)
	<-started

	done := make(chan struct{})
	go func() {
		p.Reset()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Expected reset to wait for the running autosave")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-done

	if ok, _ := f.store.Exists("a1"); ok {
		t.Error("Expected the autosaved draft to stay deleted after reset")
	}
	if _, _, ok := p.Saved(); ok {
		t.Error("Expected saved view hidden after reset")
	}
}

func TestCopyExportPrint(t *testing.T) {
	f := newFixture(t)
	p := f.open(t, "assignment_5")

	t.Run("Nothing saved", func(t *testing.T) {
		if text, err := p.CopyBoth(); err != nil || text != "" {
			t.Errorf("Expected no copy, got %q %v", text, err)
		}
		if f.prompts.last() != config.MsgNothingToCopy {
			t.Errorf("Unexpected notice %q", f.prompts.last())
		}
		if _, err := p.ExportText(); !errors.Is(err, export.ErrNothingToExport) {
			t.Errorf("Expected ErrNothingToExport, got %v", err)
		}
		if _, err := p.PrintCurrent(context.Background()); !errors.Is(err, print.ErrNothingToPrint) {
			t.Errorf("Expected ErrNothingToPrint, got %v", err)
		}
		if _, err := p.PrintAll(context.Background()); !errors.Is(err, print.ErrNothingToPrint) {
			t.Errorf("Expected ErrNothingToPrint, got %v", err)
		}
		if _, err := p.ExportAll(export.FormatPlain); !errors.Is(err, export.ErrNothingToExport) {
			t.Errorf("Expected ErrNothingToExport, got %v", err)
		}
		if len(f.copier.texts) != 0 || len(f.jobs) != 0 {
			t.Error("Expected no side effects without a saved draft")
		}
	})

	t.Run("Storage unavailable", func(t *testing.T) {
		f.mem.SetDisabled(true)
		defer f.mem.SetDisabled(false)
		if _, err := p.ExportText(); !errors.Is(err, draft.ErrStorageUnavailable) {
			t.Errorf("Expected ErrStorageUnavailable, got %v", err)
		}
		if f.prompts.last() != config.MsgStorageUnavailable {
			t.Errorf("Unexpected notice %q", f.prompts.last())
		}
		if _, err := p.PrintCurrent(context.Background()); !errors.Is(err, draft.ErrStorageUnavailable) {
			t.Errorf("Expected ErrStorageUnavailable, got %v", err)
		}
		if len(f.jobs) != 0 {
			t.Error("Expected no print job while storage is unavailable")
		}
	})

	p.Edit(SlotA, "<p>Antwort</p>", autosave.OriginUser)
	p.Edit(SlotB, "<p>Reflexion</p>", autosave.OriginUser)
	p.SaveNow()
	f.store.Save("assignment_9", "<p>neun</p>", "")

	t.Run("Copy", func(t *testing.T) {
		text, err := p.CopyBoth()
		if err != nil {
			t.Fatalf("CopyBoth failed: %v", err)
		}
		if text != "Auftrag: Antwort\nReflexionsfrage: Reflexion" || f.copier.texts[0] != text {
			t.Errorf("Unexpected copy %q", text)
		}
	})

	t.Run("Export text", func(t *testing.T) {
		doc, err := p.ExportText()
		if err != nil {
			t.Fatalf("ExportText failed: %v", err)
		}
		if doc.Filename != "5.txt" || !strings.HasSuffix(string(doc.Data), "Assignment ID: assignment_5") {
			t.Errorf("Unexpected document %q %q", doc.Filename, doc.Data)
		}
	})

	t.Run("Export all includes the active draft", func(t *testing.T) {
		doc, err := p.ExportAll(export.FormatPlain)
		if err != nil {
			t.Fatalf("ExportAll failed: %v", err)
		}
		body := string(doc.Data)
		if strings.Index(body, "Aufgabe 9") > strings.Index(body, "Aufgabe 5") || !strings.Contains(body, "Aufgabe 5") {
			t.Errorf("Expected both drafts in descending order, got %q", body)
		}
	})

	t.Run("Print current and all", func(t *testing.T) {
		if _, err := p.PrintCurrent(context.Background()); err != nil {
			t.Fatalf("PrintCurrent failed: %v", err)
		}
		if _, err := p.PrintAll(context.Background()); err != nil {
			t.Fatalf("PrintAll failed: %v", err)
		}
		if len(f.jobs) != 2 || f.jobs[0].Title != "Aufgabe: 5" || f.jobs[1].Mode != print.ModePrintAll {
			t.Errorf("Unexpected jobs %+v", f.jobs)
		}
	})

	t.Run("Disabled capabilities", func(t *testing.T) {
		q := f.open(t, "assignment_5", func(o *Options) { o.Capabilities = Capabilities{} })
		if _, err := q.CopyBoth(); !errors.Is(err, ErrCapabilityDisabled) {
			t.Errorf("Expected ErrCapabilityDisabled, got %v", err)
		}
		if _, err := q.PrintAll(context.Background()); !errors.Is(err, ErrCapabilityDisabled) {
			t.Errorf("Expected ErrCapabilityDisabled, got %v", err)
		}
		if q.List() != nil {
			t.Error("Expected no list without the draft list capability")
		}
		if _, _, ok := q.Saved(); ok {
			t.Error("Expected no saved view without the capability")
		}
	})
}

func TestParentTitleFromReferrer(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		want     string
	}{
		{"No referrer", "", ""},
		{"Segment missing", "https://example.org/other/page", ""},
		{"Nothing after segment", "https://example.org/allgemeinbildung/", ""},
		{"Single segment", "https://example.org/allgemeinbildung/wirtschaft", "Wirtschaft"},
		{"Separators become spaces", "https://example.org/x/allgemeinbildung/geld+und_kredit/zins-rechnung", "Geld Und Kredit - Zins Rechnung"},
		{"Percent encoding is decoded", "https://example.org/allgemeinbildung/%C3%BCbung", "Übung"},
		{"Existing capitals are kept", "https://example.org/allgemeinbildung/ABU-kurs", "ABU Kurs"},
		{"Unparsable referrer", "http://[::1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParentTitleFromReferrer(tt.referrer, "allgemeinbildung"); got != tt.want {
				t.Errorf("ParentTitleFromReferrer(%q) = %q, want %q", tt.referrer, got, tt.want)
			}
		})
	}
}

func TestParseSlot(t *testing.T) {
	for in, want := range map[string]Slot{"a": SlotA, "auftrag": SlotA, "B": SlotB, "reflexionsfrage": SlotB} {
		if got, err := ParseSlot(in, draft.TaskSchema); err != nil || got != want {
			t.Errorf("ParseSlot(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseSlot("c", draft.TaskSchema); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("Expected ErrUnknownSlot, got %v", err)
	}
}
