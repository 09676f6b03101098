package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/autosave"
	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/listview"
	"github.com/allgemeinbildung/abubox/internal/page"
	"github.com/allgemeinbildung/abubox/internal/print"
	"github.com/allgemeinbildung/abubox/internal/render"
	"github.com/allgemeinbildung/abubox/internal/sse"
	"github.com/allgemeinbildung/abubox/internal/util"
)

type draftJSON struct {
	ID     string `json:"id"`
	Suffix string `json:"suffix"`
	Title  string `json:"title"`
	SlotA  string `json:"slotA"`
	SlotB  string `json:"slotB"`
}

type slotsJSON struct {
	SlotA string `json:"slotA"`
	SlotB string `json:"slotB"`
}

type editJSON struct {
	Slot   string `json:"slot"`
	Markup string `json:"markup"`
	Origin string `json:"origin"`
}

type bulkDeleteJSON struct {
	IDs []string `json:"ids"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes and logs anything unexpected.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	l := zerolog.Ctx(r.Context())

	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, draft.ErrStorageUnavailable):
		status, msg = http.StatusServiceUnavailable, config.HTTPErrStorage
	case errors.Is(err, draft.ErrCorruptRecord):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, export.ErrNothingToExport):
		status, msg = http.StatusNotFound, config.MsgNothingToExport
	case errors.Is(err, print.ErrNothingToPrint):
		status, msg = http.StatusNotFound, config.MsgNothingToPrint
	case errors.Is(err, print.ErrPrinterUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, page.ErrCapabilityDisabled):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, page.ErrUnknownSlot), errors.Is(err, draft.ErrInvalidText):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, listview.ErrEmptySelection):
		status, msg = http.StatusBadRequest, config.MsgEmptySelection
	default:
		status, msg = http.StatusInternalServerError, err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	http.Error(w, msg, status)
}

func writeDocument(w http.ResponseWriter, doc export.Document) {
	w.Header().Set(config.HCType, doc.MimeType)
	w.Header().Set(config.HDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

func (s *Server) toJSON(e draft.Entry) draftJSON {
	return draftJSON{
		ID:     e.ID,
		Suffix: draft.DisplaySuffix(e.ID),
		Title:  s.formatter.EntryTitle(e.ID),
		SlotA:  e.Record.SlotA,
		SlotB:  e.Record.SlotB,
	}
}

func (s *Server) listDrafts(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListOthers(r.URL.Query().Get(config.QueryExclude))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]draftJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.toJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, found, err := s.store.Load(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		http.Error(w, config.HTTPErrDraftNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.toJSON(draft.Entry{ID: id, Record: rec}))
}

// putDraft replaces both slots of the page and saves at once.
func (s *Server) putDraft(w http.ResponseWriter, r *http.Request) {
	var body slotsJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.Page(r.PathValue("id"), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p.Edit(page.SlotA, body.SlotA, autosave.OriginAPI)
	if p.Capabilities().SlotB {
		p.Edit(page.SlotB, body.SlotB, autosave.OriginAPI)
	}

	saved, err := p.SaveNow()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (s *Server) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.refreshLists("")
	w.WriteHeader(http.StatusNoContent)
}

// resetDrafts deletes every draft on behalf of the page in the query.
func (s *Server) resetDrafts(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.URL.Query().Get(config.QueryAssignmentID), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	n, err := p.Reset()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.refreshLists(p.ID())
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var body bulkDeleteJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.Page(r.URL.Query().Get(config.QueryAssignmentID), r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list := p.List()
	if list == nil {
		writeError(w, r, page.ErrCapabilityDisabled)
		return
	}

	list.Refresh()
	list.SelectAll(false)
	for _, id := range body.IDs {
		list.Select(id, true)
	}

	n, err := list.BulkDelete()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.refreshLists(p.ID())
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// postEdit reports one editor change. User edits schedule an autosave.
func (s *Server) postEdit(w http.ResponseWriter, r *http.Request) {
	var body editJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.Page(r.PathValue("id"), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slot, err := page.ParseSlot(body.Slot, p.Schema())
	if err != nil {
		writeError(w, r, err)
		return
	}

	origin := autosave.Origin(body.Origin)
	switch origin {
	case "":
		origin = autosave.OriginUser
	case autosave.OriginUser, autosave.OriginAPI, autosave.OriginSilent:
	default:
		http.Error(w, fmt.Sprintf("unknown origin %q", body.Origin), http.StatusBadRequest)
		return
	}

	if err := p.Edit(slot, body.Markup, origin); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"pending": p.Scheduler().Pending()})
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.PathValue("id"), r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := p.SaveNow()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (s *Server) exportText(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.PathValue("id"), r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u := r.URL.Query().Get(config.QueryURL); u != "" {
		p.SetSourceURL(u)
	}

	doc, err := p.ExportText()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

func (s *Server) exportAll(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get(config.QueryFormat))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.Page(r.URL.Query().Get(config.QueryAssignmentID), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := p.ExportAll(format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

// copyText returns the clipboard text of a draft; the browser does the copying.
func (s *Server) copyText(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.PathValue("id"), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	text, err := p.CopyBoth()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if text == "" {
		http.Error(w, config.MsgNothingToCopy, http.StatusNotFound)
		return
	}

	w.Header().Set(config.HCType, config.CTypeText)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func writePrint(w http.ResponseWriter, res print.Result) {
	w.Header().Set(config.HCType, config.CTypePDF)
	w.Header().Set(config.HDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("X-Print-Job", res.JobID)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

func (s *Server) printDraft(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.PathValue("id"), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := p.PrintCurrent(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePrint(w, res)
}

func (s *Server) printAll(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.URL.Query().Get(config.QueryAssignmentID), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := p.PrintAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePrint(w, res)
}

func (s *Server) serveSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	theme := r.URL.Query().Get(config.QueryTheme)
	if !render.IsSyntaxTheme(theme) {
		theme = config.DefaultSyntaxTheme
	}
	css := render.SyntaxCSS(theme)

	w.Header().Set(config.HCType, "text/css; charset=utf-8")
	w.Header().Set("ETag", `"`+util.ContentHashString(css)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(css))
}

type indexData struct {
	ID          string
	Label       string
	Title       string
	ParentTitle string
	Schema      draft.Schema
	Caps        page.Capabilities
	SlotA       template.HTML
	SlotB       template.HTML
	HasSaved    bool
	SavedA      template.HTML
	SavedB      template.HTML
	SavedAt     string
	Rows        []listview.Row
	Message     string
	DelayMS     int
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	p, err := s.Page(r.URL.Query().Get(config.QueryAssignmentID), r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	edA, _ := p.Editor(page.SlotA)
	data := indexData{
		ID:          p.ID(),
		Label:       p.Label(),
		Title:       p.Title(),
		ParentTitle: p.ParentTitle(),
		Schema:      p.Schema(),
		Caps:        p.Capabilities(),
		SlotA:       template.HTML(edA.Markup()),
		DelayMS:     s.cfg.Autosave.DelayMS,
	}
	if edB, err := p.Editor(page.SlotB); err == nil {
		data.SlotB = template.HTML(edB.Markup())
	}
	if rec, at, ok := p.Saved(); ok {
		data.HasSaved = true
		data.SavedA, data.SavedB = template.HTML(rec.SlotA), template.HTML(rec.SlotB)
		if !at.IsZero() {
			data.SavedAt = at.Format(time.DateTime)
		}
	}
	if l := p.List(); l != nil {
		data.Rows = l.Rows()
		data.Message = l.Message()
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Error rendering index")
	}
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	id := draft.ResolveID(r.URL.Query().Get(config.QueryAssignmentID), s.cfg.Page.DefaultAssignment)
	l := zerolog.Ctx(r.Context())

	w.Header().Set(config.HCType, config.CTypeEvent)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", id)
	flusher.Flush()

	client := sse.NewClient(id)
	s.clients.Add(client)
	l.Debug().Str("assignment_id", id).Msg("SSE client connected")

	defer func() {
		s.clients.Delete(client)
		l.Debug().Str("assignment_id", id).Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg, id)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
