// Package server exposes pages and drafts over HTTP for a browser front end.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/autosave"
	"github.com/allgemeinbildung/abubox/internal/cache"
	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/listview"
	"github.com/allgemeinbildung/abubox/internal/page"
	"github.com/allgemeinbildung/abubox/internal/print"
	"github.com/allgemeinbildung/abubox/internal/routes"
	"github.com/allgemeinbildung/abubox/internal/sse"
)

//go:embed templates/*
var content embed.FS

// Server holds one Page per assignment id seen in requests, at most
// cfg.Server.MaxPages of them.
type Server struct {
	cfg       *config.Config
	store     *draft.Store
	formatter *export.Formatter
	spooler   *print.Spooler
	caps      page.Capabilities
	clients   *sse.SSEClients
	clock     autosave.Clock
	logger    zerolog.Logger
	tmpl      *template.Template

	// mu serializes opening and evicting pages.
	mu    sync.Mutex
	pages *cache.Cache[string, *openPage]
	tick  uint64

	handler http.Handler
}

type openPage struct {
	page *page.Page
	used uint64
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func WithSpooler(sp *print.Spooler) Option {
	return func(s *Server) {
		s.spooler = sp
	}
}

// WithClock replaces the autosave clock of every page the server opens.
func WithClock(c autosave.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

func New(cfg *config.Config, store *draft.Store, formatter *export.Formatter, opts ...Option) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		// Stored slots are editor markup and are shown as such.
		"markup": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(content, "templates/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		formatter: formatter,
		caps:      page.CapabilitiesFromConfig(cfg.Features),
		clients:   sse.NewSSEClients(),
		logger:    zerolog.Nop(),
		tmpl:      tmpl,
		pages:     cache.NewCache[string, *openPage](),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, config.CTypeText)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /"))
	})
	mux.HandleFunc("GET "+routes.SyntaxCSSPath, s.serveSyntaxCSS)
	mux.HandleFunc("GET "+routes.SSEPath, s.eventsHandler)
	mux.HandleFunc("GET "+routes.RootPath+"{$}", s.serveIndex)

	mux.HandleFunc("GET "+routes.APIDrafts, s.listDrafts)
	mux.HandleFunc("DELETE "+routes.APIDrafts, s.resetDrafts)
	mux.HandleFunc("POST "+routes.APIDraftsBulk, s.bulkDelete)
	mux.HandleFunc("GET "+routes.APIDraft, s.getDraft)
	mux.HandleFunc("PUT "+routes.APIDraft, s.putDraft)
	mux.HandleFunc("DELETE "+routes.APIDraft, s.deleteDraft)
	mux.HandleFunc("POST "+routes.APIDraftEdits, s.postEdit)
	mux.HandleFunc("POST "+routes.APIDraftSave, s.saveDraft)
	mux.HandleFunc("GET "+routes.APIDraftExportText, s.exportText)
	mux.HandleFunc("GET "+routes.APIDraftCopyText, s.copyText)
	mux.HandleFunc("POST "+routes.APIDraftPrint, s.printDraft)
	mux.HandleFunc("GET "+routes.APIExport, s.exportAll)
	mux.HandleFunc("POST "+routes.APIPrintAll, s.printAll)

	return s.withLogger(noCache(secureHeaders(mux)))
}

// Page returns the open page for id, opening it on first use. Opening a page
// beyond MaxPages closes the least recently used one, flushing its autosave.
func (s *Server) Page(id string, r *http.Request) (*page.Page, error) {
	id = draft.ResolveID(id, s.cfg.Page.DefaultAssignment)

	s.mu.Lock()
	s.tick++
	if op, ok := s.pages.Get(id); ok {
		op.used = s.tick
		s.mu.Unlock()
		return op.page, nil
	}

	logger := s.logger
	opts := page.Options{
		AssignmentID:    id,
		DefaultID:       s.cfg.Page.DefaultAssignment,
		ReferrerSegment: s.cfg.Page.ReferrerSegment,
		Capabilities:    s.caps,
		Delay:           s.cfg.Autosave.Delay(),
		Store:           s.store,
		Formatter:       s.formatter,
		Spooler:         s.spooler,
		Prompter:        listview.AutoConfirm{},
		Clock:           s.clock,
		Logger:          &logger,
	}
	if r != nil {
		opts.Referrer = r.Referer()
		opts.SourceURL = requestURL(r)
	}

	p, err := page.Open(opts)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	p.OnSaved(s.onSaved)

	var evicted []*page.Page
	if limit := s.cfg.Server.MaxPages; limit > 0 {
		for s.pages.Len() >= limit {
			victim := s.leastRecentlyUsed()
			op, _ := s.pages.Get(victim)
			s.pages.Delete(victim)
			evicted = append(evicted, op.page)
		}
	}
	s.pages.Set(id, &openPage{page: p, used: s.tick})
	s.mu.Unlock()

	// Closing saves pending edits, which re-enters refreshLists.
	for _, old := range evicted {
		s.logger.Debug().Str("assignment_id", old.ID()).Msg("Closing idle page")
		old.Close()
	}
	return p, nil
}

func (s *Server) leastRecentlyUsed() string {
	var (
		oldest string
		used   uint64
	)
	for _, id := range s.pages.Keys() {
		op, ok := s.pages.Get(id)
		if !ok {
			continue
		}
		if oldest == "" || op.used < used {
			oldest, used = id, op.used
		}
	}
	return oldest
}

func (s *Server) onSaved(ev page.SavedEvent) {
	go s.clients.Broadcast(ev.ID, "saved")
	s.refreshLists(ev.ID)
}

// refreshLists reloads the draft list of every open page except skipID.
func (s *Server) refreshLists(skipID string) {
	pages := make([]*page.Page, 0, s.pages.Len())
	for _, id := range s.pages.Keys() {
		if op, ok := s.pages.Get(id); ok && id != skipID {
			pages = append(pages, op.page)
		}
	}

	for _, p := range pages {
		if l := p.List(); l != nil {
			l.Refresh()
		}
	}
}

// Close flushes the pending autosave of every open page.
func (s *Server) Close() {
	s.mu.Lock()
	var pages []*page.Page
	for _, id := range s.pages.Keys() {
		if op, ok := s.pages.Get(id); ok {
			pages = append(pages, op.page)
		}
	}
	s.pages.Clear()
	s.mu.Unlock()

	for _, p := range pages {
		p.Close()
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down and closes every page.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}
