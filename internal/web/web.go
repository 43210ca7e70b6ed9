// Package web is the demo application: an HTTP JSON API plus a small
// embedded page that exercise the layout engine end to end. All UI state
// (view mode, current page) lives here and is threaded into the pure core
// functions per request.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"bigcal/internal/config"
	"bigcal/internal/feed"
	"bigcal/internal/grid"
	appLog "bigcal/internal/log"
	"bigcal/internal/model"
	"bigcal/internal/pager"
	"bigcal/internal/view"
)

//go:embed all:static
var embeddedStatic embed.FS

// Server wires the feed snapshot, the view-mode controller and one page
// renderer per paged mode behind an HTTP API.
type Server struct {
	cfg  *config.Config
	feed *feed.Service
	mux  *http.ServeMux

	// mu serializes UI-state access the way a UI event loop would.
	mu         sync.Mutex
	controller *pager.Controller
	renderers  map[pager.Mode]*view.Renderer[model.Occurrence]
}

// NewServer constructs a Server anchored on today in the configured zone.
func NewServer(cfg *config.Config, feedSvc *feed.Service) *Server {
	loc := cfg.Location()
	base := time.Now().In(loc)

	ctl := pager.NewController(pager.Config{
		BaseDate:    base,
		MinDate:     base.AddDate(-cfg.HorizonYears, 0, 0),
		MaxDate:     base.AddDate(cfg.HorizonYears, 0, 0),
		CacheRadius: cfg.CacheRadius,
		OnPageChanged: func(index int) {
			appLog.Debug("page changed", "index", index)
		},
	}, pager.ModeMonth)

	opts := view.Options{
		WeekStart:          cfg.WeekStartDay(),
		ShowAdjacentMonths: cfg.ShowAdjacentMonths == nil || *cfg.ShowAdjacentMonths,
		MaxVisibleEvents:   cfg.MaxVisibleEvents,
		SortedMonthView:    cfg.SortedMonthView == nil || *cfg.SortedMonthView,
		MoreLabel:          cfg.MoreLabel,
	}

	renderers := make(map[pager.Mode]*view.Renderer[model.Occurrence], 3)
	for _, m := range []pager.Mode{pager.ModeDay, pager.ModeThreeDays, pager.ModeMonth} {
		renderers[m] = view.NewRenderer[model.Occurrence](ctl.Virtualizer(m), opts)
	}

	s := &Server{
		cfg:        cfg,
		feed:       feedSvc,
		mux:        http.NewServeMux(),
		controller: ctl,
		renderers:  renderers,
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	appLog.Info("HTTP server started", "listen", "http://"+s.cfg.Listen)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware guards everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="bigcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/month", s.handleMonth)
	s.mux.HandleFunc("/api/page", s.handlePage)
	s.mux.HandleFunc("/api/view", s.handleView)
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// occurrenceDTO is the JSON-friendly view of one occurrence.
type occurrenceDTO struct {
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handleEvents returns the current expanded occurrence snapshot.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	events, revision := s.feed.Snapshot()

	dtos := make([]occurrenceDTO, 0, len(events))
	for _, occ := range events {
		dtos = append(dtos, occurrenceDTO{
			SourceID:    occ.SourceID,
			UID:         occ.UID,
			InstanceKey: occ.InstanceKey,
			Title:       occ.Summary,
			Location:    occ.Location,
			AllDay:      occ.AllDay,
			Start:       occ.Start,
			End:         occ.End,
		})
	}

	writeJSON(w, http.StatusOK, struct {
		Occurrences []occurrenceDTO `json:"occurrences"`
		Revision    uint64          `json:"revision"`
	}{dtos, revision})
}

// dayCellDTO is one rendered day cell.
type dayCellDTO struct {
	Date           string          `json:"date,omitempty"`
	InCurrentMonth bool            `json:"in_current_month"`
	Events         []occurrenceDTO `json:"events,omitempty"`
	Overflow       int             `json:"overflow,omitempty"`
	MoreLabel      string          `json:"more_label,omitempty"`
}

// pageDTO is one rendered page.
type pageDTO struct {
	Index       int            `json:"index"`
	AnchorDate  string         `json:"anchor_date"`
	Title       string         `json:"title"`
	Placeholder bool           `json:"placeholder,omitempty"`
	Weeks       [][]dayCellDTO `json:"weeks,omitempty"`
	Days        []dayCellDTO   `json:"days,omitempty"`
}

// handleMonth renders a single month page for an arbitrary date.
//
// GET /api/month?date=2026-02-01 (date defaults to today)
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	loc := s.cfg.Location()
	target := time.Now().In(loc)
	if q := r.URL.Query().Get("date"); q != "" {
		t, err := time.ParseInLocation(grid.DayKeyFormat, q, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		target = t
	}

	events, revision := s.feed.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.controller.Virtualizer(pager.ModeMonth)
	page := s.renderers[pager.ModeMonth].Page(v.PageForDate(target), events, revision)
	writeJSON(w, http.StatusOK, pageToDTO(page))
}

// handlePage serves the virtualized pager.
//
// GET  /api/page           → current page of the active mode
// GET  /api/page?index=N   → commits N (clamped) and returns that page
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	events, revision := s.feed.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.controller.Mode()
	if mode == pager.ModeSchedule {
		writeError(w, http.StatusConflict, "schedule mode has no page index")
		return
	}
	v := s.controller.Virtualizer(mode)

	if q := r.URL.Query().Get("index"); q != "" {
		idx, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid index")
			return
		}
		s.controller.GoTo(idx)
	}

	start, end := v.MaterializedRange(v.Current(), v.CacheRadius())
	page := s.renderers[mode].Page(v.Current(), events, revision)

	writeJSON(w, http.StatusOK, struct {
		Mode              string  `json:"mode"`
		TotalPages        int     `json:"total_pages"`
		CurrentPage       int     `json:"current_page"`
		MaterializedStart int     `json:"materialized_start"`
		MaterializedEnd   int     `json:"materialized_end"`
		Page              pageDTO `json:"page"`
	}{mode.String(), v.TotalPages(), v.Current(), start, end, pageToDTO(page)})
}

// handleView switches the active view mode.
//
// POST /api/view {"mode": "day" | "3days" | "month" | "schedule"}
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Switch(pager.ParseMode(req.Mode))

	writeJSON(w, http.StatusOK, struct {
		Mode        string `json:"mode"`
		Anchor      string `json:"anchor"`
		CurrentPage int    `json:"current_page"`
	}{s.controller.Mode().String(), grid.DayKey(s.controller.Anchor()), s.controller.CurrentIndex()})
}

func pageToDTO(p *view.RenderedPage[model.Occurrence]) pageDTO {
	dto := pageDTO{
		Index:       p.Index,
		AnchorDate:  grid.DayKey(p.AnchorDate),
		Title:       p.Title,
		Placeholder: p.Placeholder,
	}
	if p.Placeholder {
		return dto
	}

	if len(p.Grid.Weeks) > 0 {
		for _, week := range p.Grid.Weeks {
			row := make([]dayCellDTO, 0, grid.DaysPerWeek)
			for _, cell := range week {
				row = append(row, cellToDTO(cell, p))
			}
			dto.Weeks = append(dto.Weeks, row)
		}
		return dto
	}

	// Day / 3-day pages: a flat list of day cells.
	for cur := p.AnchorDate; ; cur = cur.AddDate(0, 0, 1) {
		de, ok := p.Days[grid.DayKey(cur)]
		if !ok {
			break
		}
		dto.Days = append(dto.Days, cellToDTO(grid.DayCell{Date: de.Date, Valid: true, InCurrentMonth: true}, p))
	}
	return dto
}

func cellToDTO(cell grid.DayCell, p *view.RenderedPage[model.Occurrence]) dayCellDTO {
	if !cell.Valid {
		return dayCellDTO{}
	}
	out := dayCellDTO{
		Date:           grid.DayKey(cell.Date),
		InCurrentMonth: cell.InCurrentMonth,
	}
	de, ok := p.Days[grid.DayKey(cell.Date)]
	if !ok {
		return out
	}
	for _, occ := range de.Visible {
		out.Events = append(out.Events, occurrenceDTO{
			SourceID:    occ.SourceID,
			UID:         occ.UID,
			InstanceKey: occ.InstanceKey,
			Title:       occ.Summary,
			Location:    occ.Location,
			AllDay:      occ.AllDay,
			Start:       occ.Start,
			End:         occ.End,
		})
	}
	out.Overflow = de.Overflow
	out.MoreLabel = de.MoreLabel
	return out
}

// staticFileServer serves the embedded demo page for everything that is
// not an API route.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
