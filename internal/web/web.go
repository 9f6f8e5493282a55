package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"workplanner/internal/config"
	"workplanner/internal/ics"
	appLog "workplanner/internal/log"
	"workplanner/internal/metrics"
	"workplanner/internal/pipeline"
)

// ErrBusy is returned by Refresh while another run is in progress.
var ErrBusy = errors.New("a planning run is already in progress")

// RunFunc executes one planning run.
type RunFunc func(ctx context.Context) (*pipeline.Outcome, error)

// Server publishes the latest planning result over HTTP.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	run     RunFunc
	metrics *metrics.Collector

	runMu sync.Mutex

	mu          sync.RWMutex
	latest      *pipeline.Outcome
	lastErr     error
	lastAttempt time.Time
}

// NewServer constructs a new Server. collector may be nil, in which case
// /metrics is not registered.
func NewServer(cfg *config.Config, run RunFunc, collector *metrics.Collector) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		run:     run,
		metrics: collector,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh runs the pipeline and publishes its outcome. Concurrent calls
// fail fast with ErrBusy instead of queueing.
func (s *Server) Refresh(ctx context.Context) error {
	if !s.runMu.TryLock() {
		return ErrBusy
	}
	defer s.runMu.Unlock()

	out, err := s.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttempt = time.Now()
	s.lastErr = err
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFailure()
		}
		return err
	}
	s.latest = out
	if s.metrics != nil {
		s.metrics.RecordRun(out)
	}
	return nil
}

// Latest returns the most recent successful outcome, or nil.
func (s *Server) Latest() *pipeline.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="workplanner", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/api/entries", s.handleEntries)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar serves the entries of the latest run as ICS. The bytes
// are identical to the file written by that run.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	out := s.Latest()
	if out == nil {
		http.Error(w, "no plan computed yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Last-Modified", out.StartedAt.UTC().Format(http.TimeFormat))
	if err := ics.WriteCalendar(w, out.Entries, out.Write); err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

// entriesResponse is the JSON response shape for /api/entries.
type entriesResponse struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	Entries     []entryDTO   `json:"entries"`
	Deficits    []deficitDTO `json:"deficits"`
	Stats       statsDTO     `json:"stats"`
}

type entryDTO struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Label    string    `json:"label"`
	Task     string    `json:"task"`
	EventKey string    `json:"event_key"`
	Deficit  bool      `json:"deficit"`
}

type deficitDTO struct {
	Task         string    `json:"task"`
	EventKey     string    `json:"event_key"`
	EventSummary string    `json:"event_summary"`
	EventStart   time.Time `json:"event_start"`
	Hours        int       `json:"hours"`
}

type statsDTO struct {
	Events         int `json:"events"`
	Confirmed      int `json:"confirmed"`
	Links          int `json:"links"`
	Fragments      int `json:"fragments"`
	AllocatedHours int `json:"allocated_hours"`
	DeficitHours   int `json:"deficit_hours"`
}

// handleEntries returns the latest entries as JSON.
//
// GET /api/entries?deficit=true limits the list to deficit markers.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	out := s.Latest()
	if out == nil {
		writeError(w, http.StatusServiceUnavailable, "no plan computed yet")
		return
	}
	onlyDeficits := r.URL.Query().Get("deficit") == "true"

	resp := entriesResponse{
		GeneratedAt: out.StartedAt,
		WindowStart: out.WindowStart,
		WindowEnd:   out.WindowEnd,
		Entries:     make([]entryDTO, 0, len(out.Entries)),
		Deficits:    make([]deficitDTO, 0, len(out.Deficits)),
		Stats: statsDTO{
			Events:         out.Stats.Events,
			Confirmed:      out.Stats.Confirmed,
			Links:          out.Stats.Links,
			Fragments:      out.Stats.Fragments,
			AllocatedHours: out.Stats.AllocatedHours,
			DeficitHours:   out.Stats.DeficitHours,
		},
	}
	for _, e := range out.Entries {
		if onlyDeficits && !e.Deficit {
			continue
		}
		resp.Entries = append(resp.Entries, entryDTO{
			Start:    e.Start,
			End:      e.End,
			Label:    e.Label,
			Task:     e.Task,
			EventKey: e.EventKey,
			Deficit:  e.Deficit,
		})
	}
	for _, d := range out.Deficits {
		resp.Deficits = append(resp.Deficits, deficitDTO(d))
	}

	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	LastAttempt time.Time  `json:"last_attempt"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Entries     int        `json:"entries"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := statusResponse{LastAttempt: s.lastAttempt}
	if s.lastErr != nil {
		resp.LastError = s.lastErr.Error()
	}
	if s.latest != nil {
		t := s.latest.StartedAt
		resp.LastSuccess = &t
		resp.Entries = len(s.latest.Entries)
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh recomputes the plan synchronously.
//
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	err := s.Refresh(r.Context())
	switch {
	case errors.Is(err, ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusInternalServerError, "planning run failed")
	default:
		s.handleStatus(w, r)
	}
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
