// Package http exposes the forms of a session.Manager as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/session"
)

// Server serves the forms of a session manager.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams sets the stream manager whose hooks the session forms publish to.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics serves the metrics of g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// FieldEvent is the body of POST /sessions/{id}/events.
type FieldEvent struct {
	Field   string `json:"field"`
	Action  string `json:"action"`
	Value   any    `json:"value"`
	Type    string `json:"type,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// ResetRequest is the body of POST /sessions/{id}/reset.
type ResetRequest struct {
	Names []string `json:"names,omitempty"`
}

// NewHandler creates a new HTTP handler for the sessions of m.
func NewHandler(m *session.Manager, opts ...Option) http.Handler {
	s := &Server{Sessions: m, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Put("/", s.OpenSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/values", s.GetValues)
			r.Put("/values", s.SetValues)
			r.Get("/errors", s.GetErrors)
			r.Get("/fields", s.GetFields)
			r.Patch("/fields", s.SetFields)
			r.Post("/events", s.PostEvent)
			r.Post("/validate", s.Validate)
			r.Post("/reset", s.Reset)
			r.Get("/stream", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "formwork-http",
		"version": strings.TrimSpace(formwork.Version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, form, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"id": id, "fields": form.Names()})
}

// OpenSession handles the PUT /sessions/{id} request, creating the session
// when it does not exist.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	form, err := s.Sessions.GetOrCreate(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "fields": form.Names()})
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetValues handles the GET /sessions/{id}/values request. The optional
// "names" query parameter is a comma separated list of names or prefixes.
func (s *Server) GetValues(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(form *formwork.Form) any {
		return form.FieldsValue(queryNames(r)...)
	})
}

// GetErrors handles the GET /sessions/{id}/errors request.
func (s *Server) GetErrors(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(form *formwork.Form) any {
		return form.FieldsError(queryNames(r)...)
	})
}

// GetFields handles the GET /sessions/{id}/fields request: the full record
// of every registered field, keyed by name.
func (s *Server) GetFields(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(form *formwork.Form) any {
		out := make(map[string]domain.Field)
		for _, name := range form.Names() {
			if f, ok := form.Field(name); ok {
				out[name] = f
			}
		}
		return out
	})
}

// SetValues handles the PUT /sessions/{id}/values request. Values at
// unregistered paths are ignored.
func (s *Server) SetValues(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if !s.decode(w, r, &values) {
		return
	}
	clean, err := SanitizeValue(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, func(ctx context.Context, form *formwork.Form) (any, error) {
		form.SetFieldsValue(clean.(map[string]any))
		return form.FieldsValue(), nil
	})
}

// SetFields handles the PATCH /sessions/{id}/fields request. The body maps
// field names to full records; nothing is written when a name is not registered.
func (s *Server) SetFields(w http.ResponseWriter, r *http.Request) {
	var records map[string]domain.Field
	if !s.decode(w, r, &records) {
		return
	}
	tree := make(map[string]any, len(records))
	for name, f := range records {
		if f.Value != nil {
			v, err := SanitizeValue(f.Value)
			if err != nil {
				s.fail(w, r, fmt.Errorf("%s: %w", name, err))
				return
			}
			f.Value, f.HasValue = v, true
		}
		tree[name] = f
	}
	s.write(w, r, func(ctx context.Context, form *formwork.Form) (any, error) {
		if err := form.SetFields(tree); err != nil {
			return nil, err
		}
		return form.FieldsValue(), nil
	})
}

// PostEvent handles the POST /sessions/{id}/events request. It returns
// once the value is collected; a validation it starts completes in the
// background and is reported on the stream.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var ev FieldEvent
	if !s.decode(w, r, &ev) {
		return
	}
	if ev.Action == "" {
		ev.Action = domain.DefaultTrigger
	}
	value, err := SanitizeValue(ev.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, func(ctx context.Context, form *formwork.Form) (any, error) {
		// The pass must outlive the request.
		ctx = context.WithoutCancel(ctx)
		target := domain.InputEvent{Type: ev.Type, Value: value, IsCheck: ev.Checked}
		if err := form.Handle(ctx, ev.Field, ev.Action, target); err != nil {
			return nil, err
		}
		f, _ := form.Field(ev.Field)
		return f, nil
	})
}

// Validate handles the POST /sessions/{id}/validate request and waits for
// the pass to complete. An empty body validates every field.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	s.write(w, r, func(ctx context.Context, form *formwork.Form) (any, error) {
		return form.Validate(ctx, req)
	})
}

// Reset handles the POST /sessions/{id}/reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	s.write(w, r, func(ctx context.Context, form *formwork.Form) (any, error) {
		form.ResetFields(ctx, req.Names...)
		return form.FieldsValue(), nil
	})
}

// SubscribeEvents handles the GET /sessions/{id}/stream request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.Sessions.Get(sessionID); err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func queryNames(r *http.Request) []string {
	raw := r.URL.Query().Get("names")
	if raw == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (s *Server) read(w http.ResponseWriter, r *http.Request, fn func(*formwork.Form) any) {
	form, err := s.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fn(form))
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, fn func(context.Context, *formwork.Form) (any, error)) {
	var resp any
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "sessionID"), func(ctx context.Context, form *formwork.Form) error {
		var err error
		resp, err = fn(ctx, form)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// fail maps err to a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unregistered *domain.UnregisteredFieldError
		ambiguous    *domain.AmbiguousFieldNameError
		malformed    *domain.MalformedStructureError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, domain.ErrFieldNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnboundAction),
		errors.Is(err, ErrInputTooLarge),
		errors.Is(err, ErrInvalidUTF8),
		errors.As(err, &unregistered),
		errors.As(err, &ambiguous),
		errors.As(err, &malformed):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
