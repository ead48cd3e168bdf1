package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"chronocheck/internal/core"
	"chronocheck/pkg"
)

// SessionWatcher yields the IDs of sessions as they change.
type SessionWatcher interface {
	Listen(ctx context.Context) (<-chan string, error)
}

// Server bundles together the dependencies required by HTTP handlers. It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Consult          *core.ConsultService
	Watcher          SessionWatcher
	ProgressInterval time.Duration
	Logger           *slog.Logger

	router chi.Router
}

// NewServer constructs a Server and its routes. watcher may be nil, in
// which case session streams send a single snapshot.
func NewServer(consult *core.ConsultService, watcher SessionWatcher, progressInterval time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if progressInterval <= 0 {
		progressInterval = 700 * time.Millisecond
	}
	s := &Server{
		Consult:          consult,
		Watcher:          watcher,
		ProgressInterval: progressInterval,
		Logger:           logger,
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "chronocheck")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/workflows", s.handleListWorkflows)
	r.Get("/api/workflows/{workflow}/progress", s.handleProgress)
	r.Post("/api/sessions", s.handleCreateSession)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDeleteSession)
		r.Put("/workflow", s.handleSelectWorkflow)
		r.Post("/submit", s.handleSubmit)
		r.Get("/stream", s.handleSessionStream)
	})
	s.router = r
	return s
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListWorkflows returns the catalog for the dashboard and forms.
func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	defs := core.Catalog()
	out := make([]pkg.WorkflowInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Info())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleProgress streams the cosmetic progress steps of a workflow as
// server-sent events. Query parameters fill in the form values the step
// labels mention (location, level, age...).
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseWorkflow(chi.URLParam(r, "workflow"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	values := core.Values{}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	steps, err := core.ProgressSteps(id, values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	flusher, ok := startSSE(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	for ev := range core.StreamProgress(r.Context(), steps, s.ProgressInterval) {
		if err := writeEvent(w, "progress", ev); err != nil {
			return
		}
		flusher.Flush()
	}
}

// handleCreateSession starts a session with zero state.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Consult.StartSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Consult.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSession tears a session down; its state is discarded.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Consult.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectWorkflow(w http.ResponseWriter, r *http.Request) {
	var req pkg.SelectWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	snap, err := s.Consult.SelectWorkflow(r.Context(), chi.URLParam(r, "id"), req.Workflow)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSubmit runs one workflow submission. Backend failures still answer
// 200: the action completed and its outcome says it failed.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req pkg.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	res, err := s.Consult.Submit(r.Context(), chi.URLParam(r, "id"), req.Workflow, core.Values(req.Fields))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg.SubmitResponse{
		Workflow:     string(res.Workflow),
		Outcome:      res.Outcome.View(),
		SavingsAdded: res.SavingsAdded,
		Session:      res.Session,
	})
}

// handleSessionStream sends the session snapshot as a server-sent event,
// then again each time the watcher reports a change to it. Without a
// watcher only the initial snapshot is sent.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	snap, err := s.Consult.Session(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var changes <-chan string
	if s.Watcher != nil {
		// Subscribe before the first event so no change slips between.
		if changes, err = s.Watcher.Listen(ctx); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	flusher, ok := startSSE(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if err := writeEvent(w, "session_update", snap); err != nil {
		return
	}
	flusher.Flush()
	if changes == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case changed, ok := <-changes:
			if !ok {
				return
			}
			if changed != id {
				continue
			}
			snap, err := s.Consult.Session(ctx, id)
			if errors.Is(err, core.ErrSessionNotFound) {
				_ = writeEvent(w, "session_end", map[string]string{"id": id})
				flusher.Flush()
				return
			}
			if err != nil {
				s.Logger.Warn("session stream reload failed", slog.String("session_id", id), slog.String("error", err.Error()))
				return
			}
			if err := writeEvent(w, "session_update", snap); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps core errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, core.ErrUnknownWorkflow):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrSessionBusy):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		s.Logger.Error("request failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func startSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// writeEvent writes one named server-sent event with a JSON payload.
func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
