// Package preview serves a rendered project over HTTP.
//
// Routes:
//
//	GET  /          the page, with a live update script
//	GET  /snapshot  the view tree (?format=json|msgpack)
//	GET  /metrics   Prometheus metrics, when a gatherer is set
//	GET  /ws        live update WebSocket
//	POST /reload    rebuild the project and reload browsers
//	POST /dispatch  fire {"selector", "event"} and push the new page
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/figura-dev/figura/internal/errors"
	"github.com/figura-dev/figura/internal/project"
	"github.com/figura-dev/figura/internal/snapshot"
)

// LoadFunc builds and renders a project.
type LoadFunc func() (*project.Project, error)

// Options configures the preview server.
type Options struct {
	// Load builds the project. It runs once in New and again on reload.
	Load LoadFunc

	// Gatherer backs /metrics. The route is not mounted when nil.
	Gatherer prometheus.Gatherer

	// Pretty indents the served page.
	Pretty bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the preview server.
type Server struct {
	opts    Options
	hub     *Hub
	logger  *slog.Logger
	router  chi.Router
	mu      sync.RWMutex
	project *project.Project
	http    *http.Server
}

// New loads the project and builds the router.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "preview")

	s := &Server{
		opts:   opts,
		hub:    NewHub(logger),
		logger: logger,
	}
	p, err := opts.Load()
	if err != nil {
		return nil, err
	}
	s.project = p
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/ws", s.hub.ServeHTTP)
	r.Post("/reload", s.handleReload)
	r.Post("/dispatch", s.handleDispatch)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the live update hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Project returns the current project.
func (s *Server) Project() *project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// Reload rebuilds the project. The old project is closed only when the
// new one loads; on failure browsers get an error message.
func (s *Server) Reload() error {
	p, err := s.opts.Load()
	if err != nil {
		s.hub.Broadcast(Message{Type: MessageError, Error: err.Error()})
		return err
	}
	s.mu.Lock()
	old := s.project
	s.project = p
	s.mu.Unlock()
	old.Close()

	s.logger.Info("project reloaded", "clients", s.hub.ClientCount())
	s.hub.Broadcast(Message{Type: MessageReload})
	return nil
}

func (s *Server) page() string {
	html := s.Project().HTML(s.opts.Pretty)
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i] + ClientScript + html[i:]
	}
	return html + ClientScript
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(s.page()))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, format, snapshot.FromProject(s.Project())); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", snapshot.ContentType(format))
	w.Write(buf.Bytes())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DispatchRequest is the body of POST /dispatch.
type DispatchRequest struct {
	Selector string `json:"selector"`
	Event    string `json:"event"`
}

// DispatchResponse is the reply to POST /dispatch.
type DispatchResponse struct {
	Clients int `json:"clients"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Selector == "" || req.Event == "" {
		http.Error(w, "selector and event are required", http.StatusBadRequest)
		return
	}

	p := s.Project()
	if err := p.Dispatch(req.Selector, req.Event); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("dispatched", "selector", req.Selector, "event", req.Event)
	s.hub.Broadcast(Message{
		Type:     MessageUpdate,
		Selector: req.Selector,
		Event:    req.Event,
		HTML:     p.HTML(s.opts.Pretty),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DispatchResponse{Clients: s.hub.ClientCount()})
}

// writeError maps coded errors to 4xx and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var fe *errors.FiguraError
	if errors.As(err, &fe) {
		switch fe.Category {
		case errors.CategoryConfig, errors.CategorySnapshot, errors.CategoryCLI:
			status = http.StatusBadRequest
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.logger.Info("preview running", "addr", addr)

	select {
	case <-ctx.Done():
		return s.Close()
	case err := <-errCh:
		return err
	}
}

// Close shuts the server down and closes the project.
func (s *Server) Close() error {
	s.hub.Close()
	var err error
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
	}
	s.Project().Close()
	return err
}
