// Package web serves the local picscrub UI. Files are uploaded to this
// process over loopback only and never leave the machine.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/artifact"
	"github.com/ankit-chaubey/picscrub/core/job"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	defaultMaxUploadBytes = 200 << 20
	maxOptionsBody        = 64 << 10
	requestTimeout        = 10 * time.Minute
)

// App wires HTTP routes to a job manager.
type App struct {
	logger *slog.Logger
	router *chi.Mux

	jobs  *job.Manager
	store *artifact.Store

	maxUploadBytes int64
	optionsSchema  *jsonschema.Schema

	upgrader websocket.Upgrader
}

// NewApp builds the router. store must be the one the manager writes to.
func NewApp(logger *slog.Logger, jobs *job.Manager, store *artifact.Store, maxUploadBytes int64) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	schema, err := compileOptionsSchema()
	if err != nil {
		return nil, err
	}

	app := &App{
		logger:         logger,
		router:         chi.NewRouter(),
		jobs:           jobs,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		optionsSchema:  schema,
		upgrader: websocket.Upgrader{
			CheckOrigin: sameOrigin,
		},
	}
	app.registerRoutes()
	return app, nil
}

// Router returns the HTTP handler.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) registerRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(a.requestLogger)

	a.router.Get("/", a.index)
	a.router.Get("/healthz", a.health)
	a.router.Get("/ws", a.events)
	a.router.Get("/blob/{handle}", a.blob)

	a.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/jobs", a.listJobs)
		r.Post("/jobs", a.upload)
		r.Post("/jobs/run", a.runAll)
		r.Get("/jobs/{id}", a.getJob)
		r.Put("/jobs/{id}/options", a.setOptions)
		r.Post("/jobs/{id}/run", a.runOne)
		r.Post("/jobs/{id}/download", a.download)
		r.Get("/jobs/{id}/report.xlsx", a.report)
		r.Delete("/jobs/{id}", a.removeJob)
		r.Post("/reset", a.reset)
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return a.serve(ctx, ln, shutdownTimeout)
}

func (a *App) serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", "error", err)
		_ = srv.Close()
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"jobs":      a.jobs.Counts(),
		"artifacts": a.store.Stats(),
	})
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, IndexPage())
}

func (a *App) render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		a.logger.Error("failed to render template", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (a *App) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode json", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps domain errors onto HTTP statuses.
func (a *App) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}

	var appErr *core.AppError
	switch {
	case errors.Is(err, core.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNotPending), errors.Is(err, core.ErrNotProcessed):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrFormatUnsupported):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		if status == http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity
		}
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	}
	a.respondJSON(w, status, body)
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// sameOrigin admits websocket upgrades from the page this server served.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
