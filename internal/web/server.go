// Package web serves the schedule over HTTP: a JSON API for the dashboard
// and a websocket stream of coordinator events.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/logging"
	"github.com/colonyops/buildsched/internal/scheduler"
)

// Server is the HTTP surface over an App.
type Server struct {
	app *scheduler.App
	hub *Hub
	log zerolog.Logger
}

// NewServer creates a Server. The hub starts receiving events at once.
func NewServer(app *scheduler.App) *Server {
	return &Server{
		app: app,
		hub: NewHub(app.Bus),
		log: logging.Component("web"),
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(s.log))
	r.Use(Recovery(s.log))

	r.Get("/health", s.health)
	r.Get("/events", s.hub.ServeWS)

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", s.listNotifications)
		r.Delete("/", s.clearNotifications)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.listProjects)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Use(s.requireProject)

			r.Get("/schedule", s.getSchedule)
			r.Post("/reload", s.reload)
			r.Get("/export", s.export)
			r.Post("/warnings/{warningID}/dismiss", s.dismissWarning)

			r.Put("/order/mode", s.setOrderMode)
			r.Post("/order/{taskID}/{direction}", s.moveInOrder)

			r.Route("/tasks/{taskID}", func(r chi.Router) {
				r.Put("/", s.saveTask)
				r.Get("/detail", s.canOpenDetail)
				r.Post("/drag/begin", s.beginDrag)
				r.Post("/drag/cancel", s.cancelDrag)
				r.Post("/drag/end", s.endDrag)
				r.Post("/move", s.moveTask)
			})
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// disconnecting websocket clients first.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// apiError is the JSON error body.
type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
