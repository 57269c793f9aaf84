// Package server provides HTTP server initialization and lifecycle
// management for the kith API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rkeeling/kith/internal/config"
	"github.com/rkeeling/kith/internal/engine"
	"github.com/rkeeling/kith/web/handlers"
)

// Start builds the router and starts the HTTP server. It returns the actual
// listen address (useful for tests binding port 0) and the websocket hub so
// callers can wire event broadcasts into it. The server shuts down when ctx
// is cancelled.
func Start(ctx context.Context, cfg *config.Config, eng *engine.Engine, extractor handlers.ExtractionService) (string, *handlers.WebSocketHub, error) {
	hub := handlers.NewWebSocketHub(cfg.Server.Host, cfg.Server.Port)
	go hub.Run()

	router := NewRouter(cfg, eng, extractor, hub)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		hub.Stop()
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		hub.Stop()
	}()

	return actualAddr, hub, nil
}

// NewRouter assembles the chi router: security headers and rate limiting on
// everything, CORS for the review UI, token auth on the API surface, and the
// unauthenticated health and websocket endpoints.
func NewRouter(cfg *config.Config, eng *engine.Engine, extractor handlers.ExtractionService, hub *handlers.WebSocketHub) http.Handler {
	h := handlers.New(eng, extractor, cfg, hub)
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	r := chi.NewRouter()
	r.Use(handlers.SecurityHeaders)
	r.Use(rateLimiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port),
			fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Health endpoint stays unauthenticated for monitoring.
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireAuth(cfg))

			r.Post("/extract", h.Extract)
			r.Post("/disambiguate", h.DisambiguateContact)
			r.Post("/commit", h.Commit)
			r.Post("/similarity", h.Similarity)

			r.Route("/persons", func(r chi.Router) {
				r.Get("/", h.ListPersons)
				r.Post("/", h.CreatePerson)
				r.Get("/{id}", h.GetPerson)
				r.Patch("/{id}", h.UpdatePerson)
				r.Get("/{id}/facts", h.ListPersonFacts)
				r.Get("/{id}/topics", h.ListPersonTopics)
				r.Get("/{id}/memories", h.ListPersonMemories)
				r.Get("/{id}/notes", h.ListPersonNotes)
				r.Post("/{id}/groups", h.AddPersonToGroup)
			})

			r.Route("/topics", func(r chi.Router) {
				r.Get("/{id}", h.GetTopic)
				r.Patch("/{id}", h.UpdateTopic)
				r.Delete("/{id}", h.DeleteTopic)
				r.Post("/{id}/resolve", h.ResolveTopic)
				r.Post("/{id}/reopen", h.ReopenTopic)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", h.ListGroups)
				r.Post("/", h.CreateGroup)
			})

			r.Delete("/facts/{id}", h.DeleteFact)
			r.Delete("/memories/{id}", h.DeleteMemory)

			r.Post("/import/roster", h.StartRosterImport)
			r.Get("/import/status/{job_id}", h.GetImportStatus)
		})
	})

	// Websocket upgrades carry no Authorization header from browsers;
	// origin validation in the hub handles access.
	r.Get("/ws", hub.ServeHTTP)

	return r
}
