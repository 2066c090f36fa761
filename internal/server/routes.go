// Package server wires HTTP handlers into a chi router via routing helpers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes returns the application router: views, websocket endpoint, health
// check and roster.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.LoginHandler)
	r.Get("/chat", s.ChatHandler)
	r.Get("/ws", s.WebSocketHandler)
	r.Get("/health", s.HealthHandler)
	r.Get("/api/participants", s.ParticipantsHandler)
	return r
}
