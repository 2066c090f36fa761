// Package server exposes HTTP handlers: the login and chat views, the
// WebSocket upgrade, health checks, and the participant roster.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/Tyrowin/livechat/internal/chat"
	"github.com/samber/lo"
)

//go:embed templates/*.html
var templatesFS embed.FS

var views = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// chatView is the data rendered into chat.html.
type chatView struct {
	Username string
}

// participantView is one roster entry of /api/participants.
type participantView struct {
	ConnectionID string `json:"sid"`
	Username     string `json:"username"`
	Color        string `json:"color"`
}

// LoginHandler renders the landing page with the username form.
func (s *Server) LoginHandler(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "login.html", nil)
}

// ChatHandler renders the chat page for ?username=. A missing or blank
// username sends the browser back to the login page.
func (s *Server) ChatHandler(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, "chat.html", chatView{Username: username})
}

// WebSocketHandler upgrades the request and hands the connection to the transport.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Str("addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := s.transport.NewClient(conn, r.RemoteAddr)
	if !s.transport.Register(client) {
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "livechat is running with %d connections", s.transport.Count())
}

// ParticipantsHandler lists joined participants as JSON.
func (s *Server) ParticipantsHandler(w http.ResponseWriter, _ *http.Request) {
	roster := lo.Map(s.hub.Participants(), func(p chat.Participant, _ int) participantView {
		return participantView{ConnectionID: p.ConnectionID, Username: p.Username, Color: p.Color}
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(roster); err != nil {
		s.log.Debug().Err(err).Msg("error writing roster response")
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error().Err(err).Str("view", name).Msg("error rendering view")
	}
}
