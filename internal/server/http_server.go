// Package server constructs and starts the relay's HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Tyrowin/livechat/internal/chat"
	"github.com/Tyrowin/livechat/internal/moderation"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Server bundles the chat core with its websocket transport and HTTP surface.
type Server struct {
	cfg       Config
	log       zerolog.Logger
	hub       *chat.Hub
	store     chat.MessageStore
	transport *Transport
	upgrader  websocket.Upgrader
}

// NewServer builds the color pool, registry, history and hub described by
// cfg and connects them to a new transport. Call Start to run it.
func NewServer(cfg Config, log zerolog.Logger) (*Server, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	palette, err := chat.ParsePalette(cfg.Palette)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	store, err := newHistory(cfg, log)
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{chat.WithLogger(log)}
	censor, err := moderation.NewCensor(cfg.Words(), cfg.CensorRune())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if censor != nil {
		opts = append(opts, chat.WithTextFilter(censor))
	}

	transport := NewTransport(cfg, log)
	registry := chat.NewSessionRegistry(chat.NewColorAllocator(palette))
	hub := chat.NewHub(registry, store, transport, opts...)
	transport.SetHandler(hub)

	origins := newOriginPolicy(cfg.Origins(), log)
	return &Server{
		cfg:       cfg,
		log:       log,
		hub:       hub,
		store:     store,
		transport: transport,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}, nil
}

func newHistory(cfg Config, log zerolog.Logger) (chat.MessageStore, error) {
	switch cfg.HistoryBackend {
	case HistoryBadger:
		return chat.NewBadgerStore(cfg.HistoryTTL, log)
	default:
		return chat.NewMemoryStore(cfg.HistoryLimit), nil
	}
}

// Hub returns the chat core.
func (s *Server) Hub() *chat.Hub {
	return s.hub
}

// Transport returns the websocket transport.
func (s *Server) Transport() *Transport {
	return s.transport
}

// StartTransport launches the transport loop in its own goroutine. It must
// run before any websocket is accepted.
func (s *Server) StartTransport() {
	go s.transport.Run()
	s.log.Info().Msg("transport started and ready to manage websocket connections")
}

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Start runs the transport and serves HTTP until ctx is cancelled, then
// shuts everything down within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	s.StartTransport()
	httpServer := CreateServer(s.cfg.Addr(), s.Routes())

	errChan := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
		close(errChan)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down gracefully")
	case serveErr = <-errChan:
	}

	return errors.Join(serveErr, s.Shutdown(httpServer))
}

// Shutdown stops the HTTP server, closes every websocket and releases the history.
func (s *Server) Shutdown(httpServer *http.Server) error {
	var errs []error
	if httpServer != nil {
		if err := ShutdownServer(httpServer, s.cfg.ShutdownTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.transport.Shutdown(s.cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("transport shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}
	return errors.Join(errs...)
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting active connections.
// It waits for active connections to close or until the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
