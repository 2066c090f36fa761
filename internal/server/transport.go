// Package server coordinates client registration, frame delivery, and
// connection cleanup for the relay via the Transport type.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// delivery is one outbound frame and the connection it must skip, if any.
type delivery struct {
	except  string
	payload []byte
}

// Transport owns every live websocket connection. It implements
// chat.Deliverer: deliveries are funnelled through the Run loop so each
// recipient's queue receives frames in emission order.
type Transport struct {
	cfg        Config
	handler    EventHandler
	clients    map[*Client]bool
	broadcast  chan delivery
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	running    atomic.Bool
	log        zerolog.Logger
}

// NewTransport creates a Transport. SetHandler must be called before Run.
func NewTransport(cfg Config, log zerolog.Logger) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		cfg:        cfg.withDefaults(),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan delivery),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log.With().Str("component", "transport").Logger(),
	}
}

// SetHandler installs the receiver of decoded client events.
func (t *Transport) SetHandler(h EventHandler) {
	t.handler = h
}

// NewClient wraps conn in a Client with a fresh connection id.
func (t *Transport) NewClient(conn *websocket.Conn, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(t.cfg.MaxMessageSize)
	}
	id := uuid.NewString()
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, t.cfg.SendBufferSize),
		transport:   t,
		addr:        addr,
		rateLimiter: newRateLimiter(t.cfg.RateLimitBurst, t.cfg.RateLimitRefill),
		log:         t.log.With().Str("sid", id).Str("addr", addr).Logger(),
	}
}

// Register hands a client to the Run loop, which starts its pumps.
// It reports false once the transport is shutting down.
func (t *Transport) Register(c *Client) bool {
	select {
	case t.register <- c:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// unregisterClient is called by the read pump on teardown.
func (t *Transport) unregisterClient(c *Client) {
	select {
	case t.unregister <- c:
	case <-t.ctx.Done():
		t.removeClient(c)
	}
}

// DeliverToAll sends event to every connection.
func (t *Transport) DeliverToAll(event string, payload any) {
	t.enqueue("", event, payload)
}

// DeliverToAllExcept sends event to every connection but connectionID.
func (t *Transport) DeliverToAllExcept(connectionID, event string, payload any) {
	t.enqueue(connectionID, event, payload)
}

func (t *Transport) enqueue(except, event string, payload any) {
	frame, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		t.log.Error().Err(err).Str("event", event).Msg("failed to encode outbound event")
		return
	}

	select {
	case t.broadcast <- delivery{except: except, payload: frame}:
	case <-t.ctx.Done():
	}
}

// Count returns the number of live connections.
func (t *Transport) Count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.clients)
}

func (t *Transport) safeSend(client *Client, message []byte) bool {
	// Holding the read lock keeps the channel open for the duration of the send.
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if _, exists := t.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the transport's event loop, handling client registration,
// unregistration, and frame delivery. It returns after Shutdown.
func (t *Transport) Run() {
	t.running.Store(true)
	defer close(t.done)

	for {
		select {
		case <-t.ctx.Done():
			t.shutdownClients()
			return

		case client := <-t.register:
			if client == nil {
				t.log.Warn().Msg("received nil client registration; skipping")
				continue
			}

			t.mutex.Lock()
			client.closed = false
			t.clients[client] = true
			clientCount := len(t.clients)
			t.mutex.Unlock()
			client.log.Info().Int("clients", clientCount).Msg("client registered")

			t.wg.Add(2)
			go func() {
				defer t.wg.Done()
				client.writePump()
			}()
			go func() {
				defer t.wg.Done()
				client.readPump()
			}()

		case client := <-t.unregister:
			t.removeClient(client)

		case d := <-t.broadcast:
			t.handleBroadcast(d)
		}
	}
}

// removeClient drops the client and closes its queue once. Later calls are
// no-ops and report false.
func (t *Transport) removeClient(client *Client) bool {
	t.mutex.Lock()
	if _, ok := t.clients[client]; !ok {
		t.mutex.Unlock()
		return false
	}
	delete(t.clients, client)
	client.closed = true
	clientCount := len(t.clients)
	t.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	client.log.Info().Int("clients", clientCount).Msg("client unregistered")
	return true
}

func (t *Transport) handleBroadcast(d delivery) {
	clients := t.getClientSnapshot()
	t.log.Debug().Int("targets", t.calculateTargetCount(clients, d.except)).Msg("delivering frame")

	clientsToRemove := t.broadcastToClients(clients, d)
	t.removeFailedClients(clientsToRemove)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (t *Transport) getClientSnapshot() []*Client {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	clients := make([]*Client, 0, len(t.clients))
	for client := range t.clients {
		clients = append(clients, client)
	}
	return clients
}

// calculateTargetCount determines how many clients will receive the frame
func (t *Transport) calculateTargetCount(clients []*Client, except string) int {
	if except == "" {
		return len(clients)
	}
	count := 0
	for _, c := range clients {
		if c.id != except {
			count++
		}
	}
	return count
}

// broadcastToClients queues the frame and returns clients whose queue was full
func (t *Transport) broadcastToClients(clients []*Client, d delivery) []*Client {
	var clientsToRemove []*Client

	for _, client := range clients {
		if d.except != "" && client.id == d.except {
			continue
		}
		if !t.safeSend(client, d.payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}

	return clientsToRemove
}

// removeFailedClients evicts slow clients. Closing the queue makes the write
// pump send a close frame, and the read pump then runs the normal disconnect.
func (t *Transport) removeFailedClients(clientsToRemove []*Client) {
	for _, client := range clientsToRemove {
		if t.removeClient(client) {
			client.log.Warn().Msg("evicted client with full send buffer")
		}
	}
}

// shutdownClients closes every live socket so the pumps exit.
func (t *Transport) shutdownClients() {
	clients := t.getClientSnapshot()

	t.log.Info().Int("clients", len(clients)).Msg("closing client connections")
	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			client.log.Debug().Err(err).Msg("error closing client connection")
		}
	}
}

// Shutdown stops the Run loop and waits for client goroutines, up to timeout.
func (t *Transport) Shutdown(timeout time.Duration) error {
	t.log.Info().Msg("initiating transport shutdown")

	t.cancel()
	if !t.running.Load() {
		return nil
	}
	<-t.done

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.log.Info().Msg("transport shutdown completed")
		return nil
	case <-time.After(timeout):
		t.log.Warn().Msg("transport shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
