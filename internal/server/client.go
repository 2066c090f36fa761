// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/Tyrowin/livechat/internal/chat"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// EventHandler receives decoded client events. chat.Hub implements it.
type EventHandler interface {
	Connect(connectionID string)
	Join(connectionID, username string)
	Message(connectionID string, req chat.MessageRequest)
	Typing(connectionID string)
	StopTyping(connectionID string)
	Disconnect(connectionID string)
}

// Client represents a WebSocket client connection in the chat system.
// Its fields other than send and closed are immutable after creation;
// send and closed are guarded by the transport lock.
type Client struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	transport   *Transport
	addr        string
	closed      bool
	rateLimiter *rateLimiter
	log         zerolog.Logger
}

// ID returns the connection id assigned by the transport.
func (c *Client) ID() string {
	return c.id
}

// GetSendChan returns the client's send channel for reading outgoing frames.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Debug().Err(err).Msg("error setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Debug().Err(err).Msg("error setting read deadline in pong handler")
		}
		return nil
	})
}

// handleReadError logs the read failure at a level matching its cause.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn().Int64("limit", c.transport.cfg.MaxMessageSize).Msg("message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debug().Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug().Err(err).Msg("client connection closed")
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn().Err(err).Msg("unexpected websocket close")
	default:
		c.log.Warn().Err(err).Msg("websocket read error")
	}
}

// handleFrame applies the rate limit and dispatches raw. Frames over the limit
// are dropped and logged with their event name.
func (c *Client) handleFrame(raw []byte) bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.log.Warn().
			Str("event", frameEvent(raw)).
			Int("bytes", len(raw)).
			Int("burst", c.transport.cfg.RateLimitBurst).
			Dur("interval", c.transport.cfg.RateLimitRefill).
			Msg("rate limit exceeded; discarding frame")
		return false
	}
	return c.processFrame(raw)
}

// frameEvent returns the event name of raw, or "invalid" when it has none.
func frameEvent(raw []byte) string {
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		return "invalid"
	}
	return env.Event
}

// processFrame decodes one envelope and hands it to the event handler.
// Malformed frames are logged and dropped; the connection stays open.
func (c *Client) processFrame(raw []byte) bool {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug().Err(err).Msg("invalid frame")
		return false
	}
	if err := validate.Struct(env); err != nil {
		c.log.Debug().Err(err).Str("event", env.Event).Msg("rejected frame")
		return false
	}

	h := c.transport.handler
	switch env.Event {
	case EventJoin:
		var data JoinData
		if !c.decodeData(env, &data) {
			return false
		}
		h.Join(c.id, data.Username)
	case EventMessage:
		var req chat.MessageRequest
		if !c.decodeData(env, &req) {
			return false
		}
		h.Message(c.id, req)
	case EventTyping:
		h.Typing(c.id)
	case EventStopTyping:
		h.StopTyping(c.id)
	}
	return true
}

// decodeData unmarshals the envelope body; an absent body leaves v zeroed.
func (c *Client) decodeData(env Envelope, v any) bool {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return true
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		c.log.Debug().Err(err).Str("event", env.Event).Msg("invalid frame data")
		return false
	}
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.transport.unregisterClient(c)
		c.transport.handler.Disconnect(c.id)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Debug().Err(err).Msg("error closing connection in readPump")
		}
	}()

	c.setupReadConnection()
	c.transport.handler.Connect(c.id)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		c.handleFrame(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection closes the socket, logging only unexpected failures.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Debug().Err(err).Msg("error closing connection in writePump")
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Debug().Err(err).Msg("error setting write deadline")
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close frame; the pump always stops afterwards.
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		c.log.Debug().Err(err).Msg("error writing close message")
	}
	return false
}

// writeTextMessage writes a frame plus anything already queued, newline separated.
func (c *Client) writeTextMessage(message []byte) bool {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		c.log.Debug().Err(err).Msg("error creating writer")
		return false
	}

	if _, err := w.Write(message); err != nil {
		c.log.Debug().Err(err).Msg("error writing message")
		return false
	}

	if !c.writeQueuedMessages(w) {
		return false
	}

	if err := w.Close(); err != nil {
		c.log.Debug().Err(err).Msg("error closing writer")
		return false
	}
	return true
}

// writeQueuedMessages drains frames that were queued while writing.
func (c *Client) writeQueuedMessages(w io.Writer) bool {
	n := len(c.send)
	for i := 0; i < n; i++ {
		queued, ok := <-c.send
		if !ok {
			return true
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			c.log.Debug().Err(err).Msg("error writing newline")
			return false
		}
		if _, err := w.Write(queued); err != nil {
			c.log.Debug().Err(err).Msg("error writing queued message")
			return false
		}
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Debug().Err(err).Msg("error setting write deadline for ping")
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Debug().Err(err).Msg("error writing ping message")
		return false
	}
	return true
}
