package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5000"

// testConfig returns a config suitable for in-process servers.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = testOrigin
	cfg.RateLimitBurst = 100
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

// startTestServer builds a Server from cfg, starts its transport and serves
// its routes from an httptest server. Both are torn down with the test.
func startTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := NewServer(cfg, zerolog.Nop())
	require.NoError(t, err)
	srv.StartTransport()

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		_ = srv.Shutdown(nil)
		ts.Close()
	})
	return srv, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// testClient reads envelopes from a websocket, splitting batched frames.
type testClient struct {
	t       *testing.T
	conn    *websocket.Conn
	pending [][]byte
}

// dial connects to the test server with an allowed Origin header.
func dial(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()

	conn, err := dialWithOrigin(ts, testOrigin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

func dialWithOrigin(ts *httptest.Server, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(wsURL(ts), headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (c *testClient) send(event string, data any) {
	c.t.Helper()

	env := map[string]any{"event": event}
	if data != nil {
		env["data"] = data
	}
	require.NoError(c.t, c.conn.WriteJSON(env))
}

func (c *testClient) sendRaw(raw string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// read returns the next envelope or fails the test after two seconds.
func (c *testClient) read() Envelope {
	c.t.Helper()

	if len(c.pending) == 0 {
		require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := c.conn.ReadMessage()
		require.NoError(c.t, err)
		c.pending = bytes.Split(raw, []byte{'\n'})
	}

	next := c.pending[0]
	c.pending = c.pending[1:]

	var env Envelope
	require.NoError(c.t, json.Unmarshal(next, &env))
	return env
}

// expectSilence asserts nothing arrives within d.
func (c *testClient) expectSilence(d time.Duration) {
	c.t.Helper()

	require.Empty(c.t, c.pending)
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(d)))
	_, raw, err := c.conn.ReadMessage()
	require.Error(c.t, err, "unexpected frame %s", raw)
}

func decodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
