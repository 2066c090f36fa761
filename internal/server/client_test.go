package server

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Tyrowin/livechat/internal/chat"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type handlerCall struct {
	Method string
	ID     string
	Arg    any
}

type recordingHandler struct {
	calls []handlerCall
}

func (h *recordingHandler) Connect(id string) {
	h.calls = append(h.calls, handlerCall{Method: "Connect", ID: id})
}

func (h *recordingHandler) Join(id, username string) {
	h.calls = append(h.calls, handlerCall{Method: "Join", ID: id, Arg: username})
}

func (h *recordingHandler) Message(id string, req chat.MessageRequest) {
	h.calls = append(h.calls, handlerCall{Method: "Message", ID: id, Arg: req})
}

func (h *recordingHandler) Typing(id string) {
	h.calls = append(h.calls, handlerCall{Method: "Typing", ID: id})
}

func (h *recordingHandler) StopTyping(id string) {
	h.calls = append(h.calls, handlerCall{Method: "StopTyping", ID: id})
}

func (h *recordingHandler) Disconnect(id string) {
	h.calls = append(h.calls, handlerCall{Method: "Disconnect", ID: id})
}

// TestProcessFrame checks envelope decoding and dispatch for each event.
func TestProcessFrame(t *testing.T) {
	tr := NewTransport(testConfig(), zerolog.Nop())
	handler := &recordingHandler{}
	tr.SetHandler(handler)
	c := tr.NewClient(nil, "test")

	tests := []struct {
		name string
		raw  string
		ok   bool
		want *handlerCall
	}{
		{
			name: "join",
			raw:  `{"event":"join","data":{"username":"alice"}}`,
			ok:   true,
			want: &handlerCall{Method: "Join", ID: c.ID(), Arg: "alice"},
		},
		{
			name: "join without data",
			raw:  `{"event":"join"}`,
			ok:   true,
			want: &handlerCall{Method: "Join", ID: c.ID(), Arg: ""},
		},
		{
			name: "message with reply",
			raw:  `{"event":"message","data":{"text":"hi","reply_to":"x_1"}}`,
			ok:   true,
			want: &handlerCall{Method: "Message", ID: c.ID(), Arg: chat.MessageRequest{Text: "hi", ReplyTo: "x_1"}},
		},
		{
			name: "typing",
			raw:  `{"event":"typing"}`,
			ok:   true,
			want: &handlerCall{Method: "Typing", ID: c.ID()},
		},
		{
			name: "stop typing",
			raw:  `{"event":"stop_typing","data":null}`,
			ok:   true,
			want: &handlerCall{Method: "StopTyping", ID: c.ID()},
		},
		{name: "not json", raw: `hello`},
		{name: "missing event", raw: `{"data":{}}`},
		{name: "unknown event", raw: `{"event":"user_update"}`},
		{name: "bad data", raw: `{"event":"message","data":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			handler.calls = nil

			req.Equal(tt.ok, c.processFrame([]byte(tt.raw)))
			if tt.want == nil {
				req.Empty(handler.calls)
				return
			}
			req.Equal([]handlerCall{*tt.want}, handler.calls)
		})
	}
}

// TestHandleFrameRateLimit checks frames over the burst are not dispatched and
// that the dropped event is named in the log.
func TestHandleFrameRateLimit(t *testing.T) {
	req := require.New(t)
	tr := NewTransport(testConfig(), zerolog.Nop())
	handler := &recordingHandler{}
	tr.SetHandler(handler)

	var buf bytes.Buffer
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := tr.NewClient(nil, "test")
	c.log = zerolog.New(&buf)
	c.rateLimiter = newRateLimiterWithClock(1, time.Second, clock.Now)

	req.True(c.handleFrame([]byte(`{"event":"message","data":{"text":"first"}}`)))
	req.False(c.handleFrame([]byte(`{"event":"message","data":{"text":"second"}}`)))
	req.False(c.handleFrame([]byte(`garbage`)))

	req.Equal([]handlerCall{
		{Method: "Message", ID: c.ID(), Arg: chat.MessageRequest{Text: "first"}},
	}, handler.calls)
	req.Contains(buf.String(), `"event":"message"`)
	req.Contains(buf.String(), `"event":"invalid"`)
	req.Contains(buf.String(), "rate limit exceeded")

	// A refilled bucket lets frames through again
	clock.Advance(time.Second)
	req.True(c.handleFrame([]byte(`{"event":"typing"}`)))
	req.Len(handler.calls, 2)
}

func TestIsExpectedCloseError(t *testing.T) {
	req := require.New(t)
	req.True(isExpectedCloseError(nil))
	req.True(isExpectedCloseError(errors.New("write tcp: use of closed network connection")))
	req.True(isExpectedCloseError(errors.New("websocket: close sent")))
	req.True(isExpectedCloseError(errors.New("write: broken pipe")))
	req.False(isExpectedCloseError(errors.New("timeout")))
}
