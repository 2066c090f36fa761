// Package chat is the session and broadcast engine of the relay: it tracks
// participants, hands out display colors, keeps message history for replies
// and decides which connections receive each event.
package chat

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	// DefaultUsername is used when a join carries no usable name.
	DefaultUsername = "Anonymous"
	// MaxUsernameLength caps display names, in runes.
	MaxUsernameLength = 64
)

// Hub reacts to connection events. Every state container serializes its own
// mutations, so handlers for different connections may run in parallel.
// Outbound events are delivered only after the containers have been updated
// and their locks released.
type Hub struct {
	registry *SessionRegistry
	store    MessageStore
	deliver  Deliverer
	filter   TextFilter
	ids      func(connectionID string) string
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Hub) { h.log = log.With().Str("component", "hub").Logger() }
}

// WithTextFilter censors message text before it is stored or sent.
func WithTextFilter(f TextFilter) Option {
	return func(h *Hub) { h.filter = f }
}

// WithMessageIDs replaces the message id generator.
func WithMessageIDs(gen func(connectionID string) string) Option {
	return func(h *Hub) { h.ids = gen }
}

// WithClock replaces the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// NewHub wires the hub to its containers and the transport.
func NewHub(registry *SessionRegistry, store MessageStore, deliver Deliverer, opts ...Option) *Hub {
	h := &Hub{
		registry: registry,
		store:    store,
		deliver:  deliver,
		ids:      SequentialIDs(),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SequentialIDs returns a generator of <connectionID>_<n> ids where n grows
// monotonically across all connections.
func SequentialIDs() func(connectionID string) string {
	var seq atomic.Uint64
	return func(connectionID string) string {
		return connectionID + "_" + strconv.FormatUint(seq.Add(1), 10)
	}
}

// Connect records a new, not yet joined connection.
func (h *Hub) Connect(connectionID string) {
	h.log.Info().Str("sid", connectionID).Msg("client connected")
}

// Join registers the connection under username and tells everyone else.
// Joining again replaces the previous identity.
func (h *Hub) Join(connectionID, username string) {
	p := h.registry.Register(connectionID, normalizeUsername(username))
	h.log.Info().
		Str("sid", connectionID).
		Str("username", p.Username).
		Str("color", p.Color).
		Msg("user joined")

	h.deliver.DeliverToAllExcept(connectionID, EventUserUpdate, UserUpdate{
		Message: fmt.Sprintf("%s joined the chat.", p.Username),
	})
}

// Message records and broadcasts a message from a joined connection, sender
// included. Messages from unjoined connections are dropped.
func (h *Hub) Message(connectionID string, req MessageRequest) {
	author, ok := h.registry.Lookup(connectionID)
	if !ok {
		h.log.Debug().Str("sid", connectionID).Msg("message from unjoined connection ignored")
		return
	}

	text := req.Text
	if h.filter != nil {
		text = h.filter.Censor(text)
	}

	msg := Message{
		ID:                 h.ids(connectionID),
		Text:               text,
		AuthorConnectionID: author.ConnectionID,
		AuthorUsername:     author.Username,
		AuthorColor:        author.Color,
		ReplyTo:            req.ReplyTo,
		SentAt:             h.now(),
	}

	payload := MessagePayload{
		ID:           msg.ID,
		Text:         msg.Text,
		ConnectionID: msg.AuthorConnectionID,
		Username:     msg.AuthorUsername,
		Color:        msg.AuthorColor,
	}
	if req.ReplyTo != "" {
		if original, found := h.store.Resolve(req.ReplyTo); found {
			payload.ReplyContext = &ReplyContext{
				Username: original.AuthorUsername,
				Text:     original.Text,
			}
		}
	}

	if err := h.store.Record(msg); err != nil {
		h.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to record message")
	}

	h.log.Debug().
		Str("sid", connectionID).
		Str("username", author.Username).
		Str("message_id", msg.ID).
		Bool("reply", payload.ReplyContext != nil).
		Msg("message received")

	h.deliver.DeliverToAll(EventMessage, payload)
}

// Typing tells everyone else that the participant started typing.
func (h *Hub) Typing(connectionID string) {
	h.typing(connectionID, EventUserTyping)
}

// StopTyping tells everyone else that the participant stopped typing.
func (h *Hub) StopTyping(connectionID string) {
	h.typing(connectionID, EventUserStopTyping)
}

func (h *Hub) typing(connectionID, event string) {
	p, ok := h.registry.Lookup(connectionID)
	if !ok {
		return
	}
	h.deliver.DeliverToAllExcept(connectionID, event, TypingPayload{
		Username:     p.Username,
		ConnectionID: connectionID,
	})
}

// Disconnect removes the participant, if any, and announces the departure to
// every remaining connection. Repeated calls are harmless.
func (h *Hub) Disconnect(connectionID string) {
	p, ok := h.registry.Unregister(connectionID)
	if !ok {
		h.log.Debug().Str("sid", connectionID).Msg("connection closed before joining")
		return
	}
	h.log.Info().Str("sid", connectionID).Str("username", p.Username).Msg("user disconnected")

	h.deliver.DeliverToAll(EventUserUpdate, UserUpdate{
		Message: fmt.Sprintf("%s left the chat.", p.Username),
	})
}

// Participants returns the current roster.
func (h *Hub) Participants() []Participant {
	return h.registry.Participants()
}

func normalizeUsername(raw string) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw))
	if cleaned == "" {
		return DefaultUsername
	}
	if runes := []rune(cleaned); len(runes) > MaxUsernameLength {
		cleaned = strings.TrimSpace(string(lo.Subset(runes, 0, MaxUsernameLength)))
	}
	return cleaned
}
