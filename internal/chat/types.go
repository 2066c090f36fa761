package chat

import "time"

// Outbound event names, kept identical to the browser client's listeners.
const (
	EventUserUpdate     = "user_update"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventMessage        = "message"
)

// Message is a recorded chat message. Author fields are copied at send time
// so replies can still quote an author who has left.
type Message struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	AuthorConnectionID string    `json:"sid"`
	AuthorUsername     string    `json:"username"`
	AuthorColor        string    `json:"color"`
	ReplyTo            string    `json:"reply_to,omitempty"`
	SentAt             time.Time `json:"sent_at"`
}

// MessageRequest is the body of an inbound message event.
type MessageRequest struct {
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// UserUpdate announces presence changes.
type UserUpdate struct {
	Message string `json:"message"`
}

// TypingPayload is sent with user_typing and user_stop_typing.
type TypingPayload struct {
	Username     string `json:"username"`
	ConnectionID string `json:"sid"`
}

// ReplyContext quotes the message being replied to.
type ReplyContext struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// MessagePayload is the message event delivered to every connection.
type MessagePayload struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	ConnectionID string        `json:"sid"`
	Username     string        `json:"username"`
	Color        string        `json:"color"`
	ReplyContext *ReplyContext `json:"reply_context,omitempty"`
}
