package chat

//go:generate go run go.uber.org/mock/mockgen -source=deliverer.go -destination=mocks/mock_deliverer.go -package=mocks

// Deliverer is the transport capability the hub fans events out through.
// Implementations must not call back into the hub.
type Deliverer interface {
	DeliverToAll(event string, payload any)
	DeliverToAllExcept(connectionID, event string, payload any)
}

// TextFilter rewrites message text before it is recorded and broadcast.
type TextFilter interface {
	Censor(text string) string
}
