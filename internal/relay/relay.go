// Package relay implements the connection lifecycle state machine of the
// peer-messaging relay: it registers authenticated connections with the
// presence registry, joins them to two-party rooms on request, and routes
// message, typing, and read-receipt events between room members. Nothing is
// persisted; durability belongs to the external store written by clients.
package relay

// Connection is one authenticated duplex channel as seen by the engine.
// The engine owns a connection from Connect until Disconnect; everything a
// connection carries besides its room memberships (user identity, send
// queue) is exclusive to its own handler goroutines.
type Connection interface {
	ID() string
	UserID() string

	// Send enqueues one event for delivery. It must not block; a full
	// outbound queue is reported as an error and the event is dropped.
	Send(event string, data any) error

	Close() error
}
