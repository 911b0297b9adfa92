// Package cdp implements the connection and session multiplexing layer of a
// Chrome DevTools Protocol endpoint: one WebSocket carrying command round
// trips correlated by (id, sessionId) plus an unbounded stream of events,
// partitioned by session.
package cdp

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// Conn is the duplex text-message transport the client runs over. The
// production implementation is *websocket.Conn; tests substitute mocks.
type Conn interface {
	// Read reads one message from the connection.
	Read(ctx context.Context) (websocket.MessageType, []byte, error)

	// Write writes one message to the connection.
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error

	// Close closes the connection with a status code and reason.
	Close(code websocket.StatusCode, reason string) error
}

// Dial connects to a debugger WebSocket endpoint and returns an active
// Connection. The caller supplies the endpoint URL; this package does no
// target discovery.
func Dial(ctx context.Context, wsURL string) (*Connection, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cdp: dial %s: %w", wsURL, err)
	}
	return NewConnection(conn), nil
}

// isGracefulClose reports whether err is a deliberate close by the peer
// (normal closure or going away) rather than a transport fault.
func isGracefulClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
