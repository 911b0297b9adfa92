package cdp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
)

// Connection owns one physical debugger connection. A single read loop
// decodes every inbound message into a Frame and broadcasts it; sends are
// serialized so concurrent writers never interleave; Close tears everything
// down exactly once.
type Connection struct {
	conn    Conn
	writeMu sync.Mutex

	hub *frameHub

	closed   atomic.Bool
	closedCh chan struct{}
	closeErr error
	closeMu  sync.Mutex

	// done signals that the read loop has exited
	done chan struct{}
}

// NewConnection wraps an established transport and starts the read loop.
func NewConnection(conn Conn) *Connection {
	c := &Connection{
		conn:     conn,
		hub:      newFrameHub(),
		closedCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Send writes one encoded request to the transport. Concurrent senders are
// serialized so frames never interleave. Fails immediately once the
// connection is closed.
func (c *Connection) Send(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Subscribe returns a live view of the inbound frame stream, observing
// frames decoded from this moment on. Every subscriber independently sees
// every frame; no frame is consumed by one subscriber and hidden from
// another.
func (c *Connection) Subscribe() *Subscription {
	return c.hub.subscribe()
}

// Session returns a command/event scope over this connection. sessionID may
// be empty for the root, browser-level scope.
func (c *Connection) Session(sessionID string) *Session {
	return &Session{conn: c, id: sessionID}
}

// Done is closed when the connection shuts down for any reason.
func (c *Connection) Done() <-chan struct{} { return c.closedCh }

// Err reports why the connection shut down. It is nil while the connection
// is open, and stays nil after Close or a clean close by the peer.
func (c *Connection) Err() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closeErr
}

// Close shuts the connection down: the read loop stops, every subscription
// ends, and pending calls fail. Safe to call more than once.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.closedCh)

	err := c.conn.Close(websocket.StatusNormalClosure, "connection closing")

	// Wait for the read loop to exit so no frames are decoded after Close
	// returns.
	<-c.done
	return err
}

// readLoop is the single decode point: it reads frames until the transport
// fails or a message defies decoding, broadcasting each decoded frame.
func (c *Connection) readLoop() {
	defer close(c.done)
	defer c.hub.close()

	ctx := context.Background()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			// Reads fail when Close tears the socket down and when the
			// peer closes cleanly; neither is a connection fault.
			if c.closed.Load() || isGracefulClose(err) {
				c.shutdown(nil)
			} else {
				c.shutdown(fmt.Errorf("cdp: read: %w", err))
			}
			return
		}

		frame, err := parseFrame(data)
		if err != nil {
			c.shutdown(err)
			return
		}

		c.hub.publish(frame)
	}
}

// shutdown records why the read loop stopped and releases every waiter.
func (c *Connection) shutdown(err error) {
	c.closeMu.Lock()
	if c.closeErr == nil {
		c.closeErr = err
	}
	c.closeMu.Unlock()

	if !c.closed.Swap(true) {
		close(c.closedCh)
		c.conn.Close(websocket.StatusProtocolError, "shutting down")
	}
}
