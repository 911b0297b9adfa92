package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Session scopes commands and events to one debugger target. The empty
// session id is the root, browser-level scope.
//
// Any number of Sessions can share one Connection. Each allocates its own
// request ids starting at 1, so two sessions routinely use the same numbers;
// replies are matched by the (id, sessionId) pair, never by id alone.
type Session struct {
	conn   *Connection
	id     string
	nextID atomic.Int64
}

// ID returns the session identifier, empty for the root scope.
func (s *Session) ID() string { return s.id }

// Conn returns the underlying shared connection.
func (s *Session) Conn() *Connection { return s.conn }

// nextRequestID allocates the next request id for this session. Ids are
// strictly increasing and never reused for the lifetime of the Session.
func (s *Session) nextRequestID() int64 { return s.nextID.Add(1) }

// Call sends one command and waits for its reply. Replies are matched
// strictly by (id, sessionId), so concurrent calls on this or any other
// session resolve independently of arrival order.
//
// Call applies no timeout of its own; bound it with ctx. When ctx ends
// first, the returned error is ctx.Err(), never a transport error. A write
// failure surfaces as *NotSentError, a remote rejection as *CommandError,
// and a connection lost while waiting as an error wrapping
// ErrConnectionClosed.
func (s *Session) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := Request{
		ID:        s.nextRequestID(),
		Method:    method,
		Params:    params,
		SessionID: s.id,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, &NotSentError{Method: req.Method, ID: req.ID, SessionID: req.SessionID, Cause: err}
	}

	// Subscribe before sending so a reply decoded immediately after the
	// write cannot slip past.
	sub := s.conn.Subscribe()
	defer sub.Unsubscribe()

	if err := s.conn.Send(ctx, data); err != nil {
		return nil, &NotSentError{Method: req.Method, ID: req.ID, SessionID: req.SessionID, Cause: err}
	}

	for {
		frame, err := sub.Next(ctx)
		if err != nil {
			// Caller cancellation wins over transport failure when both
			// hold, so a cancelled caller is never told the transport died.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if cause := s.conn.Err(); cause != nil {
				return nil, fmt.Errorf("cdp: %s (id %d): %w: %v", req.Method, req.ID, err, cause)
			}
			return nil, fmt.Errorf("cdp: %s (id %d): %w", req.Method, req.ID, err)
		}

		resp, ok := frame.(*Response)
		if !ok || resp.ID != req.ID || resp.SessionID != req.SessionID {
			continue
		}

		if resp.Error != nil {
			return nil, &CommandError{Method: req.Method, ID: req.ID, SessionID: req.SessionID, Remote: resp.Error}
		}
		return resp.Result, nil
	}
}

// CallInto sends one command and unmarshals its result into out. A nil out
// discards the result.
func (s *Session) CallInto(ctx context.Context, method string, params, out any) error {
	result, err := s.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || len(result) == 0 {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("cdp: decode %s result: %w", method, err)
	}
	return nil
}

// Close closes the underlying Connection. This is connection-wide: every
// other Session sharing the transport loses it too, their pending calls fail
// and their event streams end.
func (s *Session) Close() error {
	return s.conn.Close()
}
