package cdp

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventStream is a live sequence of events for one session and one event
// name. It never ends on its own while the connection is open; the consumer
// stops it with Close, or it ends when the connection shuts down.
type EventStream struct {
	sub       *Subscription
	sessionID string
	method    string
}

// Events returns a stream of every event named method delivered to this
// session, starting now. Events broadcast before the call are never
// replayed. Concurrent streams over the same name each independently
// receive every matching event.
func (s *Session) Events(method string) *EventStream {
	return &EventStream{
		sub:       s.conn.Subscribe(),
		sessionID: s.id,
		method:    method,
	}
}

// Next blocks until the next matching event arrives, the stream is closed,
// the connection shuts down, or ctx is done.
func (es *EventStream) Next(ctx context.Context) (*Event, error) {
	for {
		frame, err := es.sub.Next(ctx)
		if err != nil {
			return nil, err
		}
		evt, ok := frame.(*Event)
		if !ok || evt.SessionID != es.sessionID || evt.Method != es.method {
			continue
		}
		return evt, nil
	}
}

// Close detaches the stream. Other streams are unaffected. Safe to call
// more than once.
func (es *EventStream) Close() { es.sub.Unsubscribe() }

// EventDecoder turns one event payload into its typed value.
type EventDecoder func(params json.RawMessage) (any, error)

// RawDecoder passes an event payload through undecoded.
func RawDecoder(params json.RawMessage) (any, error) { return params, nil }

// DecodedEvent is one decoded event from a multi-name stream.
type DecodedEvent struct {
	Method    string
	SessionID string
	Value     any
}

// DecodedEventStream is a live sequence over several event names at once,
// decoding each payload with the decoder registered for its name.
type DecodedEventStream struct {
	sub       *Subscription
	sessionID string
	decoders  map[string]EventDecoder
}

// DecodeEvents returns a stream over every event name in decoders, scoped
// to this session. Events whose name is not registered are skipped: they
// are simply not of interest to this stream, not an error.
func (s *Session) DecodeEvents(decoders map[string]EventDecoder) *DecodedEventStream {
	return &DecodedEventStream{
		sub:       s.conn.Subscribe(),
		sessionID: s.id,
		decoders:  decoders,
	}
}

// Next blocks until the next registered event arrives and decodes it.
func (es *DecodedEventStream) Next(ctx context.Context) (*DecodedEvent, error) {
	for {
		frame, err := es.sub.Next(ctx)
		if err != nil {
			return nil, err
		}
		evt, ok := frame.(*Event)
		if !ok || evt.SessionID != es.sessionID {
			continue
		}
		decode, ok := es.decoders[evt.Method]
		if !ok {
			continue
		}
		value, err := decode(evt.Params)
		if err != nil {
			return nil, fmt.Errorf("cdp: decode %s event: %w", evt.Method, err)
		}
		return &DecodedEvent{Method: evt.Method, SessionID: evt.SessionID, Value: value}, nil
	}
}

// Close detaches the stream. Safe to call more than once.
func (es *DecodedEventStream) Close() { es.sub.Unsubscribe() }
