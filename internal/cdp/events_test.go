package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func queueEvent(m *mockConn, method, sessionID, params string) {
	evt, _ := json.Marshal(Event{Method: method, SessionID: sessionID, Params: json.RawMessage(params)})
	m.queue(evt)
}

func TestEvents_FiltersBySessionAndMethod(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)
	defer c.Close()

	es := c.Session("S1").Events("Page.loadEventFired")
	defer es.Close()

	// Wrong session, wrong method, then the match.
	queueEvent(conn, "Page.loadEventFired", "S2", `{"timestamp":1}`)
	queueEvent(conn, "Page.frameNavigated", "S1", `{}`)
	queueEvent(conn, "Page.loadEventFired", "S1", `{"timestamp":2}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	evt, err := es.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.SessionID != "S1" {
		t.Errorf("expected sessionId S1, got %q", evt.SessionID)
	}
	if string(evt.Params) != `{"timestamp":2}` {
		t.Errorf("received the wrong event: %s", evt.Params)
	}
}

func TestEvents_OtherSessionReceivesNothing(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)
	defer c.Close()

	es := c.Session("S1").Events("Page.loadEventFired")
	defer es.Close()

	queueEvent(conn, "Page.loadEventFired", "S2", `{"timestamp":1}`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := es.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected no delivery for a foreign session, got %v", err)
	}
}

func TestEvents_ConcurrentSubscribersEachReceive(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)
	defer c.Close()

	s := c.Session("S1")
	es1 := s.Events("Network.requestWillBeSent")
	es2 := s.Events("Network.requestWillBeSent")
	defer es1.Close()
	defer es2.Close()

	queueEvent(conn, "Network.requestWillBeSent", "S1", `{"requestId":"R1"}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i, es := range []*EventStream{es1, es2} {
		evt, err := es.Next(ctx)
		if err != nil {
			t.Fatalf("subscriber %d did not receive the event: %v", i, err)
		}
		if string(evt.Params) != `{"requestId":"R1"}` {
			t.Errorf("subscriber %d: unexpected params %s", i, evt.Params)
		}
	}
}

func TestEvents_LateSubscriberMissesEarlierEvents(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)
	defer c.Close()

	s := c.Session("S1")

	// Observe the first event with an early stream so we know it has been
	// broadcast before the late stream subscribes.
	early := s.Events("Page.loadEventFired")
	queueEvent(conn, "Page.loadEventFired", "S1", `{"n":1}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := early.Next(ctx); err != nil {
		t.Fatalf("early subscriber: %v", err)
	}
	early.Close()

	late := s.Events("Page.loadEventFired")
	defer late.Close()
	queueEvent(conn, "Page.loadEventFired", "S1", `{"n":2}`)

	evt, err := late.Next(ctx)
	if err != nil {
		t.Fatalf("late subscriber: %v", err)
	}
	if string(evt.Params) != `{"n":2}` {
		t.Errorf("late subscriber must only see events from its join point, got %s", evt.Params)
	}
}

func TestEvents_EndWhenConnectionCloses(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)

	es := c.Session("S1").Events("Page.loadEventFired")
	defer es.Close()

	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := es.Next(ctx); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("expected stream to end with ErrConnectionClosed, got %v", err)
	}
}

func TestDecodeEvents_DecodesRegisteredNames(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)
	defer c.Close()

	type loadFired struct {
		Timestamp float64 `json:"timestamp"`
	}

	es := c.Session("S1").DecodeEvents(map[string]EventDecoder{
		"Page.loadEventFired": func(params json.RawMessage) (any, error) {
			var p loadFired
			err := json.Unmarshal(params, &p)
			return p, err
		},
		"Page.frameNavigated": RawDecoder,
	})
	defer es.Close()

	// Unregistered names are skipped, not errors.
	queueEvent(conn, "Runtime.consoleAPICalled", "S1", `{}`)
	queueEvent(conn, "Page.loadEventFired", "S1", `{"timestamp":99.5}`)
	queueEvent(conn, "Page.frameNavigated", "S1", `{"frame":{"id":"F1"}}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	evt, err := es.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Method != "Page.loadEventFired" {
		t.Fatalf("expected Page.loadEventFired first, got %s", evt.Method)
	}
	if got := evt.Value.(loadFired); got.Timestamp != 99.5 {
		t.Errorf("expected decoded timestamp 99.5, got %v", got.Timestamp)
	}

	evt, err = es.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Method != "Page.frameNavigated" {
		t.Fatalf("expected Page.frameNavigated, got %s", evt.Method)
	}
	if _, ok := evt.Value.(json.RawMessage); !ok {
		t.Errorf("expected raw payload, got %T", evt.Value)
	}
}

func TestDecodeEvents_DecoderFailureSurfaces(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	c := NewConnection(conn)
	defer c.Close()

	es := c.Session("").DecodeEvents(map[string]EventDecoder{
		"Page.loadEventFired": func(params json.RawMessage) (any, error) {
			var p struct {
				Timestamp float64 `json:"timestamp"`
			}
			err := json.Unmarshal(params, &p)
			return p, err
		},
	})
	defer es.Close()

	queueEvent(conn, "Page.loadEventFired", "", `{"timestamp":"not a number"}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := es.Next(ctx); err == nil {
		t.Error("expected decode failure to surface")
	}
}
