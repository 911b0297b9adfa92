package cdp

import (
	"context"
	"sync"
)

// frameHub fans decoded inbound frames out to any number of subscribers.
// Each subscriber owns an independent cursor starting at its subscribe time:
// every live subscriber sees every published frame, late joiners see nothing
// from before they joined, and a slow subscriber never delays publishing or
// any other subscriber.
type frameHub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func newFrameHub() *frameHub {
	return &frameHub{subs: make(map[*Subscription]struct{})}
}

// publish appends frame to every live subscriber queue. Never blocks.
func (h *frameHub) publish(frame Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		sub.push(frame)
	}
}

// subscribe registers a subscriber observing frames from this point on.
// After the hub has closed the returned subscription is already ended.
func (h *frameHub) subscribe() *Subscription {
	sub := &Subscription{
		hub:  h,
		wake: make(chan struct{}, 1),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.closed = true
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// close ends every subscription. Frames already queued remain readable;
// after they drain, Next reports ErrConnectionClosed.
func (h *frameHub) close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*Subscription]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
		sub.signal()
	}
}

func (h *frameHub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Subscription is one subscriber's live view of the inbound frame stream.
type Subscription struct {
	hub *frameHub

	mu     sync.Mutex
	queue  []Frame
	closed bool
	wake   chan struct{} // capacity 1, signaled on push and close
}

func (s *Subscription) push(frame Frame) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, frame)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Next returns the next frame, blocking until one is available, the
// subscription ends, or ctx is done. Once the connection closes, Next drains
// any frames already queued and then reports ErrConnectionClosed.
func (s *Subscription) Next(ctx context.Context) (Frame, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			frame := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return frame, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return nil, ErrConnectionClosed
		}

		select {
		case <-s.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Unsubscribe detaches this subscription from the stream. Other subscribers
// are unaffected. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)

	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	s.signal()
}
