package cdp

import (
	"context"
	"time"
)

// WaitEvent blocks until the next event named method arrives on this
// session. It has no timeout of its own; bound it with ctx or it may wait
// forever.
func (s *Session) WaitEvent(ctx context.Context, method string) (*Event, error) {
	es := s.Events(method)
	defer es.Close()
	return es.Next(ctx)
}

// Poll calls probe immediately and then every interval until it reports
// done or fails. Like WaitEvent, Poll runs unbounded; the caller limits it
// through ctx.
func Poll(ctx context.Context, interval time.Duration, probe func(ctx context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := probe(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
