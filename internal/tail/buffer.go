// Package tail buffers captured debugger events for later display.
package tail

import (
	"encoding/json"
	"sync"
	"time"
)

// Entry is one captured event.
type Entry struct {
	Time      time.Time       `json:"time"`
	Method    string          `json:"method"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Buffer is a thread-safe ring of captured events with fixed capacity.
// When the buffer is full, new entries overwrite the oldest.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	head    int // next write position
	count   int
	cap     int
}

// New creates a buffer with the given capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		entries: make([]Entry, capacity),
		cap:     capacity,
	}
}

// Push adds an entry, overwriting the oldest when full.
func (b *Buffer) Push(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = e
	b.head = (b.head + 1) % b.cap
	if b.count < b.cap {
		b.count++
	}
}

// All returns the buffered entries, oldest first.
func (b *Buffer) All() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot()
}

// Since returns the buffered entries captured at or after t, oldest first.
func (b *Buffer) Since(t time.Time) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Entry
	for _, e := range b.snapshot() {
		if !e.Time.Before(t) {
			result = append(result, e)
		}
	}
	return result
}

// snapshot copies the entries oldest first. Callers hold b.mu.
func (b *Buffer) snapshot() []Entry {
	if b.count == 0 {
		return nil
	}

	start := 0
	if b.count == b.cap {
		start = b.head // head points to the oldest when full
	}

	result := make([]Entry, b.count)
	for i := 0; i < b.count; i++ {
		result[i] = b.entries[(start+i)%b.cap]
	}
	return result
}

// Len returns the current number of entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.cap
}

// Clear removes all entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		b.entries[i] = Entry{}
	}
	b.head = 0
	b.count = 0
}
