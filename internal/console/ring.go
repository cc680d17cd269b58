package console

import "sync"

// RingBuffer implements a fixed-capacity circular buffer of log entries
// with oldest-entry eviction.
type RingBuffer struct {
	entries    []LogEntry
	maxEntries int
	current    int
	full       bool
	mu         sync.RWMutex
}

// NewRingBuffer creates a new ring buffer
func NewRingBuffer(maxEntries int) *RingBuffer {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &RingBuffer{
		entries:    make([]LogEntry, maxEntries),
		maxEntries: maxEntries,
		current:    0,
		full:       false,
	}
}

// Add adds an entry to the buffer
func (rb *RingBuffer) Add(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.current] = entry
	rb.current = (rb.current + 1) % rb.maxEntries

	if rb.current == 0 {
		rb.full = true
	}
}

// GetAll returns all entries in order (oldest to newest)
func (rb *RingBuffer) GetAll() []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		result := make([]LogEntry, rb.current)
		copy(result, rb.entries[:rb.current])
		return result
	}

	// Rebuild in correct order
	result := make([]LogEntry, rb.maxEntries)
	for i := 0; i < rb.maxEntries; i++ {
		result[i] = rb.entries[(rb.current+i)%rb.maxEntries]
	}
	return result
}

// GetLast returns the last N entries
func (rb *RingBuffer) GetLast(n int) []LogEntry {
	entries := rb.GetAll()
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// Len returns the number of buffered entries
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.full {
		return rb.maxEntries
	}
	return rb.current
}
