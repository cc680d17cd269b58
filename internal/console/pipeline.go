package console

import (
	"bufio"
	"io"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives each new log entry as it is published.
type Subscriber func(entry LogEntry)

// Match all ANSI/VT100 escape sequences including CSI, OSC, and other control sequences
var ansiEscapePattern = regexp.MustCompile(`\x1b(\[[0-9;?!]*[A-Za-z>hp]|\([B0]|[=>])`)

// Pipeline captures raw process output, classifies it into log entries,
// buffers them, and fans each entry out to registered subscribers.
// The pipeline is the single writer of its buffer; subscribers are owned
// by whoever registered them.
type Pipeline struct {
	serverID string
	buffer   *RingBuffer

	mu          sync.RWMutex
	subscribers map[string]Subscriber

	wg sync.WaitGroup
}

// NewPipeline creates a pipeline with a bounded buffer for one server.
func NewPipeline(serverID string, bufferSize int) *Pipeline {
	return &Pipeline{
		serverID:    serverID,
		buffer:      NewRingBuffer(bufferSize),
		subscribers: make(map[string]Subscriber),
	}
}

// Subscribe registers a callback and returns its subscription ID.
// Buffered history is replayed to the new subscriber before live entries.
func (p *Pipeline) Subscribe(fn Subscriber) string {
	// Replay under the lock so no live entry can interleave with history
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.buffer.GetAll() {
		p.deliver(fn, entry)
	}

	id := uuid.NewString()
	p.subscribers[id] = fn
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are a no-op.
func (p *Pipeline) Unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscribers, id)
}

// SubscriberCount returns the number of registered subscribers.
func (p *Pipeline) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// Publish classifies one raw line, buffers it, and notifies subscribers.
func (p *Pipeline) Publish(line, source string) {
	clean := sanitizeLine(line)
	if clean == "" {
		return
	}

	entry := NewEntry(clean, source)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer.Add(entry)
	for _, fn := range p.subscribers {
		p.deliver(fn, entry)
	}
}

// deliver invokes one subscriber with panic isolation so a bad subscriber
// cannot break delivery to the rest.
func (p *Pipeline) deliver(fn Subscriber, entry LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Console] Subscriber panicked for server %s: %v", p.serverID, r)
		}
	}()
	fn(entry)
}

// Attach consumes a process output stream line by line until EOF.
// It is called once per stdout/stderr pipe.
func (p *Pipeline) Attach(r io.Reader, source string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			p.Publish(scanner.Text(), source)
		}
		if err := scanner.Err(); err != nil {
			log.Printf("[Console] Output stream %s for server %s closed with error: %v", source, p.serverID, err)
		}
	}()
}

// Wait blocks until all attached streams have drained. Used on shutdown so
// the final lines of a stopping process still reach the buffer.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// GetLast returns the most recent n buffered entries, oldest first.
func (p *Pipeline) GetLast(n int) []LogEntry {
	if n <= 0 {
		n = 100
	}
	return p.buffer.GetLast(n)
}

// Len returns the number of buffered entries.
func (p *Pipeline) Len() int {
	return p.buffer.Len()
}

func sanitizeLine(line string) string {
	if line == "" {
		return ""
	}
	stripped := ansiEscapePattern.ReplaceAllString(line, "")
	stripped = strings.Map(func(r rune) rune {
		// Keep tabs, remove other control characters
		if r == '\t' {
			return r
		}
		if r == '\n' || r == '\r' {
			return -1
		}
		if r < 32 {
			return -1
		}
		return r
	}, stripped)
	return strings.TrimRight(stripped, " ")
}
