package console

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestClassifyLevel(t *testing.T) {
	cases := []struct {
		line string
		want LogLevel
	}{
		{"[12:00:01] [Server thread/INFO]: Done (3.21s)! For help, type \"help\"", LevelInfo},
		{"[12:00:02] [Server thread/WARN]: Can't keep up!", LevelWarn},
		{"[12:00:03] [Server thread/ERROR]: Exception in tick loop", LevelError},
		{"java.lang.NullPointerException: null", LevelError},
		{"FATAL: unable to bind port", LevelError},
		{"[12:00:04] [Server thread/DEBUG]: chunk loaded", LevelDebug},
		{"plain startup banner", LevelInfo},
	}

	for _, tc := range cases {
		if got := ClassifyLevel(tc.line); got != tc.want {
			t.Errorf("ClassifyLevel(%q) = %s, want %s", tc.line, got, tc.want)
		}
	}
}

func TestRingBufferEviction(t *testing.T) {
	rb := NewRingBuffer(3)

	for _, msg := range []string{"one", "two", "three", "four"} {
		rb.Add(LogEntry{Timestamp: time.Now(), Level: LevelInfo, Message: msg})
	}

	entries := rb.GetAll()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "two" || entries[2].Message != "four" {
		t.Errorf("expected oldest entry evicted, got %q..%q", entries[0].Message, entries[2].Message)
	}

	last := rb.GetLast(2)
	if len(last) != 2 || last[0].Message != "three" {
		t.Errorf("GetLast(2) = %v", last)
	}
}

func TestPipelinePublishAndSubscribe(t *testing.T) {
	p := NewPipeline("srv-1", 10)

	var mu sync.Mutex
	var received []LogEntry
	id := p.Subscribe(func(entry LogEntry) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, entry)
	})

	p.Publish("INFO: hello", "stdout")
	p.Publish("ERROR: boom", "stderr")

	mu.Lock()
	if len(received) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(received))
	}
	if received[1].Level != LevelError || received[1].Source != "stderr" {
		t.Errorf("unexpected entry %+v", received[1])
	}
	mu.Unlock()

	p.Unsubscribe(id)
	p.Publish("INFO: after unsubscribe", "stdout")

	mu.Lock()
	if len(received) != 2 {
		t.Errorf("expected no delivery after unsubscribe, got %d", len(received))
	}
	mu.Unlock()

	if p.Len() != 3 {
		t.Errorf("expected 3 buffered entries, got %d", p.Len())
	}
}

func TestPipelineReplaysHistoryOnSubscribe(t *testing.T) {
	p := NewPipeline("srv-1", 10)

	p.Publish("line one", "stdout")
	p.Publish("line two", "stdout")

	var replayed []string
	p.Subscribe(func(entry LogEntry) {
		replayed = append(replayed, entry.Message)
	})

	if len(replayed) != 2 || replayed[0] != "line one" || replayed[1] != "line two" {
		t.Errorf("expected history replayed oldest first, got %v", replayed)
	}
}

func TestPipelineIsolatesPanickingSubscriber(t *testing.T) {
	p := NewPipeline("srv-1", 10)

	p.Subscribe(func(LogEntry) {
		panic("bad subscriber")
	})

	var got []LogEntry
	p.Subscribe(func(entry LogEntry) {
		got = append(got, entry)
	})

	p.Publish("still delivered", "stdout")

	if len(got) != 1 {
		t.Fatalf("expected delivery despite panicking subscriber, got %d", len(got))
	}
	if p.Len() != 1 {
		t.Errorf("expected entry buffered despite panic, got %d", p.Len())
	}
}

func TestPipelineAttachDrainsReader(t *testing.T) {
	p := NewPipeline("srv-1", 10)

	p.Attach(strings.NewReader("first\nsecond\nWARN: third\n"), "stdout")
	p.Wait()

	entries := p.GetLast(10)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[2].Level != LevelWarn {
		t.Errorf("expected warn classification, got %s", entries[2].Level)
	}
}

func TestSanitizeLineStripsANSI(t *testing.T) {
	line := "\x1b[32mINFO\x1b[0m ready\r"
	if got := sanitizeLine(line); got != "INFO ready" {
		t.Errorf("sanitizeLine = %q", got)
	}

	if got := sanitizeLine("\x1b[2J\x1b[H"); got != "" {
		t.Errorf("expected escape-only line to be empty, got %q", got)
	}
}
