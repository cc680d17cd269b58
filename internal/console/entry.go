package console

import (
	"strings"
	"time"
)

// LogLevel classifies the severity of a console line
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelDebug LogLevel = "debug"
)

// LogEntry represents a single classified line of process output.
// Entries are immutable once created.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}

var errorKeywords = []string{
	"error",
	"exception",
	"fatal",
	"severe",
	"critical",
	"panic",
	"stack trace",
	"traceback",
}

// ClassifyLevel determines the severity of a raw output line by scanning for
// level markers. Lines without a recognizable marker default to info.
func ClassifyLevel(line string) LogLevel {
	lowerLine := strings.ToLower(line)

	for _, keyword := range errorKeywords {
		if strings.Contains(lowerLine, keyword) {
			return LevelError
		}
	}

	if strings.Contains(lowerLine, "warn") {
		return LevelWarn
	}

	if strings.Contains(lowerLine, "debug") || strings.Contains(lowerLine, "trace") {
		return LevelDebug
	}

	return LevelInfo
}

// NewEntry classifies a line and stamps it with the local time.
func NewEntry(line, source string) LogEntry {
	return LogEntry{
		Timestamp: time.Now(),
		Level:     ClassifyLevel(line),
		Message:   line,
		Source:    source,
	}
}
