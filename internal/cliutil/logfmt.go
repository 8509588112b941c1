package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/motionview/mvbridge/internal/supervisor"
)

// LogRecord represents a structured log event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"msg"`
}

// NewSupervisorRecord converts a supervisor event into a structured record.
func NewSupervisorRecord(event supervisor.Event) LogRecord {
	level := event.Level
	if level == "" {
		level = "info"
	}
	return LogRecord{
		Timestamp: event.Timestamp,
		Level:     level,
		Source:    "supervisor",
		Message:   event.Message,
	}
}

// LogWriter serializes structured records onto one output stream. Supervisor
// events arrive from several goroutines, so encoding takes a lock.
type LogWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	stderr io.Writer
}

// NewLogWriter constructs a writer that encodes records to out and reports
// encoding problems to stderr.
func NewLogWriter(out, stderr io.Writer) *LogWriter {
	return &LogWriter{enc: json.NewEncoder(out), stderr: stderr}
}

// Write encodes a single record.
func (w *LogWriter) Write(record LogRecord) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(&record); err != nil {
		fmt.Fprintf(w.stderr, "error: encode log: %v\n", err)
	}
}
