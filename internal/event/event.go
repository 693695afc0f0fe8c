package event

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level classifies a log entry
type Level string

const (
	LevelDebug   Level = "DEBUG"
	LevelInfo    Level = "INFO"
	LevelWarn    Level = "WARN"
	LevelError   Level = "ERROR"
	LevelSuccess Level = "SUCCESS"
)

// Entry is one structured log event emitted by a pipeline
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Sink receives log entries and progress updates from a running pipeline.
// Entries arrive in completion order, not submission order.
type Sink interface {
	Log(entry Entry)
	Progress(pct int)
}

// Logf formats and sends a log entry to the sink
func Logf(sink Sink, level Level, format string, args ...any) {
	if sink == nil {
		return
	}
	sink.Log(Entry{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// WriterSink writes entries as plain text lines, one per entry
type WriterSink struct {
	mu           sync.Mutex
	w            io.Writer
	showProgress bool
	lastPct      int
}

// NewWriterSink creates a sink that writes formatted entries to w
func NewWriterSink(w io.Writer, showProgress bool) *WriterSink {
	return &WriterSink{w: w, showProgress: showProgress, lastPct: -1}
}

func (s *WriterSink) Log(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s - [%s] %s\n", entry.Time.Format("15:04:05.000"), entry.Level, entry.Message)
}

func (s *WriterSink) Progress(pct int) {
	if !s.showProgress {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pct == s.lastPct {
		return
	}
	s.lastPct = pct
	fmt.Fprintf(s.w, "Progress: %d%%\n", pct)
}

// NopSink discards everything
type NopSink struct{}

func (NopSink) Log(Entry) {}

func (NopSink) Progress(int) {}
