package testutil

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// DiscardLogger returns a logger that drops every record, for tests that do
// not inspect log output
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogRecord represents a captured log record for testing
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// captureState is shared between a CaptureHandler and its WithAttrs copies
// so every derived logger records into the same buffer
type captureState struct {
	mu      sync.Mutex
	records []LogRecord
}

// CaptureHandler is a slog.Handler that records everything it handles so
// tests can assert on log output
type CaptureHandler struct {
	shared *captureState
	attrs  []slog.Attr
}

// NewCaptureHandler creates an empty capture handler
func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{shared: &captureState{}}
}

// NewTestLogger creates a logger together with the handler capturing its
// records
func NewTestLogger() (*slog.Logger, *CaptureHandler) {
	handler := NewCaptureHandler()
	return slog.New(handler), handler
}

// Handle implements slog.Handler
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	h.shared.records = append(h.shared.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler; tests capture all levels
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler; the copy records into the same buffer
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &CaptureHandler{shared: h.shared, attrs: merged}
}

// WithGroup implements slog.Handler; groups are flattened in captures
func (h *CaptureHandler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of all captured log records
func (h *CaptureHandler) Records() []LogRecord {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()

	records := make([]LogRecord, len(h.shared.records))
	copy(records, h.shared.records)
	return records
}

// RecordsByLevel returns captured records filtered by level
func (h *CaptureHandler) RecordsByLevel(level slog.Level) []LogRecord {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()

	var filtered []LogRecord
	for _, r := range h.shared.records {
		if r.Level == level {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ContainsMessage checks if any captured record contains the given message
func (h *CaptureHandler) ContainsMessage(message string) bool {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()

	for _, r := range h.shared.records {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// ContainsAttr checks if any captured record carries the given attribute
func (h *CaptureHandler) ContainsAttr(key string, value any) bool {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()

	for _, r := range h.shared.records {
		if val, ok := r.Attrs[key]; ok && val == value {
			return true
		}
	}
	return false
}

// Count returns the number of captured records
func (h *CaptureHandler) Count() int {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	return len(h.shared.records)
}

// Clear removes all captured records
func (h *CaptureHandler) Clear() {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	h.shared.records = h.shared.records[:0]
}

// AssertLogContains checks that a record at the given level contains the
// given message
func AssertLogContains(t *testing.T, handler *CaptureHandler, level slog.Level, message string) {
	t.Helper()

	records := handler.RecordsByLevel(level)
	for _, r := range records {
		if strings.Contains(r.Message, message) {
			return
		}
	}

	t.Errorf("Expected log message not found at level %s: %q", level, message)
	for _, r := range records {
		t.Logf("  captured: %s", r.Message)
	}
}

// AssertLogAttr checks that some record carries the given attribute
func AssertLogAttr(t *testing.T, handler *CaptureHandler, key string, expectedValue any) {
	t.Helper()

	if !handler.ContainsAttr(key, expectedValue) {
		t.Errorf("Expected log attribute not found: %s=%v", key, expectedValue)
		for _, r := range handler.Records() {
			t.Logf("  captured: %s: %v", r.Message, r.Attrs)
		}
	}
}

// AssertNoErrors checks that no error-level records were captured
func AssertNoErrors(t *testing.T, handler *CaptureHandler) {
	t.Helper()

	errors := handler.RecordsByLevel(slog.LevelError)
	for _, r := range errors {
		t.Errorf("Unexpected error log: %s: %v", r.Message, r.Attrs)
	}
}
