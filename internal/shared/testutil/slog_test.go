package testutil

import (
	"log/slog"
	"testing"
)

func TestCaptureHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger()

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		records := handler.Records()
		if len(records) != 2 {
			t.Errorf("Expected 2 records, got %d", len(records))
		}

		if !handler.ContainsMessage("test message") {
			t.Error("Expected to find 'test message'")
		}

		if !handler.ContainsAttr("key", "value") {
			t.Error("Expected to find attribute key=value")
		}
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger()

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		infoRecords := handler.RecordsByLevel(slog.LevelInfo)
		if len(infoRecords) != 1 {
			t.Errorf("Expected 1 info record, got %d", len(infoRecords))
		}

		errorRecords := handler.RecordsByLevel(slog.LevelError)
		if len(errorRecords) != 1 {
			t.Errorf("Expected 1 error record, got %d", len(errorRecords))
		}
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger()

		derived := logger.With(slog.String("component", "analytics"))
		derived.Info("derived message")
		logger.Info("root message")

		if handler.Count() != 2 {
			t.Errorf("Expected 2 records, got %d", handler.Count())
		}

		if !handler.ContainsAttr("component", "analytics") {
			t.Error("Expected derived logger attrs to be captured")
		}
	})

	t.Run("clear functionality", func(t *testing.T) {
		logger, handler := NewTestLogger()

		logger.Info("message 1")
		logger.Info("message 2")

		if handler.Count() != 2 {
			t.Errorf("Expected 2 records, got %d", handler.Count())
		}

		handler.Clear()

		if handler.Count() != 0 {
			t.Errorf("Expected 0 records after clear, got %d", handler.Count())
		}
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger()

		logger.Info("important message", slog.String("component", "test"))
		logger.Warn("warning message", slog.Int("retry", 3))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNoErrors(t, handler)

		logger.Error("something went wrong")

		errors := handler.RecordsByLevel(slog.LevelError)
		if len(errors) != 1 {
			t.Error("Expected to capture error log")
		}
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger()

		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func(n int) {
				logger.Info("concurrent log", slog.Int("goroutine", n))
				done <- true
			}(i)
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		if handler.Count() != 10 {
			t.Errorf("Expected 10 records from concurrent logging, got %d", handler.Count())
		}
	})
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	if logger == nil {
		t.Fatal("Expected non-nil logger")
	}
	logger.Info("dropped message")
	logger.Error("dropped error")
}
