package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestModuleLevelOverride(t *testing.T) {
	// Reset state
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	mutex.Unlock()

	// Initialize with global info level, but ec module at debug
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"ec":    "debug",
			"input": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"ec", true, true, true},
		{"input", false, false, true},
		{"activity", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)
			handler := logger.Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var bufA, bufB bytes.Buffer

	debugHandler := slog.NewTextHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnHandler := slog.NewTextHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelWarn})

	multi := NewMultiHandler(debugHandler, warnHandler)
	logger := slog.New(multi).With("module", "test")

	logger.Debug("debug only message")
	logger.Warn("warn message")

	if !strings.Contains(bufA.String(), "debug only message") {
		t.Error("debug handler did not receive debug record")
	}
	if strings.Contains(bufB.String(), "debug only message") {
		t.Error("warn handler received debug record")
	}
	if !strings.Contains(bufB.String(), "warn message") {
		t.Error("warn handler did not receive warn record")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(handler).With("module", "ec")

	logger.Debug("test debug message", "register", 0x93)

	output := buf.String()
	if !strings.Contains(output, "test debug message") {
		t.Errorf("Debug message not written. Output: %s", output)
	}
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("Debug level not in output. Output: %s", output)
	}
}
