package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// resetState clears cached loggers so each test starts from defaults.
func resetState(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig = Config{Level: "info", Format: "text"}
	output = &buf
	recent = nil
	mutex.Unlock()
	return &buf
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"supervisor": "debug",
			"ffmpeg":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"supervisor", true, true, true},
		{"ffmpeg", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerWritesModuleAttr(t *testing.T) {
	buf := resetState(t)

	GetLogger("supervisor").Info("child launched", "pid", 42)

	out := buf.String()
	if !strings.Contains(out, "module=supervisor") {
		t.Errorf("module attr missing: %s", out)
	}
	if !strings.Contains(out, "pid=42") {
		t.Errorf("pid attr missing: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	buf := resetState(t)

	Initialize(Config{Level: "info", Format: "json"})
	GetLogger("config").Info("loaded")

	if !strings.Contains(buf.String(), `"module":"config"`) {
		t.Errorf("expected json output, got %s", buf.String())
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	before := GetLogger("ffmpeg")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{
		Level:   "info",
		Modules: map[string]string{"ffmpeg": "debug"},
	})

	// The level var is shared, so the early logger follows the new level too.
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("early logger should pick up the module level after Initialize")
	}
	if !GetLogger("ffmpeg").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger fetched after Initialize should have debug enabled")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }

func TestMultiHandlerDeliversToAll(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	multi := NewMultiHandler(debugHandler, infoHandler)

	slog.New(multi).Debug("debug only message")
	if count := strings.Count(buf.String(), "debug only message"); count != 1 {
		t.Errorf("expected 1 debug line, got %d: %s", count, buf.String())
	}

	buf.Reset()
	failing := NewMultiHandler(failingHandler{debugHandler}, infoHandler)
	var r slog.Record
	r.Level = slog.LevelInfo
	r.Message = "still written"
	if err := failing.Handle(context.Background(), r); err == nil {
		t.Error("expected joined error from failing handler")
	}
	if !strings.Contains(buf.String(), "still written") {
		t.Error("second handler should still receive the record")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelError + 4},
		{"", slog.LevelError + 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input, slog.LevelError+4); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeepRecent(t *testing.T) {
	resetState(t)
	t.Cleanup(func() { resetState(t) })

	ring := KeepRecent(2)
	logger := GetLogger("supervisor")
	logger.Debug("below level")
	logger.Info("first")
	logger.With("child", "a/k1").Warn("second", "exit_code", 1)
	logger.WithGroup("proc").Error("third", "pid", 7)

	entries := ring.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "second" || entries[1].Message != "third" {
		t.Errorf("unexpected order: %q, %q", entries[0].Message, entries[1].Message)
	}
	if entries[0].Module != "supervisor" || entries[0].Level != "warn" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[0].Attributes["child"] != "a/k1" {
		t.Errorf("child attr missing: %v", entries[0].Attributes)
	}
	if _, ok := entries[1].Attributes["proc.pid"]; !ok {
		t.Errorf("grouped attr missing: %v", entries[1].Attributes)
	}
}
