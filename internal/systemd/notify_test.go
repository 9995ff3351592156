package systemd

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func recordingNotifier(sent *[]string, err error) *Notifier {
	return &Notifier{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify: func(state string) (bool, error) {
			*sent = append(*sent, state)
			return err == nil, err
		},
	}
}

func TestNotifierMessages(t *testing.T) {
	var sent []string
	n := recordingNotifier(&sent, nil)

	n.Ready(3, 1)
	n.Status("sweeping %d children", 2)
	n.Reloading()
	n.Stopping()

	want := []string{
		"READY=1\nSTATUS=3 children running, 1 failed to launch",
		"STATUS=sweeping 2 children",
		"RELOADING=1",
		"STOPPING=1",
	}
	if len(sent) != len(want) {
		t.Fatalf("sent %d messages, want %d: %q", len(sent), len(want), sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, sent[i], want[i])
		}
	}
}

func TestNotifierErrorsAreLogged(t *testing.T) {
	var sent []string
	n := recordingNotifier(&sent, errors.New("socket closed"))

	var logs strings.Builder
	n.logger = slog.New(slog.NewTextHandler(&logs, nil))
	n.Stopping()

	if !strings.Contains(logs.String(), "socket closed") {
		t.Errorf("expected error to be logged, got %q", logs.String())
	}
}

func TestWatchdogDisabledReturns(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	t.Setenv("WATCHDOG_PID", "")

	var sent []string
	n := recordingNotifier(&sent, nil)
	n.Watchdog(t.Context())

	if len(sent) != 0 {
		t.Errorf("unexpected watchdog pings: %q", sent)
	}
}
