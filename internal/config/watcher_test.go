package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

type watchedStreams struct {
	Keys []string `yaml:"keys"`
}

func loadWatchedStreams(path string) (watchedStreams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watchedStreams{}, err
	}
	var cfg watchedStreams
	err = yaml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startWatcher writes initial content to a fresh file and starts a watcher
// on it with a short debounce.
func startWatcher(t *testing.T, initial string, opts ...WatcherOption[watchedStreams]) (*Watcher[watchedStreams], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streams.yaml")
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[watchedStreams]{WithDebounce[watchedStreams](50 * time.Millisecond)}, opts...)
	w := NewWatcher(path, loadWatchedStreams, newTestLogger(), opts...)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	return w, path
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	received := make(chan watchedStreams, 1)
	w, path := startWatcher(t, "keys: [a]\n")
	w.OnReload(func(cfg watchedStreams) { received <- cfg })

	if err := os.WriteFile(path, []byte("keys: [a, b]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if len(cfg.Keys) != 2 || cfg.Keys[1] != "b" {
			t.Errorf("got %+v, want keys [a b]", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcherReloadsOnReplace(t *testing.T) {
	received := make(chan watchedStreams, 1)
	w, path := startWatcher(t, "keys: [a]\n")
	w.OnReload(func(cfg watchedStreams) { received <- cfg })

	// Editors often save by writing a sibling file and renaming it over.
	tmp := path + ".swp"
	if err := os.WriteFile(tmp, []byte("keys: [x, y, z]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if len(cfg.Keys) != 3 {
			t.Errorf("got %+v, want 3 keys", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload after rename")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	var count atomic.Int32
	w, path := startWatcher(t, "keys: [a]\n")
	w.OnReload(func(watchedStreams) { count.Add(1) })

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(other, []byte("keys: [b]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no reload for unrelated file, got %d", got)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	var count1, count2 atomic.Int32
	w, path := startWatcher(t, "keys: [a]\n")
	w.OnReload(func(watchedStreams) { count1.Add(1) })
	unsub := w.OnReload(func(watchedStreams) { count2.Add(1) })

	if err := os.WriteFile(path, []byte("keys: [b]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	unsub()

	if err := os.WriteFile(path, []byte("keys: [c]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count1.Load(); got != 2 {
		t.Errorf("handler1: expected 2 calls, got %d", got)
	}
	if got := count2.Load(); got != 1 {
		t.Errorf("handler2: expected 1 call, got %d", got)
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	configs := make(chan watchedStreams, 1)
	w, path := startWatcher(t, "keys: [a]\n", WithErrorHandler[watchedStreams](func(err error) { errs <- err }))
	w.OnReload(func(cfg watchedStreams) { configs <- cfg })

	if err := os.WriteFile(path, []byte("keys: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-configs:
		t.Fatal("handler should not be called for an invalid file")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestWatcherDebounce(t *testing.T) {
	var count atomic.Int32
	var last atomic.Int32
	w, path := startWatcher(t, "keys: []\n", WithDebounce[watchedStreams](200*time.Millisecond))
	w.OnReload(func(cfg watchedStreams) {
		count.Add(1)
		last.Store(int32(len(cfg.Keys)))
	})

	keys := "keys: [k0"
	for i := 1; i <= 5; i++ {
		keys += fmt.Sprintf(", k%d", i)
		if err := os.WriteFile(path, []byte(keys+"]\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced call, got %d", got)
	}
	if got := last.Load(); got != 6 {
		t.Errorf("expected final config with 6 keys, got %d", got)
	}
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.yaml")
	if err := os.WriteFile(path, []byte("keys: [a]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var count atomic.Int32
	w := NewWatcher(path, loadWatchedStreams, newTestLogger(), WithDebounce[watchedStreams](20*time.Millisecond))
	w.OnReload(func(watchedStreams) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("keys: [b]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 calls after cancel, got %d", got)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop after cancel failed: %v", err)
	}
}
