package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"jarvis/internal/logging"
)

const testDebounce = 50 * time.Millisecond

func waitFor(t *testing.T, counter *int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(counter) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected at least %d reloads, got %d", want, atomic.LoadInt32(counter))
}

func TestWatchDir_ReloadsOnNestedChange(t *testing.T) {
	dir := t.TempDir()
	skillDir := filepath.Join(dir, "volume")
	if err := os.Mkdir(skillDir, 0755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(testDebounce, logging.Discard())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads int32
	if err := w.WatchDir("skills", dir, func() { atomic.AddInt32(&reloads, 1) }); err != nil {
		t.Fatalf("WatchDir failed: %v", err)
	}
	w.Start(ctx)

	if err := os.WriteFile(filepath.Join(skillDir, "skill.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, &reloads, 1)
}

func TestWatchDir_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(200*time.Millisecond, logging.Discard())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads int32
	if err := w.WatchDir("skills", dir, func() { atomic.AddInt32(&reloads, 1) }); err != nil {
		t.Fatalf("WatchDir failed: %v", err)
	}
	w.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, &reloads, 1)
	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt32(&reloads); got != 1 {
		t.Errorf("Expected a single debounced reload, got %d", got)
	}
}

func TestWatchFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	prompt := filepath.Join(dir, "classifier.yaml")
	if err := os.WriteFile(prompt, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(testDebounce, logging.Discard())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads int32
	if err := w.WatchFile("prompt", prompt, func() { atomic.AddInt32(&reloads, 1) }); err != nil {
		t.Fatalf("WatchFile failed: %v", err)
	}
	w.Start(ctx)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if atomic.LoadInt32(&reloads) != 0 {
		t.Fatal("Sibling change should not trigger reload")
	}

	if err := os.WriteFile(prompt, []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, &reloads, 1)
}

func TestWatchDir_RejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(0, logging.Discard())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.WatchDir("x", f, func() {}); err == nil {
		t.Error("Expected error watching a regular file as a directory")
	}
	if err := w.WatchDir("x", "/nonexistent/dir", func() {}); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestCloseStopsPendingReload(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(200*time.Millisecond, logging.Discard())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	var reloads int32
	if err := w.WatchDir("skills", dir, func() { atomic.AddInt32(&reloads, 1) }); err != nil {
		t.Fatal(err)
	}
	w.Start(context.Background())

	if err := os.WriteFile(filepath.Join(dir, "f"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	time.Sleep(400 * time.Millisecond)
	if atomic.LoadInt32(&reloads) != 0 {
		t.Error("Reload fired after Close")
	}
}
