package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const testDebounce = 150 * time.Millisecond

func waitForEvent(t *testing.T, w *Watcher, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var calls [][]string
	w, err := New(dir, testDebounce, func(paths []string) {
		mu.Lock()
		calls = append(calls, paths)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "usage-2024-01-01.jsonl")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"model":"a"}`+"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	ev, ok := waitForEvent(t, w, 3*time.Second)
	if !ok {
		t.Fatal("timed out waiting for change event")
	}
	if ev.Type != EventChanged {
		t.Fatalf("event type = %v, want EventChanged", ev.Type)
	}
	if len(ev.Paths) != 1 || filepath.Base(ev.Paths[0]) != "usage-2024-01-01.jsonl" {
		t.Errorf("paths = %v", ev.Paths)
	}

	// Give a second flush a chance to happen if debouncing were broken.
	time.Sleep(2 * testDebounce)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Errorf("onChange called %d times, want 1", len(calls))
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testDebounce, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "report.html"), []byte("<html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if ev, ok := waitForEvent(t, w, 4*testDebounce); ok {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), testDebounce, nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatcher_DefaultDebounce(t *testing.T) {
	w, err := New(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := New(t.TempDir(), testDebounce, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
