package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchEmitsOnStoreWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.db")

	w, err := WatchWithDebounce(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatalf("write store file: %v", err)
	}

	select {
	case evt := <-w.Events():
		if evt.Path != path {
			t.Errorf("event path = %q, want %q", evt.Path, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after store file write")
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.db")

	w, err := WatchWithDebounce(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600); err != nil {
		t.Fatalf("write unrelated file: %v", err)
	}

	select {
	case evt := <-w.Events():
		t.Fatalf("unexpected event for unrelated file: %+v", evt)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.db")

	w, err := WatchWithDebounce(path, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	// Burst of writes within the debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte(i)}, 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	// Let all events flow through, then count.
	time.Sleep(300 * time.Millisecond)

	count := 0
	for {
		select {
		case <-w.Events():
			count++
			continue
		default:
		}
		break
	}

	if count != 1 {
		t.Errorf("emitted %d events for a write burst, want 1", count)
	}
}

func TestWatchCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")
	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	_ = w.Close()
}
