package devserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var calls int
	done := make(chan struct{}, 1)
	w := newWatcher(30*time.Millisecond, func(p string) {
		calls++
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if err := w.SetPaths([]string{path}); err != nil {
		t.Fatalf("SetPaths: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		os.WriteFile(path, []byte("2"), 0o644)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange never fired")
	}
	time.Sleep(100 * time.Millisecond)
	if calls != 1 {
		t.Fatalf("expected exactly 1 debounced onChange call, got %d", calls)
	}
}

func TestWatcherSetPathsReplacesPriorSet(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.js")
	os.WriteFile(a, []byte("1"), 0o644)
	os.WriteFile(b, []byte("1"), 0o644)

	changed := make(chan string, 4)
	w := newWatcher(10*time.Millisecond, func(p string) { changed <- p })
	if err := w.SetPaths([]string{a}); err != nil {
		t.Fatalf("SetPaths: %v", err)
	}
	if err := w.SetPaths([]string{b}); err != nil {
		t.Fatalf("SetPaths: %v", err)
	}
	defer w.Close()

	os.WriteFile(a, []byte("2"), 0o644) // no longer watched
	os.WriteFile(b, []byte("2"), 0o644) // now watched

	select {
	case p := <-changed:
		if p != b {
			t.Fatalf("expected change for %q, got %q", b, p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onChange never fired for the newly watched path")
	}
}
