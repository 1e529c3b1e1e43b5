package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForChange(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("change callback never fired")
	}
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")

	changed := make(chan struct{}, 4)
	w := New(path, func() { changed <- struct{}{} })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{"access":"A1","refresh":"R1"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changed)
}

func TestWatcherFiresOnRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	if err := os.WriteFile(path, []byte(`{"access":"A1"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 4)
	w := New(path, func() { changed <- struct{}{} })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changed)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")

	changed := make(chan struct{}, 4)
	w := New(path, func() { changed <- struct{}{} })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Error("callback fired for an unrelated file")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := New(filepath.Join(dir, "tokens.json"), func() {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()

	// Restart after stop works.
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop error: %v", err)
	}
	w.Stop()
}
