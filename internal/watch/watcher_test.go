package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_RequiresAbsolutePath(t *testing.T) {
	if _, err := New(Options{Path: "config.json"}); err == nil {
		t.Fatal("expected error for relative path")
	}
}

func TestWatcher_EmitsForTargetOnly(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.json")
	if err := os.WriteFile(target, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(Options{Path: target, Debounce: 50 * time.Millisecond, Stabilization: 20 * time.Millisecond, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.Start(ctx); err == nil {
		t.Fatal("second start should fail")
	}

	// unrelated file in the same directory must not trigger
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(300 * time.Millisecond):
	}

	// a burst of writes collapses into one event
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(`{"version":1}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case ev := <-events:
		if ev.Path != target {
			t.Fatalf("path = %s, want %s", ev.Path, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event for target write")
	}
	select {
	case ev := <-events:
		t.Fatalf("burst produced a second event at %v", ev.Time)
	case <-time.After(300 * time.Millisecond):
	}

	w.Close()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}
}
