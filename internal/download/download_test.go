package download

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSave_NewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p, err := Save("encoded_image.png", []byte("png"), Options{Dir: dir})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p != filepath.Join(dir, "encoded_image.png") {
		t.Fatalf("path = %s", p)
	}
	got, err := os.ReadFile(p)
	if err != nil || string(got) != "png" {
		t.Fatalf("content = %q, %v", got, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestSave_ConflictRename(t *testing.T) {
	dir := t.TempDir()
	p1, err := Save("encoded_image.png", []byte("v1"), Options{Dir: dir, Conflict: ConflictRename})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Save("encoded_image.png", []byte("v2"), Options{Dir: dir, Conflict: ConflictRename})
	if err != nil {
		t.Fatal(err)
	}
	p3, err := Save("encoded_image.png", []byte("v3"), Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p2) != "encoded_image (1).png" || filepath.Base(p3) != "encoded_image (2).png" {
		t.Fatalf("unexpected names: %s, %s", p2, p3)
	}
	if got, _ := os.ReadFile(p1); string(got) != "v1" {
		t.Fatalf("original clobbered: %q", got)
	}
}

func TestSave_ConflictOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "encoded_image.png")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Save("encoded_image.png", []byte("new"), Options{Dir: dir, Conflict: ConflictOverwrite}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("expected overwritten content 'new', got %q", string(got))
	}
}

func TestSave_ConflictSkip(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "encoded_image.png")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Save("encoded_image.png", []byte("new"), Options{Dir: dir, Conflict: ConflictSkip})
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("want ErrSkipped, got %v", err)
	}
	if got, _ := os.ReadFile(existing); string(got) != "old" {
		t.Fatalf("skip changed content: %q", got)
	}
}

func TestSave_RejectsBadInput(t *testing.T) {
	if _, err := Save("", []byte("x"), Options{Dir: t.TempDir()}); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, err := Save("a.png", []byte("x"), Options{Dir: t.TempDir(), Conflict: "merge"}); err != nil {
		t.Fatalf("strategy only matters on conflict: %v", err)
	}
}
