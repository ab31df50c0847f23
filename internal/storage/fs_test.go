package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStoreSaveExistsDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if store.Exists("clip.mp4") {
		t.Fatal("expected key to be absent before save")
	}

	if err := store.Save("clip.mp4", strings.NewReader("video-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !store.Exists("clip.mp4") {
		t.Fatal("expected key to exist after save")
	}

	data, err := os.ReadFile(store.Path("clip.mp4"))
	if err != nil {
		t.Fatalf("read saved asset: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := store.Delete("clip.mp4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Exists("clip.mp4") {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestFileStoreRefusesOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := store.Save("clip.mp4", strings.NewReader("first")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Save("clip.mp4", strings.NewReader("second")); !errors.Is(err, ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}

	data, err := os.ReadFile(store.Path("clip.mp4"))
	if err != nil {
		t.Fatalf("read asset: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("expected original content to survive, got %q", data)
	}
}

func TestFileStoreRejectsTraversalKeys(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	for _, key := range []string{"", "  ", "../escape.mp4", "a/b.mp4", `a\b.mp4`} {
		if err := store.Save(key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
		if store.Exists(key) {
			t.Fatalf("expected Exists to be false for key %q", key)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.mp4")); err == nil {
		t.Fatal("traversal key escaped the storage root")
	}
}

func TestFileStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewFileStore(root); err != nil {
		t.Fatalf("new file store: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected root directory to be created: %v", err)
	}
}
