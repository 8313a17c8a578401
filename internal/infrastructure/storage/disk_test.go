package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStore_SaveRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "job_cards"), "/uploads/job_cards/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	path, err := s.Save(ctx, "1700000000000-42.jpg", "image/jpeg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != "/uploads/job_cards/1700000000000-42.jpg" {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(), "1700000000000-42.jpg"))
	if err != nil || string(data) != "jpeg bytes" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	if _, err := s.Save(ctx, "1700000000000-42.jpg", "image/jpeg", strings.NewReader("x")); err == nil {
		t.Fatal("Save must not overwrite an existing file")
	}

	if err := s.Remove(ctx, path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "1700000000000-42.jpg")); !os.IsNotExist(err) {
		t.Fatalf("file must be gone, stat err = %v", err)
	}
	if err := s.Remove(ctx, path); err != nil {
		t.Fatalf("removing a missing file must succeed: %v", err)
	}
}

func TestDiskStore_IgnoresForeignPaths(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewDiskStore(dir, "/uploads/job_cards")
	outside := filepath.Join(t.TempDir(), "keep.txt")
	_ = os.WriteFile(outside, []byte("x"), 0o644)

	for _, p := range []string{"", "/etc/passwd", "/uploads/job_cards/../keep.txt", "/uploads/other/a.jpg"} {
		if err := s.Remove(context.Background(), p); err != nil {
			t.Fatalf("Remove(%q): %v", p, err)
		}
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatal("foreign files must be left alone")
	}
}

func TestDiskStore_SaveStripsDirectories(t *testing.T) {
	s, _ := NewDiskStore(t.TempDir(), "/uploads/job_cards")
	path, err := s.Save(context.Background(), "../../evil.gif", "image/gif", strings.NewReader("GIF89a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != "/uploads/job_cards/evil.gif" {
		t.Fatalf("unexpected path %q", path)
	}
}
