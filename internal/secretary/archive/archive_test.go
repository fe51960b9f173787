package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedArchiver() *FileArchiver {
	a := NewFileArchiver()
	a.now = func() time.Time { return time.Date(2026, 3, 7, 14, 5, 9, 0, time.Local) }
	return a
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestArchive_MovesIntoDatedDirectory(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "download-123.m4a", "audio")
	archiveDir := filepath.Join(tmp, "archive")

	dest, err := fixedArchiver().Archive(context.Background(), src, archiveDir, "memo.m4a")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expected := filepath.Join(archiveDir, "2026", "03", "07", "memo.m4a")
	if dest != expected {
		t.Errorf("expected %s, got %s", expected, dest)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("expected archived file: %v", err)
	}
	if string(data) != "audio" {
		t.Errorf("expected content 'audio', got %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("expected source to be removed")
	}
}

func TestArchive_CollisionAddsTimeSuffix(t *testing.T) {
	tmp := t.TempDir()
	archiveDir := filepath.Join(tmp, "archive")
	a := fixedArchiver()

	first := writeSource(t, tmp, "a.tmp", "first")
	if _, err := a.Archive(context.Background(), first, archiveDir, "memo.m4a"); err != nil {
		t.Fatalf("first archive failed: %v", err)
	}

	second := writeSource(t, tmp, "b.tmp", "second")
	dest, err := a.Archive(context.Background(), second, archiveDir, "memo.m4a")
	if err != nil {
		t.Fatalf("second archive failed: %v", err)
	}

	expected := filepath.Join(archiveDir, "2026", "03", "07", "memo-140509.m4a")
	if dest != expected {
		t.Errorf("expected %s, got %s", expected, dest)
	}

	data, _ := os.ReadFile(filepath.Join(archiveDir, "2026", "03", "07", "memo.m4a"))
	if string(data) != "first" {
		t.Errorf("expected original archive to be kept, got %q", data)
	}
}

func TestArchive_EmptyNameUsesSourceBase(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "memo.mp3", "audio")

	dest, err := fixedArchiver().Archive(context.Background(), src, filepath.Join(tmp, "archive"), "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if filepath.Base(dest) != "memo.mp3" {
		t.Errorf("expected memo.mp3, got %s", filepath.Base(dest))
	}
}

func TestArchive_SourceNotFound(t *testing.T) {
	tmp := t.TempDir()

	_, err := fixedArchiver().Archive(context.Background(), filepath.Join(tmp, "missing.m4a"), tmp, "missing.m4a")
	if err != ErrSourceNotFound {
		t.Errorf("expected ErrSourceNotFound, got: %v", err)
	}
}

func TestArchive_CancelledContext(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "memo.m4a", "audio")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fixedArchiver().Archive(ctx, src, filepath.Join(tmp, "archive"), "memo.m4a"); err != context.Canceled {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("expected source to be left in place")
	}
}
