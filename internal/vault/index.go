// Package vault reads and writes the Markdown notes of an Obsidian-style vault.
package vault

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

var _ secretary.VaultIndex = (*ScanIndex)(nil)

// ScanIndex answers whether a recording already has a note by scanning the
// vault directory on every call. It keeps no state of its own.
type ScanIndex struct {
	dir string
	ext string
	now func() time.Time
}

// NewScanIndex creates an index over the notes with extension ext in dir.
func NewScanIndex(dir, ext string) *ScanIndex {
	return &ScanIndex{
		dir: dir,
		ext: normalizeExt(ext),
		now: time.Now,
	}
}

// HasNote scans the top level of the vault. Only documents modified strictly
// after the file's server-modified time are read; any of them carrying the
// file's audio marker means the file has a note. An error is returned only when
// the directory itself cannot be read. Unreadable documents are skipped.
func (x *ScanIndex) HasNote(file secretary.RemoteFile) (bool, error) {
	entries, err := os.ReadDir(x.dir)
	if err != nil {
		return false, err
	}

	since := file.ServerModifiedTime(x.now())

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), x.ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().After(since) {
			continue
		}

		content, err := os.ReadFile(filepath.Join(x.dir, e.Name()))
		if err != nil {
			continue
		}
		if HasAudioMarker(content, file.Name) {
			return true, nil
		}
	}
	return false, nil
}

func normalizeExt(ext string) string {
	if ext == "" {
		return secretary.DefaultNoteExtension
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
