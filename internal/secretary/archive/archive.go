// Package archive keeps processed recordings in a dated archive directory.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

var _ secretary.AudioArchiver = (*FileArchiver)(nil)

// ErrSourceNotFound is returned when the source file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// FileArchiver moves files into archiveDir/YYYY/MM/DD.
type FileArchiver struct {
	now func() time.Time
}

// NewFileArchiver creates a new FileArchiver.
func NewFileArchiver() *FileArchiver {
	return &FileArchiver{now: time.Now}
}

// Archive moves sourcePath into a dated subdirectory of archiveDir under name.
// An existing file of the same name gets a time suffix rather than being
// replaced. Returns the destination path.
func (a *FileArchiver) Archive(ctx context.Context, sourcePath, archiveDir, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrSourceNotFound
		}
		return "", err
	}

	now := a.now()
	dateDir := filepath.Join(archiveDir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	if name == "" {
		name = sourcePath
	}
	base := filepath.Base(name)
	destPath := filepath.Join(dateDir, base)
	if _, err := os.Stat(destPath); err == nil {
		ext := filepath.Ext(base)
		stem := base[:len(base)-len(ext)]
		destPath = filepath.Join(dateDir, fmt.Sprintf("%s-%s%s", stem, now.Format("150405"), ext))
	}

	if err := os.Rename(sourcePath, destPath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(sourcePath, destPath, srcInfo.Mode()); err != nil {
			return "", fmt.Errorf("archive file: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return destPath, err
		}
		if err := os.Remove(sourcePath); err != nil {
			return destPath, fmt.Errorf("remove source: %w", err)
		}
	}

	return destPath, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return dstFile.Sync()
}
