package secretary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemoteFile is a snapshot of one file's metadata as reported by the file store.
// Timestamps are kept as the provider's RFC3339 strings; see ServerModifiedTime.
type RemoteFile struct {
	Name           string `json:"name"`
	PathLower      string `json:"path_lower"`
	ClientModified string `json:"client_modified"`
	ServerModified string `json:"server_modified"`
	Size           int64  `json:"size"`
}

// ServerModifiedTime parses ServerModified. An unparseable value yields now, so
// no existing note can predate it and the file is treated as not yet processed.
func (f RemoteFile) ServerModifiedTime(now time.Time) time.Time {
	t, err := time.Parse(time.RFC3339, f.ServerModified)
	if err != nil {
		return now
	}
	return t
}

func (f RemoteFile) String() string {
	return fmt.Sprintf("%s (%s, %d bytes, server modified %s)", f.Name, f.PathLower, f.Size, f.ServerModified)
}

// DefaultNoteName is used when the composed note carries no title.
const DefaultNoteName = "Untitled"

// AudioNote tracks one remote recording through a single pipeline cycle.
type AudioNote struct {
	File           RemoteFile
	Transcription  string
	Note           string
	NoteName       string
	LocalAudioPath string
	NotePath       string
}

// NewAudioNote creates a note for a remote file. The metadata is copied and the
// note name starts out as the remote file name.
func NewAudioNote(file RemoteFile) *AudioNote {
	return &AudioNote{
		File:     file,
		NoteName: file.Name,
	}
}

// SaveAudio writes the downloaded bytes to a new uniquely named file in dir
// (os.TempDir when empty) and records its path.
func (n *AudioNote) SaveAudio(dir string, audio []byte) error {
	if dir == "" {
		dir = os.TempDir()
	}

	ext := strings.ToLower(filepath.Ext(n.File.Name))
	path := filepath.Join(dir, "secretary-"+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}

	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close temp audio file: %w", err)
	}

	n.LocalAudioPath = path
	return nil
}

// MakeNoteName derives the note name from the first title: line of the composed
// note, falling back to DefaultNoteName.
func (n *AudioNote) MakeNoteName() string {
	n.NoteName = ExtractTitle(n.Note)
	return n.NoteName
}

// MakeNotePath joins the vault directory with the note name and extension.
func (n *AudioNote) MakeNotePath(vaultDir, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	n.NotePath = filepath.Join(vaultDir, n.NoteName+ext)
	return n.NotePath
}

func (n *AudioNote) String() string {
	return fmt.Sprintf("note %q path=%q audio=%q note_bytes=%d transcription_bytes=%d",
		n.NoteName, n.NotePath, n.LocalAudioPath, len(n.Note), len(n.Transcription))
}
