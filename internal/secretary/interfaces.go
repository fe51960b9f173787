// Package secretary turns remote voice recordings into notes in a local vault.
//
// Each cycle lists the remote folder, keeps audio files that have no note yet,
// and drives them through download, transcription, composition, annotation
// and persistence. The vault itself is the record of what has been processed.
package secretary

import "context"

// Lister lists the files of the configured remote folder, non-recursively.
type Lister interface {
	ListFiles(ctx context.Context) ([]RemoteFile, error)
}

// Downloader fetches a remote file's content by path.
type Downloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// Transcriber converts audio to text. fileName is a hint the provider uses to
// detect the audio format.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName string) (string, error)
}

// Generator produces text from a prompt with the given model.
type Generator interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// VaultIndex decides whether a remote file already has a note.
type VaultIndex interface {
	HasNote(file RemoteFile) (bool, error)
}

// NoteWriter persists a note body at path and returns the path actually written,
// which differs from path when the writer resolves a name collision.
type NoteWriter interface {
	Write(ctx context.Context, path, content string) (string, error)
}

// Recorder is notified after a note has been persisted.
type Recorder interface {
	Record(ctx context.Context, note *AudioNote) error
}

// AudioArchiver keeps a copy of a processed recording under its original name.
type AudioArchiver interface {
	Archive(ctx context.Context, sourcePath, archiveDir, name string) (string, error)
}
