package secretary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary/logging"
	"github.com/TechnicallyShaun/secretary/internal/secretary/retry"
)

// Stage names used in StageError and log lines.
const (
	StageList       = "list"
	StageDownload   = "download"
	StageTranscribe = "transcribe"
	StageCompose    = "compose"
	StagePersist    = "persist"
)

// StageError reports which stage of a cycle failed and for which file.
type StageError struct {
	Stage string
	File  string
	Err   error
}

func (e *StageError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures a Secretary.
type Options struct {
	VaultDir      string
	NoteExtension string
	PromptPath    string
	Model         string
	TempDir       string
	ArchiveDir    string
	PollInterval  time.Duration
}

// Deps are the collaborators a Secretary drives. Recorder, Archiver, Retrier
// and Logger are optional.
type Deps struct {
	Lister      Lister
	Downloader  Downloader
	Transcriber Transcriber
	Generator   Generator
	Index       VaultIndex
	Writer      NoteWriter
	Recorder    Recorder
	Archiver    AudioArchiver
	Retrier     *retry.Retrier
	Logger      logging.Logger
}

// CycleResult summarises one pass of the pipeline.
type CycleResult struct {
	Listed int
	Audio  int
	New    int
	Saved  []string
}

// Secretary runs the polling pipeline.
type Secretary struct {
	opts   Options
	deps   Deps
	logger logging.Logger
	retry  *retry.Retrier
	now    func() time.Time
}

// New validates deps and applies defaults to opts.
func New(opts Options, deps Deps) (*Secretary, error) {
	switch {
	case deps.Lister == nil:
		return nil, errors.New("lister is required")
	case deps.Downloader == nil:
		return nil, errors.New("downloader is required")
	case deps.Transcriber == nil:
		return nil, errors.New("transcriber is required")
	case deps.Generator == nil:
		return nil, errors.New("generator is required")
	case deps.Index == nil:
		return nil, errors.New("vault index is required")
	case deps.Writer == nil:
		return nil, errors.New("note writer is required")
	}
	if opts.VaultDir == "" {
		return nil, errors.New("vault directory is required")
	}
	if opts.PromptPath == "" {
		return nil, errors.New("prompt path is required")
	}

	if opts.NoteExtension == "" {
		opts.NoteExtension = DefaultNoteExtension
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollIntervalSeconds * time.Second
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	r := deps.Retrier
	if r == nil {
		r = retry.New(retry.WithLogger(logger))
	}

	return &Secretary{
		opts:   opts,
		deps:   deps,
		logger: logger,
		retry:  r,
		now:    time.Now,
	}, nil
}

// Run executes a cycle immediately and then once per poll interval until ctx
// is cancelled. Cycle errors are logged and the loop continues.
func (s *Secretary) Run(ctx context.Context) error {
	s.logger.Info("starting secretary",
		logging.String("vault", s.opts.VaultDir),
		logging.Duration("interval", s.opts.PollInterval),
	)

	for {
		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error("cycle failed", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("secretary stopped")
			return nil
		case <-time.After(s.opts.PollInterval):
		}
	}

	s.logger.Info("secretary stopped")
	return nil
}

// RunCycle performs one pass: list, select new audio, then download, transcribe,
// compose, annotate and persist each selected file. Each stage completes for the
// whole working set before the next begins. The first error aborts the cycle;
// notes already persisted stay in the vault.
func (s *Secretary) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := s.now()
	result := &CycleResult{}

	notes, err := s.selectNew(ctx, result)
	if err != nil {
		return result, err
	}
	if len(notes) == 0 {
		s.logger.Info("cycle complete",
			logging.Int("listed", result.Listed),
			logging.Int("new", 0),
			logging.Int("saved", 0),
			logging.Duration("elapsed", s.now().Sub(start)),
		)
		return result, nil
	}

	persisted := make(map[*AudioNote]bool, len(notes))
	defer s.releaseAudio(ctx, notes, persisted)

	if err := s.download(ctx, notes); err != nil {
		return result, err
	}
	if err := s.transcribe(ctx, notes); err != nil {
		return result, err
	}
	if err := s.compose(ctx, notes); err != nil {
		return result, err
	}
	for _, n := range notes {
		// The name comes from the composed body, before the transcript is appended.
		n.MakeNoteName()
		n.Note = Annotate(n.Note, n.File.Name, n.Transcription)
	}
	if err := s.persist(ctx, notes, persisted, result); err != nil {
		return result, err
	}

	s.logger.Info("cycle complete",
		logging.Int("new", result.New),
		logging.Int("saved", len(result.Saved)),
		logging.Duration("elapsed", s.now().Sub(start)),
	)
	return result, nil
}

func (s *Secretary) selectNew(ctx context.Context, result *CycleResult) ([]*AudioNote, error) {
	files, err := retry.Value(ctx, s.retry, "list files", s.deps.Lister.ListFiles)
	if err != nil {
		return nil, &StageError{Stage: StageList, Err: err}
	}
	result.Listed = len(files)

	audio := FilterAudio(files)
	result.Audio = len(audio)

	var notes []*AudioNote
	for _, f := range audio {
		has, err := s.deps.Index.HasNote(f)
		if err != nil {
			s.logger.Warn("vault scan failed, treating file as new",
				logging.String("file", f.Name),
				logging.Err(err),
			)
		}
		if has {
			continue
		}
		notes = append(notes, NewAudioNote(f))
	}
	result.New = len(notes)
	return notes, nil
}

func (s *Secretary) download(ctx context.Context, notes []*AudioNote) error {
	for _, n := range notes {
		s.logger.Info("downloading", logging.String("file", n.File.Name), logging.Int64("size", n.File.Size))

		path := n.File.PathLower
		audio, err := retry.Value(ctx, s.retry, "download "+n.File.Name, func(ctx context.Context) ([]byte, error) {
			return s.deps.Downloader.Download(ctx, path)
		})
		if err != nil {
			return &StageError{Stage: StageDownload, File: n.File.Name, Err: err}
		}
		if err := n.SaveAudio(s.opts.TempDir, audio); err != nil {
			return &StageError{Stage: StageDownload, File: n.File.Name, Err: err}
		}
		s.logger.Debug("audio saved", logging.String("note", n.String()))
	}
	return nil
}

func (s *Secretary) transcribe(ctx context.Context, notes []*AudioNote) error {
	for _, n := range notes {
		audio, err := os.ReadFile(n.LocalAudioPath)
		if err != nil {
			return &StageError{Stage: StageTranscribe, File: n.File.Name, Err: err}
		}

		s.logger.Info("transcribing", logging.String("file", n.File.Name))
		text, err := retry.Value(ctx, s.retry, "transcribe "+n.File.Name, func(ctx context.Context) (string, error) {
			return s.deps.Transcriber.Transcribe(ctx, audio, n.NoteName)
		})
		if err != nil {
			return &StageError{Stage: StageTranscribe, File: n.File.Name, Err: err}
		}
		n.Transcription = text
	}
	return nil
}

func (s *Secretary) compose(ctx context.Context, notes []*AudioNote) error {
	tmpl, err := LoadTemplate(s.opts.PromptPath)
	if err != nil {
		return &StageError{Stage: StageCompose, Err: err}
	}

	for _, n := range notes {
		prompt := tmpl.Render(n.Transcription)
		s.logger.Info("composing note", logging.String("file", n.File.Name), logging.String("model", s.opts.Model))
		text, err := retry.Value(ctx, s.retry, "compose "+n.File.Name, func(ctx context.Context) (string, error) {
			return s.deps.Generator.Complete(ctx, prompt, s.opts.Model)
		})
		if err != nil {
			return &StageError{Stage: StageCompose, File: n.File.Name, Err: err}
		}
		n.Note = text
	}
	return nil
}

func (s *Secretary) persist(ctx context.Context, notes []*AudioNote, persisted map[*AudioNote]bool, result *CycleResult) error {
	written := make(map[string]string, len(notes))

	for _, n := range notes {
		target := n.MakeNotePath(s.opts.VaultDir, s.opts.NoteExtension)

		if prev, ok := written[target]; ok {
			s.logger.Warn("note name collision within cycle",
				logging.String("path", target),
				logging.String("previous", prev),
				logging.String("source", n.File.Name),
			)
		}

		path, err := s.deps.Writer.Write(ctx, target, n.Note)
		if err != nil {
			return &StageError{Stage: StagePersist, File: n.File.Name, Err: err}
		}
		n.NotePath = path
		written[target] = n.File.Name
		persisted[n] = true
		result.Saved = append(result.Saved, path)

		s.logger.Info("note saved",
			logging.String("source", n.File.Name),
			logging.String("output", path),
		)

		if s.deps.Recorder != nil {
			if err := s.deps.Recorder.Record(ctx, n); err != nil {
				s.logger.Error("record processed file", err, logging.String("source", n.File.Name))
			}
		}
	}
	return nil
}

// releaseAudio removes the temporary audio of every note. When an archive
// directory is configured, audio of persisted notes is archived instead.
func (s *Secretary) releaseAudio(ctx context.Context, notes []*AudioNote, persisted map[*AudioNote]bool) {
	for _, n := range notes {
		if n.LocalAudioPath == "" {
			continue
		}

		if persisted[n] && s.deps.Archiver != nil && s.opts.ArchiveDir != "" {
			dest, err := s.deps.Archiver.Archive(ctx, n.LocalAudioPath, s.opts.ArchiveDir, n.File.Name)
			if err == nil {
				s.logger.Debug("audio archived", logging.String("source", n.File.Name), logging.String("archive", dest))
				continue
			}
			s.logger.Error("archive audio", err, logging.String("source", n.File.Name))
		}

		if err := os.Remove(n.LocalAudioPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove temp audio",
				logging.String("path", n.LocalAudioPath),
				logging.Err(err),
			)
		}
	}
}
