package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TechnicallyShaun/secretary/internal/ledger"
	"github.com/TechnicallyShaun/secretary/internal/secretary"
	"github.com/TechnicallyShaun/secretary/internal/secretary/archive"
	"github.com/TechnicallyShaun/secretary/internal/secretary/dropbox"
	"github.com/TechnicallyShaun/secretary/internal/secretary/logging"
	"github.com/TechnicallyShaun/secretary/internal/secretary/openai"
	"github.com/TechnicallyShaun/secretary/internal/secretary/pidfile"
	"github.com/TechnicallyShaun/secretary/internal/secretary/retry"
	"github.com/TechnicallyShaun/secretary/internal/vault"
	"github.com/TechnicallyShaun/secretary/internal/workspace"
	"github.com/spf13/cobra"
)

// Client options applied when the run command builds its providers. Tests
// point them at local servers.
var (
	dropboxOptions []dropbox.Option
	openaiOptions  []openai.Option
)

// NewRunCmd creates the run command
func NewRunCmd(prompter Prompter) *cobra.Command {
	var once, verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll Dropbox and write notes into the vault",
		Long: `Run the secretary pipeline in the foreground.

Every poll interval the Dropbox audio folder is listed, recordings that have no
note in the vault yet are downloaded and transcribed, and a note is written for
each one. Missing configuration values are prompted for and saved first.

The loop runs until interrupted with Ctrl+C or SIGTERM. With --once a single
cycle is run and the command exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := workspace.FindRoot()
			if err != nil {
				return ErrNotInWorkspace
			}

			p := prompter
			if p == nil {
				p = NewStdinPrompter(cmd.OutOrStdout())
			}
			cfg, err := ensureConfig(cmd.OutOrStdout(), p, root)
			if err != nil {
				return err
			}

			logCfg := logging.DefaultConfig()
			logCfg.Component = "secretary"
			logCfg.Console = cmd.ErrOrStderr()
			if verbose {
				logCfg = logCfg.WithMinLevel(logging.LevelDebug)
			}
			logger, err := logging.New(logCfg)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Close()

			sec, cleanup, err := newSecretary(cfg, logger.WithComponent("pipeline"))
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if once {
				return runOnce(ctx, cmd, sec)
			}

			if err := pidfile.Acquire(os.Getpid()); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Remove(); err != nil {
					logger.Error("failed to remove PID file", err)
				}
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Starting secretary...")
			fmt.Fprintf(out, "Dropbox: %s\n", cfg.DropboxAudioPath)
			fmt.Fprintf(out, "Vault:   %s\n", cfg.VaultPath)
			fmt.Fprintf(out, "Polling every %s\n", cfg.PollInterval())
			fmt.Fprintln(out, "Press Ctrl+C to stop")
			fmt.Fprintln(out)

			return sec.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	return cmd
}

func runOnce(ctx context.Context, cmd *cobra.Command, sec *secretary.Secretary) error {
	result, err := sec.RunCycle(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Listed %d files, %d audio, %d new\n", result.Listed, result.Audio, result.New)
	for _, path := range result.Saved {
		fmt.Fprintf(out, "Saved %s\n", path)
	}
	return nil
}

// newSecretary wires the providers, vault and optional ledger and archive named
// by cfg. The returned cleanup releases the ledger.
func newSecretary(cfg *secretary.Config, logger logging.Logger) (*secretary.Secretary, func(), error) {
	policy, err := vault.ParseCollisionPolicy(cfg.CollisionPolicy)
	if err != nil {
		return nil, nil, err
	}

	dbx := dropbox.NewClient(cfg.DropboxAccessToken, cfg.DropboxAudioPath, dropboxOptions...)

	deps := secretary.Deps{
		Lister:      dbx,
		Downloader:  dbx,
		Transcriber: openai.NewTranscriber(cfg.WhisperAPIKey, cfg.TranscriptionModel, openaiOptions...),
		Generator:   openai.NewChatClient(cfg.OpenAIAPIKey, openaiOptions...),
		Index:       vault.NewScanIndex(cfg.VaultPath, cfg.NoteExtension),
		Writer:      vault.NewWriter(policy),
		Retrier:     retry.New(retry.WithRetryCount(cfg.RetryCount), retry.WithLogger(logger)),
		Logger:      logger,
	}

	cleanup := func() {}
	if path := ledger.ResolvePath(cfg.LedgerPath); path != "" {
		l, err := ledger.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger: %w", err)
		}
		deps.Index = &ledger.Index{Ledger: l, Inner: deps.Index}
		deps.Recorder = l
		cleanup = func() { l.Close() }
	}
	if cfg.ArchiveDir != "" {
		deps.Archiver = archive.NewFileArchiver()
	}

	sec, err := secretary.New(secretary.Options{
		VaultDir:      cfg.VaultPath,
		NoteExtension: cfg.NoteExtension,
		PromptPath:    cfg.PromptPath,
		Model:         cfg.Model,
		TempDir:       cfg.TempDir,
		ArchiveDir:    cfg.ArchiveDir,
		PollInterval:  cfg.PollInterval(),
	}, deps)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sec, cleanup, nil
}
