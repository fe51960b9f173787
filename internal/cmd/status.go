package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/TechnicallyShaun/secretary/internal/ledger"
	"github.com/TechnicallyShaun/secretary/internal/secretary"
	"github.com/TechnicallyShaun/secretary/internal/secretary/pidfile"
	"github.com/TechnicallyShaun/secretary/internal/secretary/status"
	"github.com/spf13/cobra"
)

const recentLimit = 5

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether secretary is running and today's activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			running, pid, err := pidfile.IsRunning()
			switch {
			case err != nil:
				fmt.Fprintf(out, "Secretary: unknown (%v)\n", err)
			case running:
				fmt.Fprintf(out, "Secretary: running (PID %d)\n", pid)
			default:
				fmt.Fprintln(out, "Secretary: not running")
			}

			stats, err := status.ParseTodayStats()
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			printStats(out, stats)

			// Recent history is only available when the workspace keeps a ledger.
			if cfg, _, err := secretary.Load(); err == nil {
				if path := ledger.ResolvePath(cfg.LedgerPath); path != "" {
					return printRecent(cmd.Context(), out, path)
				}
			}
			return nil
		},
	}
}

func printStats(out io.Writer, stats *status.Stats) {
	fmt.Fprintf(out, "Today: %d notes saved, %d cycles, %d failed cycles, %d errors\n",
		stats.NotesSaved, stats.Cycles, stats.FailedCycles, stats.Errors)
	if stats.LastSaved != nil {
		fmt.Fprintf(out, "Last note: %s %s -> %s\n",
			status.FormatTimestamp(stats.LastSaved.Timestamp),
			stats.LastSaved.Source,
			status.BaseName(stats.LastSaved.Output))
	}
	if !stats.LastCycle.IsZero() {
		fmt.Fprintf(out, "Last cycle: %s\n", status.FormatTimestamp(stats.LastCycle))
	}
	if stats.LastError != "" {
		fmt.Fprintf(out, "Last failure: %s %s\n", status.FormatTimestamp(stats.LastErrorTime), stats.LastError)
	}
}

func printRecent(ctx context.Context, out io.Writer, path string) error {
	l, err := ledger.Open(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	entries, err := l.Recent(ctx, recentLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Recently processed:")
	for _, e := range entries {
		fmt.Fprintf(out, "  %s %s -> %s\n", status.FormatTimestamp(e.ProcessedAt), e.Name, status.BaseName(e.NotePath))
	}
	return nil
}
