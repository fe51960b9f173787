package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
	"github.com/TechnicallyShaun/secretary/internal/secretary/status"
	"github.com/TechnicallyShaun/secretary/internal/vault"
	"github.com/TechnicallyShaun/secretary/internal/workspace"
	"github.com/spf13/cobra"
)

// NewNotesCmd creates the notes command
func NewNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "List the vault notes written from recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := secretary.Load()
			if errors.Is(err, workspace.ErrNotInWorkspace) {
				return ErrNotInWorkspace
			}
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			cfg.ApplyDefaults()

			notes, err := vault.ListNotes(cfg.VaultPath, cfg.NoteExtension)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, "No notes found")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MODIFIED\tAUDIO\tTITLE")
			for _, n := range notes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", status.FormatTimestamp(n.ModTime), n.AudioFileName, n.Title)
			}
			return tw.Flush()
		},
	}
}
