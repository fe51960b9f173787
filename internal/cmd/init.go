package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/TechnicallyShaun/secretary/internal/workspace"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a secretary workspace",
		Long: `Create a .secretary directory holding config.yaml and the default prompt.md
template in the given directory, or the current directory when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			result, err := workspace.Init(dir)
			if err != nil {
				if errors.Is(err, workspace.ErrWorkspaceExists) {
					return fmt.Errorf("%w (edit %s)", err, workspace.ConfigPath(dir))
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized workspace in %s\n", filepath.Join(result.Root, workspace.MarkerDir))
			if result.PromptCreated {
				fmt.Fprintf(out, "Edit %s to change how notes are written\n", filepath.Join(result.Root, workspace.MarkerDir, workspace.PromptFile))
			}
			fmt.Fprintln(out, "Run 'secretary config' to enter your credentials")
			return nil
		},
	}
}
