package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
	"github.com/TechnicallyShaun/secretary/internal/secretary/dropbox"
	"github.com/TechnicallyShaun/secretary/internal/workspace"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the configuration and the Dropbox token",
		Long: `Validate .secretary/config.yaml, confirm the vault directory and prompt
template are usable and ask Dropbox who the access token belongs to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := secretary.Load()
			if errors.Is(err, workspace.ErrNotInWorkspace) {
				return ErrNotInWorkspace
			}
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			cfg.ApplyDefaults()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:  %s\n", workspace.ConfigPath(root))

			info, err := os.Stat(cfg.VaultPath)
			if err != nil {
				return fmt.Errorf("vault: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("vault: %s is not a directory", cfg.VaultPath)
			}
			fmt.Fprintf(out, "Vault:   %s\n", cfg.VaultPath)

			if _, err := secretary.LoadTemplate(cfg.PromptPath); err != nil {
				return fmt.Errorf("prompt: %w", err)
			}
			fmt.Fprintf(out, "Prompt:  %s\n", cfg.PromptPath)

			dbx := dropbox.NewClient(cfg.DropboxAccessToken, cfg.DropboxAudioPath, dropboxOptions...)
			acct, err := dbx.CurrentAccount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dropbox: %s <%s>\n", acct.Name.DisplayName, acct.Email)
			return nil
		},
	}
}
