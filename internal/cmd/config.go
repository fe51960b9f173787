package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
	"github.com/TechnicallyShaun/secretary/internal/workspace"
	"github.com/spf13/cobra"
)

// ErrNotInWorkspace is returned when a command needs a workspace and none is found.
var ErrNotInWorkspace = errors.New("not in a secretary workspace (run secretary init to create one)")

// NewConfigCmd creates the config command
func NewConfigCmd(prompter Prompter) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Enter the credentials and paths the pipeline needs",
		Long: `Prompt for required configuration values that are missing from
.secretary/config.yaml and save the file. Secrets are read without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := workspace.FindRoot()
			if err != nil {
				return ErrNotInWorkspace
			}

			p := prompter
			if p == nil {
				p = NewStdinPrompter(cmd.OutOrStdout())
			}

			cfg, err := secretary.ReadConfig(root)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}

			fields := cfg.Missing()
			if all {
				fields = secretary.RequiredFields
			}
			if len(fields) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Configuration is complete")
				return nil
			}

			if err := promptFields(cmd.OutOrStdout(), p, cfg, fields); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.SaveToWorkspace(root); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", workspace.ConfigPath(root))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "prompt for every required value, not only missing ones")
	return cmd
}

// ensureConfig prompts for any missing required values of the workspace at root
// and saves the file before returning the loaded configuration.
func ensureConfig(out io.Writer, prompter Prompter, root string) (*secretary.Config, error) {
	raw, err := secretary.ReadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if missing := raw.Missing(); len(missing) > 0 {
		if err := promptFields(out, prompter, raw, missing); err != nil {
			return nil, err
		}
		if err := raw.SaveToWorkspace(root); err != nil {
			return nil, fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Fprintf(out, "Configuration saved to %s\n", workspace.ConfigPath(root))
	}

	cfg, err := secretary.LoadFromWorkspace(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func promptFields(out io.Writer, prompter Prompter, cfg *secretary.Config, fields []secretary.RequiredField) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Secretary Configuration")
	fmt.Fprintln(out, "=======================")
	fmt.Fprintln(out)

	for _, f := range fields {
		label := fmt.Sprintf("%s [required]: ", f.Label)

		var value string
		var err error
		if f.Secret {
			value, err = prompter.PromptSecret(label)
		} else {
			value, err = prompter.Prompt(label)
		}
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("%s is required", f.Key)
		}
		f.Set(cfg, value)
	}
	return nil
}
