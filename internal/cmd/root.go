package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the secretary CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "secretary",
		Short: "Turn Dropbox voice memos into Obsidian notes",
		Long: `Secretary polls a Dropbox folder for voice memos, transcribes them with Whisper,
asks a chat model to write a note from the transcription and saves the result
into an Obsidian vault.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewConfigCmd(nil))
	rootCmd.AddCommand(NewRunCmd(nil))
	rootCmd.AddCommand(NewStopCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewNotesCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
