// Command podforge exposes the transcript preparation subsystem from the
// command line: chunked transcription of audio files, token-budget
// calculation, context-preserving truncation, and recovery parsing of raw
// model output.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"podforge/internal/config"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "podforge",
		Short:         "Transcript preparation and AI-response recovery tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			return err
		},
	}

	root.AddCommand(
		newTranscribeCmd(&cfg),
		newTruncateCmd(&cfg),
		newBudgetCmd(),
		newParseCmd(),
	)

	return root
}
