package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"podforge/internal/config"
	"podforge/internal/tokens"
)

func newTruncateCmd(cfg **config.Config) *cobra.Command {
	var maxTokens int
	var ratio float64

	cmd := &cobra.Command{
		Use:   "truncate [file]",
		Short: "Truncate a transcript to a token budget, preserving beginning and end",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			r := ratio
			if r == 0 {
				r = (*cfg).BeginningRatio
			}

			result := tokens.NewTruncator(r).Truncate(text, maxTokens)
			fmt.Fprint(cmd.OutOrStdout(), result.Text)

			if result.WasTruncated {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"truncated: %d -> %d tokens (removed %d words, %.1f%%)\n",
					result.OriginalTokens, result.TruncatedTokens,
					result.Details.RemovedWords, result.Details.RemovedPercent)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "unchanged: %d tokens within budget\n", result.OriginalTokens)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxTokens, "max-tokens", "m", 4000, "token budget")
	cmd.Flags().Float64VarP(&ratio, "beginning-ratio", "r", 0, "share of budget for the beginning (default from config)")
	return cmd
}

// readInput reads the named file, or stdin when no argument (or "-") is
// given.
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
