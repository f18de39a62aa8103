package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"podforge/internal/tokens"
)

func newBudgetCmd() *cobra.Command {
	var stage int
	var model string

	cmd := &cobra.Command{
		Use:   "budget [prior-output-file...]",
		Short: "Compute the transcript token allowance for a pipeline stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			priors := make([]any, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				priors = append(priors, string(data))
			}

			budget := tokens.NewBudgetCalculator().Calculate(stage, model, priors)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", budget)
			return nil
		},
	}

	cmd.Flags().IntVarP(&stage, "stage", "s", 1, "pipeline stage number (1-based)")
	cmd.Flags().StringVarP(&model, "model", "m", "gpt-4o", "model name")
	return cmd
}
