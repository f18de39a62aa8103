package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"podforge/internal/recovery"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Recover structured JSON from raw model output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return err
			}

			value, err := recovery.NewParser().Parse(raw)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return fmt.Errorf("re-encode recovered value: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}
