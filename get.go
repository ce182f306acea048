package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var flagOutput string

	cmd := &cobra.Command{
		Use:   "get <file-id>",
		Short: "Download a file's raw content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()

			svc, err := buildService(logger)
			if err != nil {
				return err
			}

			content, err := svc.GetFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if flagOutput == "" || flagOutput == "-" {
				_, err = os.Stdout.WriteString(content)

				return err
			}

			if err := os.WriteFile(flagOutput, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", flagOutput, err)
			}

			statusf("Wrote %d bytes to %s\n", len(content), flagOutput)

			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write content to this file instead of stdout")

	return cmd
}
