package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newFoldersCmd() *cobra.Command {
	var flagInteractive bool

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List the application's Drive folders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			svc, err := buildService(logger)
			if err != nil {
				return err
			}

			folders, err := svc.ListAppFolders(cmd.Context(), flagInteractive)
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(folders)
			}

			rows := make([][]string, len(folders))
			for i, folder := range folders {
				rows[i] = []string{folder.ID, folder.Name}
			}

			printTable(os.Stdout, []string{"ID", "NAME"}, rows)

			return nil
		},
	}

	cmd.Flags().BoolVar(&flagInteractive, "interactive", false, "allow an interactive consent prompt if authorization is needed")

	return cmd
}
