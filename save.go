package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/drivebridge/drivebridge/internal/drive"
	"github.com/drivebridge/drivebridge/internal/export"
)

func newSaveCmd() *cobra.Command {
	var (
		flagName        string
		flagDescription string
		flagMime        string
		flagContentType string
		flagFileID      string
		flagParents     []string
		flagParentIDs   []string
	)

	cmd := &cobra.Command{
		Use:   "save <file|->",
		Short: "Save a file (or stdin) to Google Drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()

			svc, err := buildService(logger)
			if err != nil {
				return err
			}

			body, name, err := readSource(args[0])
			if err != nil {
				return err
			}

			if flagName != "" {
				name = flagName
			}

			var parents []drive.ParentRef
			for _, p := range flagParents {
				parents = append(parents, drive.ParentRef{Name: p})
			}

			for _, id := range flagParentIDs {
				parents = append(parents, drive.ParentRef{ID: id})
			}

			req := &export.SaveRequest{
				Meta: &export.Meta{
					Name:        name,
					Description: flagDescription,
					MimeType:    flagMime,
					Parents:     parents,
				},
				Body: string(body),
				Type: flagContentType,
				ID:   flagFileID,
			}

			saved, err := svc.Save(cmd.Context(), req)
			if err != nil {
				return err
			}

			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(saved)
			}

			statusf("Saved %s (id %s)\n", saved.Name, saved.ID)

			for _, folder := range saved.Parents {
				statusf("  in folder %s (id %s)\n", folder.Name, folder.ID)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&flagName, "name", "", "file name in Drive (default: source file name)")
	cmd.Flags().StringVar(&flagDescription, "description", "", "file description")
	cmd.Flags().StringVar(&flagMime, "mime", "", "Drive resource MIME type")
	cmd.Flags().StringVar(&flagContentType, "type", "", "content type of the uploaded body")
	cmd.Flags().StringVar(&flagFileID, "id", "", "existing file id to update instead of creating")
	cmd.Flags().StringArrayVar(&flagParents, "parent", nil, "parent folder name, created if missing (repeatable; \"My Drive\" means the root)")
	cmd.Flags().StringArrayVar(&flagParentIDs, "parent-id", nil, "parent folder id, used as-is (repeatable)")

	return cmd
}

// readSource reads the save body from a file path or stdin ("-").
func readSource(arg string) ([]byte, string, error) {
	if arg == "-" {
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}

		return body, "stdin", nil
	}

	body, err := os.ReadFile(arg)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", arg, err)
	}

	return body, filepath.Base(arg), nil
}
