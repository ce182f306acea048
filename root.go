// Command drivebridge persists content from a desktop application as
// files in Google Drive: one-shot saves, folder listing, content
// download, a directory watcher, and a websocket bridge the application
// talks to.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/drivebridge/drivebridge/internal/config"
	"github.com/drivebridge/drivebridge/internal/drive"
	"github.com/drivebridge/drivebridge/internal/export"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// cfg holds the effective configuration loaded by PersistentPreRunE.
var cfg *config.Config

// httpClientTimeout bounds OAuth token requests. The Drive client gets
// no timeout since upload and download bodies take as long as they take.
const httpClientTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "drivebridge",
		Short:   "Export files from the desktop to Google Drive",
		Version: version,
		// Cobra's default error/usage printing is handled by main().
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(flagConfigPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}

			cfg = loaded

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newFoldersCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// buildLogger creates an slog.Logger from the resolved config and CLI
// flags. Flags win over the config file. Format "auto" picks text on a
// terminal and JSON otherwise.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	useText := cfg.Logging.Format == "text" ||
		(cfg.Logging.Format == "auto" && isatty.IsTerminal(os.Stderr.Fd()))
	if useText {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// oauthConfig builds the OAuth2 client config from the auth section.
func oauthConfig() (*oauth2.Config, error) {
	if cfg.Auth.ClientID == "" {
		return nil, fmt.Errorf("auth.client_id not configured (set it in the config file or DRIVEBRIDGE_CLIENT_ID)")
	}

	return &oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       cfg.Auth.Scopes,
	}, nil
}

// buildService wires the export service: Drive client, token-file
// authorizer, and the request-construction defaults from config.
func buildService(logger *slog.Logger) (*export.Service, error) {
	oauth, err := oauthConfig()
	if err != nil {
		return nil, err
	}

	client := drive.NewClient(
		cfg.Drive.BaseURL,
		cfg.Drive.UploadBaseURL,
		&http.Client{}, // no timeout: upload PUTs run to completion
		drive.StaticToken(""),
		logger,
	)

	auth := export.NewTokenFileAuthorizer(cfg.Auth.TokenPath, oauth, logger)

	opts := export.Options{
		DefaultDescription: cfg.Drive.DefaultDescription,
		DefaultMimeType:    cfg.Drive.DefaultMimeType,
		DefaultContentType: cfg.Drive.DefaultContentType,
	}

	return export.NewService(client, auth, opts, logger), nil
}
