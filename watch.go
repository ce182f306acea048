package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/drivebridge/drivebridge/internal/config"
	"github.com/drivebridge/drivebridge/internal/export"
)

func newWatchCmd() *cobra.Command {
	var flagDir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and export new or changed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			svc, err := buildService(logger)
			if err != nil {
				return err
			}

			dir := cfg.Watch.Dir
			if flagDir != "" {
				dir = flagDir
			}

			if dir == "" {
				return errors.New("no watch directory configured (set watch.dir or pass --dir)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, dir, cfg.Watch, svc, logger)
		},
	}

	cmd.Flags().StringVar(&flagDir, "dir", "", "directory to watch (overrides watch.dir)")

	return cmd
}

// runWatch exports files as they appear in dir. Saves run sequentially:
// a burst of events queues behind the in-flight upload rather than
// racing the folder cache.
func runWatch(ctx context.Context, dir string, wc config.WatchConfig, svc *export.Service, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	logger.Info("watching directory", slog.String("dir", dir))

	// File ids by name, so a rewritten file updates instead of creating a
	// duplicate.
	exported := make(map[string]string)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			name := filepath.Base(event.Name)
			if skipWatchFile(name, wc) {
				continue
			}

			exportFile(ctx, event.Name, exported, svc, logger)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func skipWatchFile(name string, wc config.WatchConfig) bool {
	if wc.SkipDotfiles && strings.HasPrefix(name, ".") {
		return true
	}

	for _, suffix := range wc.SkipSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}

func exportFile(ctx context.Context, path string, exported map[string]string, svc *export.Service, logger *slog.Logger) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	body, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("reading file failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return
	}

	name := filepath.Base(path)

	saved, err := svc.Save(ctx, &export.SaveRequest{
		Meta: &export.Meta{Name: name},
		Body: string(body),
		ID:   exported[name],
	})
	if err != nil {
		logger.Error("export failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return
	}

	exported[name] = saved.ID

	logger.Info("exported file",
		slog.String("name", saved.Name),
		slog.String("file_id", saved.ID),
	)
}
