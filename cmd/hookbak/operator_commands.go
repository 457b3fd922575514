package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bashhack/hookbak/internal/config"
	"github.com/bashhack/hookbak/internal/errors"
	"github.com/bashhack/hookbak/internal/watch"
)

func newStatusCommand(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queued edits waiting for a checkpoint commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), cmd.Flags(), app.Stdout, func(ctx context.Context) error {
				cs, err := app.Queue.Drain(ctx)
				if err != nil {
					return err
				}

				if jsonOutput {
					entries := cs.Entries
					if entries == nil {
						entries = []string{}
					}
					enc := json.NewEncoder(app.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}

				if cs.IsEmpty() {
					_, _ = fmt.Fprintf(app.Stdout, "No pending edits in %s\n", app.Queue.Path())
					return nil
				}

				rows := make([][]string, 0, cs.Len())
				for i, path := range cs.Entries {
					rows = append(rows, []string{strconv.Itoa(i + 1), path, diskState(app.Config.ProjectDir, path)})
				}
				_, _ = fmt.Fprintln(app.Stdout, renderTable(
					[]string{"#", "Path", "On disk"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				_, _ = fmt.Fprintf(app.Stdout, "%d pending edit(s) in %s\n", cs.Len(), app.Queue.Path())

				if subject, err := app.Repository.LastCommitSubject(ctx); err == nil && subject != "" {
					_, _ = fmt.Fprintf(app.Stdout, "Last commit: %s\n", subject)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the pending paths as a JSON array")
	return cmd
}

// diskState reports whether a queued path still exists in the work tree.
func diskState(root, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return "deleted"
		}
		return "unreadable"
	}
	return "present"
}

func newClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard every queued edit without committing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), cmd.Flags(), app.Stdout, func(ctx context.Context) error {
				cs, err := app.Queue.Drain(ctx)
				if err != nil {
					return err
				}
				if err := app.Queue.Clear(ctx); err != nil {
					return err
				}
				app.Logger.Success("Cleared %d pending edit(s)", cs.Len())
				return nil
			})
		},
	}
}

func newWatchCommand(app *App) *cobra.Command {
	var ignore []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Record edits seen on disk and flush them on an interval",
		Long: `Watches the project tree and queues every file that is written, created,
removed or renamed. With a non-zero --flush-interval the queue is flushed
periodically; the watch stops after --max-retries identical flush failures
in a row (0 means never).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), cmd.Flags(), app.Stdout, func(ctx context.Context) error {
				cfg := app.Config

				var flusher watch.Flusher
				if cfg.FlushInterval > 0 {
					if err := app.requireRepository(ctx); err != nil {
						return err
					}
					flusher = app.Flusher
				}

				w := watch.New(watch.Config{
					Root:          cfg.ProjectDir,
					Ignore:        ignore,
					Exclude:       []string{cfg.QueueFile, cfg.LogFile},
					FlushInterval: cfg.FlushInterval,
					MaxRetries:    cfg.MaxRetries,
				}, app.Queue, flusher, app.Logger)

				if flusher != nil {
					app.Logger.InfoToUser("Watching %s, flushing every %s", cfg.ProjectDir, cfg.FlushInterval)
				} else {
					app.Logger.InfoToUser("Watching %s, periodic flush disabled", cfg.ProjectDir)
				}

				err := w.Run(ctx)
				w.PrintSummary()
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().Duration("flush-interval", config.DefaultFlushInterval, "Time between flushes (0 disables flushing)")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries, "Identical consecutive flush failures tolerated before stopping (0 = unlimited)")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Top-level directories to leave unwatched (repeatable)")
	return cmd
}

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowVersion()
		},
	}
}
