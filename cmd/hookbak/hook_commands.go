package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bashhack/hookbak/internal/hook"
)

func newRecordCommand(app *App) *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Queue the file named by a tool-use hook event on stdin",
		Long: `Reads a hook event from stdin and appends the edited file to the queue.
Events without a file path are ignored. Always exits 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.runHook(cmd.Context(), cmd.Flags(), "record", func(ctx context.Context) error {
				recorded, err := app.record(ctx)
				if err != nil || !recorded || !commit {
					return err
				}
				_, err = app.flush(ctx)
				return err
			})
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "Flush immediately after recording")
	return cmd
}

func newFlushCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Commit every queued file as one checkpoint commit",
		Long: `Stages each queued path and writes a single commit listing them.
The queue is cleared only after the commit succeeds. Always exits 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.runHook(cmd.Context(), cmd.Flags(), "flush", func(ctx context.Context) error {
				_, err := app.flush(ctx)
				return err
			})
			return nil
		},
	}
}

func newContextCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print a session-start summary of pending edits as JSON",
		Long: `Prints exactly one JSON object describing queued edits for the host to
add to the new session. Always exits 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := hook.UnavailableSummary
			app.runHook(cmd.Context(), cmd.Flags(), "context", func(ctx context.Context) error {
				s, err := app.contextSummary(ctx)
				if err != nil {
					return err
				}
				summary = s
				return nil
			})

			if err := hook.NewContextOutput(summary).Write(app.Stdout); err != nil && app.Logger != nil {
				app.Logger.Warning("Failed to write session context: %v", err)
			}
			return nil
		},
	}
}
