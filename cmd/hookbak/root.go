package main

import (
	"github.com/spf13/cobra"

	"github.com/bashhack/hookbak/internal/config"
)

func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hookbak",
		Short:         "Checkpoint commits for files edited by a coding agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("project-dir", "", "Project root (default: $HOOKBAK_PROJECT_DIR, $CLAUDE_PROJECT_DIR or the working directory)")
	flags.StringP("config", "c", "", "Configuration file (default: <project>/.hookbak/config.yaml)")
	flags.String("queue-file", "", "Pending-edit queue file (default: <project>/.hookbak/queue.json)")
	flags.String("log-file", "", "Diagnostic log file (default: <project>/.hookbak/hookbak.log)")
	flags.Bool("debug", false, "Write informational messages to the log file")
	flags.BoolP("verbose", "v", false, "Echo warnings to the terminal")
	flags.Duration("lock-timeout", config.DefaultLockTimeout, "How long a queue update waits for the queue lock")

	// Host hooks
	rootCmd.AddCommand(newRecordCommand(app))
	rootCmd.AddCommand(newFlushCommand(app))
	rootCmd.AddCommand(newContextCommand(app))

	// Operator commands
	rootCmd.AddCommand(newStatusCommand(app))
	rootCmd.AddCommand(newClearCommand(app))
	rootCmd.AddCommand(newWatchCommand(app))
	rootCmd.AddCommand(newVersionCommand(app))

	return rootCmd
}
