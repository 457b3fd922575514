// Package config provides configuration management for hookbak.
//
// Settings are layered with spf13/viper. From lowest to highest precedence:
//
//   - defaults from New
//   - <project>/.hookbak/config.yaml, or the file named by --config
//   - HOOKBAK_* environment variables (HOOKBAK_DEBUG, HOOKBAK_LOCK_TIMEOUT, ...)
//   - command-line flags that were set explicitly
//
// The project directory is resolved before anything else, from --project-dir,
// HOOKBAK_PROJECT_DIR, CLAUDE_PROJECT_DIR and finally the working directory,
// because the config file lives inside it.
//
// # Keys
//
//	project_dir     project root; anchors every relative path
//	config_file     alternate config file
//	queue_file      pending-change queue (default .hookbak/queue.json)
//	log_file        diagnostic log (default .hookbak/hookbak.log)
//	debug           record informational messages in the log
//	verbose         echo internal warnings to the user
//	lock_timeout    how long a queue mutation waits for its lock (default 2s)
//	flush_interval  watch-mode flush period, 0 disables (default 5m)
//	max_retries     consecutive watch-mode flush failures tolerated (default 3)
//
// Durations accept Go syntax ("750ms", "2s") or a bare number of seconds.
//
// # Error Handling
//
// Invalid values return *errors.ConfigError wrapping
// errors.ErrInvalidConfiguration.
package config
