// Package main implements hookbak, checkpoint commits for files a coding
// agent edits.
//
// The agent's host runs hookbak as short-lived hook processes. Every file
// edit is appended to a durable queue by "hookbak record"; "hookbak flush"
// later turns the whole queue into one attributed git commit. The two never
// talk to each other except through the queue file.
//
// # Host hooks
//
// Hook commands read the host's JSON event from stdin and always exit 0.
// Faults are written to the diagnostic log instead of failing the agent's
// turn.
//
//	hookbak record           # after each edit tool call
//	hookbak record --commit  # record, then flush at once
//	hookbak flush            # when the agent stops
//	hookbak context          # on session start, prints one JSON object
//
// # Operator commands
//
//	hookbak status [--json]  # list queued paths
//	hookbak clear            # discard the queue
//	hookbak watch            # queue edits seen on disk, flush on an interval
//	hookbak version
//
// # Configuration
//
// Settings come from, lowest to highest precedence: built-in defaults,
// <project>/.hookbak/config.yaml, HOOKBAK_* environment variables and flags.
// The project root defaults to $CLAUDE_PROJECT_DIR, then the working
// directory.
//
//	--project-dir     HOOKBAK_PROJECT_DIR
//	--queue-file      HOOKBAK_QUEUE_FILE      (default .hookbak/queue.json)
//	--log-file        HOOKBAK_LOG_FILE        (default .hookbak/hookbak.log)
//	--lock-timeout    HOOKBAK_LOCK_TIMEOUT    (default 2s)
//	--flush-interval  HOOKBAK_FLUSH_INTERVAL  (watch, default 5m)
//	--max-retries     HOOKBAK_MAX_RETRIES     (watch, default 3)
//	--debug           HOOKBAK_DEBUG
//	--verbose         HOOKBAK_VERBOSE
package main
