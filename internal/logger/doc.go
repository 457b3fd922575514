// Package logger provides logging facilities for hookbak.
//
// Every hookbak invocation is a short-lived process, so the diagnostic record
// of what happened lives in an append-only, timestamped log file written via
// log/slog. User-facing messages are printed separately and never mixed into
// stdout of hook commands, which the host may parse.
//
// # Core Components
//
//   - Logger: the interface injected into every component
//   - DefaultLogger: slog text handler on the log file plus plain-text user streams
//
// # Message Types
//
//   - Info: file only, recorded when debug logging is enabled
//   - Warning: file, echoed to the user in verbose mode
//   - Error: file and stderr
//   - InfoToUser, WarningToUser, Success: file and the user stream
//   - StatusMessage: user stream only
//
// # Usage
//
//	log := logger.New(logger.Options{
//	    LogFile: "/repo/.hookbak/hookbak.log",
//	    Debug:   true,
//	    Stdout:  os.Stderr,
//	})
//	defer log.Close()
//
//	log.Info("queued %s", path)
//
// # Thread Safety
//
// DefaultLogger is safe for concurrent use; the watch command logs from the
// fsnotify loop and the flush ticker at the same time.
package logger
