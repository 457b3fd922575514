package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bashhack/hookbak/internal/config"
	"github.com/bashhack/hookbak/internal/errors"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	app := NewDefaultApp(versionInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-c
		_, _ = fmt.Fprintf(app.Stderr, "\nReceived signal %v, stopping hookbak...\n", sig)

		// Cancel the context to signal graceful shutdown
		cancel()
	}()

	if err := newRootCommand(app).ExecuteContext(ctx); err != nil {
		// Don't treat context cancellation as an error since that's our normal signal shutdown path
		if !errors.Is(err, context.Canceled) {
			_, _ = fmt.Fprintf(app.Stderr, "❌ Error: %v\n", err)
			cancel()
			app.exit(1)
		}
	}
}
