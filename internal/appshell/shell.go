// Package appshell runs a command line entry point under a context that
// is cancelled on SIGINT or SIGTERM.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitCancelled is reported when a signal arrived but the entry point
// still returned 0.
const ExitCancelled = 130

// Entry is a command line entry point returning a process exit code.
type Entry func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Run calls entry with argv under a signal-aware context and returns its
// exit code. A second signal is left to the default handler, which kills
// the process.
func Run(entry Entry, argv []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		stop()
	}()

	code := entry(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = ExitCancelled
	}
	return code
}

// Main runs entry on the process arguments and exits.
func Main(entry Entry) {
	os.Exit(Run(entry, os.Args[1:], os.Stdout, os.Stderr))
}
