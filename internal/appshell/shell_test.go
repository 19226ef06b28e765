package appshell

import (
	"context"
	"io"
	"syscall"
	"testing"
	"time"
)

func TestRunPassesArgsAndCode(t *testing.T) {
	var got []string
	code := Run(func(_ context.Context, argv []string, _, _ io.Writer) int {
		got = argv
		return 4
	}, []string{"run", "-c", "x.toml"}, io.Discard, io.Discard)
	if code != 4 || len(got) != 3 || got[2] != "x.toml" {
		t.Fatalf("code=%d argv=%v", code, got)
	}
}

func TestSignalCancelsContext(t *testing.T) {
	code := Run(func(ctx context.Context, _ []string, _, _ io.Writer) int {
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
			t.Errorf("kill: %v", err)
			return 1
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(5 * time.Second):
			t.Error("context not cancelled by SIGTERM")
			return 1
		}
	}, nil, io.Discard, io.Discard)
	if code != ExitCancelled {
		t.Fatalf("code = %d, want %d", code, ExitCancelled)
	}
}
