// internal/cli/commands_test.go
package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

type captured struct {
	run     *RunOptions
	init    *InitOptions
	version bool
}

func execute(t *testing.T, args ...string) (captured, error) {
	t.Helper()
	var c captured
	root := NewRoot(Handlers{
		Run:     func(_ *cobra.Command, o RunOptions) error { c.run = &o; return nil },
		Init:    func(_ *cobra.Command, o InitOptions) error { c.init = &o; return nil },
		Version: func(*cobra.Command) error { c.version = true; return nil },
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return c, root.Execute()
}

func TestRunFlags(t *testing.T) {
	c, err := execute(t, "run", "-c", "conf.toml", "--threads", "4", "--log-level", "debug", "-q")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if c.run == nil || c.run.Config != "conf.toml" || c.run.Threads != 4 || c.run.LogLevel != "debug" || !c.run.Quiet {
		t.Fatalf("run options = %+v", c.run)
	}
}

func TestRunDefaults(t *testing.T) {
	c, err := execute(t, "run", "--config", "x.toml")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if c.run.LogLevel != "info" || c.run.Threads != 0 || c.run.Quiet || c.run.NoColor {
		t.Fatalf("run options = %+v", c.run)
	}
}

func TestRunErrors(t *testing.T) {
	for _, args := range [][]string{
		{"run"},
		{"run", "-c", "x.toml", "--threads", "-2"},
		{"run", "-c", "x.toml", "--log-level", "loud"},
		{"run", "-c", "x.toml", "extra"},
		{"run", "--bogus"},
		{"frobnicate"},
	} {
		c, err := execute(t, args...)
		if err == nil {
			t.Errorf("%v: expected an error", args)
		}
		if c.run != nil {
			t.Errorf("%v: handler called", args)
		}
	}
}

func TestInitFlags(t *testing.T) {
	c, err := execute(t, "init")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if c.init.Output != "refmasker.toml" || c.init.Force {
		t.Fatalf("init defaults = %+v", c.init)
	}
	c, err = execute(t, "init", "-o", "my.toml", "--force")
	if err != nil || c.init.Output != "my.toml" || !c.init.Force {
		t.Fatalf("init = %+v, %v", c.init, err)
	}
}

func TestVersion(t *testing.T) {
	c, err := execute(t, "version")
	if err != nil || !c.version {
		t.Fatalf("version handler not called: %v", err)
	}
}
