// internal/cli/options.go
package cli

import (
	"errors"
	"fmt"
	"strings"

	"refmasker/internal/config"
	"refmasker/internal/logging"
)

// RunOptions holds the flags of "refmasker run".
type RunOptions struct {
	Config   string
	Threads  int // overrides align.threads when > 0
	LogLevel string
	Quiet    bool
	NoColor  bool
}

// InitOptions holds the flags of "refmasker init".
type InitOptions struct {
	Output string
	Force  bool
}

// Validate checks flag combinations cobra cannot express.
func (o RunOptions) Validate() error {
	if strings.TrimSpace(o.Config) == "" {
		return errors.New("--config is required")
	}
	if o.Threads < 0 {
		return fmt.Errorf("--threads must be >= 0, got %d", o.Threads)
	}
	if _, err := logging.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("--log-level: %q is not one of %s", o.LogLevel, strings.Join(logging.Levels, " | "))
	}
	return nil
}

func defaultInitOptions() InitOptions {
	return InitOptions{Output: config.DefaultExampleName}
}
