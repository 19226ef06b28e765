// Package cli declares the refmasker command tree. Commands only parse and
// validate flags; the work is done by the Handlers.
package cli

import (
	"github.com/spf13/cobra"

	"refmasker/internal/version"
)

// Handlers implement the commands.
type Handlers struct {
	Run     func(cmd *cobra.Command, o RunOptions) error
	Init    func(cmd *cobra.Command, o InitOptions) error
	Version func(cmd *cobra.Command) error
}

// NewRoot builds the command tree.
func NewRoot(h Handlers) *cobra.Command {
	root := &cobra.Command{
		Use:   "refmasker",
		Short: "Mask homologies between reference sequence collections",
		Long: `refmasker masks (or replaces) the regions of each reference that are
homologous to any reference listed before it in the configuration file, so
that reads map unambiguously when the references are combined.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(h), newInitCmd(h), newVersionCmd(h))
	return root
}

func newRunCmd(h Handlers) *cobra.Command {
	var o RunOptions
	cmd := &cobra.Command{
		Use:   "run -c refmasker.toml",
		Short: "Run the iterative masking described by a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return h.Run(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.Config, "config", "c", "", "path to the TOML configuration file (required)")
	f.IntVarP(&o.Threads, "threads", "t", 0, "concurrent alignments, overrides align.threads (0 = from config)")
	f.StringVar(&o.LogLevel, "log-level", "info", "log level: trace | debug | info | warn | error")
	f.BoolVarP(&o.Quiet, "quiet", "q", false, "log errors only")
	f.BoolVar(&o.NoColor, "no-color", false, "disable colored summary")
	return cmd
}

func newInitCmd(h Handlers) *cobra.Command {
	o := defaultInitOptions()
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented example configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.Init(cmd, o)
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "file to write")
	cmd.Flags().BoolVar(&o.Force, "force", false, "overwrite an existing file")
	return cmd
}

func newVersionCmd(h Handlers) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.Version(cmd)
		},
	}
}
