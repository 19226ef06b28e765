// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"refmasker/internal/align"
	"refmasker/internal/align/blast"
	"refmasker/internal/align/kmer"
	"refmasker/internal/cli"
	"refmasker/internal/config"
	"refmasker/internal/errs"
	"refmasker/internal/logging"
	"refmasker/internal/masker"
	"refmasker/internal/output"
	"refmasker/internal/report"
	"refmasker/internal/version"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2 // bad flags or configuration
	ExitFatal     = 3 // the run could not complete
	ExitPartial   = 4 // some reference failed or some alignment was skipped
	ExitCancelled = 130
)

// RunContext executes the command line argv. Cancelling parent stops a
// running masking between steps and aborts running alignments.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	code := ExitOK
	root := cli.NewRoot(cli.Handlers{
		Run: func(_ *cobra.Command, o cli.RunOptions) error {
			code = runMasking(parent, o, stdout, stderr)
			return nil
		},
		Init: func(_ *cobra.Command, o cli.InitOptions) error {
			code = writeExample(o, stdout, stderr)
			return nil
		},
		Version: func(*cobra.Command) error {
			if _, err := fmt.Fprintf(stdout, "refmasker version %s\n", version.String()); err != nil && !isBrokenPipe(err) {
				return err
			}
			return nil
		},
	})
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(parent); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		_, _ = fmt.Fprintln(stderr, "Run 'refmasker --help' for usage.")
		return ExitUsage
	}
	return code
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func writeExample(o cli.InitOptions, stdout, stderr io.Writer) int {
	if err := config.WriteExample(o.Output, o.Force); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, errs.ErrConfiguration) {
			return ExitUsage
		}
		return ExitFatal
	}
	_, _ = fmt.Fprintf(stdout, "example configuration written to %s\n", o.Output)
	return ExitOK
}

func runMasking(ctx context.Context, o cli.RunOptions, stdout, stderr io.Writer) int {
	cfg, err := config.Load(o.Config)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	if o.Threads > 0 {
		cfg.Align.Threads = o.Threads
	}
	level, _ := logging.ParseLevel(o.LogLevel)
	log := logging.New(stderr, level, o.Quiet)
	log.WithFields(logrus.Fields{"config": cfg.Path, "version": version.String()}).Info("refmasker starting")

	timeout, _ := cfg.TimeoutDuration()
	refs := make([]masker.RefSpec, len(cfg.References))
	names := make([]string, len(cfg.References))
	for i, r := range cfg.References {
		refs[i] = masker.RefSpec{Name: r.Name, Path: r.Fasta}
		names[i] = r.Name
	}

	sink, err := output.New(output.Options{
		Dir:       cfg.Output.Dir,
		Codec:     cfg.Codec(),
		LineWidth: cfg.Output.LineWidth,
		Merge:     cfg.Output.MergeRef,
		Order:     names,
		Log:       log,
	})
	if err != nil {
		log.WithError(err).Error("cannot prepare output")
		return ExitFatal
	}

	p, err := masker.New(masker.Config{
		Aligner:      newAligner(cfg, log),
		AlignOptions: cfg.AlignOptions(),
		Threads:      cfg.Align.Threads,
		Timeout:      timeout,
		Render:       cfg.RenderOptions(),
		ModifiedOnly: cfg.Output.ModifSeqOnly,
		WorkRoot:     cfg.Output.WorkDir,
		Full:         cfg.Output.ReportFull,
		Sink:         sink,
		Log:          log,
	})
	if err != nil {
		log.WithError(err).Error("invalid setup")
		return ExitUsage
	}

	res, runErr := p.Run(ctx, refs)
	cancelled := errors.Is(runErr, context.Canceled)
	if runErr != nil && !cancelled {
		log.WithError(runErr).Error("run aborted")
		if errors.Is(runErr, errs.ErrConfiguration) {
			return ExitUsage
		}
		return ExitFatal
	}

	code := ExitOK
	if !cancelled {
		if err := sink.Close(); err != nil {
			log.WithError(err).Error("merged output failed")
			code = ExitFatal
		}
	}

	rep := report.Build(res, report.Meta{Cancelled: cancelled})
	if formats := cfg.ReportFormats(); len(formats) > 0 {
		paths, err := report.WriteFiles(cfg.Output.Dir, formats, rep)
		if err != nil {
			log.WithError(err).Error("report failed")
			if code == ExitOK {
				code = ExitPartial
			}
		}
		for _, path := range paths {
			log.WithField("file", path).Info("report written")
		}
	}

	if err := printSummary(stdout, res, rep.Status, o.NoColor); err != nil && !isBrokenPipe(err) {
		log.WithError(err).Warn("cannot print summary")
	}

	switch {
	case cancelled:
		return ExitCancelled
	case code != ExitOK:
		return code
	case res.Partial():
		return ExitPartial
	}
	return ExitOK
}

func newAligner(cfg *config.Config, log logrus.FieldLogger) align.Aligner {
	if cfg.Align.Aligner == config.AlignerKmer {
		mm := cfg.Align.MaxMismatch
		if mm == 0 {
			mm = -1 // exact matches only
		}
		return kmer.New(kmer.Config{
			K:           cfg.Align.KmerSize,
			MinLength:   cfg.Align.MinLength,
			MaxMismatch: mm,
			Log:         log,
		})
	}
	return blast.New(blast.Config{
		Blastn:          cfg.Align.Blastn,
		MakeBlastDB:     cfg.Align.MakeBlastDB,
		MakeBlastDBArgs: strings.Fields(cfg.Align.MakeBlastDBOpt),
		Log:             log,
	})
}

// printSummary writes the one-line run summary, colored on terminals.
func printSummary(w io.Writer, res *masker.Result, status string, noColor bool) error {
	c := color.New(color.FgGreen, color.Bold)
	switch status {
	case report.StatusPartial:
		c = color.New(color.FgYellow, color.Bold)
	case report.StatusCancelled:
		c = color.New(color.FgRed, color.Bold)
	}
	if noColor {
		c.DisableColor()
	}
	rendered := 0
	for _, o := range res.References {
		if o.Status == masker.StatusRendered {
			rendered++
		}
	}
	_, err := fmt.Fprintf(w, "%s %d of %d references masked, %s bases modified, %d failed, %d alignments skipped, done in %s\n",
		c.Sprint(strings.ToUpper(status)),
		rendered, max(len(res.References)-1, 0),
		humanize.Comma(int64(res.ModifiedBases())),
		res.Failed(), res.SkippedPairs(),
		res.Elapsed.Round(time.Millisecond))
	return err
}

// isBrokenPipe reports whether an error is a broken or closed pipe, as when
// stdout is piped into head.
func isBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
