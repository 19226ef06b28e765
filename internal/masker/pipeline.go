package masker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"refmasker/internal/align"
	"refmasker/internal/errs"
	"refmasker/internal/fasta"
	"refmasker/internal/hit"
	"refmasker/internal/reference"
	"refmasker/internal/sequence"
)

// Sink persists the rendered collection of one reference.
type Sink interface {
	Write(name string, recs []fasta.Record) error
}

// RefSpec names one input collection, in run order.
type RefSpec struct {
	Name string
	Path string
}

// Config wires a Pipeline.
type Config struct {
	Aligner      align.Aligner
	AlignOptions align.Options
	Threads      int           // concurrent alignments per subject; <1 means runtime.NumCPU()
	Timeout      time.Duration // per alignment call; 0 disables
	Render       sequence.RenderOptions
	ModifiedOnly bool
	WorkRoot     string
	Full         bool // keep per-hit detail in the statistics
	Sink         Sink
	Log          logrus.FieldLogger
}

// Pipeline runs the masking steps. A Pipeline may be reused for several
// runs; every run gets its own Registry.
type Pipeline struct {
	cfg Config
	log logrus.FieldLogger
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Aligner == nil {
		return nil, &errs.ConfigurationError{Field: "aligner", Message: "no aligner configured"}
	}
	if cfg.Sink == nil {
		return nil, &errs.ConfigurationError{Field: "output", Message: "no output configured"}
	}
	if cfg.Threads < 1 {
		cfg.Threads = runtime.NumCPU()
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{cfg: cfg, log: log}, nil
}

// Run masks refs in order. Configuration errors abort the run before any
// alignment; any other failure is recorded in the Result and the run goes
// on. Cancellation is observed between subject steps and during alignment;
// Run then returns the partial Result together with the context error.
func (p *Pipeline) Run(ctx context.Context, refs []RefSpec) (*Result, error) {
	start := time.Now()

	reg := NewRegistry()
	for _, r := range refs {
		if err := reg.Register(r.Name); err != nil {
			return nil, err
		}
	}

	res := &Result{References: make([]Outcome, len(refs))}
	for i, r := range refs {
		res.References[i] = Outcome{Name: r.Name, Status: StatusPending}
	}
	p.log.WithField("references", reg.Names()).Info("masking run started")
	if len(refs) < 2 {
		p.log.Warn("fewer than two references: nothing to mask")
	}

	loaded := make([]*reference.Reference, len(refs))
	defer func() {
		for _, r := range loaded {
			if r != nil {
				_ = r.Close()
			}
		}
	}()

	for i, spec := range refs {
		if err := ctx.Err(); err != nil {
			return res.finish(start), err
		}
		r, err := reference.Load(ctx, spec.Name, spec.Path, reference.Options{WorkRoot: p.cfg.WorkRoot, Log: p.log})
		switch {
		case err == nil:
			loaded[i] = r
			p.log.WithFields(logrus.Fields{"reference": spec.Name, "sequences": r.TotalSequences()}).Info("reference loaded")
		case errors.Is(err, errs.ErrConfiguration):
			return nil, err
		case errors.Is(err, errs.ErrStorage):
			res.References[i].fail(err)
			p.log.WithField("reference", spec.Name).WithError(err).Error("reference unavailable; excluded from the run")
		default:
			return res.finish(start), err
		}
	}

	for i := len(refs) - 1; i >= 1; i-- {
		if err := ctx.Err(); err != nil {
			return res.finish(start), err
		}
		subject := loaded[i]
		if subject == nil {
			continue
		}
		out := &res.References[i]
		stepStart := time.Now()

		skipped, err := p.step(ctx, subject, loaded[:i])
		p.release(subject)
		out.Skipped = skipped
		if err != nil {
			return res.finish(start), err
		}

		recs := subject.Render(p.cfg.Render, p.cfg.ModifiedOnly)
		out.Stats = subject.Statistics(p.cfg.Full)
		if err := p.write(subject.Name, recs); err != nil {
			out.fail(err)
		} else {
			out.Status = StatusRendered
		}
		p.log.WithFields(logrus.Fields{
			"reference": subject.Name,
			"hits":      out.Stats.Hits,
			"modified":  out.Stats.ModifiedBases,
			"skipped":   len(skipped),
			"elapsed":   time.Since(stepStart).Round(time.Millisecond),
		}).Info("reference masked")

		// Later subjects only align against earlier references.
		_ = subject.Close()
		loaded[i] = nil
	}

	if len(loaded) > 0 && loaded[0] != nil {
		first := loaded[0]
		out := &res.References[0]
		out.Stats = first.Statistics(p.cfg.Full)
		if err := p.write(first.Name, first.Records()); err != nil {
			out.fail(err)
		} else {
			out.Status = StatusUnmasked
		}
	}
	return res.finish(start), nil
}

// step aligns subject against every loaded query and dispatches the hits.
// The only error it returns is cancellation of ctx.
func (p *Pipeline) step(ctx context.Context, subject *reference.Reference, queries []*reference.Reference) ([]SkippedPair, error) {
	log := p.log.WithField("subject", subject.Name)
	st := target(subject)

	var (
		mu      sync.Mutex
		skipped []SkippedPair
	)
	skip := func(query string, err error) {
		mu.Lock()
		skipped = append(skipped, SkippedPair{Query: query, Err: err})
		mu.Unlock()
		log.WithField("query", query).WithError(err).Warn("alignment failed; pair skipped")
	}

	if prep, ok := p.cfg.Aligner.(align.SubjectPreparer); ok {
		pctx, cancel := p.withTimeout(ctx)
		err := prep.Prepare(pctx, st)
		timedOut := errors.Is(pctx.Err(), context.DeadlineExceeded)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			for _, q := range queries {
				if q != nil {
					skip(q.Name, &errs.AlignmentError{Query: q.Name, Subject: subject.Name, Timeout: timedOut, Err: err})
				}
			}
			return skipped, nil
		}
	}

	// Collector: the only goroutine dispatching into subject.
	results := make(chan []hit.Hit, p.cfg.Threads)
	var cwg sync.WaitGroup
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for hs := range results {
			subject.Dispatch(hs)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Threads)
	for _, q := range queries {
		if q == nil {
			continue
		}
		q := q
		g.Go(func() error {
			actx, cancel := p.withTimeout(gctx)
			defer cancel()

			hits, err := p.cfg.Aligner.Align(actx, target(q), st, p.cfg.AlignOptions)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				skip(q.Name, align.Wrap(q.Name, subject.Name, err))
				return nil
			}
			log.WithFields(logrus.Fields{"query": q.Name, "hits": len(hits)}).Debug("alignment done")
			select {
			case results <- hits:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err := g.Wait()
	close(results)
	cwg.Wait()

	if ctx.Err() != nil {
		return skipped, ctx.Err()
	}
	return skipped, err
}

// withTimeout bounds one aligner call by the configured timeout.
func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, p.cfg.Timeout)
	}
	return ctx, func() {}
}

func (p *Pipeline) release(subject *reference.Reference) {
	if rel, ok := p.cfg.Aligner.(align.SubjectReleaser); ok {
		rel.Release(target(subject))
	}
}

func (p *Pipeline) write(name string, recs []fasta.Record) error {
	if err := p.cfg.Sink.Write(name, recs); err != nil {
		var se *errs.StorageError
		if !errors.As(err, &se) {
			err = &errs.StorageError{Op: "write output of", Path: name, Err: err}
		}
		p.log.WithField("reference", name).WithError(err).Error("output failed")
		return err
	}
	return nil
}

func target(r *reference.Reference) align.Target {
	return align.Target{Name: r.Name, FastaPath: r.FastaPath(), WorkDir: r.WorkDir(), Records: r.Records()}
}
