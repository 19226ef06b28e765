// Package reference groups the sequences of one input collection, routes
// alignment hits to them and renders the collection.
package reference

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"refmasker/internal/errs"
	"refmasker/internal/fasta"
	"refmasker/internal/hit"
	"refmasker/internal/sequence"
)

// Options configure how a Reference acquires its working storage.
type Options struct {
	WorkRoot string // parent of the working directory; "" means os.TempDir()
	Log      logrus.FieldLogger
}

// Reference is one named reference collection.
//
// A Reference owns a working directory holding an uncompressed copy of its
// sequences, used as aligner input. Close releases it.
type Reference struct {
	Name string

	mu        sync.Mutex
	order     []string
	seqs      map[string]*sequence.Sequence
	rejected  int
	unmatched int

	workDir   string
	fastaPath string
	log       logrus.FieldLogger
}

// DispatchResult counts what happened to one batch of hits.
type DispatchResult struct {
	Accepted  int
	Rejected  int // failed validation against their sequence
	Unmatched int // subject id unknown to this reference
}

// New builds a Reference from recs, in record order. Duplicate sequence
// names are a configuration error. On success the caller must Close.
func New(name string, recs []fasta.Record, opts Options) (*Reference, error) {
	r := &Reference{
		Name: name,
		seqs: make(map[string]*sequence.Sequence, len(recs)),
		log:  opts.Log,
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	r.log = r.log.WithField("reference", name)

	for _, rec := range recs {
		if _, dup := r.seqs[rec.ID]; dup {
			return nil, &errs.ConfigurationError{
				Field:   "reference " + name,
				Message: "sequence name " + quote(rec.ID) + " is duplicated",
			}
		}
		r.seqs[rec.ID] = sequence.New(rec.ID, rec.Seq)
		r.order = append(r.order, rec.ID)
	}

	dir, err := os.MkdirTemp(opts.WorkRoot, "refmasker-"+safeName(name)+"-")
	if err != nil {
		return nil, &errs.StorageError{Op: "create working directory for", Path: name, Err: err}
	}
	r.workDir = dir
	r.fastaPath = filepath.Join(dir, safeName(name)+".fa")
	if err := fasta.WriteFile(r.fastaPath, fasta.CodecNone, recs, fasta.DefaultLineWidth); err != nil {
		_ = os.RemoveAll(dir)
		return nil, &errs.StorageError{Op: "write", Path: r.fastaPath, Err: err}
	}
	return r, nil
}

// Load reads the FASTA file at path (plain, gzip or xz) and builds the
// Reference from it.
func Load(ctx context.Context, name, path string, opts Options) (*Reference, error) {
	recs, err := fasta.ReadFile(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errs.StorageError{Op: "read", Path: path, Err: err}
	}
	return New(name, recs, opts)
}

// Close removes the working directory. It is safe to call more than once.
func (r *Reference) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workDir == "" {
		return nil
	}
	err := os.RemoveAll(r.workDir)
	r.workDir = ""
	return err
}

// WorkDir is the reference's private scratch directory.
func (r *Reference) WorkDir() string { return r.workDir }

// FastaPath is the uncompressed copy of the input inside WorkDir.
func (r *Reference) FastaPath() string { return r.fastaPath }

// Records returns the original sequences in input order.
func (r *Reference) Records() []fasta.Record {
	out := make([]fasta.Record, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, fasta.Record{ID: name, Seq: r.seqs[name].Bases})
	}
	return out
}

// Dispatch routes every hit to the sequence named by its subject id. Hits
// for unknown sequences are dropped as unmatched; hits failing validation
// are rejected. Both are logged and counted, neither is fatal.
// Dispatch is safe for concurrent use.
func (r *Reference) Dispatch(hits []hit.Hit) DispatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res DispatchResult
	for _, h := range hits {
		s, ok := r.seqs[h.SubjectID]
		if !ok {
			res.Unmatched++
			r.log.WithFields(logrus.Fields{"sequence": h.SubjectID, "query": h.QueryID}).
				Warn("hit references an unknown sequence; dropped")
			continue
		}
		if err := s.AddHit(h); err != nil {
			res.Rejected++
			r.log.WithFields(logrus.Fields{"sequence": s.Name, "query": h.QueryID}).
				WithError(err).Warn("hit rejected")
			continue
		}
		res.Accepted++
	}
	r.rejected += res.Rejected
	r.unmatched += res.Unmatched
	return res
}

// Render renders every sequence in input order. Sequences without hits are
// emitted unchanged, or omitted when modifiedOnly is set.
func (r *Reference) Render(opts sequence.RenderOptions, modifiedOnly bool) []fasta.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]fasta.Record, 0, len(r.order))
	for _, name := range r.order {
		s := r.seqs[name]
		if s.NumHits() == 0 {
			if !modifiedOnly {
				out = append(out, fasta.Record{ID: name, Seq: s.Bases})
			}
			continue
		}
		out = append(out, fasta.Record{ID: name, Seq: []byte(s.Render(opts))})
	}
	return out
}

// TotalHits is the number of accepted hits over all sequences.
func (r *Reference) TotalHits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.seqs {
		n += s.NumHits()
	}
	return n
}

// TotalSequences is the number of sequences in the collection.
func (r *Reference) TotalSequences() int { return len(r.order) }

func quote(s string) string { return `"` + s + `"` }

// safeName keeps directory and file names portable.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
