// Package output persists rendered reference collections as FASTA files.
package output

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"refmasker/internal/errs"
	"refmasker/internal/fasta"
)

// MergedName is the base name of the merged output file.
const MergedName = "merged_references.fa"

// Options configure a Sink.
type Options struct {
	Dir       string
	Codec     fasta.Codec
	LineWidth int // <= 0 writes each sequence on one line
	// Merge collects every reference into one file written by Close, in
	// Order (names not in Order follow in arrival order).
	Merge bool
	Order []string
	Log   logrus.FieldLogger
}

// Sink writes one <name>_masked.fa[.gz|.xz] file per reference, or one
// merged file.
type Sink struct {
	opts Options
	log  logrus.FieldLogger

	mu      sync.Mutex
	pending map[string][]fasta.Record
	arrived []string
	files   []string
	closed  bool
}

// New creates the output directory.
func New(opts Options) (*Sink, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Codec == "" {
		opts.Codec = fasta.CodecNone
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &errs.StorageError{Op: "create output directory", Path: opts.Dir, Err: err}
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sink{opts: opts, log: log, pending: make(map[string][]fasta.Record)}, nil
}

// PathFor is the file a reference is written to when not merging.
func (s *Sink) PathFor(name string) string {
	return filepath.Join(s.opts.Dir, name+"_masked.fa"+s.opts.Codec.Ext())
}

// MergedPath is the merged output file.
func (s *Sink) MergedPath() string {
	return filepath.Join(s.opts.Dir, MergedName+s.opts.Codec.Ext())
}

// Write stores the collection of one reference.
func (s *Sink) Write(name string, recs []fasta.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Merge {
		if _, seen := s.pending[name]; !seen {
			s.arrived = append(s.arrived, name)
		}
		s.pending[name] = recs
		return nil
	}
	return s.writeFile(s.PathFor(name), recs)
}

// Close writes the merged file, if any. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.opts.Merge {
		s.closed = true
		return nil
	}
	s.closed = true

	var all []fasta.Record
	done := make(map[string]bool, len(s.pending))
	for _, names := range [][]string{s.opts.Order, s.arrived} {
		for _, n := range names {
			if recs, ok := s.pending[n]; ok && !done[n] {
				all = append(all, recs...)
				done[n] = true
			}
		}
	}
	return s.writeFile(s.MergedPath(), all)
}

// Files lists the files written so far.
func (s *Sink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

func (s *Sink) writeFile(path string, recs []fasta.Record) error {
	if err := fasta.WriteFile(path, s.opts.Codec, recs, s.opts.LineWidth); err != nil {
		_ = os.Remove(path)
		return &errs.StorageError{Op: "write", Path: path, Err: err}
	}
	s.files = append(s.files, path)
	s.log.WithFields(logrus.Fields{"file": path, "sequences": len(recs)}).Debug("output written")
	return nil
}
