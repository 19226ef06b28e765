// Package kmer is a self-contained seed-and-extend aligner. It needs no
// external programs, which makes it the aligner of choice for tests and for
// hosts without BLAST+.
//
// Exact k-mer seeds shared by query and subject are extended without gaps in
// both directions under a shared mismatch budget. Both query strands are
// searched; reverse-strand matches are reported the way blastn reports them
// (query forward, subject descending).
package kmer

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"refmasker/internal/align"
	"refmasker/internal/fasta"
	"refmasker/internal/hit"
)

// Defaults.
const (
	DefaultK           = 15
	DefaultMinLength   = 20
	DefaultMaxMismatch = 3
)

// Config tunes seeding and extension. Zero values select the defaults; a
// negative MaxMismatch allows exact matches only.
type Config struct {
	K           int
	MinLength   int
	MaxMismatch int
	Log         logrus.FieldLogger
}

// Aligner implements align.Aligner. EValue and ExtraArgs from align.Options
// are ignored; Task is ignored as well.
type Aligner struct {
	cfg Config

	mu      sync.Mutex
	indexes map[string]*indexState
}

type indexState struct {
	once sync.Once
	idx  *index
	err  error
}

var _ align.Aligner = (*Aligner)(nil)
var _ align.SubjectPreparer = (*Aligner)(nil)
var _ align.SubjectReleaser = (*Aligner)(nil)

// New returns a k-mer aligner.
func New(cfg Config) *Aligner {
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	switch {
	case cfg.MaxMismatch == 0:
		cfg.MaxMismatch = DefaultMaxMismatch
	case cfg.MaxMismatch < 0:
		cfg.MaxMismatch = 0
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &Aligner{cfg: cfg, indexes: make(map[string]*indexState)}
}

// Prepare indexes the subject k-mers once.
func (a *Aligner) Prepare(ctx context.Context, subject align.Target) error {
	_, err := a.index(ctx, subject)
	return err
}

// Release drops the subject index.
func (a *Aligner) Release(subject align.Target) {
	a.mu.Lock()
	delete(a.indexes, indexKey(subject))
	a.mu.Unlock()
}

func indexKey(t align.Target) string { return t.Name + "\x00" + t.WorkDir }

func (a *Aligner) index(ctx context.Context, subject align.Target) (*index, error) {
	key := indexKey(subject)
	a.mu.Lock()
	st, ok := a.indexes[key]
	if !ok {
		st = &indexState{}
		a.indexes[key] = st
	}
	a.mu.Unlock()

	st.once.Do(func() {
		recs := subject.Records
		if recs == nil && subject.FastaPath != "" {
			recs, st.err = fasta.ReadFile(ctx, subject.FastaPath)
			if st.err != nil {
				return
			}
		}
		st.idx = buildIndex(recs, a.cfg.K)
		a.cfg.Log.WithFields(logrus.Fields{"subject": subject.Name, "kmers": len(st.idx.kmers)}).Debug("indexed subject")
	})
	return st.idx, st.err
}

// Align reports every ungapped match of at least MinLength bases between a
// query sequence and a subject sequence.
func (a *Aligner) Align(ctx context.Context, query, subject align.Target, opts align.Options) ([]hit.Hit, error) {
	idx, err := a.index(ctx, subject)
	if err != nil {
		return nil, align.Wrap(query.Name, subject.Name, err)
	}
	queries := query.Records
	if queries == nil && query.FastaPath != "" {
		if queries, err = fasta.ReadFile(ctx, query.FastaPath); err != nil {
			return nil, align.Wrap(query.Name, subject.Name, err)
		}
	}

	var out []hit.Hit
	for _, rec := range queries {
		if err := ctx.Err(); err != nil {
			return nil, align.Wrap(query.Name, subject.Name, err)
		}
		hits := a.search(idx, rec)
		if opts.BestHitPerQuery && len(hits) > 1 {
			hits = best(hits)
		}
		out = append(out, hits...)
	}
	return out, nil
}

// search finds the matches of one query record on both strands.
func (a *Aligner) search(idx *index, rec fasta.Record) []hit.Hit {
	fwd := bytes.ToUpper(rec.Seq)
	rev := []byte(hit.RevComp(string(fwd)))
	qlen := len(fwd)

	var out []hit.Hit
	for _, strand := range []hit.Orientation{hit.Forward, hit.Reverse} {
		q := fwd
		if strand == hit.Reverse {
			q = rev
		}
		for _, m := range a.matches(idx, q) {
			subj := idx.recs[m.rec]
			h := hit.Hit{
				SubjectID:   subj.ID,
				QueryID:     rec.ID,
				Identity:    100 * float64(m.length-m.mismatches) / float64(m.length),
				BitScore:    float64(m.length - 3*m.mismatches),
				AlignLength: m.length,
			}
			if strand == hit.Forward {
				h.SubjectStart, h.SubjectEnd = m.s, m.s+m.length
				h.QueryStart, h.QueryEnd = m.q, m.q+m.length
			} else {
				h.SubjectOrientation = hit.Reverse
				h.SubjectStart, h.SubjectEnd = m.s+m.length, m.s
				h.QueryStart, h.QueryEnd = qlen-m.q-m.length, qlen-m.q
			}
			h.QuerySeq = string(rec.Seq[h.QueryStart:h.QueryEnd])
			out = append(out, h)
		}
	}
	return out
}

// best keeps the highest scoring hit; ties go to the first reported.
func best(hits []hit.Hit) []hit.Hit {
	b := 0
	for i := 1; i < len(hits); i++ {
		if hits[i].BitScore > hits[b].BitScore {
			b = i
		}
	}
	return hits[b : b+1]
}

type match struct {
	rec        int
	q, s       int // match start in the searched query strand and the subject
	length     int
	mismatches int
}

type diagonal struct {
	rec  int
	diag int
}

// matches seeds q against the index and extends every seed not already
// covered by an extension on the same diagonal.
func (a *Aligner) matches(idx *index, q []byte) []match {
	k := a.cfg.K
	if len(q) < k {
		return nil
	}
	covered := make(map[diagonal]int)
	var out []match
	for i := 0; i+k <= len(q); i++ {
		kmer := q[i : i+k]
		if !acgt(kmer) {
			continue
		}
		for _, p := range idx.kmers[string(kmer)] {
			d := diagonal{rec: p.rec, diag: p.pos - i}
			if end, ok := covered[d]; ok && i < end {
				continue
			}
			m := extend(q, idx.seqs[p.rec], i, p.pos, k, a.cfg.MaxMismatch)
			m.rec = p.rec
			covered[d] = m.q + m.length
			if m.length >= a.cfg.MinLength {
				out = append(out, m)
			}
		}
	}
	return out
}

// extend grows the exact seed q[qi:qi+k] == s[si:si+k] without gaps. Both
// directions draw on one mismatch budget and each side is trimmed back to
// its last matching base.
func extend(q, s []byte, qi, si, k, maxMismatch int) match {
	mm := 0
	end, bestEnd, mmAtEnd := k, k, 0
	for qi+end < len(q) && si+end < len(s) {
		if q[qi+end] == s[si+end] {
			end++
			bestEnd, mmAtEnd = end, mm
			continue
		}
		if mm == maxMismatch {
			break
		}
		mm++
		end++
	}

	mm = mmAtEnd
	back, bestBack, mmAtBack := 0, 0, mm
	for qi-back-1 >= 0 && si-back-1 >= 0 {
		if q[qi-back-1] == s[si-back-1] {
			back++
			bestBack, mmAtBack = back, mm
			continue
		}
		if mm == maxMismatch {
			break
		}
		mm++
		back++
	}
	return match{q: qi - bestBack, s: si - bestBack, length: bestBack + bestEnd, mismatches: mmAtBack}
}

func acgt(b []byte) bool {
	for _, c := range b {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

type position struct {
	rec int
	pos int
}

type index struct {
	recs  []fasta.Record
	seqs  [][]byte // upper-cased copies of recs
	kmers map[string][]position
}

func buildIndex(recs []fasta.Record, k int) *index {
	idx := &index{recs: recs, seqs: make([][]byte, len(recs)), kmers: make(map[string][]position)}
	for r, rec := range recs {
		s := bytes.ToUpper(rec.Seq)
		idx.seqs[r] = s
		for i := 0; i+k <= len(s); i++ {
			kmer := s[i : i+k]
			if !acgt(kmer) {
				continue
			}
			idx.kmers[string(kmer)] = append(idx.kmers[string(kmer)], position{rec: r, pos: i})
		}
	}
	return idx
}

func (m match) String() string {
	return fmt.Sprintf("rec=%d q=%d s=%d len=%d mm=%d", m.rec, m.q, m.s, m.length, m.mismatches)
}
