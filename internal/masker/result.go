package masker

import (
	"time"

	"refmasker/internal/reference"
)

// Status is the outcome of one reference.
type Status int

const (
	StatusPending  Status = iota // not reached, e.g. after cancellation
	StatusRendered               // masked and written
	StatusUnmasked               // first reference, written unchanged
	StatusFailed                 // unreadable input or failed output
)

func (s Status) String() string {
	switch s {
	case StatusRendered:
		return "rendered"
	case StatusUnmasked:
		return "unmasked"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// SkippedPair is a query whose alignment against the subject failed.
type SkippedPair struct {
	Query string
	Err   error
}

// Outcome is the per-reference part of a Result.
type Outcome struct {
	Name    string
	Status  Status
	Stats   reference.Stats
	Skipped []SkippedPair
	Err     error
}

func (o *Outcome) fail(err error) {
	o.Status = StatusFailed
	o.Err = err
}

// Result summarizes one run, references in run order.
type Result struct {
	References []Outcome
	Elapsed    time.Duration
}

func (r *Result) finish(start time.Time) *Result {
	r.Elapsed = time.Since(start)
	return r
}

// Partial reports whether anything went wrong short of aborting the run:
// a failed reference, a skipped pair or a reference never reached.
func (r *Result) Partial() bool {
	for _, o := range r.References {
		if o.Status == StatusFailed || o.Status == StatusPending || len(o.Skipped) > 0 {
			return true
		}
	}
	return false
}

// Failed counts the failed references.
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.References {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}

// SkippedPairs counts the skipped alignments over all subjects.
func (r *Result) SkippedPairs() int {
	n := 0
	for _, o := range r.References {
		n += len(o.Skipped)
	}
	return n
}

// ModifiedBases sums the modified bases over all references.
func (r *Result) ModifiedBases() int {
	n := 0
	for _, o := range r.References {
		n += o.Stats.ModifiedBases
	}
	return n
}
