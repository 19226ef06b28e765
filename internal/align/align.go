// Package align defines the contract between the masking pipeline and the
// programs that find homologies between two reference collections.
package align

import (
	"context"
	"errors"

	"refmasker/internal/errs"
	"refmasker/internal/fasta"
	"refmasker/internal/hit"
)

// Target is one reference collection as seen by an aligner.
type Target struct {
	Name      string
	FastaPath string         // uncompressed FASTA
	WorkDir   string         // scratch space owned by the reference
	Records   []fasta.Record // same content as FastaPath, in memory
}

// Options are forwarded to every Align call.
type Options struct {
	EValue          float64
	Task            string   // aligner-specific algorithm variant
	BestHitPerQuery bool     // keep only the best hit of each query sequence
	ExtraArgs       []string // passed verbatim to external programs
}

// Aligner aligns the sequences of query against those of subject and
// returns raw hits whose SubjectID names a subject sequence. Failures are
// reported as *errs.AlignmentError.
type Aligner interface {
	Align(ctx context.Context, query, subject Target, opts Options) ([]hit.Hit, error)
}

// SubjectPreparer is implemented by aligners that build an index of the
// subject once before it is aligned against its queries.
type SubjectPreparer interface {
	Prepare(ctx context.Context, subject Target) error
}

// SubjectReleaser is implemented by aligners that keep per-subject state
// (an index, a database handle) after Prepare. Release is called once the
// subject has been aligned against all of its queries.
type SubjectReleaser interface {
	Release(subject Target)
}

// Wrap turns err into an *errs.AlignmentError for the pair. Deadline
// expiry is flagged as a timeout.
func Wrap(query, subject string, err error) error {
	if err == nil {
		return nil
	}
	var ae *errs.AlignmentError
	if errors.As(err, &ae) {
		return err
	}
	return &errs.AlignmentError{
		Query:   query,
		Subject: subject,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}
