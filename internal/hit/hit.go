// Package hit models one alignment between a query and a subject sequence
// and canonicalizes its coordinates.
package hit

import (
	"refmasker/internal/errs"
)

// Orientation of one side of an alignment.
type Orientation int8

const (
	Forward Orientation = iota
	Reverse
)

func (o Orientation) String() string {
	if o == Reverse {
		return "-"
	}
	return "+"
}

// Hit is one alignment reported by an aligner.
//
// Coordinates are 0-based half-open. Before normalization a reverse-strand
// pair is descending (Start > End) the way aligners report it; after
// Normalize every pair is ascending.
type Hit struct {
	SubjectID          string
	SubjectStart       int
	SubjectEnd         int
	SubjectOrientation Orientation

	QueryID          string
	QueryStart       int
	QueryEnd         int
	QueryOrientation Orientation
	QuerySeq         string

	// Informational, copied into reports only.
	Identity    float64
	EValue      float64
	BitScore    float64
	AlignLength int
}

// Normalize validates h against the sequence it is assigned to and returns
// its canonical form.
//
// The subject pair is checked against [0, length] before anything else; a
// forward-oriented hit must already be ascending. When exactly one side is
// reversed, QuerySeq is reverse-complemented; when both are, the reversals
// cancel and QuerySeq is kept.
func Normalize(h Hit, length int, name string) (Hit, error) {
	if h.SubjectID != name {
		return h, &errs.ValidationError{SubjectID: h.SubjectID, Sequence: name,
			Start: h.SubjectStart, End: h.SubjectEnd, Cause: errs.ErrIdentityMismatch}
	}
	if h.SubjectStart < 0 || h.SubjectEnd < 0 || h.SubjectStart > length || h.SubjectEnd > length {
		return h, outOfBounds(h, name)
	}

	sRev := h.SubjectOrientation == Reverse
	qRev := h.QueryOrientation == Reverse

	if sRev {
		h.SubjectStart, h.SubjectEnd = ordered(h.SubjectStart, h.SubjectEnd)
	} else if h.SubjectStart > h.SubjectEnd {
		return h, outOfBounds(h, name)
	}
	if qRev {
		h.QueryStart, h.QueryEnd = ordered(h.QueryStart, h.QueryEnd)
	}
	if sRev != qRev {
		h.QuerySeq = RevComp(h.QuerySeq)
	}
	return h, nil
}

func outOfBounds(h Hit, name string) error {
	return &errs.ValidationError{SubjectID: h.SubjectID, Sequence: name,
		Start: h.SubjectStart, End: h.SubjectEnd, Cause: errs.ErrOutOfBounds}
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
