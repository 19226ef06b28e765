// Package sequence holds one subject sequence together with the hits
// assigned to it, and renders the masked (or replaced) sequence.
package sequence

import (
	"sort"
	"strings"

	"refmasker/internal/hit"
)

// Mode selects how covered regions are rendered.
type Mode int

const (
	// ModeMask writes MaskChar over every covered base.
	ModeMask Mode = iota
	// ModeReplace writes the aligned query bases over covered regions.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "mask"
}

// DefaultMaskChar is the ambiguity symbol used when none is configured.
const DefaultMaskChar = 'N'

// RenderOptions parameterizes Render.
type RenderOptions struct {
	Mode     Mode
	MaskChar byte // 0 means DefaultMaskChar
}

func (o RenderOptions) maskChar() byte {
	if o.MaskChar == 0 {
		return DefaultMaskChar
	}
	return o.MaskChar
}

// Sequence is one named subject sequence and its accumulated hits.
// It is not safe for concurrent use; reference.Reference serializes access.
type Sequence struct {
	Name  string
	Bases []byte // read-only

	hits     []hit.Hit
	modified int
}

// New wraps bases under name. bases is not copied and must not be modified.
func New(name string, bases []byte) *Sequence {
	return &Sequence{Name: name, Bases: bases}
}

func (s *Sequence) Len() int { return len(s.Bases) }

// NumHits is the number of accepted hits.
func (s *Sequence) NumHits() int { return len(s.hits) }

// Hits returns the accepted hits in insertion order.
func (s *Sequence) Hits() []hit.Hit { return s.hits }

// ModifiedBases is the number of bases rewritten by the last Render.
func (s *Sequence) ModifiedBases() int { return s.modified }

// AddHit normalizes h and appends it. A hit that fails validation is not
// appended and the *errs.ValidationError is returned.
func (s *Sequence) AddHit(h hit.Hit) error {
	n, err := hit.Normalize(h, len(s.Bases), s.Name)
	if err != nil {
		return err
	}
	s.hits = append(s.hits, n)
	return nil
}

// sortedHits returns a copy ordered by subject start, then subject end.
func (s *Sequence) sortedHits() []hit.Hit {
	hs := append([]hit.Hit(nil), s.hits...)
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].SubjectStart != hs[j].SubjectStart {
			return hs[i].SubjectStart < hs[j].SubjectStart
		}
		return hs[i].SubjectEnd < hs[j].SubjectEnd
	})
	return hs
}

// Render returns the sequence with every merged hit interval rewritten.
//
// Hits are swept by subject start; a hit starting at most one base after the
// current interval end is merged into it, so a one-base gap between two hits
// is closed. Masked runs cover [start, end) exactly. The accumulated hit list
// is left untouched and ModifiedBases is recomputed on each call.
func (s *Sequence) Render(opts RenderOptions) string {
	s.modified = 0
	if len(s.hits) == 0 {
		return string(s.Bases)
	}
	if opts.Mode == ModeReplace {
		return s.renderReplace(opts.maskChar())
	}

	mc := opts.maskChar()
	hs := s.sortedHits()

	var b strings.Builder
	b.Grow(len(s.Bases))

	startMask, endMask := hs[0].SubjectStart, hs[0].SubjectEnd
	b.Write(s.Bases[:startMask])

	flush := func(next int) {
		n := endMask - startMask
		for i := 0; i < n; i++ {
			b.WriteByte(mc)
		}
		s.modified += n
		b.Write(s.Bases[endMask:next])
	}

	for _, h := range hs[1:] {
		if h.SubjectStart <= endMask+1 {
			if h.SubjectEnd > endMask {
				endMask = h.SubjectEnd
			}
			continue
		}
		flush(h.SubjectStart)
		startMask, endMask = h.SubjectStart, h.SubjectEnd
	}
	flush(len(s.Bases))
	return b.String()
}

// renderReplace substitutes covered regions with query text.
//
// Hits are visited by subject start and the leftmost hit covering a base
// wins: it contributes its whole query text, while a later overlapping hit
// only contributes the text lying past the subject span already written,
// obtained by trimming the overlap length from the front of its text.
// Uncovered bases, including one-base gaps, are copied. Hits without
// captured query text are masked with mc. Alignment gap symbols are dropped.
func (s *Sequence) renderReplace(mc byte) string {
	hs := s.sortedHits()

	var b strings.Builder
	b.Grow(len(s.Bases))

	cursor := 0 // next subject base not yet written
	for _, h := range hs {
		switch {
		case h.SubjectEnd <= cursor:
			continue
		case h.SubjectStart > cursor:
			b.Write(s.Bases[cursor:h.SubjectStart])
			cursor = h.SubjectStart
		}
		overlap := cursor - h.SubjectStart
		span := h.SubjectEnd - cursor
		s.modified += span

		text := strings.ReplaceAll(h.QuerySeq, "-", "")
		if text == "" {
			for i := 0; i < span; i++ {
				b.WriteByte(mc)
			}
		} else if overlap < len(text) {
			b.WriteString(text[overlap:])
		}
		cursor = h.SubjectEnd
	}
	b.Write(s.Bases[cursor:])
	return b.String()
}
