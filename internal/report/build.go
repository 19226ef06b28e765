// Package report turns a masking Result into the stable api.ReportV1 and
// serializes it as CSV or JSON.
package report

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"refmasker/internal/errs"
	"refmasker/internal/hit"
	"refmasker/internal/masker"
	"refmasker/pkg/api"
)

// Run statuses.
const (
	StatusSuccess   = "success"
	StatusPartial   = "partial"
	StatusCancelled = "cancelled"
)

// Meta is run information not carried by the Result.
type Meta struct {
	RunID     string    // generated when empty
	Now       time.Time // zero means time.Now()
	Cancelled bool
}

// Build converts res. Per-sequence statistics are included for every
// reference that was loaded; hit detail only when the Result carries it.
func Build(res *masker.Result, meta Meta) api.ReportV1 {
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.Now.IsZero() {
		meta.Now = time.Now()
	}
	rep := api.ReportV1{
		SchemaVersion:  api.SchemaVersion,
		RunID:          meta.RunID,
		GeneratedAt:    meta.Now.UTC().Format(time.RFC3339),
		ElapsedSeconds: res.Elapsed.Seconds(),
		Status:         StatusSuccess,
	}
	switch {
	case meta.Cancelled:
		rep.Status = StatusCancelled
	case res.Partial():
		rep.Status = StatusPartial
	}

	for _, o := range res.References {
		ref := api.ReferenceV1{
			Name:          o.Name,
			Status:        o.Status.String(),
			Sequences:     o.Stats.Sequences,
			Hits:          o.Stats.Hits,
			ModifiedBases: o.Stats.ModifiedBases,
			Rejected:      o.Stats.Rejected,
			Unmatched:     o.Stats.Unmatched,
		}
		if o.Err != nil {
			ref.Error = o.Err.Error()
		}
		for _, sp := range o.Skipped {
			var ae *errs.AlignmentError
			ref.Skipped = append(ref.Skipped, api.SkippedPairV1{
				Query:    sp.Query,
				Error:    sp.Err.Error(),
				TimedOut: errors.As(sp.Err, &ae) && ae.Timeout,
			})
		}
		for _, ss := range o.Stats.PerSequence {
			seq := api.SequenceV1{
				Name:            ss.Name,
				Length:          ss.Length,
				Hits:            ss.Hits,
				ModifiedBases:   ss.ModifiedBases,
				PercentModified: ss.PercentModified,
			}
			for _, h := range ss.Detail {
				seq.HitDetail = append(seq.HitDetail, hitV1(h))
			}
			ref.SequenceStats = append(ref.SequenceStats, seq)
		}
		rep.References = append(rep.References, ref)
	}
	return rep
}

func hitV1(h hit.Hit) api.HitV1 {
	strand := hit.Forward
	if h.SubjectOrientation != h.QueryOrientation {
		strand = hit.Reverse
	}
	return api.HitV1{
		QueryID:      h.QueryID,
		QueryStart:   h.QueryStart,
		QueryEnd:     h.QueryEnd,
		SubjectStart: h.SubjectStart,
		SubjectEnd:   h.SubjectEnd,
		Strand:       strand.String(),
		Identity:     h.Identity,
		EValue:       h.EValue,
		BitScore:     h.BitScore,
		AlignLength:  h.AlignLength,
		QuerySeq:     h.QuerySeq,
	}
}
