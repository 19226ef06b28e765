package reference

import "refmasker/internal/sequence"

// Stats is the nested statistics record of one reference.
type Stats struct {
	Name          string
	Sequences     int
	Hits          int
	ModifiedBases int
	Rejected      int
	Unmatched     int
	PerSequence   []sequence.Stats
}

// Statistics aggregates the per-sequence records, in input order. Modified
// base counts reflect the last Render.
func (r *Reference) Statistics(full bool) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{
		Name:      r.Name,
		Sequences: len(r.order),
		Rejected:  r.rejected,
		Unmatched: r.unmatched,
	}
	for _, name := range r.order {
		ss := r.seqs[name].Report(full)
		st.Hits += ss.Hits
		st.ModifiedBases += ss.ModifiedBases
		st.PerSequence = append(st.PerSequence, ss)
	}
	return st
}
