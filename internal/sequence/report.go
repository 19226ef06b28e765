package sequence

import (
	"sort"

	"refmasker/internal/hit"
)

// Stats is the per-sequence statistics record handed to reporting.
type Stats struct {
	Name            string
	Length          int
	Hits            int
	ModifiedBases   int
	PercentModified float64
	Detail          []hit.Hit // set when full detail is requested
}

// Report summarizes the sequence as of the last Render. With full, the
// pre-merge hit list is attached, ordered by query id then query start.
func (s *Sequence) Report(full bool) Stats {
	st := Stats{
		Name:          s.Name,
		Length:        s.Len(),
		Hits:          len(s.hits),
		ModifiedBases: s.modified,
	}
	if st.Length > 0 {
		st.PercentModified = float64(s.modified) / float64(st.Length) * 100
	}
	if full && len(s.hits) > 0 {
		st.Detail = append([]hit.Hit(nil), s.hits...)
		sort.SliceStable(st.Detail, func(i, j int) bool {
			a, b := st.Detail[i], st.Detail[j]
			if a.QueryID != b.QueryID {
				return a.QueryID < b.QueryID
			}
			return a.QueryStart < b.QueryStart
		})
	}
	return st
}
