package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"refmasker/pkg/api"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{"reference", "sequence", "length", "hits", "modified_bases", "percent_modified", "status"}

// HitColumns lists the fields of a hit detail row, after the HitRow marker.
var HitColumns = []string{"reference", "sequence", "query_id", "query_start", "query_end",
	"subject_start", "subject_end", "strand", "identity", "evalue", "bit_score", "align_length"}

// AllSequences marks the per-reference summary row; RunRow marks the final
// run status row; HitRow marks a hit detail row.
const (
	AllSequences = "*"
	RunRow       = "#run"
	HitRow       = "#hit"
)

// WriteCSV writes one row per sequence, then one summary row per reference
// and a final run status row. When the report carries hit detail, each
// sequence row is followed by one HitRow per hit, in report order. Hit rows
// are wider than the other rows.
func WriteCSV(w io.Writer, rep api.ReportV1) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, ref := range rep.References {
		for _, s := range ref.SequenceStats {
			if err := cw.Write([]string{
				ref.Name, s.Name, strconv.Itoa(s.Length), strconv.Itoa(s.Hits),
				strconv.Itoa(s.ModifiedBases), strconv.FormatFloat(s.PercentModified, 'f', 3, 64), ref.Status,
			}); err != nil {
				return err
			}
			for _, h := range s.HitDetail {
				if err := cw.Write(hitRow(ref.Name, s.Name, h)); err != nil {
					return err
				}
			}
		}
		length := 0
		for _, s := range ref.SequenceStats {
			length += s.Length
		}
		pct := 0.0
		if length > 0 {
			pct = float64(ref.ModifiedBases) / float64(length) * 100
		}
		if err := cw.Write([]string{
			ref.Name, AllSequences, strconv.Itoa(length), strconv.Itoa(ref.Hits),
			strconv.Itoa(ref.ModifiedBases), strconv.FormatFloat(pct, 'f', 3, 64), ref.Status,
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{RunRow, rep.RunID, "", "", "", strconv.FormatFloat(rep.ElapsedSeconds, 'f', 3, 64), rep.Status}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func hitRow(ref, seq string, h api.HitV1) []string {
	return []string{
		HitRow, ref, seq, h.QueryID,
		strconv.Itoa(h.QueryStart), strconv.Itoa(h.QueryEnd),
		strconv.Itoa(h.SubjectStart), strconv.Itoa(h.SubjectEnd), h.Strand,
		strconv.FormatFloat(h.Identity, 'f', 2, 64), strconv.FormatFloat(h.EValue, 'g', -1, 64),
		strconv.FormatFloat(h.BitScore, 'f', 1, 64), strconv.Itoa(h.AlignLength),
	}
}
