// pkg/api/report_v1.go
package api

// SchemaVersion of ReportV1.
const SchemaVersion = 1

// ReportV1 is the stable JSON schema of a run report.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ReportV1 struct {
	SchemaVersion  int           `json:"schema_version"`
	RunID          string        `json:"run_id"`
	GeneratedAt    string        `json:"generated_at"` // RFC 3339
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Status         string        `json:"status"` // "success" | "partial" | "cancelled"
	References     []ReferenceV1 `json:"references"`
}

// ReferenceV1 is the outcome of one reference.
type ReferenceV1 struct {
	Name          string          `json:"name"`
	Status        string          `json:"status"` // "rendered" | "unmasked" | "failed" | "pending"
	Error         string          `json:"error,omitempty"`
	Sequences     int             `json:"sequences"`
	Hits          int             `json:"hits"`
	ModifiedBases int             `json:"modified_bases"`
	Rejected      int             `json:"rejected_hits"`
	Unmatched     int             `json:"unmatched_hits"`
	Skipped       []SkippedPairV1 `json:"skipped_pairs,omitempty"`
	SequenceStats []SequenceV1    `json:"sequence_stats,omitempty"`
}

// SkippedPairV1 is an alignment that failed or timed out.
type SkippedPairV1 struct {
	Query    string `json:"query"`
	Error    string `json:"error"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// SequenceV1 is the per-sequence part of a reference.
type SequenceV1 struct {
	Name            string  `json:"name"`
	Length          int     `json:"length"`
	Hits            int     `json:"hits"`
	ModifiedBases   int     `json:"modified_bases"`
	PercentModified float64 `json:"percent_modified"`
	HitDetail       []HitV1 `json:"hit_detail,omitempty"`
}

// HitV1 is one accepted hit, in normalized subject coordinates.
type HitV1 struct {
	QueryID      string  `json:"query_id"`
	QueryStart   int     `json:"query_start"`
	QueryEnd     int     `json:"query_end"`
	SubjectStart int     `json:"subject_start"`
	SubjectEnd   int     `json:"subject_end"`
	Strand       string  `json:"strand"` // "+" | "-"
	Identity     float64 `json:"identity,omitempty"`
	EValue       float64 `json:"evalue,omitempty"`
	BitScore     float64 `json:"bit_score,omitempty"`
	AlignLength  int     `json:"align_length,omitempty"`
	QuerySeq     string  `json:"query_seq,omitempty"`
}
