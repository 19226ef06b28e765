package blast

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"refmasker/internal/hit"
)

// OutFmt is the tabular layout requested from blastn and understood by
// ParseTabular.
const OutFmt = "6 qseqid sseqid qstart qend sstart send sstrand evalue bitscore pident length qseq"

const numFields = 12

// ParseTabular converts blastn tabular output into raw hits.
//
// BLAST coordinates are 1-based inclusive. They become 0-based half-open,
// keeping BLAST's descending order on the reverse strand: a minus-strand
// subject range sstart=90 send=80 becomes SubjectStart=90, SubjectEnd=79,
// which hit.Normalize turns into [79, 90).
func ParseTabular(r io.Reader) ([]hit.Hit, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var out []hit.Hit
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Split(text, "\t")
		if len(f) < numFields-1 {
			return nil, fmt.Errorf("blast tabular line %d: %d fields, want %d", line, len(f), numFields)
		}
		h, err := parseRow(f)
		if err != nil {
			return nil, fmt.Errorf("blast tabular line %d: %w", line, err)
		}
		out = append(out, h)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("blast tabular: %w", err)
	}
	return out, nil
}

func parseRow(f []string) (hit.Hit, error) {
	ints := make([]int, 4)
	for i, s := range f[2:6] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return hit.Hit{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		ints[i] = v
	}
	qstart, qend, sstart, send := ints[0], ints[1], ints[2], ints[3]

	h := hit.Hit{QueryID: f[0], SubjectID: f[1]}

	if f[6] == "minus" || sstart > send {
		h.SubjectOrientation = hit.Reverse
		h.SubjectStart, h.SubjectEnd = sstart, send-1
	} else {
		h.SubjectStart, h.SubjectEnd = sstart-1, send
	}
	if qstart > qend {
		h.QueryOrientation = hit.Reverse
		h.QueryStart, h.QueryEnd = qstart, qend-1
	} else {
		h.QueryStart, h.QueryEnd = qstart-1, qend
	}

	var err error
	if h.EValue, err = strconv.ParseFloat(f[7], 64); err != nil {
		return hit.Hit{}, fmt.Errorf("evalue %q: %w", f[7], err)
	}
	if h.BitScore, err = strconv.ParseFloat(strings.TrimSpace(f[8]), 64); err != nil {
		return hit.Hit{}, fmt.Errorf("bitscore %q: %w", f[8], err)
	}
	if h.Identity, err = strconv.ParseFloat(f[9], 64); err != nil {
		return hit.Hit{}, fmt.Errorf("pident %q: %w", f[9], err)
	}
	if h.AlignLength, err = strconv.Atoi(f[10]); err != nil {
		return hit.Hit{}, fmt.Errorf("length %q: %w", f[10], err)
	}
	if len(f) >= numFields {
		h.QuerySeq = f[11]
	}
	return h, nil
}
