package report

import (
	"encoding/json"
	"io"

	"refmasker/pkg/api"
)

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep api.ReportV1) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
