package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"refmasker/internal/errs"
	"refmasker/pkg/api"
)

// Writers maps a report format to its serializer and file extension.
var Writers = map[string]Writer{}

// Writer serializes a report in one format.
type Writer struct {
	Ext   string
	Write func(w io.Writer, rep api.ReportV1) error
}

// Register adds or replaces a format (last wins).
func Register(format string, w Writer) { Writers[format] = w }

func init() {
	Register("csv", Writer{Ext: ".csv", Write: WriteCSV})
	Register("json", Writer{Ext: ".json", Write: WriteJSON})
}

// Formats lists the registered formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(Writers))
	for f := range Writers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// BaseName is the report file name without extension.
const BaseName = "refmasker_report"

// WriteFiles writes rep into dir once per format and returns the paths.
func WriteFiles(dir string, formats []string, rep api.ReportV1) ([]string, error) {
	var paths []string
	for _, f := range formats {
		wr, ok := Writers[f]
		if !ok {
			return paths, fmt.Errorf("unknown report format %q (want %s)", f, strings.Join(Formats(), " | "))
		}
		path := filepath.Join(dir, BaseName+wr.Ext)
		if err := writeFile(path, wr, rep); err != nil {
			return paths, &errs.StorageError{Op: "write", Path: path, Err: err}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, wr Writer, rep api.ReportV1) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wr.Write(fh, rep); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
