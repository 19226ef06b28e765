package fasta

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// Codec is the compression applied to written files.
type Codec string

const (
	CodecNone Codec = "none"
	CodecGzip Codec = "gzip"
	CodecXZ   Codec = "xz"
)

// ParseCodec accepts "", "none", "gzip" and "xz".
func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case "", CodecNone:
		return CodecNone, nil
	case CodecGzip, CodecXZ:
		return Codec(s), nil
	}
	return "", fmt.Errorf("unknown compression %q (want none | gzip | xz)", s)
}

// Ext is the file suffix of the codec, including the dot.
func (c Codec) Ext() string {
	switch c {
	case CodecGzip:
		return ".gz"
	case CodecXZ:
		return ".xz"
	}
	return ""
}

// DefaultLineWidth wraps sequence lines like most FASTA producers do.
const DefaultLineWidth = 60

// File is a FASTA file opened for writing.
type File struct {
	*bufio.Writer
	closers []io.Closer
}

// Close flushes buffered data and closes the compressor and the file.
func (f *File) Close() error {
	err := f.Flush()
	for _, c := range f.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Create opens path for writing through codec.
func Create(path string, codec Codec) (*File, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch codec {
	case CodecGzip:
		gw := gzip.NewWriter(fh)
		return &File{Writer: bufio.NewWriter(gw), closers: []io.Closer{gw, fh}}, nil
	case CodecXZ:
		xw, err := xz.NewWriter(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &File{Writer: bufio.NewWriter(xw), closers: []io.Closer{xw, fh}}, nil
	}
	return &File{Writer: bufio.NewWriter(fh), closers: []io.Closer{fh}}, nil
}

// Write emits one record: a header line then the sequence wrapped at width
// bases per line (width <= 0 writes a single line).
func Write(w io.Writer, rec Record, width int) error {
	if _, err := fmt.Fprintf(w, ">%s\n", rec.ID); err != nil {
		return err
	}
	seq := rec.Seq
	if width <= 0 {
		width = len(seq)
	}
	for len(seq) > 0 {
		n := min(width, len(seq))
		if _, err := w.Write(seq[:n]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		seq = seq[n:]
	}
	return nil
}

// WriteAll writes recs in order.
func WriteAll(w io.Writer, recs []Record, width int) error {
	for _, r := range recs {
		if err := Write(w, r, width); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes recs to path through codec.
func WriteFile(path string, codec Codec, recs []Record, width int) error {
	f, err := Create(path, codec)
	if err != nil {
		return err
	}
	if err := WriteAll(f, recs, width); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
