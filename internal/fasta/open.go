package fasta

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

var magic = map[Codec][]byte{
	CodecGzip: {0x1f, 0x8b},
	CodecXZ:   {0xfd, '7', 'z', 'X', 'Z', 0x00},
}

// sniff picks the codec of a file from its first bytes, falling back to
// the file suffix.
func sniff(path string, head []byte) Codec {
	codecs := []Codec{CodecXZ, CodecGzip}
	for _, c := range codecs {
		if bytes.HasPrefix(head, magic[c]) {
			return c
		}
	}
	for _, c := range codecs {
		if strings.HasSuffix(path, c.Ext()) {
			return c
		}
	}
	return CodecNone
}

// decoded is a decompressing reader over an open file. Close releases the
// decoder (when it has one) and then the file.
type decoded struct {
	io.Reader
	dec  io.Closer
	file *os.File
}

func (d *decoded) Close() error {
	var err error
	if d.dec != nil {
		err = d.dec.Close()
	}
	if ferr := d.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// openReader opens path ("-" is stdin) and transparently decompresses gzip
// and xz.
func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var head [6]byte
	n, _ := io.ReadFull(fh, head[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, err
	}

	switch sniff(path, head[:n]) {
	case CodecXZ:
		xr, err := xz.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &decoded{Reader: xr, file: fh}, nil
	case CodecGzip:
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &decoded{Reader: gr, dec: gr, file: fh}, nil
	}
	return fh, nil
}
