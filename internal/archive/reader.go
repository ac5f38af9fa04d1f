// Package archive reads CoreNLP XML documents from disk. Single documents may
// be plain, gzip or xz compressed; bundles are tar archives of documents,
// optionally compressed the same way.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ulikunitz/xz"
)

// MaxDocumentSize caps the decompressed size of a single document (256 MB).
const MaxDocumentSize = 256 << 20

// ErrTooLarge is returned when a document decompresses past MaxDocumentSize.
var ErrTooLarge = errors.New("document too large")

// maxDocumentSize is MaxDocumentSize, lowered by tests.
var maxDocumentSize int64 = MaxDocumentSize

// readLimited reads r fully, failing once more than maxDocumentSize bytes
// have been produced.
func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > maxDocumentSize {
		return nil, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	return data, nil
}

// Compression identifies how a file's bytes are encoded on disk.
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gzip"
	XZ   Compression = "xz"
)

// DetectCompression detects the compression from the file extension.
func DetectCompression(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".xz"):
		return XZ
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".tgz"):
		return Gzip
	default:
		return None
	}
}

// IsBundle reports whether the path names a tar archive of documents.
func IsBundle(name string) bool {
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.xz"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// file closes the decompressor (if any) and the underlying file together.
type file struct {
	io.Reader
	f            *os.File
	decompressor io.Closer
}

func (r *file) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.f.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Open opens a file and transparently decompresses it according to its
// extension.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	r, closer, err := decompress(f, DetectCompression(name))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &file{Reader: r, f: f, decompressor: closer}, nil
}

// decompress wraps src in the reader for c. The returned closer is nil when
// the reader needs no closing.
func decompress(src io.Reader, c Compression) (io.Reader, io.Closer, error) {
	switch c {
	case XZ:
		xzr, err := xz.NewReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}
		return xzr, nil, nil
	case Gzip:
		gzr, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, gzr, nil
	}
	return src, nil, nil
}

// ReadAll reads and decompresses a whole file.
func ReadAll(name string) ([]byte, error) {
	r, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r, name)
}

// Reader wraps a tar.Reader over a possibly compressed bundle.
type Reader struct {
	*tar.Reader
	src io.ReadCloser
}

// NewReader opens a bundle for iteration.
func NewReader(name string) (*Reader, error) {
	if !IsBundle(name) {
		return nil, fmt.Errorf("unsupported archive format: %s", name)
	}
	src, err := Open(name)
	if err != nil {
		return nil, err
	}
	return &Reader{Reader: tar.NewReader(src), src: src}, nil
}

// Close closes the bundle and any underlying decompressors.
func (r *Reader) Close() error {
	return r.src.Close()
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IsDocument reports whether an entry name looks like a CoreNLP XML document.
func IsDocument(name string) bool {
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, ext := range []string{".xml", ".xml.gz", ".xml.xz"} {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

// WalkDocuments calls fn with the decompressed bytes of every document at
// name. A bundle yields each regular document entry under "bundle/entry",
// decompressing .xml.gz and .xml.xz entries; any other path is treated as a
// single document.
func WalkDocuments(name string, fn func(name string, data []byte) error) error {
	if !IsBundle(name) {
		data, err := ReadAll(name)
		if err != nil {
			return err
		}
		return fn(name, data)
	}

	r, err := NewReader(name)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg || !IsDocument(header.Name) {
			return false, nil
		}
		dr, closer, err := decompress(content, DetectCompression(header.Name))
		if err != nil {
			return false, fmt.Errorf("%s: %w", header.Name, err)
		}
		data, err := readLimited(dr, header.Name)
		if closer != nil {
			closer.Close()
		}
		if err != nil {
			return false, err
		}
		return false, fn(name+"/"+header.Name, data)
	})
}
