package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/xmldoc/internal/validation"
)

// Compression selects how a document is stored.
type Compression int

const (
	// None stores the document as is.
	None Compression = iota
	// XZ stores the document xz-compressed.
	XZ
	// Gzip stores the document gzip-compressed.
	Gzip
)

func (c Compression) String() string {
	switch c {
	case XZ:
		return "xz"
	case Gzip:
		return "gzip"
	}
	return "none"
}

// CompressionFor returns the compression implied by a file name.
func CompressionFor(path string) Compression {
	switch validation.FileTypeFromExtension(path) {
	case validation.FileTypeXZ:
		return XZ
	case validation.FileTypeGzip:
		return Gzip
	}
	return None
}

// Write writes data to w with the given compression.
func Write(w io.Writer, data []byte, c Compression) error {
	var (
		zw  io.WriteCloser
		err error
	)
	switch c {
	case XZ:
		zw, err = xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
	case Gzip:
		zw = gzip.NewWriter(w)
	default:
		_, err = w.Write(data)
		return err
	}

	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("compress document: %w", err)
	}
	return zw.Close()
}

// WriteFile writes data to path, compressed as the file name implies. The
// file is written to a temporary name first and renamed into place.
func WriteFile(path string, data []byte) error {
	if err := validation.ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := Write(tmp, data, CompressionFor(path)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
