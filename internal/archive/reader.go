// Package archive reads and writes document files. Files may be stored
// plain or compressed with xz or gzip; readers detect compression from the
// content, writers choose it from the file name.
package archive

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/xmldoc/internal/validation"
)

// MaxSize is the largest decompressed document Read accepts.
var MaxSize int64 = validation.MaxFileSize

// ReadFile reads the document stored at path, decompressing it if needed.
func ReadFile(path string) ([]byte, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.Peek(validation.MagicLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if _, err := validation.ValidateFileType(header, path); err != nil {
		return nil, err
	}
	return Read(br)
}

// Read reads a whole document from r, decompressing xz or gzip content.
func Read(r io.Reader) ([]byte, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	header, err := br.Peek(validation.MagicLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var src io.Reader = br
	switch validation.DetectFileType(header) {
	case validation.FileTypeXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		src = xzr
	case validation.FileTypeGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		src = gzr
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > MaxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", validation.ErrFileTooLarge, MaxSize)
	}
	return data, nil
}
