// Package validation checks user-supplied paths and document files before
// they are read, to prevent resource exhaustion and to recognize compressed
// input.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Security limits to prevent DoS attacks (CWE-400).
const (
	// MaxFileSize is the maximum allowed document size after decompression (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrTypeMismatch     = errors.New("file type mismatch")
)

// ValidatePath performs comprehensive path validation without requiring a base directory.
// It checks for dangerous patterns, length limits, and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	// Check length
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	// Check for control characters
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// FileType represents a detected document file type.
type FileType string

const (
	FileTypeXZ   FileType = "xz"
	FileTypeGzip FileType = "gzip"
	FileTypeXML  FileType = "xml"

	FileTypeUnknown FileType = "unknown"
)

// MagicLen is the number of leading bytes DetectFileType inspects.
const MagicLen = 6

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// DetectFileType returns the compression format signalled by the leading
// bytes of a file, or FileTypeXML for text that starts like markup.
func DetectFileType(header []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.fileType
		}
	}
	trimmed := bytes.TrimLeft(header, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FileTypeXML
	}
	return FileTypeUnknown
}

// FileTypeFromExtension determines the expected file type from a filename.
func FileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xz":
		return FileTypeXZ
	case ".gz":
		return FileTypeGzip
	case ".xml", ".jats", ".nxml":
		return FileTypeXML
	default:
		return FileTypeUnknown
	}
}

// ValidateFileType checks that a file's content matches the type its name
// claims and returns the detected type.
func ValidateFileType(header []byte, filename string) (FileType, error) {
	detected := DetectFileType(header)
	expected := FileTypeFromExtension(filename)

	if detected == FileTypeUnknown || expected == FileTypeUnknown || detected == expected {
		return detected, nil
	}
	// A compressed file may carry a plain document extension, never the reverse.
	if expected == FileTypeXML {
		return detected, nil
	}
	return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
}
