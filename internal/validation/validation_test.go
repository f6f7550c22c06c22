package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError error
	}{
		{
			name:      "valid relative path",
			path:      "docs/article.xml",
			wantError: nil,
		},
		{
			name:      "valid absolute path",
			path:      "/tmp/article.xml.xz",
			wantError: nil,
		},
		{
			name:      "empty path",
			path:      "",
			wantError: ErrEmptyPath,
		},
		{
			name:      "too long",
			path:      strings.Repeat("a", MaxPathLength+1),
			wantError: ErrPathTooLong,
		},
		{
			name:      "null byte",
			path:      "article\x00.xml",
			wantError: ErrInvalidCharacter,
		},
		{
			name:      "control character",
			path:      "article\n.xml",
			wantError: ErrInvalidCharacter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantError == nil {
				if err != nil {
					t.Errorf("ValidatePath() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantError) {
				t.Errorf("ValidatePath() error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   FileType
	}{
		{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, FileTypeXZ},
		{"gzip", []byte{0x1f, 0x8b, 0x08}, FileTypeGzip},
		{"xml declaration", []byte("<?xml "), FileTypeXML},
		{"leading whitespace", []byte("\n  <a"), FileTypeXML},
		{"byte order mark", []byte("\xef\xbb\xbf<a/>"), FileTypeXML},
		{"text", []byte("hello"), FileTypeUnknown},
		{"short xz prefix", []byte{0xfd, 0x37}, FileTypeUnknown},
		{"empty", nil, FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFileType(tt.header); got != tt.want {
				t.Errorf("DetectFileType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileTypeFromExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
	}{
		{"article.xml", FileTypeXML},
		{"article.NXML", FileTypeXML},
		{"article.jats", FileTypeXML},
		{"article.xml.xz", FileTypeXZ},
		{"article.xml.gz", FileTypeGzip},
		{"article.txt", FileTypeUnknown},
		{"article", FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := FileTypeFromExtension(tt.filename); got != tt.want {
				t.Errorf("FileTypeFromExtension() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateFileType(t *testing.T) {
	xzHeader := []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

	tests := []struct {
		name      string
		header    []byte
		filename  string
		want      FileType
		wantError error
	}{
		{"xml", []byte("<article/>"), "a.xml", FileTypeXML, nil},
		{"xz", xzHeader, "a.xml.xz", FileTypeXZ, nil},
		{"compressed with xml name", xzHeader, "a.xml", FileTypeXZ, nil},
		{"unknown extension", []byte("<a/>"), "a.dat", FileTypeXML, nil},
		{"plain with xz name", []byte("<a/>"), "a.xz", FileTypeUnknown, ErrTypeMismatch},
		{"gzip with xz name", []byte{0x1f, 0x8b}, "a.xz", FileTypeUnknown, ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFileType(tt.header, tt.filename)
			if !errors.Is(err, tt.wantError) {
				t.Fatalf("ValidateFileType() error = %v, want %v", err, tt.wantError)
			}
			if got != tt.want {
				t.Errorf("ValidateFileType() = %v, want %v", got, tt.want)
			}
		})
	}
}
