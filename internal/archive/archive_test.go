package archive

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/xmldoc/internal/validation"
)

const testDoc = `<?xml version="1.0" encoding="UTF-8"?>
<article id="a"><p id="p">hello</p></article>
`

func TestWriteRead(t *testing.T) {
	for _, c := range []Compression{None, XZ, Gzip} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, []byte(testDoc), c); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if c == None && buf.String() != testDoc {
				t.Errorf("Write(None) altered the document")
			}
			wantType := map[Compression]validation.FileType{
				None: validation.FileTypeXML,
				XZ:   validation.FileTypeXZ,
				Gzip: validation.FileTypeGzip,
			}[c]
			if got := validation.DetectFileType(buf.Bytes()); got != wantType {
				t.Errorf("Write(%s) produced %s content", c, got)
			}

			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if string(got) != testDoc {
				t.Errorf("Read() = %q, want %q", got, testDoc)
			}
		})
	}
}

func TestReadDetectsCompression(t *testing.T) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(testDoc))
	w.Close()

	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != testDoc {
		t.Errorf("Read() = %q", got)
	}

	buf.Reset()
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte(testDoc))
	gw.Close()
	got, err = Read(&buf)
	if err != nil || string(got) != testDoc {
		t.Errorf("Read(gzip) = %q, %v", got, err)
	}
}

func TestReadEmpty(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read() = %q, want empty", got)
	}
}

func TestReadSizeLimit(t *testing.T) {
	old := MaxSize
	MaxSize = 16
	t.Cleanup(func() { MaxSize = old })

	_, err := Read(strings.NewReader(testDoc))
	if !errors.Is(err, validation.ErrFileTooLarge) {
		t.Errorf("Read() error = %v, want ErrFileTooLarge", err)
	}
	if _, err := Read(strings.NewReader("<a/>")); err != nil {
		t.Errorf("Read(small) error = %v", err)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"doc.xml", "doc.xml.xz", "doc.xml.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteFile(path, []byte(testDoc)); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != 0644 {
				t.Errorf("mode = %v, want 0644", info.Mode().Perm())
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if string(got) != testDoc {
				t.Errorf("ReadFile() = %q", got)
			}
		})
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Errorf("directory holds %d entries, want 3 (temp files left behind?)", len(entries))
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadFile(""); !errors.Is(err, validation.ErrEmptyPath) {
		t.Errorf("ReadFile(\"\") error = %v, want ErrEmptyPath", err)
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("ReadFile(missing) succeeded")
	}

	plain := filepath.Join(dir, "plain.xz")
	if err := os.WriteFile(plain, []byte(testDoc), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(plain); !errors.Is(err, validation.ErrTypeMismatch) {
		t.Errorf("ReadFile(plain.xz) error = %v, want ErrTypeMismatch", err)
	}
}

func TestCompressionFor(t *testing.T) {
	tests := map[string]Compression{
		"a.xml":    None,
		"a.xml.xz": XZ,
		"a.XZ":     XZ,
		"a.xml.gz": Gzip,
		"a":        None,
	}
	for path, want := range tests {
		if got := CompressionFor(path); got != want {
			t.Errorf("CompressionFor(%q) = %v, want %v", path, got, want)
		}
	}
}
