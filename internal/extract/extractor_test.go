package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func TestExtractBytes(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		opts    []Option
		want    string
	}{
		{"lines collapse to one", []byte("Linear algebra\n\n  and  calculus\n"), ".txt", nil, "Linear algebra and calculus"},
		{"valid utf8", []byte("caf\xc3\xa9 theology"), ".md", nil, "café theology"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", nil, "hello�world"},
		{"byte order mark", []byte("\xEF\xBB\xBFquarks"), ".txt", nil, "quarks"},
		{"unknown extension as plain", []byte("gluons"), ".log", nil, "gluons"},
		{"clipped", []byte("quantum chromodynamics"), ".txt", []Option{WithMaxRunes(7)}, "quantum"},
		{"blank", []byte(" \n\t"), ".txt", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor(tt.opts...).ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_pdfNotPDF(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("plain text"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF content")
	}
}

func TestExtract_plainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.TXT")
	if err := os.WriteFile(path, []byte("algebra\nhelp\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "algebra help" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"a.txt", DefaultExtensions, true},
		{"a.PDF", DefaultExtensions, true},
		{"a.docx", DefaultExtensions, true},
		{"a.odt", DefaultExtensions, true},
		{"a.pages", DefaultExtensions, false},
		{"a.pages", nil, true},
	}
	for _, tt := range tests {
		if got := Supported(tt.path, tt.exts); got != tt.want {
			t.Errorf("Supported(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}

// zipBytes builds an archive from name/content pairs in order.
func zipBytes(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		w, err := zw.Create(files[i])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const wordBody = `<?xml version="1.0"?><w:document><w:body>` +
	`<w:p w:rsidR="00A1"><w:r><w:t>Quantum</w:t></w:r><w:r><w:t xml:space="preserve">field  theory</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Faith &amp; reason</w:t></w:r></w:p></w:body></w:document>`

func TestExtractBytes_docx(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{"default body part", []string{"word/document.xml", wordBody}},
		{"body named in content types", []string{
			contentTypes, `<Types><Override PartName="/word/document2.xml" ContentType="` + docxBodyType + `"/></Types>`,
			"word/document2.xml", wordBody,
		}},
		{"content type before part name", []string{
			contentTypes, `<Types><Override ContentType="` + docxBodyType + `" PartName="/word/main.xml"/></Types>`,
			"word/main.xml", wordBody,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor().ExtractBytes(zipBytes(t, tt.files...), ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if want := "Quantum field theory Faith & reason"; got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip content")
	}
	if _, err := NewExtractor().ExtractBytes(zipBytes(t, "other.xml", "<x/>"), ".docx"); err == nil {
		t.Error("expected error when the document part is missing")
	}
}

func TestExtract_docxFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lecture.docx")
	if err := os.WriteFile(path, zipBytes(t, "word/document.xml", wordBody), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor(WithMaxRunes(7)).Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Quantum" {
		t.Errorf("got %q", got)
	}
}
