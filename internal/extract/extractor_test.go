package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func docxBody(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<w:document ` + wordNS + `><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p w:rsidR="00AB"><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_Plain(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"txt", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".txt", "hello�world"},
		{"bom", []byte("\xef\xbb\xbfresume"), ".txt", "resume"},
		{"no extension", []byte("raw"), "", "raw"},
	}
	e := NewExtractor(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_Unsupported(t *testing.T) {
	_, err := NewExtractor(0).ExtractBytes([]byte("x"), ".pptx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractBytes_DOCX(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "default part",
			files: map[string]string{"word/document.xml": docxBody("Jane Doe", "Go &amp; Python")},
			want:  "Jane Doe\nGo & Python",
		},
		{
			name: "part from content types",
			files: map[string]string{
				"[Content_Types].xml": `<Types><Override PartName="/word/document2.xml" ContentType="` + docxMainType + `"/></Types>`,
				"word/document2.xml":  docxBody("From document2"),
			},
			want: "From document2",
		},
		{
			name: "content type before part name",
			files: map[string]string{
				"[Content_Types].xml": `<Types><Override ContentType="` + docxMainType + `" PartName="/word/document3.xml"/></Types>`,
				"word/document3.xml":  docxBody("Reversed order"),
			},
			want: "Reversed order",
		},
	}
	e := NewExtractor(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(zipBytes(t, tt.files), ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_DOCXMissingPart(t *testing.T) {
	_, err := NewExtractor(0).ExtractBytes(zipBytes(t, map[string]string{"other.xml": "x"}), ".docx")
	if err == nil {
		t.Fatal("expected error for DOCX without a document part")
	}
}

func TestExtractBytes_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Skill")
	f.SetCellValue("Sheet1", "A3", "Go")
	f.SetCellValue("Sheet1", "B3", "5 years")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor(0).ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Skill\nGo\t5 years" {
		t.Errorf("got %q", got)
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(full, []byte("Senior Go engineer"), 0600); err != nil {
		t.Fatal(err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("  \n "), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(0)
	chunks, err := e.Convert(context.Background(), full)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "Senior Go engineer" {
		t.Errorf("Convert() = %q", chunks)
	}

	chunks, err = e.Convert(context.Background(), blank)
	if err != nil || len(chunks) != 0 {
		t.Errorf("Convert(blank) = %q, %v; want no chunks", chunks, err)
	}

	if _, err := e.Convert(context.Background(), filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtract_SizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, bytes.Repeat([]byte("a"), 100), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewExtractor(10).Extract(path); err == nil {
		t.Error("expected error above the size limit")
	}
	if _, err := NewExtractor(100).Extract(path); err != nil {
		t.Errorf("unexpected error at the limit: %v", err)
	}
}
