package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := Extract([]byte("data"), "exe")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Extract() error = %v, want ErrUnsupportedType", err)
	}
}

func TestFromText(t *testing.T) {
	got, err := FromText([]byte("hello world"))
	if err != nil {
		t.Fatalf("FromText() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("FromText() = %q", got)
	}
}

func TestFromText_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 but invalid as a standalone UTF-8 byte.
	got, err := FromText([]byte{'c', 'a', 'f', 0xE9})
	if err != nil {
		t.Fatalf("FromText() error = %v", err)
	}
	if got != "café" {
		t.Errorf("FromText() = %q, want %q", got, "café")
	}
}

func TestFromDOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
    <p><r><t>   </t></r></p>
  </body>
</document>`
	data := buildDOCX(t, docXML)

	got, err := FromDOCX(data)
	if err != nil {
		t.Fatalf("FromDOCX() error = %v", err)
	}
	want := "First paragraph.\nSecond paragraph."
	if got != want {
		t.Errorf("FromDOCX() = %q, want %q", got, want)
	}
}

func TestFromDOCX_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte("<styles/>"))
	zw.Close()

	_, err := FromDOCX(buf.Bytes())
	if err == nil || !strings.Contains(err.Error(), "document.xml") {
		t.Errorf("FromDOCX() error = %v, want missing document.xml", err)
	}
}

func TestFromDOCX_NotAZip(t *testing.T) {
	if _, err := FromDOCX([]byte("plain text")); err == nil {
		t.Error("FromDOCX() should fail on non-zip input")
	}
}

func TestFromPDF_Invalid(t *testing.T) {
	if _, err := FromPDF([]byte("not a pdf")); err == nil {
		t.Error("FromPDF() should fail on invalid input")
	}
}
