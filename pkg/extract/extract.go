// Package extract pulls plain text out of uploaded files so they can be
// chunked and embedded.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Extract returns the plain text of data according to the file
// extension (without the leading dot, lower case).
func Extract(data []byte, ext string) (string, error) {
	switch ext {
	case "pdf":
		return FromPDF(data)
	case "docx":
		return FromDOCX(data)
	case "txt", "md":
		return FromText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// FromPDF extracts text page by page. Pages that fail to decode are
// skipped so one broken page does not lose the whole document.
func FromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return result, nil
}

// docx XML structure, limited to what we read: paragraphs of runs of text.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// FromDOCX reads word/document.xml out of the zip container and joins
// paragraph text with newlines.
func FromDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open docx document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read docx document.xml: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", errors.New("docx is missing word/document.xml")
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, p := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				line.WriteString(t)
			}
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return "", errors.New("docx contains no text")
	}
	return strings.Join(lines, "\n"), nil
}

// FromText decodes a plain text file. Non-UTF-8 input is reinterpreted
// as Latin-1 so legacy exports still load.
func FromText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}
