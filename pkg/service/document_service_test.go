package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestDocuments(t *testing.T) *DocumentService {
	t.Helper()
	dir := t.TempDir()
	retrieval := newTestRetrieval(t)
	s, err := NewDocumentService(DocumentConfig{
		UploadDir:      filepath.Join(dir, "uploads"),
		CatalogPath:    filepath.Join(dir, "catalog.db"),
		MaxFileSizeMB:  1,
		MaxDocuments:   3,
		SupportedTypes: []string{"txt", "pdf", "docx"},
	}, retrieval)
	if err != nil {
		t.Fatalf("NewDocumentService() error = %v", err)
	}
	return s
}

func TestDocumentUpload(t *testing.T) {
	s := newTestDocuments(t)
	ctx := context.Background()

	doc, err := s.Upload(ctx, "notes.txt", []byte("the desk lamp is next to the monitor"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ContentHash == "" || doc.ChunkCount == 0 {
		t.Errorf("Upload() = %+v, want hash and chunks", doc)
	}
	if _, err := os.Stat(doc.StoredPath); err != nil {
		t.Errorf("stored file missing: %v", err)
	}

	docs, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 1 || docs[0].OriginalName != "notes.txt" {
		t.Errorf("List() = %+v", docs)
	}
}

func TestDocumentUpload_DuplicateContent(t *testing.T) {
	s := newTestDocuments(t)
	ctx := context.Background()

	content := []byte("identical bytes either way")
	if _, err := s.Upload(ctx, "first.txt", content); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	_, err := s.Upload(ctx, "second.txt", content)
	if !errors.Is(err, ErrDuplicateDocument) {
		t.Errorf("Upload() duplicate error = %v, want ErrDuplicateDocument", err)
	}
	if n, _ := s.Count(); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestDocumentUpload_UnsupportedType(t *testing.T) {
	s := newTestDocuments(t)
	if _, err := s.Upload(context.Background(), "malware.exe", []byte("x")); err == nil {
		t.Error("Upload() should reject unsupported extensions")
	}
}

func TestDocumentUpload_DocumentLimit(t *testing.T) {
	s := newTestDocuments(t)
	ctx := context.Background()

	files := []string{"a.txt", "b.txt", "c.txt"}
	for i, name := range files {
		if _, err := s.Upload(ctx, name, []byte(name+" unique content "+name)); err != nil {
			t.Fatalf("Upload(%d) error = %v", i, err)
		}
	}
	_, err := s.Upload(ctx, "d.txt", []byte("one too many"))
	if !errors.Is(err, ErrTooManyDocuments) {
		t.Errorf("Upload() over limit error = %v, want ErrTooManyDocuments", err)
	}
}

func TestDocumentDelete(t *testing.T) {
	s := newTestDocuments(t)
	ctx := context.Background()

	doc, err := s.Upload(ctx, "gone.txt", []byte("soon to be deleted content"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if err := s.Delete(ctx, doc.ContentHash); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(doc.StoredPath); !os.IsNotExist(err) {
		t.Error("stored file should be removed")
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("Count() after delete = %d, want 0", n)
	}
	if got := s.retrieval.ChunkCount(); got != 0 {
		t.Errorf("ChunkCount() after delete = %d, want 0", got)
	}
}

func TestDocumentDelete_NotFound(t *testing.T) {
	s := newTestDocuments(t)
	err := s.Delete(context.Background(), "no-such-hash")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Delete() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDocumentClear(t *testing.T) {
	s := newTestDocuments(t)
	ctx := context.Background()

	for _, name := range []string{"x.txt", "y.txt"} {
		if _, err := s.Upload(ctx, name, []byte("content for "+name)); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("Count() after Clear = %d, want 0", n)
	}
}
