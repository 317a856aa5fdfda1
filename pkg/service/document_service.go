package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/datasage-ai/datasage/pkg/extract"
	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/utils"
)

// DocumentConfig limits uploads and names storage locations.
type DocumentConfig struct {
	UploadDir      string
	CatalogPath    string
	MaxFileSizeMB  int
	MaxDocuments   int
	SupportedTypes []string
}

// DocumentService manages uploaded files: validation, content-hash
// dedup, on-disk storage, the catalog, and handing text to the
// retrieval index.
type DocumentService struct {
	db        *gorm.DB
	retrieval *RetrievalService
	config    DocumentConfig
	logger    *slog.Logger
}

func NewDocumentService(config DocumentConfig, retrieval *RetrievalService) (*DocumentService, error) {
	if err := utils.EnsureDir(config.UploadDir); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(config.CatalogPath)); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	database, err := gorm.Open(sqlite.Open(config.CatalogPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open document catalog: %w", err)
	}
	if err := database.AutoMigrate(&models.UploadedDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate document catalog: %w", err)
	}

	return &DocumentService{
		db:        database,
		retrieval: retrieval,
		config:    config,
		logger:    utils.GetLogger(),
	}, nil
}

// Upload validates, stores, extracts and indexes one file.
func (s *DocumentService) Upload(ctx context.Context, fileName string, data []byte) (*models.UploadedDocument, error) {
	if !utils.IsSupportedFileType(fileName, s.config.SupportedTypes) {
		return nil, fmt.Errorf("%w: %s", extract.ErrUnsupportedType, utils.FileExtension(fileName))
	}
	if maxBytes := int64(s.config.MaxFileSizeMB) * 1024 * 1024; int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s over %dMB", ErrFileTooLarge, utils.FormatFileSize(int64(len(data))), s.config.MaxFileSizeMB)
	}

	var count int64
	if err := s.db.Model(&models.UploadedDocument{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if int(count) >= s.config.MaxDocuments {
		return nil, fmt.Errorf("%w: %d documents", ErrTooManyDocuments, s.config.MaxDocuments)
	}

	hash := utils.ContentHash(data)
	var existing models.UploadedDocument
	err := s.db.First(&existing, "content_hash = ?", hash).Error
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDocument, existing.OriginalName)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate: %w", err)
	}

	text, err := extract.Extract(data, utils.FileExtension(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", fileName, err)
	}

	storedPath := filepath.Join(s.config.UploadDir, hash+"_"+utils.SanitizeFilename(fileName))
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	chunkCount, err := s.retrieval.Ingest(ctx, hash, fileName, text)
	if err != nil {
		os.Remove(storedPath)
		return nil, err
	}

	doc := &models.UploadedDocument{
		ContentHash:  hash,
		OriginalName: fileName,
		StoredPath:   storedPath,
		SizeBytes:    int64(len(data)),
		ChunkCount:   chunkCount,
		UploadedAt:   time.Now(),
	}
	if err := s.db.Create(doc).Error; err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.logger.Info("document uploaded", "file", fileName, "hash", hash, "size", utils.FormatFileSize(doc.SizeBytes))
	return doc, nil
}

// List returns catalog entries, newest upload first.
func (s *DocumentService) List() ([]models.UploadedDocument, error) {
	var docs []models.UploadedDocument
	if err := s.db.Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Count reports how many documents are cataloged.
func (s *DocumentService) Count() (int, error) {
	var count int64
	if err := s.db.Model(&models.UploadedDocument{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Delete removes one document from the index, disk and catalog.
func (s *DocumentService) Delete(ctx context.Context, contentHash string) error {
	var doc models.UploadedDocument
	if err := s.db.First(&doc, "content_hash = ?", contentHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to load document: %w", err)
	}

	if err := s.retrieval.DeleteDocument(ctx, doc.ContentHash, doc.ChunkCount); err != nil {
		return err
	}
	if doc.StoredPath != "" {
		if err := os.Remove(doc.StoredPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove stored file", "path", doc.StoredPath, "error", err)
		}
	}
	if err := s.db.Delete(&doc).Error; err != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", err)
	}
	s.logger.Info("document deleted", "file", doc.OriginalName, "hash", doc.ContentHash)
	return nil
}

// Clear removes every document and resets the index.
func (s *DocumentService) Clear(ctx context.Context) error {
	docs, err := s.List()
	if err != nil {
		return err
	}
	if err := s.retrieval.Clear(); err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.StoredPath == "" {
			continue
		}
		if err := os.Remove(doc.StoredPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove stored file", "path", doc.StoredPath, "error", err)
		}
	}
	if err := s.db.Where("1 = 1").Delete(&models.UploadedDocument{}).Error; err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	return nil
}
