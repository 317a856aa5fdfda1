package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	chromem "github.com/philippgille/chromem-go"

	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/utils"
)

const documentCollection = "documents"

// RetrievalConfig tunes chunking and search.
type RetrievalConfig struct {
	VectorStorePath string
	EmbeddingModel  string
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
}

// RetrievalService owns the vector store: chunking and embedding
// uploaded documents, similarity search, and grounded answer synthesis.
type RetrievalService struct {
	mu            sync.Mutex
	vectorDB      *chromem.DB
	embeddingFunc chromem.EmbeddingFunc
	config        RetrievalConfig
	tracker       *TokenTracker
	logger        *slog.Logger
}

func NewRetrievalService(config RetrievalConfig, embeddingFunc chromem.EmbeddingFunc, tracker *TokenTracker) (*RetrievalService, error) {
	s := &RetrievalService{
		config:        config,
		embeddingFunc: embeddingFunc,
		tracker:       tracker,
		logger:        utils.GetLogger(),
	}
	if config.VectorStorePath != "" {
		if err := os.MkdirAll(config.VectorStorePath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create vector store directory: %w", err)
		}
		var err error
		s.vectorDB, err = chromem.NewPersistentDB(config.VectorStorePath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
	} else {
		s.vectorDB = chromem.NewDB()
	}
	return s, nil
}

func (s *RetrievalService) collection() (*chromem.Collection, error) {
	if col := s.vectorDB.GetCollection(documentCollection, s.embeddingFunc); col != nil {
		return col, nil
	}
	col, err := s.vectorDB.CreateCollection(documentCollection, nil, s.embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return col, nil
}

// chunkID names chunk i of the document with the given content hash.
func chunkID(contentHash string, i int) string {
	return fmt.Sprintf("%s_%d", contentHash, i)
}

// Ingest chunks text and embeds each chunk, returning the chunk count
// so the catalog can record it for later deletion.
func (s *RetrievalService) Ingest(ctx context.Context, contentHash, fileName, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection()
	if err != nil {
		return 0, err
	}

	chunks := ChunkText(text, s.config.ChunkSize, s.config.ChunkOverlap)
	for i, chunk := range chunks {
		doc := chromem.Document{
			ID:      chunkID(contentHash, i),
			Content: chunk,
			Metadata: map[string]string{
				"file_name":    fileName,
				"content_hash": contentHash,
				"chunk_index":  fmt.Sprintf("%d", i),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, fileName, err)
		}
	}

	if s.tracker != nil && len(chunks) > 0 {
		tokens, estimated := s.tracker.CountTokens(s.config.EmbeddingModel, text)
		s.tracker.Track(s.config.EmbeddingModel, models.RequestEmbedding, tokens, 0, estimated)
	}

	s.logger.Info("document ingested", "file", fileName, "chunks", len(chunks))
	return len(chunks), nil
}

// Search returns the most similar chunks in descending similarity
// order, exactly as the vector store ranked them.
func (s *RetrievalService) Search(ctx context.Context, query string) ([]chromem.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	limit := s.config.TopK
	if count := col.Count(); count < limit {
		limit = count
	}
	if limit == 0 {
		return nil, ErrNoDocuments
	}

	results, err := col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}

// Answer retrieves chunks for query and asks chatModel to answer from
// them alone. Citations keep the retrieval order.
func (s *RetrievalService) Answer(ctx context.Context, chatModel einoModel.ToolCallingChatModel, query string) (string, []models.SourceCitation, *schema.TokenUsage, error) {
	results, err := s.Search(ctx, query)
	if err != nil {
		return "", nil, nil, err
	}

	var contextBlock strings.Builder
	citations := make([]models.SourceCitation, 0, len(results))
	for i, r := range results {
		fileName := r.Metadata["file_name"]
		fmt.Fprintf(&contextBlock, "[Excerpt %d, from %s]\n%s\n\n", i+1, fileName, r.Content)
		citations = append(citations, models.SourceCitation{
			FileName:   fileName,
			Similarity: r.Similarity,
			Excerpt:    utils.TruncateText(r.Content, 200),
		})
	}

	messages := []*schema.Message{
		schema.SystemMessage("You are a helpful assistant. Answer the question using only the document excerpts provided. If the excerpts do not contain the answer, say so."),
		schema.UserMessage(fmt.Sprintf("Document excerpts:\n\n%sQuestion: %s", contextBlock.String(), query)),
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", nil, nil, fmt.Errorf("answer generation failed: %w", err)
	}

	var usage *schema.TokenUsage
	if resp.ResponseMeta != nil {
		usage = resp.ResponseMeta.Usage
	}
	return resp.Content, citations, usage, nil
}

// DeleteDocument removes all chunks of one document from the index.
func (s *RetrievalService) DeleteDocument(ctx context.Context, contentHash string, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection()
	if err != nil {
		return err
	}

	ids := make([]string, chunkCount)
	for i := range ids {
		ids[i] = chunkID(contentHash, i)
	}
	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete chunks of %s: %w", contentHash, err)
	}
	return nil
}

// Clear drops the whole index.
func (s *RetrievalService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.vectorDB.DeleteCollection(documentCollection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// ChunkCount reports how many chunks are currently indexed.
func (s *RetrievalService) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.vectorDB.GetCollection(documentCollection, s.embeddingFunc)
	if col == nil {
		return 0
	}
	return col.Count()
}

// ChunkText splits text into chunks of at most size runes with the
// given overlap, preferring to break at whitespace.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			if chunk := strings.TrimSpace(string(runes[start:])); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}
		// Back off to the last whitespace so words stay intact.
		cut := end
		for cut > start+size/2 && !isSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+size/2 {
			cut = end
		}
		if chunk := strings.TrimSpace(string(runes[start:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
