package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/pkg/logger"
	"github.com/softtechniques/softbot/pkg/textextract"
	"github.com/softtechniques/softbot/pkg/utils"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Embedder generates embeddings for batches of text. Satisfied by
// llm.Client.
type Embedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache is an optional layer in front of the embedder keyed by
// content hash. A nil cache disables it.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, key string, embedding []float32) error
}

// Loader turns raw text and uploaded files into embedded chunks in the
// store. All embeddings for a batch are generated before the store is
// touched, so a failed embedding call leaves the store unchanged.
type Loader struct {
	store        *Store
	embedder     Embedder
	cache        EmbeddingCache
	chunkSize    int
	chunkOverlap int
}

func NewLoader(store *Store, embedder Embedder, cache EmbeddingCache, chunkSize, chunkOverlap int) *Loader {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}

	return &Loader{
		store:        store,
		embedder:     embedder,
		cache:        cache,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// AddText chunks, embeds and stores a single document. Returns the number
// of chunks added.
func (l *Loader) AddText(ctx context.Context, text string, metadata map[string]string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("empty document text")
	}

	pieces := chunkText(text, l.chunkSize, l.chunkOverlap)

	chunks := make([]DocumentChunk, 0, len(pieces))
	for _, piece := range pieces {
		meta := make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
		chunks = append(chunks, DocumentChunk{Content: piece, Metadata: meta})
	}

	embeddings, err := l.embedChunks(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document: %w", err)
	}

	if err := l.store.Add(chunks, embeddings); err != nil {
		return 0, err
	}

	logger.Info("Document ingested",
		zap.String("source", metadata["source"]),
		zap.Int("chunks", len(chunks)),
	)

	return len(chunks), nil
}

// AddFile ingests an uploaded file. PDFs and plain text go through the
// extractor; HTML is cleaned with a DOM pass first.
func (l *Loader) AddFile(ctx context.Context, filename string, data []byte) (int, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var content string
	switch ext {
	case ".html", ".htm":
		cleaned, err := cleanHTML(data)
		if err != nil {
			return 0, fmt.Errorf("failed to parse HTML: %w", err)
		}
		content = cleaned
	case ".pdf", ".txt":
		extracted, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), ext)
		if err != nil {
			return 0, err
		}
		content = extracted.Content
	default:
		return 0, fmt.Errorf("unsupported file type %q, supported: %s", ext, strings.Join(textextract.SupportedTypes(), ", "))
	}

	return l.AddText(ctx, content, map[string]string{
		"source": filename,
		"type":   "company_document",
	})
}

// Initialize loads the built-in company corpus. Skipped when the store
// already holds documents, so restarts do not duplicate the seed.
func (l *Loader) Initialize(ctx context.Context) (int, error) {
	if l.store.Count() > 0 {
		logger.Info("Document store already populated, skipping seed",
			zap.Int("chunks", l.store.Count()))
		return 0, nil
	}

	total := 0
	for _, doc := range SeedDocuments() {
		n, err := l.AddText(ctx, doc.Content, doc.Metadata)
		if err != nil {
			return total, fmt.Errorf("failed to seed %s: %w", doc.Metadata["source"], err)
		}
		total += n
	}

	logger.Info("Knowledge base initialized from seed corpus", zap.Int("chunks", total))
	return total, nil
}

func (l *Loader) embedChunks(ctx context.Context, pieces []string) ([][]float32, error) {
	embeddings := make([][]float32, len(pieces))

	var missing []string
	var missingIdx []int

	for i, piece := range pieces {
		if l.cache != nil {
			cached, ok, err := l.cache.GetEmbedding(ctx, utils.HashString(piece))
			if err != nil {
				logger.Warn("Embedding cache lookup failed", zap.Error(err))
			} else if ok {
				embeddings[i] = cached
				continue
			}
		}
		missing = append(missing, piece)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		generated, err := l.embedder.GenerateBatchEmbeddings(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(generated) != len(missing) {
			return nil, fmt.Errorf("embedder returned %d embeddings for %d texts", len(generated), len(missing))
		}

		for j, idx := range missingIdx {
			embeddings[idx] = generated[j]
			if l.cache != nil {
				if err := l.cache.SetEmbedding(ctx, utils.HashString(missing[j]), generated[j]); err != nil {
					logger.Warn("Embedding cache write failed", zap.Error(err))
				}
			}
		}
	}

	return embeddings, nil
}

// chunkText splits text into word windows of roughly chunkSize characters
// with the last overlap characters' worth of words repeated between
// neighboring chunks.
func chunkText(text string, chunkSize, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, word := range words {
		current = append(current, word)
		currentLen += len(word) + 1

		if currentLen >= chunkSize {
			chunks = append(chunks, strings.Join(current, " "))

			var carried []string
			carriedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				carriedLen += len(current[i]) + 1
				if carriedLen > overlap {
					break
				}
				carried = append([]string{current[i]}, carried...)
			}
			current = carried
			currentLen = carriedLen
		}
	}

	if len(current) > 0 {
		chunk := strings.Join(current, " ")
		if len(chunks) == 0 || chunk != chunks[len(chunks)-1] {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

func cleanHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text), nil
}
