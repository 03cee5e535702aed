package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/softtechniques/softbot/pkg/logger"
	"github.com/softtechniques/softbot/pkg/utils"
)

const (
	documentsFile  = "documents.json"
	embeddingsFile = "embeddings.json"
)

// DocumentChunk is the unit of retrieval: a bounded slice of source text
// plus its metadata. Chunks are immutable once stored and identified by
// insertion order.
type DocumentChunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

type SearchResult struct {
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
	Source   string            `json:"source"`
}

type Status struct {
	TotalChunks     int      `json:"total_chunks"`
	TotalEmbeddings int      `json:"total_embeddings"`
	PersistDir      string   `json:"persist_dir"`
	Sources         []string `json:"sources"`
	Types           []string `json:"types"`
}

// Store is an append-only in-process vector store. Every mutation is
// written through to two JSON files: the chunk list and the embedding
// cache keyed by content hash.
type Store struct {
	mu         sync.RWMutex
	persistDir string
	chunks     []DocumentChunk
	embeddings map[string][]float32
}

// NewStore loads any persisted state from persistDir. Missing files mean
// an empty store; unreadable or malformed files are an error so a corrupt
// cache is never silently served.
func NewStore(persistDir string) (*Store, error) {
	if err := os.MkdirAll(persistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	s := &Store{
		persistDir: persistDir,
		embeddings: make(map[string][]float32),
	}

	if err := s.loadFromDisk(); err != nil {
		return nil, err
	}

	logger.Info("Document store loaded",
		zap.String("dir", persistDir),
		zap.Int("chunks", len(s.chunks)),
		zap.Int("embeddings", len(s.embeddings)),
	)

	return s, nil
}

// Add appends chunks with their embeddings and persists the full store.
// Lengths must match; nothing is stored on mismatch.
func (s *Store) Add(chunks []DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, chunk := range chunks {
		s.chunks = append(s.chunks, chunk)
		s.embeddings[utils.HashString(chunk.Content)] = embeddings[i]
	}

	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to persist store: %w", err)
	}

	logger.Info("Chunks added to document store", zap.Int("count", len(chunks)))
	return nil
}

// Search returns the k chunks most similar to the query embedding under
// dot product, descending, ties broken by insertion order.
func (s *Store) Search(queryEmbedding []float32, k int) []SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 || k <= 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}

	results := make([]scored, 0, len(s.chunks))
	for i, chunk := range s.chunks {
		embedding, ok := s.embeddings[utils.HashString(chunk.Content)]
		if !ok {
			continue
		}
		results = append(results, scored{index: i, score: dotProduct(queryEmbedding, embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}

	out := make([]SearchResult, 0, k)
	for _, r := range results[:k] {
		chunk := s.chunks[r.index]
		source := chunk.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		out = append(out, SearchResult{
			Content:  chunk.Content,
			Score:    r.score,
			Metadata: chunk.Metadata,
			Source:   source,
		})
	}

	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, chunk := range s.chunks {
		source := chunk.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		sources[source] = struct{}{}

		docType := chunk.Metadata["type"]
		if docType == "" {
			docType = "unknown"
		}
		types[docType] = struct{}{}
	}

	status := Status{
		TotalChunks:     len(s.chunks),
		TotalEmbeddings: len(s.embeddings),
		PersistDir:      s.persistDir,
		Sources:         sortedKeys(sources),
		Types:           sortedKeys(types),
	}

	return status
}

func (s *Store) persist() error {
	if err := writeJSONAtomic(filepath.Join(s.persistDir, documentsFile), s.chunks); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(s.persistDir, embeddingsFile), s.embeddings)
}

func (s *Store) loadFromDisk() error {
	docsPath := filepath.Join(s.persistDir, documentsFile)
	if data, err := os.ReadFile(docsPath); err == nil {
		if err := json.Unmarshal(data, &s.chunks); err != nil {
			return fmt.Errorf("corrupt document file %s: %w", docsPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read document file: %w", err)
	}

	embPath := filepath.Join(s.persistDir, embeddingsFile)
	if data, err := os.ReadFile(embPath); err == nil {
		if err := json.Unmarshal(data, &s.embeddings); err != nil {
			return fmt.Errorf("corrupt embedding file %s: %w", embPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read embedding file: %w", err)
	}

	if s.embeddings == nil {
		s.embeddings = make(map[string][]float32)
	}

	return nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
