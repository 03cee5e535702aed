package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

type mockCache struct {
	store map[string][]float32
	hits  int
}

func (m *mockCache) GetEmbedding(_ context.Context, key string) ([]float32, bool, error) {
	emb, ok := m.store[key]
	if ok {
		m.hits++
	}
	return emb, ok, nil
}

func (m *mockCache) SetEmbedding(_ context.Context, key string, embedding []float32) error {
	m.store[key] = embedding
	return nil
}

func TestLoaderAddText(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(store, &mockEmbedder{}, nil, 1000, 200)

	count, err := loader.AddText(context.Background(), "Soft Techniques builds custom software.", map[string]string{"source": "test"})
	if err != nil {
		t.Fatalf("add text failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 chunk, got %d", count)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 chunk in store, got %d", store.Count())
	}
}

func TestLoaderRejectsEmptyText(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(store, &mockEmbedder{}, nil, 1000, 200)
	if _, err := loader.AddText(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestLoaderEmbedFailureLeavesStoreUntouched(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(store, &mockEmbedder{err: errors.New("model down")}, nil, 1000, 200)

	if _, err := loader.AddText(context.Background(), "some document text", nil); err == nil {
		t.Fatal("expected embedding error to surface")
	}
	if store.Count() != 0 {
		t.Error("failed embedding must not add chunks")
	}
}

func TestLoaderUsesEmbeddingCache(t *testing.T) {
	dir := t.TempDir()
	cache := &mockCache{store: make(map[string][]float32)}

	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	embedder := &mockEmbedder{}
	loader := NewLoader(store, embedder, cache, 1000, 200)

	text := "a document that will be ingested twice"
	if _, err := loader.AddText(context.Background(), text, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.AddText(context.Background(), text, nil); err != nil {
		t.Fatal(err)
	}

	if embedder.calls != 1 {
		t.Errorf("expected second ingest to hit the cache, embedder called %d times", embedder.calls)
	}
	if cache.hits == 0 {
		t.Error("expected at least one cache hit")
	}
}

func TestLoaderAddHTMLFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(store, &mockEmbedder{}, nil, 1000, 200)

	html := `<html><head><script>evil()</script><style>.x{}</style></head>
<body><nav>menu</nav><p>Soft Techniques builds   software.</p></body></html>`

	count, err := loader.AddFile(context.Background(), "about.html", []byte(html))
	if err != nil {
		t.Fatalf("html ingest failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 chunk, got %d", count)
	}

	results := store.Search([]float32{1, 1}, 1)
	if len(results) != 1 {
		t.Fatal("expected the chunk to be searchable")
	}
	content := results[0].Content
	if strings.Contains(content, "evil") || strings.Contains(content, "menu") {
		t.Errorf("script/nav content must be stripped, got %q", content)
	}
	if !strings.Contains(content, "Soft Techniques builds software.") {
		t.Errorf("expected collapsed whitespace, got %q", content)
	}
}

func TestLoaderRejectsUnknownFileType(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(store, &mockEmbedder{}, nil, 1000, 200)

	if _, err := loader.AddFile(context.Background(), "image.png", []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestChunkTextOverlap(t *testing.T) {
	words := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := chunkText(text, 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len(chunk) > 200+10 {
			t.Errorf("chunk %d too large: %d chars", i, len(chunk))
		}
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := chunkText("just a few words", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "just a few words" {
		t.Errorf("short text should be one chunk, got %v", chunks)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := chunkText("   ", 1000, 200); chunks != nil {
		t.Errorf("expected nil for blank input, got %v", chunks)
	}
}

func TestSeedDocumentsHaveMetadata(t *testing.T) {
	docs := SeedDocuments()
	if len(docs) == 0 {
		t.Fatal("seed corpus must not be empty")
	}
	for _, doc := range docs {
		if doc.Content == "" {
			t.Error("seed document with empty content")
		}
		if doc.Metadata["source"] == "" {
			t.Error("seed document missing source metadata")
		}
	}
}
