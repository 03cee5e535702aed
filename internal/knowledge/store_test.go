package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreAddAndSearch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	chunks := []DocumentChunk{
		{Content: "pricing details", Metadata: map[string]string{"source": "pricing"}},
		{Content: "service catalog", Metadata: map[string]string{"source": "services"}},
		{Content: "company history", Metadata: map[string]string{"source": "about"}},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.5, 0.5, 0},
	}

	if err := store.Add(chunks, embeddings); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	results := store.Search([]float32{1, 0, 0}, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "pricing details" {
		t.Errorf("expected best match first, got %q", results[0].Content)
	}
	if results[0].Score <= results[1].Score {
		t.Error("results must be sorted by descending score")
	}
	if results[0].Source != "pricing" {
		t.Errorf("expected source pricing, got %q", results[0].Source)
	}
}

func TestStoreSearchCapsAtAvailable(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Add(
		[]DocumentChunk{{Content: "only one", Metadata: map[string]string{}}},
		[][]float32{{1, 1}},
	); err != nil {
		t.Fatal(err)
	}

	results := store.Search([]float32{1, 1}, 10)
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestStoreSearchEmptyStore(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if results := store.Search([]float32{1}, 5); results != nil {
		t.Errorf("expected nil results from empty store, got %v", results)
	}
}

func TestStoreAddRejectsMismatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	err = store.Add(
		[]DocumentChunk{{Content: "a"}, {Content: "b"}},
		[][]float32{{1}},
	)
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if store.Count() != 0 {
		t.Error("failed add must not mutate the store")
	}
}

func TestStorePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Add(
		[]DocumentChunk{{Content: "durable chunk", Metadata: map[string]string{"source": "faq"}}},
		[][]float32{{0.3, 0.7}},
	); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Count() != 1 {
		t.Fatalf("expected 1 chunk after reload, got %d", reloaded.Count())
	}

	results := reloaded.Search([]float32{0.3, 0.7}, 1)
	if len(results) != 1 || results[0].Content != "durable chunk" {
		t.Errorf("expected persisted chunk to be searchable, got %v", results)
	}
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, documentsFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(dir); err == nil {
		t.Fatal("expected error for corrupt document file")
	}
}

func TestStoreStatus(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Add(
		[]DocumentChunk{
			{Content: "a", Metadata: map[string]string{"source": "faq", "type": "company_document"}},
			{Content: "b", Metadata: map[string]string{"source": "pricing", "type": "company_document"}},
		},
		[][]float32{{1}, {2}},
	); err != nil {
		t.Fatal(err)
	}

	status := store.Status()
	if status.TotalChunks != 2 {
		t.Errorf("expected 2 chunks, got %d", status.TotalChunks)
	}
	if len(status.Sources) != 2 {
		t.Errorf("expected 2 sources, got %v", status.Sources)
	}
	if len(status.Types) != 1 || status.Types[0] != "company_document" {
		t.Errorf("unexpected types: %v", status.Types)
	}
}
