package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/softtechniques/softbot/internal/intent"
	"github.com/softtechniques/softbot/internal/knowledge"
	"github.com/softtechniques/softbot/internal/llm"
	"github.com/softtechniques/softbot/internal/memory"
)

type mockCompleter struct {
	response string
	err      error
	calls    int
}

func (m *mockCompleter) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.response}, nil
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type mockSearcher struct {
	results []knowledge.SearchResult
}

func (m *mockSearcher) Search(_ []float32, _ int) []knowledge.SearchResult {
	return m.results
}

type mockRecorder struct {
	records []InteractionRecord
}

func (m *mockRecorder) RecordInteraction(_ context.Context, rec InteractionRecord) {
	m.records = append(m.records, rec)
}

func newTestEngine(completer *mockCompleter, embedder *mockEmbedder, searcher *mockSearcher, recorder *mockRecorder) (*Engine, *memory.Store) {
	mem := memory.NewStore()
	var rec Recorder
	if recorder != nil {
		rec = recorder
	}
	engine := NewEngine(completer, embedder, searcher, intent.NewClassifier(), mem, rec, 3)
	return engine, mem
}

func TestChatAnswersFromKnowledge(t *testing.T) {
	completer := &mockCompleter{response: "We build **custom** software."}
	searcher := &mockSearcher{results: []knowledge.SearchResult{
		{Content: "services info", Source: "services"},
		{Content: "more services info", Source: "services"},
		{Content: "company info", Source: "company_overview"},
	}}
	recorder := &mockRecorder{}
	engine, _ := newTestEngine(completer, &mockEmbedder{}, searcher, recorder)

	resp := engine.Chat(context.Background(), "", "What do you build?")

	if resp.SessionID == "" {
		t.Error("expected a minted session id")
	}
	if resp.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", resp.Confidence)
	}
	if resp.Response != "We build custom software." {
		t.Errorf("expected formatted response, got %q", resp.Response)
	}
	if len(resp.Sources) != 2 {
		t.Errorf("expected 2 unique sources, got %v", resp.Sources)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected 1 recorded interaction, got %d", len(recorder.records))
	}
	if recorder.records[0].Sources != 2 {
		t.Errorf("expected 2 sources recorded, got %d", recorder.records[0].Sources)
	}
}

func TestChatExplicitScheduleSkipsModel(t *testing.T) {
	completer := &mockCompleter{response: "should not be used"}
	engine, mem := newTestEngine(completer, &mockEmbedder{}, &mockSearcher{}, nil)

	resp := engine.Chat(context.Background(), "s1", "I want to schedule a consultation")

	if completer.calls != 0 {
		t.Error("explicit scheduling must not call the model")
	}
	if resp.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", resp.Confidence)
	}
	if !strings.Contains(resp.Response, "scheduling form") {
		t.Errorf("expected redirect to the scheduling form, got %q", resp.Response)
	}
	if len(mem.History("s1")) != 2 {
		t.Error("expected both turns stored in memory")
	}
}

func TestChatScheduleMention(t *testing.T) {
	completer := &mockCompleter{}
	engine, _ := newTestEngine(completer, &mockEmbedder{}, &mockSearcher{}, nil)

	resp := engine.Chat(context.Background(), "s1", "What happens in a demo?")

	if completer.calls != 0 {
		t.Error("scheduling mention must not call the model")
	}
	if resp.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", resp.Confidence)
	}
}

func TestChatApologizesOnModelError(t *testing.T) {
	completer := &mockCompleter{err: errors.New("upstream down")}
	engine, _ := newTestEngine(completer, &mockEmbedder{}, &mockSearcher{}, nil)

	resp := engine.Chat(context.Background(), "s1", "Tell me about your process")

	if resp.Confidence != 0.0 {
		t.Errorf("expected confidence 0 on failure, got %v", resp.Confidence)
	}
	if !strings.Contains(resp.Response, "sorry") {
		t.Errorf("expected an apology, got %q", resp.Response)
	}
}

func TestChatApologizesOnEmbeddingError(t *testing.T) {
	completer := &mockCompleter{response: "unused"}
	engine, _ := newTestEngine(completer, &mockEmbedder{err: errors.New("embed down")}, &mockSearcher{}, nil)

	resp := engine.Chat(context.Background(), "s1", "Tell me about your process")

	if completer.calls != 0 {
		t.Error("embedding failure must short-circuit before the model")
	}
	if resp.Confidence != 0.0 {
		t.Errorf("expected confidence 0, got %v", resp.Confidence)
	}
}

func TestChatKeepsSessionAcrossTurns(t *testing.T) {
	completer := &mockCompleter{response: "answer"}
	engine, mem := newTestEngine(completer, &mockEmbedder{}, &mockSearcher{}, nil)

	first := engine.Chat(context.Background(), "", "What is your process?")
	second := engine.Chat(context.Background(), first.SessionID, "And how long does it take?")

	if first.SessionID != second.SessionID {
		t.Error("session id should be stable across turns")
	}
	if len(mem.History(first.SessionID)) != 4 {
		t.Errorf("expected 4 turns in memory, got %d", len(mem.History(first.SessionID)))
	}
}
