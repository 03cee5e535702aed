package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/intent"
	"github.com/softtechniques/softbot/internal/knowledge"
	"github.com/softtechniques/softbot/internal/llm"
	"github.com/softtechniques/softbot/internal/memory"
	"github.com/softtechniques/softbot/internal/metrics"
	"github.com/softtechniques/softbot/pkg/logger"
)

// Completer is the slice of the LLM client the engine needs for replies.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Embedder embeds the user query for retrieval.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the retrieval side of the document store.
type Searcher interface {
	Search(queryEmbedding []float32, k int) []knowledge.SearchResult
}

// Recorder receives a record of every handled message. Implemented by the
// insights analyzer; nil disables recording.
type Recorder interface {
	RecordInteraction(ctx context.Context, rec InteractionRecord)
}

// InteractionRecord is what the engine hands to the Recorder per message.
type InteractionRecord struct {
	SessionID  string
	Message    string
	Response   string
	Confidence float64
	Sources    int
	LatencyMs  int64
}

// Response is the engine's answer to one chat message.
type Response struct {
	Response   string    `json:"response"`
	SessionID  string    `json:"session_id"`
	Confidence float64   `json:"confidence"`
	Sources    []string  `json:"sources"`
	Timestamp  time.Time `json:"timestamp"`
	LatencyMs  int64     `json:"latency_ms"`
}

// Engine ties classification, retrieval, the model and memory together.
// Chat never returns an error: every failure path degrades to an apology
// so the widget always has something to show.
type Engine struct {
	completer  Completer
	embedder   Embedder
	searcher   Searcher
	classifier *intent.Classifier
	memory     *memory.Store
	recorder   Recorder
	topK       int
}

func NewEngine(completer Completer, embedder Embedder, searcher Searcher, classifier *intent.Classifier, mem *memory.Store, recorder Recorder, topK int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{
		completer:  completer,
		embedder:   embedder,
		searcher:   searcher,
		classifier: classifier,
		memory:     mem,
		recorder:   recorder,
		topK:       topK,
	}
}

// Chat handles one user message. A new session id is minted when the
// caller passes none.
func (e *Engine) Chat(ctx context.Context, sessionID, message string) *Response {
	start := time.Now()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	detected := e.classifier.Classify(message)
	if detected.Kind == intent.KindSchedule {
		reply := mentionResponse
		confidence := 0.8
		outcome := "schedule_mention"
		if detected.Explicit {
			reply = scheduleResponse
			confidence = 0.9
			outcome = "explicit_schedule"
		}
		return e.finish(ctx, sessionID, message, reply, confidence, nil, start, outcome)
	}

	embedding, err := e.embedder.GenerateEmbedding(ctx, message)
	if err != nil {
		logger.Error("Query embedding failed", zap.Error(err), zap.String("session_id", sessionID))
		return e.finish(ctx, sessionID, message, apologyResponse, 0.0, nil, start, "llm_error")
	}

	results := e.searcher.Search(embedding, e.topK)
	history := e.memory.History(sessionID)

	completion, err := e.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(message, results, history),
	})
	if err != nil {
		logger.Error("Completion failed", zap.Error(err), zap.String("session_id", sessionID))
		return e.finish(ctx, sessionID, message, apologyResponse, 0.0, nil, start, "llm_error")
	}

	metrics.LLMTokensTotal.WithLabelValues("prompt").Add(float64(completion.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues("completion").Add(float64(completion.Usage.CompletionTokens))

	reply := FormatResponse(completion.Content)
	return e.finish(ctx, sessionID, message, reply, 0.8, sourceNames(results), start, "answered")
}

func (e *Engine) finish(ctx context.Context, sessionID, message, reply string, confidence float64, sources []string, start time.Time, outcome string) *Response {
	e.memory.Append(sessionID, "user", message)
	e.memory.Append(sessionID, "assistant", reply)

	latency := time.Since(start)

	metrics.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.ChatDuration.Observe(latency.Seconds())

	if e.recorder != nil {
		e.recorder.RecordInteraction(ctx, InteractionRecord{
			SessionID:  sessionID,
			Message:    message,
			Response:   reply,
			Confidence: confidence,
			Sources:    len(sources),
			LatencyMs:  latency.Milliseconds(),
		})
	}

	logger.Info("Chat handled",
		zap.String("session_id", sessionID),
		zap.String("outcome", outcome),
		zap.Float64("confidence", confidence),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)

	return &Response{
		Response:   reply,
		SessionID:  sessionID,
		Confidence: confidence,
		Sources:    sources,
		Timestamp:  time.Now().UTC(),
		LatencyMs:  latency.Milliseconds(),
	}
}

func sourceNames(results []knowledge.SearchResult) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range results {
		if _, ok := seen[r.Source]; ok {
			continue
		}
		seen[r.Source] = struct{}{}
		names = append(names, r.Source)
	}
	return names
}
