package insights

import (
	"context"
	"strings"
	"sync"
	"time"

	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/chat"
	"github.com/softtechniques/softbot/internal/storage/sqlite"
	"github.com/softtechniques/softbot/pkg/logger"
)

// ProcessingStats reports how the analyzer has been doing.
type ProcessingStats struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// Analyzer derives lightweight lead and content signals from each chat
// exchange and stores them in SQLite. It satisfies chat.Recorder; writes
// happen off the request path.
type Analyzer struct {
	store *sqlite.Client

	mu        sync.Mutex
	processed int
	errors    int
}

func NewAnalyzer(store *sqlite.Client) *Analyzer {
	return &Analyzer{store: store}
}

// RecordInteraction implements chat.Recorder.
func (a *Analyzer) RecordInteraction(_ context.Context, rec chat.InteractionRecord) {
	interaction := a.analyze(rec)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := a.store.InsertInteraction(ctx, interaction)

		a.mu.Lock()
		a.processed++
		if err != nil {
			a.errors++
		}
		a.mu.Unlock()

		if err != nil {
			logger.Error("Failed to store interaction analytics",
				zap.String("session_id", rec.SessionID), zap.Error(err))
		}
	}()
}

func (a *Analyzer) Stats() ProcessingStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ProcessingStats{Processed: a.processed, Errors: a.errors}
}

func (a *Analyzer) analyze(rec chat.InteractionRecord) sqlite.Interaction {
	message := rec.Message
	complexity := complexityScore(message)
	topic := detectTopic(message)
	engagement := engagementScore(message, rec.Confidence, rec.Sources, complexity)

	return sqlite.Interaction{
		SessionID:   rec.SessionID,
		Message:     message,
		Response:    rec.Response,
		QueryType:   queryType(message),
		Topic:       topic,
		Sentiment:   sentiment(message),
		Keywords:    strings.Join(extractKeywords(message), ","),
		Complexity:  complexity,
		Engagement:  engagement,
		LeadQuality: leadQuality(topic, engagement),
		UserIntent:  userIntent(topic, message),
		FollowUp:    wantsFollowUp(message, topic),
		Confidence:  rec.Confidence,
		Sources:     rec.Sources,
		LatencyMs:   rec.LatencyMs,
		CreatedAt:   time.Now().UTC(),
	}
}

func queryType(message string) string {
	trimmed := strings.TrimSpace(strings.ToLower(message))
	if strings.HasSuffix(trimmed, "?") {
		return "question"
	}
	for _, w := range []string{"what", "how", "why", "when", "where", "who", "which", "do you", "does", "can you", "could you", "is there", "are there"} {
		if strings.HasPrefix(trimmed, w) {
			return "question"
		}
	}
	for _, w := range []string{"please", "show me", "tell me", "give me", "i want", "i need", "i'd like"} {
		if strings.HasPrefix(trimmed, w) {
			return "request"
		}
	}
	return "statement"
}

func detectTopic(message string) string {
	lower := strings.ToLower(message)

	buckets := []struct {
		topic string
		words []string
	}{
		{"scheduling", []string{"schedule", "book", "consultation", "appointment", "meeting", "slot"}},
		{"pricing", []string{"price", "pricing", "cost", "quote", "budget", "rate", "expensive"}},
		{"ai", []string{"ai", "chatbot", "machine learning", "model", "rag", "llm", "assistant"}},
		{"services", []string{"service", "web", "mobile", "app", "cloud", "api", "develop", "build", "integration"}},
		{"company", []string{"company", "team", "who", "about", "location", "experience", "clients"}},
	}

	for _, bucket := range buckets {
		for _, word := range bucket.words {
			if strings.Contains(lower, word) {
				return bucket.topic
			}
		}
	}
	return "general"
}

func sentiment(message string) string {
	lower := strings.ToLower(message)

	positive := []string{"great", "good", "love", "excellent", "awesome", "thanks", "thank you", "perfect", "helpful", "interested"}
	negative := []string{"bad", "terrible", "hate", "awful", "disappointed", "frustrated", "problem", "issue", "wrong", "broken"}

	score := 0
	for _, w := range positive {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negative {
		if strings.Contains(lower, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return "positive"
	case score < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// extractKeywords keeps nouns and adjectives from a part-of-speech pass,
// deduplicated, capped at eight.
func extractKeywords(message string) []string {
	doc, err := prose.NewDocument(message,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		logger.Debug("Keyword extraction failed", zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range doc.Tokens() {
		if !strings.HasPrefix(tok.Tag, "NN") && !strings.HasPrefix(tok.Tag, "JJ") {
			continue
		}
		word := strings.ToLower(tok.Text)
		if len(word) < 3 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == 8 {
			break
		}
	}
	return keywords
}

func complexityScore(message string) float64 {
	words := len(strings.Fields(message))

	score := float64(words) / 50.0
	for _, marker := range []string{" and ", " but ", " because ", " however ", ","} {
		if strings.Contains(strings.ToLower(message), marker) {
			score += 0.1
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// engagementScore starts at a 0.5 baseline and credits longer messages,
// confident answers, grounded answers and complex questions. Clamped to
// [0, 1].
func engagementScore(message string, confidence float64, sources int, complexity float64) float64 {
	score := 0.5

	length := len(message)
	switch {
	case length > 120:
		score += 0.15
	case length > 50:
		score += 0.1
	case length > 20:
		score += 0.05
	}

	score += 0.15 * confidence

	if sources > 3 {
		sources = 3
	}
	score += 0.05 * float64(sources)

	score += 0.1 * complexity

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

func leadQuality(topic string, engagement float64) string {
	switch {
	case topic == "scheduling" || engagement > 0.85:
		return "hot"
	case topic == "pricing" || engagement > 0.65:
		return "warm"
	default:
		return "cold"
	}
}

func userIntent(topic, message string) string {
	switch topic {
	case "scheduling":
		return "schedule_consultation"
	case "pricing":
		return "pricing_inquiry"
	case "services", "ai":
		return "service_inquiry"
	}

	lower := strings.ToLower(message)
	for _, w := range []string{"help", "support", "problem", "issue", "broken"} {
		if strings.Contains(lower, w) {
			return "support"
		}
	}
	return "information"
}

func wantsFollowUp(message, topic string) bool {
	if topic == "scheduling" || topic == "pricing" {
		return true
	}
	lower := strings.ToLower(message)
	for _, w := range []string{"follow up", "next step", "get back", "contact me", "reach out"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
