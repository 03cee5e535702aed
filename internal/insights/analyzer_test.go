package insights

import (
	"testing"

	"github.com/softtechniques/softbot/internal/chat"
)

func TestAnalyzeScheduleMessage(t *testing.T) {
	a := NewAnalyzer(nil)

	rec := a.analyze(chat.InteractionRecord{
		SessionID:  "s1",
		Message:    "I'd like to book a consultation about a mobile app for my startup",
		Response:   "sure",
		Confidence: 0.9,
		Sources:    0,
	})

	if rec.Topic != "scheduling" {
		t.Errorf("expected scheduling topic, got %q", rec.Topic)
	}
	if rec.LeadQuality != "hot" {
		t.Errorf("scheduling topic should be a hot lead, got %q", rec.LeadQuality)
	}
	if rec.UserIntent != "schedule_consultation" {
		t.Errorf("unexpected intent %q", rec.UserIntent)
	}
	if !rec.FollowUp {
		t.Error("scheduling messages should want follow-up")
	}
}

func TestAnalyzeQueryTypes(t *testing.T) {
	a := NewAnalyzer(nil)

	if got := a.analyze(record("What does a web app cost?")).QueryType; got != "question" {
		t.Errorf("expected question, got %q", got)
	}
	if got := a.analyze(record("Please tell me more")).QueryType; got != "request" {
		t.Errorf("expected request, got %q", got)
	}
	if got := a.analyze(record("We run a logistics business.")).QueryType; got != "statement" {
		t.Errorf("expected statement, got %q", got)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	a := NewAnalyzer(nil)

	if got := a.analyze(record("This is great, thank you!")).Sentiment; got != "positive" {
		t.Errorf("expected positive, got %q", got)
	}
	if got := a.analyze(record("I am frustrated with my current provider")).Sentiment; got != "negative" {
		t.Errorf("expected negative, got %q", got)
	}
	if got := a.analyze(record("We use three databases")).Sentiment; got != "neutral" {
		t.Errorf("expected neutral, got %q", got)
	}
}

func TestEngagementScoreBounds(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "lots of detail here "
	}

	score := engagementScore(long, 1.0, 10, 1.0)
	if score > 1.0 {
		t.Errorf("engagement must be clamped to 1.0, got %v", score)
	}
	if score != 1.0 {
		t.Errorf("maxed factors should clamp to exactly 1.0, got %v", score)
	}

	low := engagementScore("hi", 0, 0, 0)
	if low != 0.5 {
		t.Errorf("baseline engagement should be 0.5, got %v", low)
	}
}

func TestComplexityScoreBounds(t *testing.T) {
	if got := complexityScore("short"); got > 0.2 {
		t.Errorf("short message should score low, got %v", got)
	}

	long := ""
	for i := 0; i < 100; i++ {
		long += "word "
	}
	if got := complexityScore(long); got != 1.0 {
		t.Errorf("long message should clamp to 1.0, got %v", got)
	}
}

func record(message string) chat.InteractionRecord {
	return chat.InteractionRecord{SessionID: "s", Message: message, Response: "r"}
}
