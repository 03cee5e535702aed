package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestInsertAndStats(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	records := []Interaction{
		{
			SessionID: "s1", Message: "hello", Response: "hi",
			QueryType: "statement", Topic: "general", Sentiment: "neutral",
			Keywords: "", Complexity: 0.1, Engagement: 0.5,
			LeadQuality: "cold", UserIntent: "information",
			Confidence: 0.8, Sources: 1, LatencyMs: 120,
			CreatedAt: time.Now().UTC(),
		},
		{
			SessionID: "s2", Message: "pricing?", Response: "depends",
			QueryType: "question", Topic: "pricing", Sentiment: "neutral",
			Keywords: "pricing", Complexity: 0.2, Engagement: 0.7,
			LeadQuality: "warm", UserIntent: "pricing_inquiry", FollowUp: true,
			Confidence: 0.8, Sources: 2, LatencyMs: 200,
			CreatedAt: time.Now().UTC(),
		},
	}

	for _, rec := range records {
		if err := client.InsertInteraction(ctx, rec); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.TotalInteractions != 2 {
		t.Errorf("expected 2 interactions, got %d", stats.TotalInteractions)
	}
	if stats.UniqueSessions != 2 {
		t.Errorf("expected 2 sessions, got %d", stats.UniqueSessions)
	}
	if stats.ByTopic["pricing"] != 1 {
		t.Errorf("unexpected topic counts: %v", stats.ByTopic)
	}
	if stats.ByQueryType["question"] != 1 {
		t.Errorf("unexpected query type counts: %v", stats.ByQueryType)
	}
	if stats.AvgEngagement < 0.59 || stats.AvgEngagement > 0.61 {
		t.Errorf("expected avg engagement near 0.6, got %v", stats.AvgEngagement)
	}
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats on empty database failed: %v", err)
	}
	if stats.TotalInteractions != 0 {
		t.Errorf("expected 0 interactions, got %d", stats.TotalInteractions)
	}
	if stats.AvgEngagement != 0 {
		t.Errorf("expected 0 average, got %v", stats.AvgEngagement)
	}
}
