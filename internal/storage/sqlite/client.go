package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_interactions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	message      TEXT NOT NULL,
	response     TEXT NOT NULL,
	query_type   TEXT NOT NULL,
	topic        TEXT NOT NULL,
	sentiment    TEXT NOT NULL,
	keywords     TEXT NOT NULL,
	complexity   REAL NOT NULL,
	engagement   REAL NOT NULL,
	lead_quality TEXT NOT NULL,
	user_intent  TEXT NOT NULL,
	follow_up    INTEGER NOT NULL,
	confidence   REAL NOT NULL,
	sources      INTEGER NOT NULL,
	latency_ms   INTEGER NOT NULL,
	created_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_session ON chat_interactions(session_id);
CREATE INDEX IF NOT EXISTS idx_interactions_created ON chat_interactions(created_at);
`

// Interaction is one analyzed chat exchange as stored in SQLite.
type Interaction struct {
	SessionID   string
	Message     string
	Response    string
	QueryType   string
	Topic       string
	Sentiment   string
	Keywords    string
	Complexity  float64
	Engagement  float64
	LeadQuality string
	UserIntent  string
	FollowUp    bool
	Confidence  float64
	Sources     int
	LatencyMs   int64
	CreatedAt   time.Time
}

// AnalyticsStats is the aggregate view served by the analytics endpoint.
type AnalyticsStats struct {
	TotalInteractions int              `json:"total_interactions"`
	UniqueSessions    int              `json:"unique_sessions"`
	AvgEngagement     float64          `json:"avg_engagement"`
	AvgConfidence     float64          `json:"avg_confidence"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	ByQueryType       map[string]int   `json:"by_query_type"`
	ByTopic           map[string]int   `json:"by_topic"`
	BySentiment       map[string]int   `json:"by_sentiment"`
	ByLeadQuality     map[string]int   `json:"by_lead_quality"`
}

// Client wraps the SQLite database holding chat analytics.
type Client struct {
	db *sql.DB
}

func NewClient(path string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Analytics database ready", zap.String("path", path))
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InsertInteraction(ctx context.Context, rec Interaction) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO chat_interactions (
			session_id, message, response, query_type, topic, sentiment,
			keywords, complexity, engagement, lead_quality, user_intent,
			follow_up, confidence, sources, latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Message, rec.Response, rec.QueryType, rec.Topic,
		rec.Sentiment, rec.Keywords, rec.Complexity, rec.Engagement,
		rec.LeadQuality, rec.UserIntent, boolToInt(rec.FollowUp),
		rec.Confidence, rec.Sources, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

func (c *Client) Stats(ctx context.Context) (*AnalyticsStats, error) {
	stats := &AnalyticsStats{
		ByQueryType:   make(map[string]int),
		ByTopic:       make(map[string]int),
		BySentiment:   make(map[string]int),
		ByLeadQuality: make(map[string]int),
	}

	row := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT session_id),
		       COALESCE(AVG(engagement), 0),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(latency_ms), 0)
		FROM chat_interactions`)
	if err := row.Scan(
		&stats.TotalInteractions,
		&stats.UniqueSessions,
		&stats.AvgEngagement,
		&stats.AvgConfidence,
		&stats.AvgLatencyMs,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate interactions: %w", err)
	}

	groups := map[string]map[string]int{
		"query_type":   stats.ByQueryType,
		"topic":        stats.ByTopic,
		"sentiment":    stats.BySentiment,
		"lead_quality": stats.ByLeadQuality,
	}
	for column, dest := range groups {
		if err := c.countBy(ctx, column, dest); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (c *Client) countBy(ctx context.Context, column string, dest map[string]int) error {
	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM chat_interactions GROUP BY %s`, column, column))
	if err != nil {
		return fmt.Errorf("failed to group by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
