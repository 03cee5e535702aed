package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/metrics"
	"github.com/softtechniques/softbot/pkg/logger"
)

const (
	embeddingKeyPrefix = "embedding:"
	embeddingTTL       = 7 * 24 * time.Hour
)

// Client caches embeddings in Redis so re-ingesting the same content does
// not re-call the embedding model. It satisfies knowledge.EmbeddingCache.
type Client struct {
	rdb *goredis.Client
}

// NewClient connects and pings the server; a Redis that is down at
// startup is an error so the operator notices misconfiguration.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("Redis embedding cache connected", zap.String("addr", addr))
	return &Client{rdb: rdb}, nil
}

func (c *Client) GetEmbedding(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.rdb.Get(ctx, embeddingKeyPrefix+key).Bytes()
	if err == goredis.Nil {
		metrics.EmbeddingCacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, false, fmt.Errorf("corrupt cached embedding: %w", err)
	}

	metrics.EmbeddingCacheHits.Inc()
	return embedding, true, nil
}

func (c *Client) SetEmbedding(ctx context.Context, key string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	if err := c.rdb.Set(ctx, embeddingKeyPrefix+key, data, embeddingTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
