package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// AnswerCache keeps recent query answers per document in Redis. Each document
// carries a generation counter; invalidation bumps the counter so every
// cached answer for the old index becomes unreachable and expires by TTL.
type AnswerCache struct {
	client    *redisv9.Client
	answerTTL time.Duration
}

func NewAnswerCache(client *redisv9.Client, answerTTL time.Duration) *AnswerCache {
	if answerTTL <= 0 {
		answerTTL = 5 * time.Minute
	}
	return &AnswerCache{
		client:    client,
		answerTTL: answerTTL,
	}
}

func (c *AnswerCache) Get(ctx context.Context, documentID uint, query string) (string, bool, error) {
	key, err := c.answerKey(ctx, documentID, query)
	if err != nil {
		return "", false, err
	}
	answer, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get answer failed: %w", err)
	}
	return answer, true, nil
}

func (c *AnswerCache) Set(ctx context.Context, documentID uint, query, answer string) error {
	key, err := c.answerKey(ctx, documentID, query)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, answer, c.answerTTL).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	return nil
}

// Invalidate drops all cached answers for a document (called after the index
// is rebuilt or the document is deleted).
func (c *AnswerCache) Invalidate(ctx context.Context, documentID uint) error {
	if err := c.client.Incr(ctx, c.versionKey(documentID)).Err(); err != nil {
		return fmt.Errorf("redis bump answer version failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) answerKey(ctx context.Context, documentID uint, query string) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey(documentID)).Int64()
	if err != nil && err != redisv9.Nil {
		return "", fmt.Errorf("redis get answer version failed: %w", err)
	}
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("study:answer:%d:%d:%s", documentID, version, hex.EncodeToString(sum[:8])), nil
}

func (c *AnswerCache) versionKey(documentID uint) string {
	return fmt.Sprintf("study:answer:version:%d", documentID)
}
