package app

import (
	"context"
	"fmt"
	"log"

	"studyai-backend/internal/ai"
	"studyai-backend/internal/model"
)

// Embedder maps text to embedding vectors. Satisfied by *ai.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a text completion from a prompt. Satisfied by
// *ai.Client.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, params ai.GenerationParams) (string, error)
}

// ActivityPublisher pushes study-activity events for async persistence.
// Satisfied by *rabbitmq.ActivityPublisher.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity model.StudyActivity) error
}

// AnswerCache caches query answers per document. Satisfied by
// *cache.AnswerCache. A nil cache disables caching.
type AnswerCache interface {
	Get(ctx context.Context, documentID uint, query string) (string, bool, error)
	Set(ctx context.Context, documentID uint, query, answer string) error
	Invalidate(ctx context.Context, documentID uint) error
}

func docKey(documentID uint) string {
	return fmt.Sprintf("document:%d", documentID)
}

// Activity logging is best-effort: a broker outage must never fail a user
// request.
func publishActivity(ctx context.Context, publisher ActivityPublisher, activity model.StudyActivity) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, activity); err != nil {
		log.Printf("publish %s activity failed: %v", activity.Action, err)
	}
}
