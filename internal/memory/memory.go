// Package memory provides the durable, semantically searchable record of
// past task outcomes used to bias future planning.
package memory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/embeddings"
	"github.com/fyrsmithlabs/opsloop/internal/vectorstore"
)

// Namespaces used by the learning loop.
const (
	// NamespaceSuccessfulTasks holds patterns that received positive feedback.
	NamespaceSuccessfulTasks = "successful_tasks"

	// NamespaceFailedTasks holds patterns that received negative feedback.
	NamespaceFailedTasks = "failed_tasks"

	// NamespaceReflections holds plan-level insights queried during planning.
	NamespaceReflections = "reflections"
)

// Record is the structured content written into long-term memory.
type Record struct {
	PlanID          string `json:"plan_id"`
	TaskID          string `json:"task_id"`
	TaskDescription string `json:"task_description"`
	FeedbackResult  string `json:"feedback_result"`
	FreeText        string `json:"free_text_feedback,omitempty"`

	// Timestamp is the UTC time of learning, not the feedback's own timestamp.
	Timestamp string `json:"timestamp"`

	// LearningTag classifies the pattern: "successful_task" or "failed_task".
	LearningTag string `json:"learning_tag"`
}

// text renders the record for embedding and later retrieval as an insight.
func (r Record) text() string {
	var b strings.Builder
	b.WriteString(r.TaskDescription)
	if r.FreeText != "" {
		b.WriteString(": ")
		b.WriteString(r.FreeText)
	}
	if r.LearningTag != "" {
		b.WriteString(" (")
		b.WriteString(r.LearningTag)
		b.WriteString(")")
	}
	return b.String()
}

// Match is a memory entry surfaced by a similarity query.
type Match struct {
	// Text is the stored memory text.
	Text string

	// Score is the similarity score against the query.
	Score float32

	// Payload is the full stored record.
	Payload map[string]interface{}
}

// Store is the long-term memory facade consumed by the learning manager
// (writes) and the plan improver (reads).
type Store interface {
	// StoreLongTermMemory writes a record into the given namespace.
	StoreLongTermMemory(ctx context.Context, content Record, namespace string) error

	// Query returns up to topK entries semantically matching text within the
	// namespace, each scoring at least minScore, ordered by similarity.
	Query(ctx context.Context, text string, topK int, minScore float32, namespace string) ([]Match, error)
}

// DefaultCollection is the vector collection backing long-term memory.
const DefaultCollection = "agent_knowledge"

// VectorMemory is a Store backed by the similarity store and an embedding
// provider. Namespaces are payload fields filtered at query time.
type VectorMemory struct {
	vectors    vectorstore.Store
	embedder   embeddings.Provider
	collection string
	logger     *zap.Logger
}

// NewVectorMemory creates the long-term memory store and ensures its
// backing collection exists.
func NewVectorMemory(ctx context.Context, vectors vectorstore.Store, embedder embeddings.Provider, collection string, vectorSize uint64, logger *zap.Logger) (*VectorMemory, error) {
	if vectors == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := vectors.EnsureCollection(ctx, collection, vectorSize); err != nil {
		return nil, fmt.Errorf("ensuring collection %s: %w", collection, err)
	}

	return &VectorMemory{
		vectors:    vectors,
		embedder:   embedder,
		collection: collection,
		logger:     logger,
	}, nil
}

// StoreLongTermMemory writes a record into the given namespace.
func (m *VectorMemory) StoreLongTermMemory(ctx context.Context, content Record, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	text := content.text()
	if text == "" {
		return fmt.Errorf("memory content cannot be empty")
	}

	vector, err := m.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding memory content: %w", err)
	}

	point := vectorstore.Point{
		ID:     vectorstore.NewPointID(),
		Vector: vector,
		Payload: map[string]interface{}{
			"namespace":          namespace,
			"text":               text,
			"plan_id":            content.PlanID,
			"task_id":            content.TaskID,
			"task_description":   content.TaskDescription,
			"feedback_result":    content.FeedbackResult,
			"free_text_feedback": content.FreeText,
			"timestamp":          content.Timestamp,
			"learning_tag":       content.LearningTag,
		},
	}

	if err := m.vectors.Upsert(ctx, m.collection, []vectorstore.Point{point}); err != nil {
		return fmt.Errorf("storing memory: %w", err)
	}

	m.logger.Info("memory stored",
		zap.String("namespace", namespace),
		zap.String("task_id", content.TaskID),
		zap.String("learning_tag", content.LearningTag))

	return nil
}

// Query returns entries semantically matching text within the namespace.
func (m *VectorMemory) Query(ctx context.Context, text string, topK int, minScore float32, namespace string) ([]Match, error) {
	if text == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	vector, err := m.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := m.vectors.Query(ctx, m.collection, vector, vectorstore.QueryParams{
		Limit:          uint64(topK),
		ScoreThreshold: minScore,
		Filters:        map[string]interface{}{"namespace": namespace},
	})
	if err != nil {
		return nil, fmt.Errorf("querying memory: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		matchText, _ := result.Payload["text"].(string)
		matches = append(matches, Match{
			Text:    matchText,
			Score:   result.Score,
			Payload: result.Payload,
		})
	}

	m.logger.Debug("memory queried",
		zap.String("namespace", namespace),
		zap.Int("top_k", topK),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// Ensure VectorMemory implements Store interface.
var _ Store = (*VectorMemory)(nil)
