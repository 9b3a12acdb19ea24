package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/embeddings"
	"github.com/fyrsmithlabs/opsloop/internal/vectorstore"
)

// ErrNotFound is returned when a feedback record does not exist.
var ErrNotFound = errors.New("feedback record not found")

// redisKeyPrefix prefixes all feedback keys in the fast store.
const redisKeyPrefix = "feedback:"

// DefaultFeedbackCollection is the vector collection for free-text feedback.
const DefaultFeedbackCollection = "feedback_memory"

// StoreConfig holds feedback persistence settings.
type StoreConfig struct {
	// Backends selects where records are persisted.
	Backends Backends

	// FeedbackCollection is the vector collection for free-text feedback.
	FeedbackCollection string

	// VectorSize is the dimensionality of feedback embeddings.
	VectorSize uint64
}

// ApplyDefaults sets default values for unset fields.
func (c *StoreConfig) ApplyDefaults() {
	if len(c.Backends) == 0 {
		c.Backends = Backends{BackendRedis}
	}
	if c.FeedbackCollection == "" {
		c.FeedbackCollection = DefaultFeedbackCollection
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Store persists feedback records to the configured backends.
//
// Every record goes to Redis as a flattened hash; records carrying free text
// additionally go to Qdrant as an embedded vector. The two writes are
// independent and best-effort: a failure in one neither blocks nor masks
// the other.
type Store struct {
	config   StoreConfig
	redis    redis.UniversalClient
	vectors  vectorstore.Store
	embedder embeddings.Provider
	logger   *zap.Logger
}

// NewStore creates a feedback store.
//
// redisClient may be nil when the redis backend is not configured; vectors
// and embedder may be nil when the qdrant backend is not configured.
func NewStore(ctx context.Context, config StoreConfig, redisClient redis.UniversalClient, vectors vectorstore.Store, embedder embeddings.Provider, logger *zap.Logger) (*Store, error) {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	if config.Backends.RedisEnabled() && redisClient == nil {
		return nil, fmt.Errorf("redis backend configured but client is nil")
	}
	if config.Backends.QdrantEnabled() {
		if vectors == nil {
			return nil, fmt.Errorf("qdrant backend configured but vector store is nil")
		}
		if embedder == nil {
			return nil, fmt.Errorf("qdrant backend configured but embedder is nil")
		}
		if err := vectors.EnsureCollection(ctx, config.FeedbackCollection, config.VectorSize); err != nil {
			return nil, fmt.Errorf("ensuring collection %s: %w", config.FeedbackCollection, err)
		}
	}

	return &Store{
		config:   config,
		redis:    redisClient,
		vectors:  vectors,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// SaveFeedback persists a collected feedback record.
//
// A fresh FeedbackID and UTC timestamp are assigned if the caller left them
// empty. Backend failures are joined so neither write masks the other.
func (s *Store) SaveFeedback(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	if record.FeedbackID == "" {
		record.FeedbackID = uuid.New().String()
	}
	if record.Timestamp == "" {
		record.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	var redisErr, qdrantErr error

	if s.config.Backends.RedisEnabled() {
		if redisErr = s.saveToRedis(ctx, record); redisErr != nil {
			s.logger.Error("redis feedback write failed",
				zap.String("feedback_id", record.FeedbackID),
				zap.Error(redisErr))
		}
	}

	if record.FreeText != "" && s.config.Backends.QdrantEnabled() {
		if qdrantErr = s.saveToQdrant(ctx, record); qdrantErr != nil {
			s.logger.Error("qdrant feedback write failed",
				zap.String("feedback_id", record.FeedbackID),
				zap.Error(qdrantErr))
		}
	}

	if redisErr == nil && qdrantErr == nil {
		s.logger.Info("feedback saved",
			zap.String("feedback_id", record.FeedbackID),
			zap.String("task_id", record.TaskID),
			zap.String("result", string(record.Result)))
	}

	return errors.Join(redisErr, qdrantErr)
}

// saveToRedis stores the record as a flattened hash. Every field is present
// with an empty-string default, never absent.
func (s *Store) saveToRedis(ctx context.Context, record *Record) error {
	key := redisKeyPrefix + record.FeedbackID

	flattened := map[string]string{
		"plan_id":            record.PlanID,
		"task_id":            record.TaskID,
		"task_description":   record.TaskDescription,
		"feedback_type":      record.FeedbackType,
		"feedback_result":    string(record.Result),
		"timestamp":          record.Timestamp,
		"free_text_feedback": record.FreeText,
	}
	if flattened["feedback_result"] == "" {
		flattened["feedback_result"] = string(ResultUnknown)
	}

	if err := s.redis.HSet(ctx, key, flattened).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// saveToQdrant embeds the free text and upserts it as a vector point.
func (s *Store) saveToQdrant(ctx context.Context, record *Record) error {
	vector, err := s.embedder.GenerateEmbedding(ctx, record.FreeText)
	if err != nil {
		return fmt.Errorf("embedding feedback text: %w", err)
	}

	point := vectorstore.Point{
		ID:     vectorstore.NewPointID(),
		Vector: vector,
		Payload: map[string]interface{}{
			"plan_id":         record.PlanID,
			"task_id":         record.TaskID,
			"feedback_result": string(record.Result),
			"timestamp":       record.Timestamp,
			"raw_feedback":    record.FreeText,
		},
	}

	if err := s.vectors.Upsert(ctx, s.config.FeedbackCollection, []vectorstore.Point{point}); err != nil {
		return fmt.Errorf("upserting feedback point: %w", err)
	}
	return nil
}

// GetFeedback reads a flattened record back from the fast store.
func (s *Store) GetFeedback(ctx context.Context, feedbackID string) (*Record, error) {
	if !s.config.Backends.RedisEnabled() {
		return nil, fmt.Errorf("redis backend not configured")
	}

	key := redisKeyPrefix + feedbackID
	fields, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, feedbackID)
	}

	result, err := ParseResult(fields["feedback_result"])
	if err != nil {
		return nil, fmt.Errorf("parsing stored record %s: %w", feedbackID, err)
	}

	return &Record{
		FeedbackID:      feedbackID,
		PlanID:          fields["plan_id"],
		TaskID:          fields["task_id"],
		TaskDescription: fields["task_description"],
		FeedbackType:    fields["feedback_type"],
		Result:          result,
		FreeText:        fields["free_text_feedback"],
		Timestamp:       fields["timestamp"],
	}, nil
}
