// Package config provides configuration loading for opsloop.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/opsloop/internal/embeddings"
	"github.com/fyrsmithlabs/opsloop/internal/feedback"
	"github.com/fyrsmithlabs/opsloop/internal/learning"
	"github.com/fyrsmithlabs/opsloop/internal/logging"
	"github.com/fyrsmithlabs/opsloop/internal/retry"
	"github.com/fyrsmithlabs/opsloop/internal/vectorstore"
)

// Config is the root configuration for the learning loop.
type Config struct {
	Feedback   FeedbackConfig           `koanf:"feedback"`
	Retry      retry.Config             `koanf:"retry"`
	Redis      RedisConfig              `koanf:"redis"`
	Qdrant     vectorstore.QdrantConfig `koanf:"qdrant"`
	Memory     MemoryConfig             `koanf:"memory"`
	Embeddings embeddings.Config        `koanf:"embeddings"`
	Logging    logging.Config           `koanf:"logging"`
}

// FeedbackConfig holds feedback collection and learning settings.
type FeedbackConfig struct {
	// EnableFeedback toggles feedback collection entirely.
	EnableFeedback bool `koanf:"enable_feedback"`

	// CollectionMode selects how feedback is acquired: thumbs, stars, free_text.
	CollectionMode string `koanf:"feedback_collection_mode"`

	// Question is shown to the operator with each prompt.
	Question string `koanf:"feedback_question"`

	// RetryOnNoResponse is the number of re-prompts after an invalid response.
	RetryOnNoResponse int `koanf:"retry_on_no_response"`

	// StoreFeedbackIn selects storage backends: redis, qdrant, both.
	StoreFeedbackIn []string `koanf:"store_feedback_in"`

	// FeedbackCollection is the vector collection for free-text feedback.
	FeedbackCollection string `koanf:"feedback_collection"`

	// AutoMemoryUpdateOnPositive folds positive feedback into memory.
	AutoMemoryUpdateOnPositive bool `koanf:"auto_memory_update_on_positive"`

	// AutoMemoryUpdateOnNegative folds negative feedback into memory.
	AutoMemoryUpdateOnNegative bool `koanf:"auto_memory_update_on_negative"`
}

// RedisConfig holds fast key-value store connection settings.
type RedisConfig struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string `koanf:"url"`

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// ReadTimeout bounds read operations.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds write operations.
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// MemoryConfig holds long-term memory settings.
type MemoryConfig struct {
	// CollectionName is the vector collection backing long-term memory.
	CollectionName string `koanf:"collection_name"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := feedback.ParseMode(c.Feedback.CollectionMode); err != nil {
		return fmt.Errorf("feedback.feedback_collection_mode: %w", err)
	}
	if c.Feedback.RetryOnNoResponse < 0 {
		return fmt.Errorf("feedback.retry_on_no_response cannot be negative")
	}
	for _, backend := range c.Feedback.StoreFeedbackIn {
		if _, err := feedback.ParseBackend(backend); err != nil {
			return fmt.Errorf("feedback.store_feedback_in: %w", err)
		}
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis.url required")
	}
	if err := c.Qdrant.Validate(); err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	if err := c.Embeddings.Validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Backends returns the parsed storage backend set.
func (c *Config) Backends() feedback.Backends {
	backends := make(feedback.Backends, 0, len(c.Feedback.StoreFeedbackIn))
	for _, raw := range c.Feedback.StoreFeedbackIn {
		backend, err := feedback.ParseBackend(raw)
		if err != nil {
			continue // Validate rejects unknown backends up front
		}
		backends = append(backends, backend)
	}
	return backends
}

// CollectorConfig builds the feedback collector configuration.
func (c *Config) CollectorConfig() feedback.CollectorConfig {
	return feedback.CollectorConfig{
		Enabled:    c.Feedback.EnableFeedback,
		Mode:       feedback.Mode(c.Feedback.CollectionMode),
		Question:   c.Feedback.Question,
		RetryLimit: c.Feedback.RetryOnNoResponse,
	}
}

// StoreConfig builds the feedback store configuration.
func (c *Config) StoreConfig() feedback.StoreConfig {
	return feedback.StoreConfig{
		Backends:           c.Backends(),
		FeedbackCollection: c.Feedback.FeedbackCollection,
		VectorSize:         c.Embeddings.VectorSize,
	}
}

// LearningConfig builds the learning manager configuration.
func (c *Config) LearningConfig() learning.Config {
	return learning.Config{
		OnPositive: c.Feedback.AutoMemoryUpdateOnPositive,
		OnNegative: c.Feedback.AutoMemoryUpdateOnNegative,
	}
}
