// Package retry decides whether a failed task should be re-attempted.
package retry

import (
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/planning"
)

// DefaultMaxRetries is the retry budget applied when none is configured.
const DefaultMaxRetries = 2

// DefaultRetryableErrors are the error keywords eligible for retry when
// none are configured.
var DefaultRetryableErrors = []string{
	"connection refused",
	"resource not found",
	"timeout",
	"temporary unavailable",
}

// Config holds retry policy settings.
type Config struct {
	// MaxRetries is the maximum number of re-attempts per task.
	MaxRetries int `koanf:"max_retries"`

	// RetryableErrors are substrings (matched case-insensitively) that mark
	// an error as transient.
	RetryableErrors []string `koanf:"retryable_errors"`
}

// Policy is a pure decision function over a task and its failure result.
// It carries no state between calls and never returns an error.
type Policy struct {
	maxRetries      int
	retryableErrors []string
	logger          *zap.Logger
}

// NewPolicy creates a retry policy. Zero-value config fields fall back to
// the package defaults.
func NewPolicy(config Config, logger *zap.Logger) *Policy {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if len(config.RetryableErrors) == 0 {
		config.RetryableErrors = DefaultRetryableErrors
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	keywords := make([]string, len(config.RetryableErrors))
	for i, keyword := range config.RetryableErrors {
		keywords[i] = strings.ToLower(keyword)
	}

	return &Policy{
		maxRetries:      config.MaxRetries,
		retryableErrors: keywords,
		logger:          logger,
	}
}

// ShouldRetry reports whether a failed task should be re-attempted.
//
// Retry is denied once the task's retry budget is exhausted, and otherwise
// allowed only when the error text contains a retryable keyword
// (case-insensitive substring, first match wins). Missing error text never
// matches, so it denies retry. The policy only reads RetryCount; the
// orchestrator owns incrementing it.
func (p *Policy) ShouldRetry(task *planning.Task, result *planning.TaskResult) bool {
	var taskID string
	var retryCount int
	if task != nil {
		taskID = task.ID
		retryCount = task.RetryCount
	}

	var errText string
	if result != nil {
		errText = strings.ToLower(result.Error)
	}

	if retryCount >= p.maxRetries {
		p.logger.Warn("retry limit exceeded",
			zap.String("task_id", taskID),
			zap.Int("retry_count", retryCount),
			zap.Int("max_retries", p.maxRetries))
		return false
	}

	for _, keyword := range p.retryableErrors {
		if strings.Contains(errText, keyword) {
			p.logger.Info("retry approved",
				zap.String("task_id", taskID),
				zap.String("matched_keyword", keyword))
			return true
		}
	}

	p.logger.Info("retry not allowed: error not retryable",
		zap.String("task_id", taskID))
	return false
}
