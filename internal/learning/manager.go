// Package learning folds stored feedback back into long-term memory.
package learning

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/feedback"
	"github.com/fyrsmithlabs/opsloop/internal/memory"
)

// Learning tags attached to memory records.
const (
	TagSuccessfulTask = "successful_task"
	TagFailedTask     = "failed_task"
)

// MemoryWriter is the write side of long-term memory the manager needs.
type MemoryWriter interface {
	StoreLongTermMemory(ctx context.Context, content memory.Record, namespace string) error
}

// Config holds learning manager settings.
type Config struct {
	// OnPositive enables memory updates for positive feedback. Default: true.
	OnPositive bool

	// OnNegative enables memory updates for negative feedback. Default: false.
	OnNegative bool
}

// NewDefaultConfig returns the default toggle settings.
func NewDefaultConfig() Config {
	return Config{
		OnPositive: true,
		OnNegative: false,
	}
}

// Manager turns feedback records into long-term memory updates.
//
// Positive feedback becomes a successful_task pattern, negative feedback a
// failed_task pattern; each toggle can be disabled independently. At most
// one memory write happens per feedback event.
type Manager struct {
	config Config
	memory MemoryWriter
	logger *zap.Logger
}

// NewManager creates a learning manager.
func NewManager(config Config, writer MemoryWriter, logger *zap.Logger) (*Manager, error) {
	if writer == nil {
		return nil, fmt.Errorf("memory writer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		config: config,
		memory: writer,
		logger: logger,
	}, nil
}

// ProcessFeedback dispatches on the feedback result and updates long-term
// memory accordingly. Neutral and unknown results never write.
func (m *Manager) ProcessFeedback(ctx context.Context, record *feedback.Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	switch record.Result {
	case feedback.ResultPositive:
		if !m.config.OnPositive {
			m.logger.Debug("positive feedback ignored: auto update disabled",
				zap.String("task_id", record.TaskID))
			return nil
		}
		return m.storePattern(ctx, record, TagSuccessfulTask, memory.NamespaceSuccessfulTasks)

	case feedback.ResultNegative:
		if !m.config.OnNegative {
			m.logger.Debug("negative feedback ignored: auto update disabled",
				zap.String("task_id", record.TaskID))
			return nil
		}
		return m.storePattern(ctx, record, TagFailedTask, memory.NamespaceFailedTasks)

	case feedback.ResultNeutral, feedback.ResultUnknown:
		m.logger.Info("neutral/unknown feedback: no action taken",
			zap.String("task_id", record.TaskID),
			zap.String("result", string(record.Result)))
		return nil

	default:
		return fmt.Errorf("unknown feedback result %q", record.Result)
	}
}

// storePattern writes one tagged memory record. The timestamp captures the
// time of learning, not the feedback's own timestamp.
func (m *Manager) storePattern(ctx context.Context, record *feedback.Record, tag, namespace string) error {
	content := memory.Record{
		PlanID:          record.PlanID,
		TaskID:          record.TaskID,
		TaskDescription: record.TaskDescription,
		FeedbackResult:  string(record.Result),
		FreeText:        record.FreeText,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		LearningTag:     tag,
	}

	if err := m.memory.StoreLongTermMemory(ctx, content, namespace); err != nil {
		return fmt.Errorf("storing %s pattern: %w", tag, err)
	}

	m.logger.Info("feedback folded into memory",
		zap.String("task_id", record.TaskID),
		zap.String("learning_tag", tag),
		zap.String("namespace", namespace))

	return nil
}
