package feedback

import (
	"fmt"
	"strings"
)

// Result represents the outcome of a feedback event.
type Result string

const (
	// ResultPositive indicates the operator approved the task outcome.
	ResultPositive Result = "positive"

	// ResultNegative indicates the operator rejected the task outcome.
	ResultNegative Result = "negative"

	// ResultNeutral indicates an indifferent signal (e.g. a 3-star rating).
	ResultNeutral Result = "neutral"

	// ResultUnknown indicates no valid response was obtained.
	ResultUnknown Result = "unknown"
)

// ParseResult parses a string into a Result.
func ParseResult(s string) (Result, error) {
	switch Result(strings.ToLower(s)) {
	case ResultPositive:
		return ResultPositive, nil
	case ResultNegative:
		return ResultNegative, nil
	case ResultNeutral:
		return ResultNeutral, nil
	case ResultUnknown, "":
		return ResultUnknown, nil
	default:
		return ResultUnknown, fmt.Errorf("unknown feedback result %q", s)
	}
}

// Mode represents a feedback collection mode.
type Mode string

const (
	// ModeThumbs collects a binary 'y'/'n' signal.
	ModeThumbs Mode = "thumbs"

	// ModeStars collects a 1-5 rating.
	ModeStars Mode = "stars"

	// ModeFreeText collects a free-form comment.
	ModeFreeText Mode = "free_text"
)

// ParseMode parses a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeThumbs:
		return ModeThumbs, nil
	case ModeStars:
		return ModeStars, nil
	case ModeFreeText:
		return ModeFreeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

// Backend identifies a feedback storage backend.
type Backend string

const (
	// BackendRedis persists flattened records to the fast key-value store.
	BackendRedis Backend = "redis"

	// BackendQdrant persists free-text feedback as embedded vectors.
	BackendQdrant Backend = "qdrant"

	// BackendBoth enables both backends.
	BackendBoth Backend = "both"
)

// ParseBackend parses a string into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(s)) {
	case BackendRedis:
		return BackendRedis, nil
	case BackendQdrant:
		return BackendQdrant, nil
	case BackendBoth:
		return BackendBoth, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q", s)
	}
}

// Backends is a set of configured storage backends.
type Backends []Backend

// RedisEnabled reports whether records should be written to Redis.
func (b Backends) RedisEnabled() bool {
	return b.contains(BackendRedis) || b.contains(BackendBoth)
}

// QdrantEnabled reports whether free-text feedback should be written to Qdrant.
func (b Backends) QdrantEnabled() bool {
	return b.contains(BackendQdrant) || b.contains(BackendBoth)
}

func (b Backends) contains(backend Backend) bool {
	for _, candidate := range b {
		if candidate == backend {
			return true
		}
	}
	return false
}

// Record is a single collected feedback event.
//
// FeedbackID and Timestamp are assigned by the Store when empty; the record
// is immutable after it has been saved.
type Record struct {
	// FeedbackID is the unique record identifier (UUID), assigned at store time.
	FeedbackID string `json:"feedback_id"`

	// PlanID identifies the plan the task belonged to.
	PlanID string `json:"plan_id"`

	// TaskID identifies the executed task.
	TaskID string `json:"task_id"`

	// TaskDescription is what the task did, as shown to the operator.
	TaskDescription string `json:"task_description"`

	// FeedbackType is the collection mode that produced the record.
	FeedbackType string `json:"feedback_type,omitempty"`

	// Result is the classified outcome signal.
	Result Result `json:"feedback_result"`

	// FreeText is the raw comment for free-text feedback. Empty otherwise.
	FreeText string `json:"free_text_feedback,omitempty"`

	// Timestamp is the UTC ISO-8601 save time, assigned at store time.
	Timestamp string `json:"timestamp"`
}
