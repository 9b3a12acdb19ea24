// Package planning holds the plan and task model and the memory-driven
// plan improver.
package planning

// Task is a single executable step of a plan.
type Task struct {
	// ID is the task identifier within its plan.
	ID string `json:"id"`

	// Description is the natural-language action the task performs.
	Description string `json:"description"`

	// RetryCount is the number of attempts already made. The owning
	// orchestrator is the single writer; the retry policy only reads it.
	RetryCount int `json:"retry_count"`
}

// TaskResult is the outcome of one task execution attempt.
type TaskResult struct {
	// Success reports whether the attempt succeeded.
	Success bool `json:"success"`

	// Error is the failure text. Empty when absent.
	Error string `json:"error,omitempty"`
}

// Insight is a memory match judged relevant enough to influence a plan.
type Insight struct {
	// Insight is the retrieved memory text.
	Insight string `json:"insight"`

	// Score is the similarity score against the plan's goal.
	Score float32 `json:"score"`
}

// Plan is an ordered set of tasks derived from a user goal.
type Plan struct {
	// PlanID is the plan identifier.
	PlanID string `json:"plan_id"`

	// Goal is the user goal the plan was derived from.
	Goal string `json:"goal"`

	// Tasks are the plan's steps in execution order.
	Tasks []Task `json:"tasks"`

	// InsightsApplied holds memory matches attached by the improver,
	// in the order the memory query returned them. Nil when no insight
	// qualified.
	InsightsApplied []Insight `json:"insights_applied,omitempty"`
}
