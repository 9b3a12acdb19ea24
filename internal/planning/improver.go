package planning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/memory"
)

// Default query bounds for plan improvement.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.5
)

// DefaultNamespace is the memory namespace queried for plan insights.
const DefaultNamespace = "reflections"

// MemoryQuerier is the read side of long-term memory the improver needs.
type MemoryQuerier interface {
	Query(ctx context.Context, text string, topK int, minScore float32, namespace string) ([]memory.Match, error)
}

// ImproveOptions bounds a single improvement query.
type ImproveOptions struct {
	// TopK is how many past reflections to consider.
	TopK int

	// MinScore is the relevance threshold (cosine similarity).
	MinScore float32

	// Namespace is the memory namespace to query.
	Namespace string
}

// ApplyDefaults sets default values for unset fields.
func (o *ImproveOptions) ApplyDefaults() {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.MinScore == 0 {
		o.MinScore = DefaultMinScore
	}
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
}

// Improver enriches plans with relevant insights from long-term memory.
type Improver struct {
	memory MemoryQuerier
	logger *zap.Logger
}

// NewImprover creates a plan improver.
func NewImprover(querier MemoryQuerier, logger *zap.Logger) (*Improver, error) {
	if querier == nil {
		return nil, fmt.Errorf("memory querier cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Improver{
		memory: querier,
		logger: logger,
	}, nil
}

// ImprovePlan queries long-term memory for insights relevant to the user
// goal and attaches qualifying matches to the plan.
//
// The operation is purely additive: existing plan fields are never removed
// or mutated, and InsightsApplied is only set when at least one match
// passes the score threshold. Match order is preserved. The memory query is
// read-only, so repeated calls with unchanged memory are idempotent.
func (i *Improver) ImprovePlan(ctx context.Context, userGoal string, plan *Plan, opts ImproveOptions) (*Plan, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan cannot be nil")
	}
	opts.ApplyDefaults()

	i.logger.Info("querying long-term memory for plan insights",
		zap.String("plan_id", plan.PlanID),
		zap.String("namespace", opts.Namespace))

	matches, err := i.memory.Query(ctx, userGoal, opts.TopK, opts.MinScore, opts.Namespace)
	if err != nil {
		return plan, fmt.Errorf("querying memory: %w", err)
	}

	var applied []Insight
	for _, match := range matches {
		// Re-check the threshold here so a store-side change to score
		// filtering cannot silently admit low-relevance matches.
		if match.Score >= opts.MinScore {
			applied = append(applied, Insight{
				Insight: match.Text,
				Score:   match.Score,
			})
		}
	}

	if len(applied) > 0 {
		plan.InsightsApplied = applied
		i.logger.Info("insights added to plan from memory",
			zap.String("plan_id", plan.PlanID),
			zap.Int("insights", len(applied)))
	}

	return plan, nil
}
