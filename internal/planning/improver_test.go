package planning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/opsloop/internal/memory"
)

// fakeQuerier returns canned matches and records query arguments.
type fakeQuerier struct {
	matches   []memory.Match
	err       error
	lastText  string
	lastTopK  int
	lastScore float32
	lastNS    string
	calls     int
}

func (f *fakeQuerier) Query(_ context.Context, text string, topK int, minScore float32, namespace string) ([]memory.Match, error) {
	f.calls++
	f.lastText = text
	f.lastTopK = topK
	f.lastScore = minScore
	f.lastNS = namespace
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func testPlan() *Plan {
	return &Plan{
		PlanID: "plan-1",
		Goal:   "scale the web deployment",
		Tasks: []Task{
			{ID: "task-1", Description: "get current replica count"},
			{ID: "task-2", Description: "scale deployment web to 3 replicas"},
		},
	}
}

func TestImprovePlan_FiltersByScore(t *testing.T) {
	querier := &fakeQuerier{matches: []memory.Match{
		{Text: "A", Score: 0.9},
		{Text: "B", Score: 0.4},
	}}
	improver, err := NewImprover(querier, nil)
	require.NoError(t, err)

	plan := testPlan()
	got, err := improver.ImprovePlan(context.Background(), plan.Goal, plan, ImproveOptions{MinScore: 0.5})
	require.NoError(t, err)

	require.Len(t, got.InsightsApplied, 1)
	assert.Equal(t, "A", got.InsightsApplied[0].Insight)
	assert.Equal(t, float32(0.9), got.InsightsApplied[0].Score)

	// Other fields unchanged.
	assert.Equal(t, "plan-1", got.PlanID)
	assert.Equal(t, "scale the web deployment", got.Goal)
	assert.Len(t, got.Tasks, 2)
}

func TestImprovePlan_PreservesMatchOrder(t *testing.T) {
	querier := &fakeQuerier{matches: []memory.Match{
		{Text: "first", Score: 0.7},
		{Text: "second", Score: 0.9},
		{Text: "third", Score: 0.6},
	}}
	improver, err := NewImprover(querier, nil)
	require.NoError(t, err)

	got, err := improver.ImprovePlan(context.Background(), "goal", testPlan(), ImproveOptions{})
	require.NoError(t, err)

	// No re-sorting: order follows the memory query.
	require.Len(t, got.InsightsApplied, 3)
	assert.Equal(t, "first", got.InsightsApplied[0].Insight)
	assert.Equal(t, "second", got.InsightsApplied[1].Insight)
	assert.Equal(t, "third", got.InsightsApplied[2].Insight)
}

func TestImprovePlan_NoQualifyingInsights(t *testing.T) {
	querier := &fakeQuerier{matches: []memory.Match{{Text: "weak", Score: 0.2}}}
	improver, err := NewImprover(querier, nil)
	require.NoError(t, err)

	got, err := improver.ImprovePlan(context.Background(), "goal", testPlan(), ImproveOptions{})
	require.NoError(t, err)
	assert.Nil(t, got.InsightsApplied)
}

func TestImprovePlan_Defaults(t *testing.T) {
	querier := &fakeQuerier{}
	improver, err := NewImprover(querier, nil)
	require.NoError(t, err)

	_, err = improver.ImprovePlan(context.Background(), "goal", testPlan(), ImproveOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, querier.lastTopK)
	assert.Equal(t, float32(DefaultMinScore), querier.lastScore)
	assert.Equal(t, DefaultNamespace, querier.lastNS)
	assert.Equal(t, "goal", querier.lastText)
}

func TestImprovePlan_Idempotent(t *testing.T) {
	querier := &fakeQuerier{matches: []memory.Match{{Text: "A", Score: 0.9}}}
	improver, err := NewImprover(querier, nil)
	require.NoError(t, err)

	plan := testPlan()
	first, err := improver.ImprovePlan(context.Background(), "goal", plan, ImproveOptions{})
	require.NoError(t, err)
	firstInsights := append([]Insight(nil), first.InsightsApplied...)

	second, err := improver.ImprovePlan(context.Background(), "goal", plan, ImproveOptions{})
	require.NoError(t, err)

	assert.Equal(t, firstInsights, second.InsightsApplied)
	assert.Equal(t, 2, querier.calls)
}

func TestImprovePlan_QueryError(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("memory unavailable")}
	improver, err := NewImprover(querier, nil)
	require.NoError(t, err)

	plan := testPlan()
	got, err := improver.ImprovePlan(context.Background(), "goal", plan, ImproveOptions{})
	require.Error(t, err)

	// The plan comes back unchanged.
	assert.Equal(t, plan, got)
	assert.Nil(t, got.InsightsApplied)
}

func TestNewImprover_NilQuerier(t *testing.T) {
	_, err := NewImprover(nil, nil)
	assert.Error(t, err)
}
