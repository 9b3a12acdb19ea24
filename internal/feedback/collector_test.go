package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter replays canned responses, one per attempt.
type scriptedPrompter struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedPrompter) Prompt(_ context.Context, _ string) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", nil
}

func newTestCollector(t *testing.T, mode Mode, retryLimit int, prompter Prompter) *Collector {
	t.Helper()
	collector, err := NewCollector(CollectorConfig{
		Enabled:    true,
		Mode:       mode,
		RetryLimit: retryLimit,
	}, prompter, nil)
	require.NoError(t, err)
	return collector
}

func TestCollect_Disabled(t *testing.T) {
	collector, err := NewCollector(CollectorConfig{Enabled: false}, &scriptedPrompter{}, nil)
	require.NoError(t, err)

	record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCollect_Thumbs(t *testing.T) {
	tests := []struct {
		name       string
		responses  []string
		wantResult Result
	}{
		{name: "yes", responses: []string{"y"}, wantResult: ResultPositive},
		{name: "no", responses: []string{"n"}, wantResult: ResultNegative},
		{name: "uppercase yes", responses: []string{"Y"}, wantResult: ResultPositive},
		{name: "invalid then yes", responses: []string{"maybe", "y"}, wantResult: ResultPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := &scriptedPrompter{responses: tt.responses}
			collector := newTestCollector(t, ModeThumbs, 2, prompter)

			record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, tt.wantResult, record.Result)
			assert.Empty(t, record.FreeText)
			assert.Equal(t, "plan-1", record.PlanID)
			assert.Equal(t, "task-1", record.TaskID)
			assert.Equal(t, string(ModeThumbs), record.FeedbackType)
		})
	}
}

func TestCollect_Thumbs_Exhausted(t *testing.T) {
	prompter := &scriptedPrompter{responses: []string{"x", "x", "x", "x"}}
	collector := newTestCollector(t, ModeThumbs, 2, prompter)

	record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
	require.NoError(t, err)
	require.NotNil(t, record)

	// retry_limit + 1 attempts, then degrade to unknown.
	assert.Equal(t, 3, prompter.calls)
	assert.Equal(t, ResultUnknown, record.Result)
	assert.Empty(t, record.FreeText)
}

func TestCollect_Stars(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantResult Result
	}{
		{name: "five stars", response: "5", wantResult: ResultPositive},
		{name: "four stars", response: "4", wantResult: ResultPositive},
		{name: "three stars", response: "3", wantResult: ResultNeutral},
		{name: "two stars", response: "2", wantResult: ResultNegative},
		{name: "one star", response: "1", wantResult: ResultNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := &scriptedPrompter{responses: []string{tt.response}}
			collector := newTestCollector(t, ModeStars, 2, prompter)

			record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, record.Result)
		})
	}
}

func TestCollect_Stars_InvalidInputs(t *testing.T) {
	// Out-of-range and non-numeric responses each consume an attempt.
	prompter := &scriptedPrompter{responses: []string{"0", "6", "lots"}}
	collector := newTestCollector(t, ModeStars, 2, prompter)

	record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
	require.NoError(t, err)
	assert.Equal(t, ResultUnknown, record.Result)
	assert.Equal(t, 3, prompter.calls)
}

func TestCollect_FreeText(t *testing.T) {
	t.Run("short text is neutral", func(t *testing.T) {
		prompter := &scriptedPrompter{responses: []string{"abc"}}
		collector := newTestCollector(t, ModeFreeText, 2, prompter)

		record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
		require.NoError(t, err)
		assert.Equal(t, ResultNeutral, record.Result)
		assert.Equal(t, "abc", record.FreeText)
	})

	t.Run("longer text is positive", func(t *testing.T) {
		text := strings.Repeat("k", 10)
		prompter := &scriptedPrompter{responses: []string{text}}
		collector := newTestCollector(t, ModeFreeText, 2, prompter)

		record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
		require.NoError(t, err)
		assert.Equal(t, ResultPositive, record.Result)
		assert.Equal(t, text, record.FreeText)
	})

	t.Run("empty response is invalid", func(t *testing.T) {
		prompter := &scriptedPrompter{responses: []string{"", "", ""}}
		collector := newTestCollector(t, ModeFreeText, 2, prompter)

		record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
		require.NoError(t, err)
		assert.Equal(t, ResultUnknown, record.Result)
		assert.Empty(t, record.FreeText)
	})
}

func TestCollect_PrompterErrorConsumesAttempt(t *testing.T) {
	prompter := &scriptedPrompter{
		responses: []string{"", "y"},
		errs:      []error{errors.New("tty gone"), nil},
	}
	collector := newTestCollector(t, ModeThumbs, 2, prompter)

	record, err := collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
	require.NoError(t, err)
	assert.Equal(t, ResultPositive, record.Result)
	assert.Equal(t, 2, prompter.calls)
}

func TestCollect_UnsupportedMode(t *testing.T) {
	_, err := NewCollector(CollectorConfig{Enabled: true, Mode: "emoji"}, &scriptedPrompter{}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	// Configs built without the constructor fail immediately, no retries.
	prompter := &scriptedPrompter{}
	collector := &Collector{config: CollectorConfig{Enabled: true, Mode: "emoji"}, prompter: prompter}
	_, err = collector.Collect(context.Background(), "plan-1", "task-1", "list pods")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	assert.Zero(t, prompter.calls)
}

func TestTerminalPrompter(t *testing.T) {
	var out strings.Builder
	prompter := NewTerminalPrompter(strings.NewReader("y\n"), &out)

	response, err := prompter.Prompt(context.Background(), "Was it helpful?")
	require.NoError(t, err)
	assert.Equal(t, "y", response)
	assert.Contains(t, out.String(), "Was it helpful?")
}
