package feedback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrUnsupportedMode indicates a feedback collection mode the collector does
// not understand. This is a configuration error and is never retried.
var ErrUnsupportedMode = errors.New("unsupported feedback collection mode")

// Prompter acquires a single operator response for a prompt.
//
// Implementations block until a response is available or ctx is cancelled.
// The collector treats a returned error as one consumed attempt.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// TerminalPrompter reads operator responses from an input stream,
// writing the question to an output stream first.
type TerminalPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminalPrompter creates a prompter over the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Prompt writes the question and reads one line of input.
func (p *TerminalPrompter) Prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintln(p.out, question); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// CollectorConfig holds feedback collection settings.
type CollectorConfig struct {
	// Enabled toggles feedback collection entirely.
	Enabled bool

	// Mode selects how feedback is acquired.
	Mode Mode

	// Question is shown to the operator with each prompt.
	Question string

	// RetryLimit is the number of re-prompts after the first invalid
	// response. Total attempts = RetryLimit + 1.
	RetryLimit int
}

// DefaultQuestion is used when no feedback question is configured.
const DefaultQuestion = "Was the action successful and helpful?"

// ApplyDefaults sets default values for unset fields.
func (c *CollectorConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeThumbs
	}
	if c.Question == "" {
		c.Question = DefaultQuestion
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
}

// Collector gathers an operator outcome signal for a completed task.
//
// The acquisition loop is a small state machine: each attempt awaits one
// response, classifies it as valid or invalid, and re-prompts on invalid
// input until the attempt budget is exhausted. Exhaustion degrades to
// ResultUnknown rather than an error.
type Collector struct {
	config   CollectorConfig
	prompter Prompter
	logger   *zap.Logger
}

// collectState is the state of the acquisition loop.
type collectState int

const (
	stateAwaitingInput collectState = iota
	stateValid
	stateExhausted
)

// NewCollector creates a feedback collector.
func NewCollector(config CollectorConfig, prompter Prompter, logger *zap.Logger) (*Collector, error) {
	config.ApplyDefaults()
	if prompter == nil {
		return nil, fmt.Errorf("prompter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := ParseMode(string(config.Mode)); err != nil {
		return nil, err
	}
	return &Collector{
		config:   config,
		prompter: prompter,
		logger:   logger,
	}, nil
}

// Collect prompts the operator for feedback on a completed task.
//
// Returns (nil, nil) when collection is disabled. Returns ErrUnsupportedMode
// for an unrecognized mode. All other paths produce a record: a valid
// response yields its classified result, exhausting all attempts yields
// ResultUnknown with no free text.
func (c *Collector) Collect(ctx context.Context, planID, taskID, taskDescription string) (*Record, error) {
	if !c.config.Enabled {
		c.logger.Debug("feedback collection disabled", zap.String("task_id", taskID))
		return nil, nil
	}

	// Guards configs built without NewCollector. Fails immediately, no retries.
	if _, err := ParseMode(string(c.config.Mode)); err != nil {
		return nil, err
	}

	record := &Record{
		PlanID:          planID,
		TaskID:          taskID,
		TaskDescription: taskDescription,
		FeedbackType:    string(c.config.Mode),
		Result:          ResultUnknown,
	}

	question := fmt.Sprintf("Feedback request for task: %s\n%s\n%s", taskDescription, c.config.Question, c.modeHint())

	state := stateAwaitingInput
	for attempt := 1; state == stateAwaitingInput; attempt++ {
		response, err := c.prompter.Prompt(ctx, question)
		if err != nil {
			// One consumed attempt; the loop keeps going.
			c.logger.Warn("feedback prompt failed",
				zap.String("task_id", taskID),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else if result, freeText, ok := c.classify(response); ok {
			record.Result = result
			record.FreeText = freeText
			state = stateValid
		} else {
			c.logger.Debug("invalid feedback response",
				zap.String("task_id", taskID),
				zap.Int("attempt", attempt))
		}

		if state == stateAwaitingInput && attempt > c.config.RetryLimit {
			state = stateExhausted
		}
	}

	if state == stateExhausted {
		c.logger.Info("feedback attempts exhausted",
			zap.String("task_id", taskID),
			zap.Int("attempts", c.config.RetryLimit+1))
	} else {
		c.logger.Info("feedback collected",
			zap.String("task_id", taskID),
			zap.String("result", string(record.Result)))
	}

	return record, nil
}

// classify maps a raw response to a feedback result for the active mode.
// ok is false for responses that do not match the mode's expected shape.
func (c *Collector) classify(response string) (result Result, freeText string, ok bool) {
	switch c.config.Mode {
	case ModeThumbs:
		switch strings.ToLower(response) {
		case "y":
			return ResultPositive, "", true
		case "n":
			return ResultNegative, "", true
		}
		return ResultUnknown, "", false

	case ModeStars:
		rating, err := strconv.Atoi(response)
		if err != nil || rating < 1 || rating > 5 {
			return ResultUnknown, "", false
		}
		switch {
		case rating >= 4:
			return ResultPositive, "", true
		case rating <= 2:
			return ResultNegative, "", true
		default:
			return ResultNeutral, "", true
		}

	case ModeFreeText:
		if response == "" {
			return ResultUnknown, "", false
		}
		if len(response) > 5 {
			return ResultPositive, response, true
		}
		return ResultNeutral, response, true
	}

	return ResultUnknown, "", false
}

// modeHint returns the input hint appended to the prompt.
func (c *Collector) modeHint() string {
	switch c.config.Mode {
	case ModeThumbs:
		return "(Enter 'y' for yes / 'n' for no)"
	case ModeStars:
		return "(Enter rating 1-5)"
	case ModeFreeText:
		return "(Write your feedback text)"
	}
	return ""
}
