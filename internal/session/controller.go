// Package session implements the state machine for one timed assessment
// attempt: countdown clock, answer capture, single-shot submission (manual
// or timer-driven) and handoff to scoring and persistence.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/learnlite/assessment-engine/internal/assessment"
	"github.com/learnlite/assessment-engine/internal/attempt"
	"github.com/learnlite/assessment-engine/internal/scoring"
)

// State of one attempt. Transitions only move forward.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateSubmitting
	StateCompleted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Trigger identifies which path invoked Submit.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerTimer  Trigger = "timer"
)

// scored is the snapshot retained between a failed finalize and its retry,
// so retrying never re-scores or double-counts.
type scored struct {
	snapshot    map[string]string
	outcome     scoring.Outcome
	passed      bool
	timeSpent   int
	completedAt int64
}

// Controller drives a single attempt through
// NotStarted → InProgress → Submitting → Completed.
type Controller struct {
	loader   assessment.Loader
	recorder attempt.Recorder

	assessmentID string
	userID       string

	nowFn        func() time.Time
	tickInterval time.Duration

	mu            sync.Mutex
	state         State
	def           assessment.Definition
	attemptID     string
	attemptNumber int
	startedAt     time.Time
	current       int
	answers       *AnswerStore
	clock         *Clock
	pending       *scored
	inflight      bool
	lastOutcome   *scoring.Outcome
}

// Option configures a Controller.
type Option func(*Controller)

// WithNow injects the time source.
func WithNow(fn func() time.Time) Option {
	return func(c *Controller) { c.nowFn = fn }
}

// WithTickInterval overrides the one-second tick cadence. Zero disables the
// internal ticker so ticks can be driven manually.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.tickInterval = d }
}

func NewController(assessmentID, userID string, loader assessment.Loader, recorder attempt.Recorder, opts ...Option) *Controller {
	c := &Controller{
		loader:       loader,
		recorder:     recorder,
		assessmentID: assessmentID,
		userID:       userID,
		nowFn:        time.Now,
		tickInterval: time.Second,
		state:        StateNotStarted,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start loads and validates the definition, opens the provisional attempt
// row and arms the clock with duration×60 seconds.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateNotStarted {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.mu.Unlock()

	def, err := c.loader.GetAssessment(ctx, c.assessmentID)
	if err != nil {
		if errors.Is(err, assessment.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAssessmentUnavailable, c.assessmentID)
		}
		return err
	}
	questions, err := c.loader.GetQuestions(ctx, c.assessmentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssessmentUnavailable, err)
	}
	def.Questions = questions
	if def.DurationMin <= 0 {
		return ErrInvalidDuration
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrAssessmentUnavailable, err)
	}

	attemptID, number, err := c.recorder.BeginAttempt(ctx, c.assessmentID, c.userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.def = def
	c.attemptID = attemptID
	c.attemptNumber = number
	c.startedAt = c.nowFn()
	c.current = 0
	c.answers = NewAnswerStore()
	c.clock = NewClock(c.tickInterval)
	c.state = StateInProgress
	clock := c.clock
	c.mu.Unlock()

	return clock.Arm(def.DurationMin*60, func() {
		// Timer expiry is the auto-submit path; a lost race with a manual
		// submit is dropped inside Submit, never surfaced.
		_ = c.Submit(context.Background(), TriggerTimer)
	})
}

// RecordAnswer stores the answer and mirrors the running map onto the
// provisional row. Only allowed while in progress.
func (c *Controller) RecordAnswer(ctx context.Context, questionID, value string) error {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.answers.Set(questionID, value)
	snap := c.answers.Snapshot()
	attemptID := c.attemptID
	c.mu.Unlock()

	// Best-effort mirror so a server-side sweep can score an abandoned
	// attempt; the in-memory store stays authoritative.
	_ = c.recorder.SaveProgress(ctx, attemptID, snap)
	return nil
}

// Navigate moves the current question index by step, clamped to the
// question range. Purely local.
func (c *Controller) Navigate(step int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return c.current, ErrInvalidState
	}
	c.current += step
	if c.current < 0 {
		c.current = 0
	}
	if max := len(c.def.Questions) - 1; c.current > max {
		c.current = max
	}
	return c.current, nil
}

// Submit is the single path to Completed and executes at most once per
// session: the guard transitions to Submitting synchronously before any
// persistence I/O, so a timer expiry racing a manual finish yields exactly
// one submission and the loser is dropped. After a persistence failure the
// session stays in Submitting with its scored snapshot retained; a manual
// retry re-runs persistence only.
func (c *Controller) Submit(ctx context.Context, trigger Trigger) error {
	c.mu.Lock()
	switch c.state {
	case StateNotStarted:
		c.mu.Unlock()
		return ErrInvalidState
	case StateCompleted:
		c.mu.Unlock()
		return nil // lost race, dropped
	case StateAbandoned:
		c.mu.Unlock()
		if trigger == TriggerTimer {
			return nil
		}
		return ErrInvalidState
	case StateSubmitting:
		if trigger == TriggerTimer {
			c.mu.Unlock()
			return nil // lost race, dropped
		}
		if c.inflight || c.pending == nil {
			c.mu.Unlock()
			return ErrSubmitPending
		}
		// manual retry after a persistence failure: fall through
	case StateInProgress:
		c.state = StateSubmitting
		c.clock.Disarm()
		snap := c.answers.Snapshot()
		remaining := c.clock.Remaining()
		total := c.def.DurationMin * 60
		outcome := scoring.Score(c.def.Questions, snap)
		c.pending = &scored{
			snapshot:    snap,
			outcome:     outcome,
			passed:      outcome.Score >= c.def.PassingMarks,
			timeSpent:   total - remaining,
			completedAt: c.nowFn().Unix(),
		}
	}
	p := c.pending
	c.inflight = true
	fin := attempt.FinalizeInput{
		AttemptID:    c.attemptID,
		Score:        p.outcome.Score,
		TotalMarks:   c.def.TotalMarks,
		Passed:       p.passed,
		TimeSpentSec: p.timeSpent,
		Answers:      p.snapshot,
		CompletedAt:  p.completedAt,
	}
	sum := attempt.Summary{
		UserID:       c.userID,
		AssessmentID: c.assessmentID,
		Score:        p.outcome.Score,
		TotalMarks:   c.def.TotalMarks,
		Passed:       p.passed,
		TakenAt:      p.completedAt,
	}
	c.mu.Unlock()

	if err := c.recorder.Finalize(ctx, fin); err != nil {
		c.setRetryable()
		return err
	}
	if err := c.recorder.UpsertResult(ctx, sum); err != nil {
		c.setRetryable()
		return err
	}

	c.mu.Lock()
	c.state = StateCompleted
	c.lastOutcome = &p.outcome
	c.pending = nil
	c.inflight = false
	c.mu.Unlock()
	return nil
}

func (c *Controller) setRetryable() {
	c.mu.Lock()
	c.inflight = false
	c.mu.Unlock()
}

// Abandon disarms the clock and discards the session without finalizing.
// No completed record is written; the provisional row is left for the sweep.
func (c *Controller) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return ErrInvalidState
	}
	c.clock.Disarm()
	c.state = StateAbandoned
	c.answers = nil
	c.pending = nil
	return nil
}

// Result returns the scored outcome once the session has completed.
func (c *Controller) Result() (scoring.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastOutcome == nil {
		return scoring.Outcome{}, false
	}
	return *c.lastOutcome, true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining reports the countdown in seconds, for UI display.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock == nil {
		return 0
	}
	return c.clock.Remaining()
}

func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) AttemptID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptID
}

func (c *Controller) AttemptNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptNumber
}

// Definition returns the loaded definition; zero value before Start.
func (c *Controller) Definition() assessment.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.def
}
