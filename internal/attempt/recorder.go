// Package attempt is the persistence gateway for attempt and result records.
// An attempt row is written in two phases: a provisional in_progress row at
// begin, and a terminal completed row at finalize. Finalize is idempotent by
// attempt id, so retries after a transport failure never duplicate records.
package attempt

import (
	"context"
	"errors"
	"time"
)

// Attempt row statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ErrUnavailable wraps persistence failures the caller may retry.
var ErrUnavailable = errors.New("attempt store unavailable")

// ErrNotFound is returned for unknown attempt or result keys.
var ErrNotFound = errors.New("attempt not found")

// Record is a persisted attempt. Immutable once Status is completed.
type Record struct {
	AttemptID     string            `json:"attempt_id"`
	AssessmentID  string            `json:"assessment_id"`
	UserID        string            `json:"user_id"`
	AttemptNumber int               `json:"attempt_number"`
	Status        string            `json:"status"`
	Score         int               `json:"score"`
	TotalMarks    int               `json:"total_marks"`
	Passed        bool              `json:"passed"`
	TimeSpentSec  int               `json:"time_spent_sec"`
	Answers       map[string]string `json:"answers"`
	StartedAt     int64             `json:"started_at"`
	CompletedAt   int64             `json:"completed_at,omitempty"`
}

// Summary is the one-row-per-(user,assessment) latest result, replaced on
// every finalized attempt.
type Summary struct {
	UserID       string `json:"user_id"`
	AssessmentID string `json:"assessment_id"`
	Score        int    `json:"score"`
	TotalMarks   int    `json:"total_marks"`
	Passed       bool   `json:"passed"`
	TakenAt      int64  `json:"taken_at"`
}

// FinalizeInput carries the terminal state of one attempt.
type FinalizeInput struct {
	AttemptID    string
	Score        int
	TotalMarks   int
	Passed       bool
	TimeSpentSec int
	Answers      map[string]string
	CompletedAt  int64
}

// StaleAttempt is a provisional row whose deadline has passed, surfaced for
// the background sweep.
type StaleAttempt struct {
	AttemptID    string
	AssessmentID string
	UserID       string
	Answers      map[string]string
	StartedAt    int64
	DurationMin  int
}

// Recorder is the persistence contract consumed by the session controller
// and the sweep worker.
type Recorder interface {
	// BeginAttempt creates the provisional row and assigns the next 1-based
	// attempt number for the (user, assessment) pair.
	BeginAttempt(ctx context.Context, assessmentID, userID string) (attemptID string, number int, err error)

	// SaveProgress mirrors the running answer map onto the provisional row.
	// Best-effort; has no effect on a completed attempt.
	SaveProgress(ctx context.Context, attemptID string, answers map[string]string) error

	// Finalize writes the terminal state. Idempotent by attempt id:
	// last-write-wins on the same row, never an append.
	Finalize(ctx context.Context, in FinalizeInput) error

	// UpsertResult replaces the latest-result row for (user, assessment).
	UpsertResult(ctx context.Context, s Summary) error

	// ListAttempts returns finalized attempts, most recent first. It never
	// surfaces in-progress rows.
	ListAttempts(ctx context.Context, userID, assessmentID string) ([]Record, error)

	// GetResult returns the latest-result row, or ErrNotFound.
	GetResult(ctx context.Context, userID, assessmentID string) (Summary, error)

	// ListStale returns in-progress attempts whose start time plus duration
	// lies before now.
	ListStale(ctx context.Context, now time.Time) ([]StaleAttempt, error)
}
