package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

// Event types appended to the event log.
const (
	EventAttemptStarted   = "AttemptStarted"
	EventAttemptCompleted = "AttemptCompleted"
)

// Appender sinks lifecycle events.
type Appender interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// EventLog appends attempt lifecycle events to the event_log table.
type EventLog struct{ db *sql.DB }

func NewEventLog(db *sql.DB) *EventLog { return &EventLog{db: db} }

func (l *EventLog) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// EventStore decorates a Recorder with event-log appends around the attempt
// lifecycle. Log failures never fail the underlying write. A completed event
// is appended once per attempt: a retried Finalize (idempotent at the row
// level) does not log the same transition again.
type EventStore struct {
	Recorder
	log Appender

	mu        sync.Mutex
	completed map[string]struct{}
}

func NewEventStore(inner Recorder, log Appender) *EventStore {
	return &EventStore{Recorder: inner, log: log, completed: map[string]struct{}{}}
}

func (e *EventStore) BeginAttempt(ctx context.Context, assessmentID, userID string) (string, int, error) {
	id, number, err := e.Recorder.BeginAttempt(ctx, assessmentID, userID)
	if err == nil {
		_ = e.log.Append(ctx, EventAttemptStarted, id, map[string]any{
			"assessment_id":  assessmentID,
			"user_id":        userID,
			"attempt_number": number,
		})
	}
	return id, number, err
}

func (e *EventStore) Finalize(ctx context.Context, in FinalizeInput) error {
	if err := e.Recorder.Finalize(ctx, in); err != nil {
		return err
	}
	e.mu.Lock()
	_, seen := e.completed[in.AttemptID]
	e.completed[in.AttemptID] = struct{}{}
	e.mu.Unlock()
	if seen {
		return nil
	}
	_ = e.log.Append(ctx, EventAttemptCompleted, in.AttemptID, map[string]any{
		"score":          in.Score,
		"passed":         in.Passed,
		"time_spent_sec": in.TimeSpentSec,
	})
	return nil
}
