package session

import (
	"context"
	"errors"
	"testing"

	"github.com/learnlite/assessment-engine/internal/attempt"
)

func newTestManager() (*Manager, *attempt.MemStore) {
	store := attempt.NewMemStore()
	store.PutDuration("quiz-1", 1)
	m := NewManager(&fakeLoader{def: tenQuestionDef()}, store, WithTickInterval(0))
	return m, store
}

func TestManagerSingleActiveSession(t *testing.T) {
	m, _ := newTestManager()

	c, err := m.Start(context.Background(), "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.Start(context.Background(), "quiz-1", "u1"); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}

	// a different user, or a different assessment, is unaffected
	if _, err := m.Start(context.Background(), "quiz-1", "u2"); err != nil {
		t.Fatalf("second user blocked: %v", err)
	}

	if err := c.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// terminal session frees the slot
	if _, err := m.Start(context.Background(), "quiz-1", "u1"); err != nil {
		t.Fatalf("restart after completion: %v", err)
	}
}

func TestManagerAttemptNumbersIncrease(t *testing.T) {
	m, store := newTestManager()

	for want := 1; want <= 3; want++ {
		c, err := m.Start(context.Background(), "quiz-1", "u1")
		if err != nil {
			t.Fatalf("attempt %d start: %v", want, err)
		}
		if got := c.AttemptNumber(); got != want {
			t.Fatalf("expected attempt number %d, got %d", want, got)
		}
		if err := c.Submit(context.Background(), TriggerManual); err != nil {
			t.Fatalf("attempt %d submit: %v", want, err)
		}
	}

	recs, err := store.ListAttempts(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	// most recent first, numbers strictly decreasing with no gaps
	for i, r := range recs {
		if want := 3 - i; r.AttemptNumber != want {
			t.Fatalf("record %d: expected number %d, got %d", i, want, r.AttemptNumber)
		}
	}
}

func TestManagerAbandonFreesSlot(t *testing.T) {
	m, store := newTestManager()

	if _, err := m.Start(context.Background(), "quiz-1", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Abandon("quiz-1", "u1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	recs, _ := store.ListAttempts(context.Background(), "u1", "quiz-1")
	if len(recs) != 0 {
		t.Fatalf("abandoned attempt surfaced in history: %d", len(recs))
	}

	c, err := m.Start(context.Background(), "quiz-1", "u1")
	if err != nil {
		t.Fatalf("restart after abandon: %v", err)
	}
	// the abandoned provisional row still counts toward numbering
	if got := c.AttemptNumber(); got != 2 {
		t.Fatalf("expected attempt number 2, got %d", got)
	}
}

func TestManagerAbandonKeepsSubmittingSession(t *testing.T) {
	rec := newFakeRecorder()
	rec.failFinalize = 1
	m := NewManager(&fakeLoader{def: tenQuestionDef()}, rec, WithTickInterval(0))

	c, err := m.Start(context.Background(), "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = c.RecordAnswer(context.Background(), "q1", "answer-1")
	if err := c.Submit(context.Background(), TriggerManual); !errors.Is(err, attempt.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// abandon is rejected mid-submission and must not evict the session
	if err := m.Abandon("quiz-1", "u1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	got, ok := m.Get("quiz-1", "u1")
	if !ok || got != c {
		t.Fatalf("submitting session evicted by failed abandon; retry path lost")
	}

	// the retained session can still finish via a manual retry
	if err := got.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.State() != StateCompleted {
		t.Fatalf("expected completed after retry, got %s", got.State())
	}
	fin := rec.finalizes[0]
	if fin.Score != 1 {
		t.Fatalf("retry lost the scored snapshot: %+v", fin)
	}
}

func TestManagerStartFailureReleasesSlot(t *testing.T) {
	store := attempt.NewMemStore()
	m := NewManager(&fakeLoader{def: tenQuestionDef()}, store, WithTickInterval(0))

	if _, err := m.Start(context.Background(), "missing", "u1"); !errors.Is(err, ErrAssessmentUnavailable) {
		t.Fatalf("expected ErrAssessmentUnavailable, got %v", err)
	}
	// the failed start must not occupy the slot
	if _, err := m.Start(context.Background(), "quiz-1", "u1"); err != nil {
		t.Fatalf("start after failed start: %v", err)
	}
}
