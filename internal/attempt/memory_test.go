package attempt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemStoreAttemptNumbering(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		_, n, err := s.BeginAttempt(ctx, "a1", "u1")
		if err != nil {
			t.Fatalf("begin %d: %v", want, err)
		}
		if n != want {
			t.Fatalf("expected number %d, got %d", want, n)
		}
	}

	// numbering is scoped per (user, assessment)
	if _, n, _ := s.BeginAttempt(ctx, "a1", "u2"); n != 1 {
		t.Fatalf("expected 1 for other user, got %d", n)
	}
	if _, n, _ := s.BeginAttempt(ctx, "a2", "u1"); n != 1 {
		t.Fatalf("expected 1 for other assessment, got %d", n)
	}
}

func TestMemStoreFinalizeIdempotent(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	id, _, err := s.BeginAttempt(ctx, "a1", "u1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	in := FinalizeInput{
		AttemptID: id, Score: 7, TotalMarks: 10, Passed: true,
		TimeSpentSec: 20, Answers: map[string]string{"q1": "x"}, CompletedAt: 100,
	}
	if err := s.Finalize(ctx, in); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := s.Finalize(ctx, in); err != nil {
		t.Fatalf("repeat finalize: %v", err)
	}

	recs, err := s.ListAttempts(ctx, "u1", "a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("duplicate finalize appended a record: %d", len(recs))
	}
	r := recs[0]
	if r.Score != 7 || !r.Passed || r.TimeSpentSec != 20 || r.Status != StatusCompleted {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.Answers["q1"] != "x" {
		t.Fatalf("answer snapshot lost")
	}
}

func TestMemStoreFinalizeUnknownAttempt(t *testing.T) {
	s := NewMemStore()
	err := s.Finalize(context.Background(), FinalizeInput{AttemptID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreListExcludesInProgress(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	first, _, _ := s.BeginAttempt(ctx, "a1", "u1")
	_ = s.Finalize(ctx, FinalizeInput{AttemptID: first, Score: 3, TotalMarks: 10, CompletedAt: 50})
	_, _, _ = s.BeginAttempt(ctx, "a1", "u1") // still running

	recs, _ := s.ListAttempts(ctx, "u1", "a1")
	if len(recs) != 1 {
		t.Fatalf("in-progress attempt leaked into history: %d records", len(recs))
	}
}

func TestMemStoreListOrdersMostRecentFirst(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, _, _ := s.BeginAttempt(ctx, "a1", "u1")
		_ = s.Finalize(ctx, FinalizeInput{AttemptID: id, Score: i, TotalMarks: 10, CompletedAt: int64(i * 100)})
	}
	recs, _ := s.ListAttempts(ctx, "u1", "a1")
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i := 0; i < len(recs)-1; i++ {
		if recs[i].CompletedAt < recs[i+1].CompletedAt {
			t.Fatalf("history not most-recent-first: %d before %d", recs[i].CompletedAt, recs[i+1].CompletedAt)
		}
	}
}

func TestMemStoreUpsertResultReplaces(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_ = s.UpsertResult(ctx, Summary{UserID: "u1", AssessmentID: "a1", Score: 4, TotalMarks: 10, TakenAt: 1})
	_ = s.UpsertResult(ctx, Summary{UserID: "u1", AssessmentID: "a1", Score: 8, TotalMarks: 10, Passed: true, TakenAt: 2})

	got, err := s.GetResult(ctx, "u1", "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 8 || !got.Passed || got.TakenAt != 2 {
		t.Fatalf("upsert did not replace: %+v", got)
	}

	if _, err := s.GetResult(ctx, "u9", "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreListStale(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	base := time.Unix(1000, 0)
	s.nowFn = func() time.Time { return base }
	s.PutDuration("a1", 1) // 60 seconds

	id, _, _ := s.BeginAttempt(ctx, "a1", "u1")
	_ = s.SaveProgress(ctx, id, map[string]string{"q1": "x"})

	if stale, _ := s.ListStale(ctx, base.Add(30*time.Second)); len(stale) != 0 {
		t.Fatalf("attempt stale before its deadline")
	}
	stale, err := s.ListStale(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 1 || stale[0].AttemptID != id {
		t.Fatalf("expected the overdue attempt, got %+v", stale)
	}
	if stale[0].Answers["q1"] != "x" {
		t.Fatalf("mirrored answers missing from stale attempt")
	}

	// finalized attempts are never stale
	_ = s.Finalize(ctx, FinalizeInput{AttemptID: id, CompletedAt: base.Unix()})
	if stale, _ := s.ListStale(ctx, base.Add(2*time.Minute)); len(stale) != 0 {
		t.Fatalf("completed attempt listed as stale")
	}
}

func TestMemStoreSaveProgressIgnoredAfterFinalize(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	id, _, _ := s.BeginAttempt(ctx, "a1", "u1")
	_ = s.Finalize(ctx, FinalizeInput{AttemptID: id, Answers: map[string]string{"q1": "final"}, CompletedAt: 9})
	_ = s.SaveProgress(ctx, id, map[string]string{"q1": "late"})

	r, err := s.GetAttempt(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Answers["q1"] != "final" {
		t.Fatalf("finalized record mutated: %+v", r.Answers)
	}
}
