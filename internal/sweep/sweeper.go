// Package sweep finalizes attempts that were abandoned mid-session: the
// provisional row outlived its deadline because no client was alive to fire
// the auto-submit. The sweep scores whatever answers were mirrored onto the
// row, so an abandoned attempt ends up completed rather than perpetually
// in progress.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/learnlite/assessment-engine/internal/assessment"
	"github.com/learnlite/assessment-engine/internal/attempt"
	"github.com/learnlite/assessment-engine/internal/scoring"
)

type Sweeper struct {
	loader   assessment.Loader
	recorder attempt.Recorder
	interval time.Duration
	nowFn    func() time.Time
}

func NewSweeper(loader assessment.Loader, recorder attempt.Recorder, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		loader:   loader,
		recorder: recorder,
		interval: interval,
		nowFn:    time.Now,
	}
}

// Start runs the sweep loop until the context is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	slog.Info("attempt sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("attempt sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep finalizes every attempt whose deadline has passed. Each attempt is
// handled independently; one failure does not block the rest.
func (s *Sweeper) Sweep(ctx context.Context) {
	stale, err := s.recorder.ListStale(ctx, s.nowFn())
	if err != nil {
		slog.Error("list stale attempts", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	slog.Info("found stale attempts", "count", len(stale))

	for _, st := range stale {
		if err := s.finalizeStale(ctx, st); err != nil {
			slog.Error("finalize stale attempt", "error", err, "attempt", st.AttemptID)
			continue
		}
		slog.Info("stale attempt finalized", "attempt", st.AttemptID, "user", st.UserID, "assessment", st.AssessmentID)
	}
}

func (s *Sweeper) finalizeStale(ctx context.Context, st attempt.StaleAttempt) error {
	def, err := s.loader.GetAssessment(ctx, st.AssessmentID)
	if err != nil {
		return err
	}
	outcome := scoring.Score(def.Questions, st.Answers)
	deadline := st.StartedAt + int64(st.DurationMin)*60
	if err := s.recorder.Finalize(ctx, attempt.FinalizeInput{
		AttemptID:    st.AttemptID,
		Score:        outcome.Score,
		TotalMarks:   def.TotalMarks,
		Passed:       outcome.Score >= def.PassingMarks,
		TimeSpentSec: st.DurationMin * 60,
		Answers:      st.Answers,
		CompletedAt:  deadline,
	}); err != nil {
		return err
	}
	return s.recorder.UpsertResult(ctx, attempt.Summary{
		UserID:       st.UserID,
		AssessmentID: st.AssessmentID,
		Score:        outcome.Score,
		TotalMarks:   def.TotalMarks,
		Passed:       outcome.Score >= def.PassingMarks,
		TakenAt:      deadline,
	})
}
