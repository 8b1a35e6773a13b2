package attempt

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is a mutex-guarded in-memory Recorder with the same numbering and
// idempotency semantics as the SQL store. Used in tests and offline mode.
type MemStore struct {
	mu        sync.RWMutex
	records   map[string]Record  // attemptID -> record
	results   map[string]Summary // userID|assessmentID -> summary
	durations map[string]int     // assessmentID -> minutes, for ListStale
	nowFn     func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		records:   map[string]Record{},
		results:   map[string]Summary{},
		durations: map[string]int{},
		nowFn:     time.Now,
	}
}

// PutDuration registers an assessment duration so ListStale can compute
// deadlines without a catalog lookup.
func (m *MemStore) PutDuration(assessmentID string, minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[assessmentID] = minutes
}

func (m *MemStore) BeginAttempt(_ context.Context, assessmentID, userID string) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	number := 1
	for _, r := range m.records {
		if r.AssessmentID == assessmentID && r.UserID == userID {
			number++
		}
	}
	id := uuid.NewString()
	m.records[id] = Record{
		AttemptID:     id,
		AssessmentID:  assessmentID,
		UserID:        userID,
		AttemptNumber: number,
		Status:        StatusInProgress,
		Answers:       map[string]string{},
		StartedAt:     m.nowFn().Unix(),
	}
	return id, number, nil
}

func (m *MemStore) SaveProgress(_ context.Context, attemptID string, answers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[attemptID]
	if !ok {
		return ErrNotFound
	}
	if r.Status != StatusInProgress {
		return nil
	}
	r.Answers = copyAnswers(answers)
	m.records[attemptID] = r
	return nil
}

func (m *MemStore) Finalize(_ context.Context, in FinalizeInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[in.AttemptID]
	if !ok {
		return ErrNotFound
	}
	r.Status = StatusCompleted
	r.Score = in.Score
	r.TotalMarks = in.TotalMarks
	r.Passed = in.Passed
	r.TimeSpentSec = in.TimeSpentSec
	r.Answers = copyAnswers(in.Answers)
	r.CompletedAt = in.CompletedAt
	m.records[in.AttemptID] = r
	return nil
}

func (m *MemStore) UpsertResult(_ context.Context, s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[s.UserID+"|"+s.AssessmentID] = s
	return nil
}

func (m *MemStore) ListAttempts(_ context.Context, userID, assessmentID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range m.records {
		if r.UserID == userID && r.AssessmentID == assessmentID && r.Status == StatusCompleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt != out[j].CompletedAt {
			return out[i].CompletedAt > out[j].CompletedAt
		}
		return out[i].AttemptNumber > out[j].AttemptNumber
	})
	return out, nil
}

func (m *MemStore) GetResult(_ context.Context, userID, assessmentID string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.results[userID+"|"+assessmentID]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return s, nil
}

func (m *MemStore) ListStale(_ context.Context, now time.Time) ([]StaleAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]StaleAttempt, 0)
	for _, r := range m.records {
		if r.Status != StatusInProgress {
			continue
		}
		mins, ok := m.durations[r.AssessmentID]
		if !ok {
			continue
		}
		if r.StartedAt+int64(mins)*60 < now.Unix() {
			out = append(out, StaleAttempt{
				AttemptID:    r.AttemptID,
				AssessmentID: r.AssessmentID,
				UserID:       r.UserID,
				Answers:      copyAnswers(r.Answers),
				StartedAt:    r.StartedAt,
				DurationMin:  mins,
			})
		}
	}
	return out, nil
}

// GetAttempt fetches one record regardless of status.
func (m *MemStore) GetAttempt(_ context.Context, attemptID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[attemptID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
