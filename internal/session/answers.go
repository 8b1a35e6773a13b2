package session

import "sync"

// AnswerStore holds the learner's current answer per question for one
// session. Values are opaque strings; validation of option membership
// belongs to the input layer, not here.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[string]string
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: map[string]string{}}
}

// Set overwrites any prior answer for the question.
func (s *AnswerStore) Set(questionID, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = value
}

// Snapshot returns a copy of the full map. Later mutation of the store
// cannot change an already-taken snapshot.
func (s *AnswerStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Len reports how many questions currently have an answer.
func (s *AnswerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}
