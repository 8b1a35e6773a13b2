package scoring

import (
	"testing"

	"github.com/learnlite/assessment-engine/internal/assessment"
)

func questionSet() []assessment.Question {
	return []assessment.Question{
		{ID: "q1", Type: assessment.TypeMultipleChoice, Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris", Points: 2},
		{ID: "q2", Type: assessment.TypeTrueFalse, CorrectAnswer: "true", Points: 1},
		{ID: "q3", Type: assessment.TypeShortAnswer, CorrectAnswer: "Goroutine", Points: 3},
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
		score   int
		correct map[string]bool
	}{
		{
			name:    "all correct",
			answers: map[string]string{"q1": "Paris", "q2": "true", "q3": "Goroutine"},
			score:   6,
			correct: map[string]bool{"q1": true, "q2": true, "q3": true},
		},
		{
			name:    "case-insensitive match",
			answers: map[string]string{"q1": "PARIS", "q2": "True", "q3": "goroutine"},
			score:   6,
			correct: map[string]bool{"q1": true, "q2": true, "q3": true},
		},
		{
			name:    "whitespace is not trimmed",
			answers: map[string]string{"q3": " Goroutine"},
			score:   0,
			correct: map[string]bool{"q1": false, "q2": false, "q3": false},
		},
		{
			name:    "missing answers score zero",
			answers: map[string]string{"q2": "true"},
			score:   1,
			correct: map[string]bool{"q1": false, "q2": true, "q3": false},
		},
		{
			name:    "wrong answers no negative marking",
			answers: map[string]string{"q1": "Rome", "q2": "false", "q3": "thread"},
			score:   0,
			correct: map[string]bool{"q1": false, "q2": false, "q3": false},
		},
		{
			name:    "empty snapshot",
			answers: map[string]string{},
			score:   0,
			correct: map[string]bool{"q1": false, "q2": false, "q3": false},
		},
		{
			name:    "unknown question ids are ignored",
			answers: map[string]string{"q9": "Paris", "q2": "true"},
			score:   1,
			correct: map[string]bool{"q1": false, "q2": true, "q3": false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(questionSet(), tc.answers)
			if got.Score != tc.score {
				t.Fatalf("expected score %d, got %d", tc.score, got.Score)
			}
			if len(got.Verdicts) != 3 {
				t.Fatalf("expected 3 verdicts, got %d", len(got.Verdicts))
			}
			for _, v := range got.Verdicts {
				if v.Correct != tc.correct[v.QuestionID] {
					t.Fatalf("question %s: expected correct=%v, got %v", v.QuestionID, tc.correct[v.QuestionID], v.Correct)
				}
				if v.Correct && v.Awarded == 0 {
					t.Fatalf("question %s: correct but awarded 0", v.QuestionID)
				}
				if !v.Correct && v.Awarded != 0 {
					t.Fatalf("question %s: incorrect but awarded %d", v.QuestionID, v.Awarded)
				}
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	qs := questionSet()
	answers := map[string]string{"q1": "Paris", "q3": "GOROUTINE"}
	first := Score(qs, answers)
	for i := 0; i < 50; i++ {
		again := Score(qs, answers)
		if again.Score != first.Score {
			t.Fatalf("run %d: score %d differs from %d", i, again.Score, first.Score)
		}
		for j := range again.Verdicts {
			if again.Verdicts[j] != first.Verdicts[j] {
				t.Fatalf("run %d: verdict %d differs", i, j)
			}
		}
	}
}

func TestScoreVerdictOrderFollowsQuestions(t *testing.T) {
	got := Score(questionSet(), nil)
	want := []string{"q1", "q2", "q3"}
	for i, v := range got.Verdicts {
		if v.QuestionID != want[i] {
			t.Fatalf("verdict %d: expected %s, got %s", i, want[i], v.QuestionID)
		}
	}
}
