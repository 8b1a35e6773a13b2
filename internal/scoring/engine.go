// Package scoring implements deterministic auto-grading for a submitted
// answer snapshot. Scoring is pure: the same questions and the same snapshot
// always produce the same outcome, which makes finalized attempts replayable
// for history audits.
package scoring

import (
	"strings"

	"github.com/learnlite/assessment-engine/internal/assessment"
)

// Verdict is the grading outcome for a single question.
type Verdict struct {
	QuestionID string `json:"question_id"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
}

// Outcome is the result of scoring one answer snapshot.
type Outcome struct {
	Score    int       `json:"score"`
	Verdicts []Verdict `json:"verdicts"`
}

// Score grades the snapshot against the question list, in question order.
// An answer matches when it equals the correct answer case-insensitively;
// no trimming is applied. Missing answers score zero. No partial credit,
// no negative marking.
func Score(questions []assessment.Question, answers map[string]string) Outcome {
	out := Outcome{Verdicts: make([]Verdict, 0, len(questions))}
	for _, q := range questions {
		v := Verdict{QuestionID: q.ID}
		if ans, ok := answers[q.ID]; ok && strings.EqualFold(ans, q.CorrectAnswer) {
			v.Correct = true
			v.Awarded = q.Points
			out.Score += q.Points
		}
		out.Verdicts = append(out.Verdicts, v)
	}
	return out
}
