package assessment

import (
	"errors"
	"fmt"
)

// Question types supported by the scoring core.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
)

type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Type          string   `json:"type"` // multiple_choice|true_false|short_answer
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"`
}

// Definition is the immutable exam blueprint owned by the catalog.
// The session engine only reads it.
type Definition struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	DurationMin  int        `json:"duration_min"`
	TotalMarks   int        `json:"total_marks"`
	PassingMarks int        `json:"passing_marks"`
	Questions    []Question `json:"questions"`
}

var (
	ErrNotFound   = errors.New("assessment not found")
	ErrInvalidDef = errors.New("invalid assessment definition")
)

// Validate enforces the definition invariants: a positive duration, a passing
// threshold within total marks, and well-formed questions.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDef)
	}
	if d.DurationMin <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidDef)
	}
	if d.PassingMarks > d.TotalMarks {
		return fmt.Errorf("%w: passing marks %d exceed total marks %d", ErrInvalidDef, d.PassingMarks, d.TotalMarks)
	}
	for i, q := range d.Questions {
		if err := q.validate(); err != nil {
			return fmt.Errorf("%w: question %d (%s): %v", ErrInvalidDef, i, q.ID, err)
		}
	}
	return nil
}

func (q Question) validate() error {
	if q.ID == "" {
		return errors.New("missing id")
	}
	if q.Points < 1 {
		return errors.New("points must be >= 1")
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) == 0 {
			return errors.New("multiple_choice requires options")
		}
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				return nil
			}
		}
		return errors.New("correct answer is not one of the options")
	case TypeTrueFalse:
		if q.CorrectAnswer != "true" && q.CorrectAnswer != "false" {
			return errors.New(`true_false answer must be "true" or "false"`)
		}
	case TypeShortAnswer:
		if q.CorrectAnswer == "" {
			return errors.New("short_answer requires a correct answer")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

// TotalPoints sums the point values of all questions.
func (d Definition) TotalPoints() int {
	sum := 0
	for _, q := range d.Questions {
		sum += q.Points
	}
	return sum
}
