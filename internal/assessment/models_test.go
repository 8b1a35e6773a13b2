package assessment

import (
	"errors"
	"testing"
)

func validDef() Definition {
	return Definition{
		ID:           "a1",
		Title:        "Basics",
		DurationMin:  10,
		TotalMarks:   5,
		PassingMarks: 3,
		Questions: []Question{
			{ID: "q1", Type: TypeMultipleChoice, Options: []string{"red", "blue"}, CorrectAnswer: "blue", Points: 2},
			{ID: "q2", Type: TypeTrueFalse, CorrectAnswer: "false", Points: 1},
			{ID: "q3", Type: TypeShortAnswer, CorrectAnswer: "osmosis", Points: 2},
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validDef().Validate(); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"missing id", func(d *Definition) { d.ID = "" }},
		{"zero duration", func(d *Definition) { d.DurationMin = 0 }},
		{"negative duration", func(d *Definition) { d.DurationMin = -1 }},
		{"passing above total", func(d *Definition) { d.PassingMarks = 6 }},
		{"question without id", func(d *Definition) { d.Questions[0].ID = "" }},
		{"zero points", func(d *Definition) { d.Questions[1].Points = 0 }},
		{"mcq answer not an option", func(d *Definition) { d.Questions[0].CorrectAnswer = "green" }},
		{"mcq without options", func(d *Definition) { d.Questions[0].Options = nil }},
		{"true_false odd answer", func(d *Definition) { d.Questions[1].CorrectAnswer = "yes" }},
		{"short_answer without key", func(d *Definition) { d.Questions[2].CorrectAnswer = "" }},
		{"unknown type", func(d *Definition) { d.Questions[2].Type = "essay" }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			d := validDef()
			tc.mutate(&d)
			if err := d.Validate(); !errors.Is(err, ErrInvalidDef) {
				t.Fatalf("expected ErrInvalidDef, got %v", err)
			}
		})
	}
}

func TestTotalPoints(t *testing.T) {
	if got := validDef().TotalPoints(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestSanitizedStripsKeys(t *testing.T) {
	d := validDef()
	clean := Sanitized(d)
	for i, q := range clean.Questions {
		if q.CorrectAnswer != "" || q.Explanation != "" {
			t.Fatalf("question %d leaked the answer key", i)
		}
	}
	// the original is untouched
	if d.Questions[0].CorrectAnswer != "blue" {
		t.Fatalf("sanitize mutated the source definition")
	}
}
