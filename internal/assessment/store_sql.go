package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLCatalog stores assessment definitions with questions as a JSON blob,
// keyed by assessment id. It implements Loader.
type SQLCatalog struct {
	db *sql.DB
}

func NewSQLCatalog(db *sql.DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

func (s *SQLCatalog) Put(ctx context.Context, d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	qj, err := json.Marshal(d.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO assessments (id,title,description,duration_min,total_marks,passing_marks,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			duration_min=EXCLUDED.duration_min, total_marks=EXCLUDED.total_marks,
			passing_marks=EXCLUDED.passing_marks, questions_json=EXCLUDED.questions_json`,
		d.ID, d.Title, d.Description, d.DurationMin, d.TotalMarks, d.PassingMarks, string(qj), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put assessment: %w", err)
	}
	return nil
}

func (s *SQLCatalog) GetAssessment(ctx context.Context, id string) (Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,description,duration_min,total_marks,passing_marks,questions_json
		FROM assessments WHERE id=$1`, id)
	var d Definition
	var qjson string
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.DurationMin, &d.TotalMarks, &d.PassingMarks, &qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Definition{}, ErrNotFound
		}
		return Definition{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &d.Questions); err != nil {
		return Definition{}, err
	}
	return d, nil
}

func (s *SQLCatalog) GetQuestions(ctx context.Context, assessmentID string) ([]Question, error) {
	d, err := s.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	return d.Questions, nil
}

// Sanitized returns a copy of the definition safe to serve to learners:
// correct answers and explanations stripped.
func Sanitized(d Definition) Definition {
	qs := make([]Question, len(d.Questions))
	copy(qs, d.Questions)
	for i := range qs {
		qs[i].CorrectAnswer = ""
		qs[i].Explanation = ""
	}
	d.Questions = qs
	return d
}
