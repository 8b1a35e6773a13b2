package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore persists attempts and results through database/sql. Portable SQL
// only; works against both the sqlite and postgres drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) BeginAttempt(ctx context.Context, assessmentID, userID string) (string, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var prior int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE assessment_id=$1 AND user_id=$2`,
		assessmentID, userID).Scan(&prior); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	id := uuid.NewString()
	number := prior + 1
	answersJSON, _ := json.Marshal(map[string]string{})
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (id,assessment_id,user_id,attempt_number,status,score,total_marks,passed,time_spent_sec,answers_json,started_at)
		 VALUES ($1,$2,$3,$4,$5,0,0,FALSE,0,$6,$7)`,
		id, assessmentID, userID, number, StatusInProgress, string(answersJSON), time.Now().Unix()); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return id, number, nil
}

func (s *SQLStore) SaveProgress(ctx context.Context, attemptID string, answers map[string]string) error {
	buf, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET answers_json=$1 WHERE id=$2 AND status=$3`,
		string(buf), attemptID, StatusInProgress); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Finalize is a plain UPDATE keyed by attempt id, so a retried call rewrites
// the same terminal row instead of appending a duplicate.
func (s *SQLStore) Finalize(ctx context.Context, in FinalizeInput) error {
	buf, err := json.Marshal(in.Answers)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status=$1, score=$2, total_marks=$3, passed=$4, time_spent_sec=$5, answers_json=$6, completed_at=$7
		 WHERE id=$8`,
		StatusCompleted, in.Score, in.TotalMarks, in.Passed, in.TimeSpentSec, string(buf), in.CompletedAt, in.AttemptID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) UpsertResult(ctx context.Context, sum Summary) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO results (user_id,assessment_id,score,total_marks,passed,taken_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (user_id,assessment_id) DO UPDATE SET score=EXCLUDED.score,
			total_marks=EXCLUDED.total_marks, passed=EXCLUDED.passed, taken_at=EXCLUDED.taken_at`,
		sum.UserID, sum.AssessmentID, sum.Score, sum.TotalMarks, sum.Passed, sum.TakenAt); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID, assessmentID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,assessment_id,user_id,attempt_number,status,score,total_marks,passed,time_spent_sec,answers_json,started_at,completed_at
		 FROM attempts
		 WHERE user_id=$1 AND assessment_id=$2 AND status=$3
		 ORDER BY completed_at DESC, attempt_number DESC`,
		userID, assessmentID, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetResult(ctx context.Context, userID, assessmentID string) (Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id,assessment_id,score,total_marks,passed,taken_at FROM results
		 WHERE user_id=$1 AND assessment_id=$2`, userID, assessmentID)
	var sum Summary
	if err := row.Scan(&sum.UserID, &sum.AssessmentID, &sum.Score, &sum.TotalMarks, &sum.Passed, &sum.TakenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, ErrNotFound
		}
		return Summary{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return sum, nil
}

func (s *SQLStore) ListStale(ctx context.Context, now time.Time) ([]StaleAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.assessment_id, a.user_id, a.answers_json, a.started_at, d.duration_min
		 FROM attempts a JOIN assessments d ON d.id = a.assessment_id
		 WHERE a.status=$1 AND a.started_at + d.duration_min*60 < $2`,
		StatusInProgress, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]StaleAttempt, 0)
	for rows.Next() {
		var st StaleAttempt
		var ajson string
		if err := rows.Scan(&st.AttemptID, &st.AssessmentID, &st.UserID, &ajson, &st.StartedAt, &st.DurationMin); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ajson), &st.Answers); err != nil {
			st.Answers = map[string]string{}
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetAttempt fetches one record regardless of status.
func (s *SQLStore) GetAttempt(ctx context.Context, attemptID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,assessment_id,user_id,attempt_number,status,score,total_marks,passed,time_spent_sec,answers_json,started_at,completed_at
		 FROM attempts WHERE id=$1`, attemptID)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var r Record
	var ajson string
	var completed sql.NullInt64
	if err := sc.Scan(&r.AttemptID, &r.AssessmentID, &r.UserID, &r.AttemptNumber, &r.Status,
		&r.Score, &r.TotalMarks, &r.Passed, &r.TimeSpentSec, &ajson, &r.StartedAt, &completed); err != nil {
		return Record{}, err
	}
	if completed.Valid {
		r.CompletedAt = completed.Int64
	}
	if err := json.Unmarshal([]byte(ajson), &r.Answers); err != nil {
		r.Answers = map[string]string{}
	}
	return r, nil
}
