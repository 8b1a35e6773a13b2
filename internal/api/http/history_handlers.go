package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/learnlite/assessment-engine/internal/attempt"
	"github.com/learnlite/assessment-engine/internal/auth"
)

// GET /attempts?assessment_id=...
// Finalized attempts for the caller, most recent first. In-progress attempts
// never appear here.
func ListAttemptsHandler(rec attempt.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID := strings.TrimSpace(r.URL.Query().Get("assessment_id"))
		if assessmentID == "" {
			http.Error(w, "assessment_id required", 400)
			return
		}
		list, err := rec.ListAttempts(r.Context(), auth.SubjectFromContext(r.Context()), assessmentID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, list)
	}
}

// GET /results/{assessmentID}: the caller's latest result row.
func GetResultHandler(rec attempt.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := rec.GetResult(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "assessmentID"))
		if err != nil {
			if errors.Is(err, attempt.ErrNotFound) {
				http.Error(w, "no result", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, sum)
	}
}
