package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnlite/assessment-engine/internal/attempt"
	"github.com/learnlite/assessment-engine/internal/auth"
	"github.com/learnlite/assessment-engine/internal/session"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrAssessmentUnavailable):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrAlreadyInProgress), errors.Is(err, session.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrInvalidDuration):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, attempt.ErrUnavailable):
		http.Error(w, "result could not be saved yet, retry submit", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

type sessionView struct {
	AssessmentID  string `json:"assessment_id"`
	AttemptID     string `json:"attempt_id"`
	AttemptNumber int    `json:"attempt_number"`
	State         string `json:"state"`
	Remaining     int    `json:"remaining_sec"`
	CurrentIndex  int    `json:"current_index"`
	QuestionCount int    `json:"question_count"`
}

func viewOf(c *session.Controller) sessionView {
	def := c.Definition()
	return sessionView{
		AssessmentID:  def.ID,
		AttemptID:     c.AttemptID(),
		AttemptNumber: c.AttemptNumber(),
		State:         c.State().String(),
		Remaining:     c.Remaining(),
		CurrentIndex:  c.CurrentIndex(),
		QuestionCount: len(def.Questions),
	}
}

// POST /sessions  { "assessment_id": "..." }
func StartSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AssessmentID string `json:"assessment_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.AssessmentID == "" {
			http.Error(w, "assessment_id required", 400)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		c, err := mgr.Start(r.Context(), req.AssessmentID, userID)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, viewOf(c))
	}
}

// GET /sessions/{assessmentID}
func SessionStateHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := mgr.Get(chi.URLParam(r, "assessmentID"), auth.SubjectFromContext(r.Context()))
		if !ok {
			http.Error(w, "no active session", 404)
			return
		}
		writeJSON(w, viewOf(c))
	}
}

// POST /sessions/{assessmentID}/answers  { "question_id": "...", "value": "..." }
func RecordAnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := mgr.Get(chi.URLParam(r, "assessmentID"), auth.SubjectFromContext(r.Context()))
		if !ok {
			http.Error(w, "no active session", 404)
			return
		}
		var req struct {
			QuestionID string `json:"question_id"`
			Value      string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.QuestionID == "" {
			http.Error(w, "question_id required", 400)
			return
		}
		if err := c.RecordAnswer(r.Context(), req.QuestionID, req.Value); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, viewOf(c))
	}
}

// POST /sessions/{assessmentID}/navigate  { "step": 1 }
func NavigateHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := mgr.Get(chi.URLParam(r, "assessmentID"), auth.SubjectFromContext(r.Context()))
		if !ok {
			http.Error(w, "no active session", 404)
			return
		}
		var req struct {
			Step int `json:"step"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if _, err := c.Navigate(req.Step); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, viewOf(c))
	}
}

// POST /sessions/{assessmentID}/submit
func SubmitSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID := chi.URLParam(r, "assessmentID")
		userID := auth.SubjectFromContext(r.Context())
		c, ok := mgr.Get(assessmentID, userID)
		if !ok {
			http.Error(w, "no active session", 404)
			return
		}
		if err := c.Submit(r.Context(), session.TriggerManual); err != nil {
			if errors.Is(err, session.ErrSubmitPending) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusAccepted)
				_ = json.NewEncoder(w).Encode(viewOf(c))
				return
			}
			writeSessionError(w, err)
			return
		}
		mgr.Release(assessmentID, userID)
		resp := map[string]any{"session": viewOf(c)}
		if outcome, ok := c.Result(); ok {
			def := c.Definition()
			resp["score"] = outcome.Score
			resp["total_marks"] = def.TotalMarks
			resp["passed"] = outcome.Score >= def.PassingMarks
			resp["verdicts"] = outcome.Verdicts
		}
		writeJSON(w, resp)
	}
}

// POST /sessions/{assessmentID}/abandon
func AbandonSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.Abandon(chi.URLParam(r, "assessmentID"), auth.SubjectFromContext(r.Context())); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
