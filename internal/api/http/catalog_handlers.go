package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnlite/assessment-engine/internal/assessment"
)

// POST /assessments (admin): upload or replace a definition.
func UploadAssessmentHandler(catalog *assessment.SQLCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def assessment.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := catalog.Put(r.Context(), def); err != nil {
			if errors.Is(err, assessment.ErrInvalidDef) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]string{"id": def.ID})
	}
}

// GET /assessments/{assessmentID}: learner-safe view, answer keys stripped.
func GetAssessmentHandler(catalog *assessment.SQLCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := catalog.GetAssessment(r.Context(), chi.URLParam(r, "assessmentID"))
		if err != nil {
			if errors.Is(err, assessment.ErrNotFound) {
				http.Error(w, "assessment not found", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, assessment.Sanitized(def))
	}
}
