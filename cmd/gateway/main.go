package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/learnlite/assessment-engine/internal/api/http"
	"github.com/learnlite/assessment-engine/internal/assessment"
	"github.com/learnlite/assessment-engine/internal/attempt"
	"github.com/learnlite/assessment-engine/internal/auth"
	"github.com/learnlite/assessment-engine/internal/config"
	"github.com/learnlite/assessment-engine/internal/db"
	"github.com/learnlite/assessment-engine/internal/session"
	"github.com/learnlite/assessment-engine/internal/sweep"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		slog.Error("db open failed", "error", err)
		os.Exit(1)
	}

	catalog := assessment.NewSQLCatalog(dbh)

	// Recorder stack: SQL core, event-log decoration, bounded retries for
	// the idempotent finalization writes.
	var recorder attempt.Recorder = attempt.NewSQLStore(dbh)
	recorder = attempt.NewEventStore(recorder, attempt.NewEventLog(dbh))
	recorder = attempt.NewRetryStore(recorder, cfg.RetryAttempts, cfg.RetryBackoff)

	sessions := session.NewManager(catalog, recorder)

	if cfg.SweepEnabled {
		sweep.NewSweeper(catalog, recorder, cfg.SweepInterval).Start(context.Background())
	}

	authSvc := auth.NewService(cfg.AuthSecret, dbh, cfg.AdminUser, cfg.AdminPassHash)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(auth.RequireRole("admin")).
			Post("/assessments", api.UploadAssessmentHandler(catalog))
		pr.Get("/assessments/{assessmentID}", api.GetAssessmentHandler(catalog))

		// timed session flow
		pr.Post("/sessions", api.StartSessionHandler(sessions))
		pr.Get("/sessions/{assessmentID}", api.SessionStateHandler(sessions))
		pr.Post("/sessions/{assessmentID}/answers", api.RecordAnswerHandler(sessions))
		pr.Post("/sessions/{assessmentID}/navigate", api.NavigateHandler(sessions))
		pr.Post("/sessions/{assessmentID}/submit", api.SubmitSessionHandler(sessions))
		pr.Post("/sessions/{assessmentID}/abandon", api.AbandonSessionHandler(sessions))

		// history and latest-result queries
		pr.Get("/attempts", api.ListAttemptsHandler(recorder))
		pr.Get("/results/{assessmentID}", api.GetResultHandler(recorder))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	slog.Info("listening", "addr", cfg.HTTPAddr, "db", cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
