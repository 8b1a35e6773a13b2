package assessment

import "context"

// Loader is the definition-fetch contract the session engine consumes.
// The catalog backend owns the data; the engine queries it once at start.
type Loader interface {
	GetAssessment(ctx context.Context, id string) (Definition, error)
	GetQuestions(ctx context.Context, assessmentID string) ([]Question, error)
}
