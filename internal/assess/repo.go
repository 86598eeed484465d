package assess

import "context"

type TestListOpts struct {
	Q          string
	Limit      int
	Offset     int
	ViewerID   string
	ViewerRole string // "student" | "teacher" | "admin"
}

type AttemptListOpts struct {
	TestID    string
	StudentID string
	Status    string // optional: in_progress|completed|timed_out|abandoned
	Limit     int
	Offset    int
	Sort      string // started_at|ended_at desc (default: started_at desc)
}

// StartResult is what a learner needs to begin (or resume) taking a test.
type StartResult struct {
	Test         Test              `json:"test"` // student view, no answer keys
	Attempt      Attempt           `json:"attempt"`
	SavedAnswers map[string]Answer `json:"saved_answers"`
	// RemainingSec is nil for free-mode tests; for timed tests it is the
	// limit minus time already spent on a resumed attempt, floored at 0.
	RemainingSec *int64 `json:"remaining_seconds"`
	Resumed      bool   `json:"resumed"`
}

// Store is the persistence boundary for the question bank and attempt state.
// Scoring and the in_progress -> terminal transition semantics live in the
// grading engine; FinalizeAttempt only applies an already-scored result.
type Store interface {
	PutTest(ctx context.Context, t Test) error
	// GetTest is student-safe: answer keys stripped, unpublished hidden.
	GetTest(ctx context.Context, id string) (Test, error)
	// GetTestAdmin returns the full test including answer keys.
	GetTestAdmin(ctx context.Context, id string) (Test, error)
	ListTests(ctx context.Context, opts TestListOpts) ([]TestSummary, error)

	// StartAttempt creates an in_progress attempt or resumes an existing
	// one for (testID, studentID). Fails with ErrAttemptsExhausted when the
	// student already holds MaxAttempts non-abandoned attempts, and with
	// ErrTestNotPublished for drafts.
	StartAttempt(ctx context.Context, testID, studentID string) (StartResult, error)

	// SaveAnswers merges an autosave snapshot into an in_progress attempt.
	SaveAnswers(ctx context.Context, attemptID string, answers map[string]Answer) (Attempt, error)

	// FinalizeAttempt writes a scored attempt. The update is guarded on
	// status=in_progress; a terminal row yields ErrAttemptAlreadySubmitted
	// so a concurrent double submit cannot rescore.
	FinalizeAttempt(ctx context.Context, a Attempt) error

	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// CountTaken counts non-abandoned attempts for (testID, studentID),
	// the denominator of the retake policy.
	CountTaken(ctx context.Context, testID, studentID string) (int, error)
}
