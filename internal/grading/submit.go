package grading

import (
	"context"
	"log"
	"time"

	"github.com/aprendia/aprendia-lms/internal/assess"
)

// EventSink receives a notification after an attempt reaches a terminal
// scored state. Sink failures are logged, never surfaced: the submission
// already persisted.
type EventSink interface {
	AttemptSubmitted(ctx context.Context, a assess.Attempt, sum Summary) error
}

// Outcome is the full submission response payload.
type Outcome struct {
	Attempt           assess.Attempt   `json:"attempt"`
	Results           Summary          `json:"results"`
	AnswersReview     []QuestionReview `json:"answers_review"`
	CanRetake         bool             `json:"can_retake"`
	RemainingAttempts int              `json:"remaining_attempts"`
	MaxAttempts       int              `json:"max_attempts"`
}

// Engine is the single authority for the in_progress -> completed/timed_out
// transition. Submitting an already-terminal attempt fails with
// assess.ErrAttemptAlreadySubmitted and never alters the stored score.
type Engine struct {
	store  assess.Store
	grader Grader
	sink   EventSink
	now    func() time.Time
}

func NewEngine(store assess.Store, grader Grader) *Engine {
	return &Engine{store: store, grader: grader, now: time.Now}
}

// WithEventSink attaches a post-submission event sink.
func (e *Engine) WithEventSink(sink EventSink) *Engine {
	e.sink = sink
	return e
}

// Submit scores the snapshot and finalizes the attempt. answers are merged
// over any autosaved state (submitted values win). cause records whether the
// clock or the learner triggered it; scoring is identical either way.
func (e *Engine) Submit(ctx context.Context, attemptID string, answers map[string]assess.Answer, cause string) (Outcome, error) {
	a, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Outcome{}, err
	}
	if a.Terminal() {
		return Outcome{}, assess.ErrAttemptAlreadySubmitted
	}
	t, err := e.store.GetTestAdmin(ctx, a.TestID)
	if err != nil {
		return Outcome{}, err
	}

	merged := map[string]assess.Answer{}
	for k, v := range a.Answers {
		merged[k] = v
	}
	for k, v := range answers {
		merged[k] = v
	}

	now := e.now().Unix()
	elapsed := now - a.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	// Authoritative deadline check: a manual submit landing past the limit
	// is recorded as timed out regardless of what the client's clock said.
	if t.TimeMode == assess.TimeModeTimed && elapsed > int64(t.TimeLimitSec()) {
		cause = assess.CauseTimeout
	}

	sum, review, err := Summarize(e.grader, t, merged)
	if err != nil {
		return Outcome{}, err
	}
	sum.TimeSpentSec = elapsed

	a.Answers = merged
	a.Status = assess.StatusCompleted
	if cause == assess.CauseTimeout {
		a.Status = assess.StatusTimedOut
	}
	a.Cause = cause
	if a.Cause == "" {
		a.Cause = assess.CauseManual
	}
	a.Score = sum.Score
	a.MaxScore = sum.MaxScore
	a.Percentage = sum.Percentage
	a.Passed = sum.Passed
	a.EndedAt = now
	a.TimeSpentSec = elapsed

	if err := e.store.FinalizeAttempt(ctx, a); err != nil {
		return Outcome{}, err
	}

	if e.sink != nil {
		if err := e.sink.AttemptSubmitted(ctx, a, sum); err != nil {
			log.Printf("attempt %s: event sink: %v", a.ID, err)
		}
	}

	taken, err := e.store.CountTaken(ctx, a.TestID, a.StudentID)
	if err != nil {
		// finalized fine; report the policy from what we know locally
		taken = a.AttemptNumber
	}
	canRetake, remaining := RetakePolicy(t.MaxAttempts, taken, sum.Passed)
	return Outcome{
		Attempt:           a,
		Results:           sum,
		AnswersReview:     review,
		CanRetake:         canRetake,
		RemainingAttempts: remaining,
		MaxAttempts:       t.MaxAttempts,
	}, nil
}
