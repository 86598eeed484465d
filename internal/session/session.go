package session

import (
	"context"
	"errors"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/grading"
)

// Starter establishes or resumes an attempt.
type Starter interface {
	StartAttempt(ctx context.Context, testID, studentID string) (assess.StartResult, error)
}

// Submitter scores and finalizes an attempt.
type Submitter interface {
	Submit(ctx context.Context, attemptID string, answers map[string]assess.Answer, cause string) (grading.Outcome, error)
}

var ErrNotStarted = errors.New("session not started")

// Session drives one learner through one attempt: establish, answer, tick,
// submit. It is single-threaded and cooperative; user interaction and the
// 1 Hz tick share one goroutine, so no locking is involved. The in-flight
// guard serializes submission: if a manual submit and the timer expiry land
// on the same tick, exactly one scoring pass executes.
type Session struct {
	starter   Starter
	submitter Submitter

	test      assess.Test
	attempt   assess.Attempt
	collector *Collector
	clock     *Clock

	started    bool
	submitting bool
	outcome    *grading.Outcome
	// stalled is set when an auto-submit failed twice; the learner must
	// retry manually and the local snapshot is retained.
	stalled bool
}

func New(starter Starter, submitter Submitter) *Session {
	return &Session{starter: starter, submitter: submitter, collector: NewCollector()}
}

// Start establishes the attempt. An in_progress attempt for the same
// (test, student) is resumed: its saved answers and remaining time are
// restored rather than creating a new attempt.
func (s *Session) Start(ctx context.Context, testID, studentID string) (assess.StartResult, error) {
	res, err := s.starter.StartAttempt(ctx, testID, studentID)
	if err != nil {
		return assess.StartResult{}, err
	}
	s.test = res.Test
	s.attempt = res.Attempt
	s.collector = NewCollector()
	s.collector.Restore(res.SavedAnswers)
	var remaining int64
	if res.RemainingSec != nil {
		remaining = *res.RemainingSec
	}
	s.clock = NewClock(res.Test.TimeMode, remaining)
	s.started = true
	s.outcome = nil
	s.stalled = false
	return res, nil
}

// SetAnswer records the learner's current answer for a question.
func (s *Session) SetAnswer(questionID string, ans assess.Answer) {
	s.collector.Set(questionID, ans)
}

// Answers exposes the current snapshot (autosave payloads, retries).
func (s *Session) Answers() map[string]assess.Answer { return s.collector.Map() }

// Remaining reports seconds left (timed mode).
func (s *Session) Remaining() int64 {
	if s.clock == nil {
		return 0
	}
	return s.clock.Remaining()
}

// Submitted reports whether a scored submission has been acknowledged.
// Local state never flips to submitted before the engine confirms.
func (s *Session) Submitted() bool { return s.outcome != nil }

// NeedsManualRetry is set after auto-submit exhausted its retry; the
// snapshot is intact and Submit may be called again.
func (s *Session) NeedsManualRetry() bool { return s.stalled }

// Outcome returns the scored result once Submitted.
func (s *Session) Outcome() *grading.Outcome { return s.outcome }

// Tick advances the clock by one second. When a timed clock expires this
// triggers auto-submission exactly once; an auto-submit that fails is
// retried once before the session is marked as needing manual intervention.
func (s *Session) Tick(ctx context.Context) (*grading.Outcome, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.outcome != nil || s.submitting {
		return s.outcome, nil
	}
	if !s.clock.Tick() {
		return nil, nil
	}
	out, err := s.submit(ctx, assess.CauseTimeout)
	if err != nil {
		// one retry, then hand control back to the learner
		out, err = s.submit(ctx, assess.CauseTimeout)
		if err != nil {
			s.stalled = true
			return nil, err
		}
	}
	return out, nil
}

// Submit is the manual submission path. The answers snapshot is retained on
// failure so a retry loses nothing.
func (s *Session) Submit(ctx context.Context) (grading.Outcome, error) {
	if !s.started {
		return grading.Outcome{}, ErrNotStarted
	}
	if s.outcome != nil {
		return grading.Outcome{}, assess.ErrAttemptAlreadySubmitted
	}
	if s.submitting {
		return grading.Outcome{}, assess.ErrAttemptAlreadySubmitted
	}
	out, err := s.submit(ctx, assess.CauseManual)
	if err != nil {
		return grading.Outcome{}, err
	}
	return *out, nil
}

func (s *Session) submit(ctx context.Context, cause string) (*grading.Outcome, error) {
	s.submitting = true
	out, err := s.submitter.Submit(ctx, s.attempt.ID, s.collector.Map(), cause)
	s.submitting = false
	if err != nil {
		return nil, err
	}
	s.outcome = &out
	s.attempt = out.Attempt
	s.stalled = false
	return s.outcome, nil
}

// Abandon drops local state without submitting. The stored attempt stays
// in_progress; only an external reconciliation job may mark it abandoned.
func (s *Session) Abandon() {
	s.started = false
	s.collector = NewCollector()
	s.clock = nil
}
