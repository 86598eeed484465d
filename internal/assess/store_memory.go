package assess

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore backs dev mode and tests. Same contract as SQLStore, no I/O.
type memoryStore struct {
	mu       sync.RWMutex
	tests    map[string]Test
	attempts map[string]Attempt
	now      func() time.Time
}

func NewInMemoryStore() Store {
	return &memoryStore{
		tests:    map[string]Test{},
		attempts: map[string]Attempt{},
		now:      time.Now,
	}
}

func (m *memoryStore) PutTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = m.now().Unix()
	}
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrTestNotFound
	}
	if !t.Published {
		return Test{}, ErrTestNotPublished
	}
	return t.StudentView(), nil
}

func (m *memoryStore) GetTestAdmin(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrTestNotFound
	}
	return t, nil
}

func (m *memoryStore) ListTests(_ context.Context, opts TestListOpts) ([]TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestSummary{}
	for _, t := range m.tests {
		visible := t.Published
		switch opts.ViewerRole {
		case "admin":
			visible = true
		case "teacher":
			visible = visible || t.OwnerID == opts.ViewerID
		}
		if !visible {
			continue
		}
		out = append(out, TestSummary{
			ID: t.ID, Title: t.Title, TimeMode: t.TimeMode, TimeLimitMin: t.TimeLimitMin,
			PassingScore: t.PassingScore, MaxAttempts: t.MaxAttempts, Published: t.Published,
			Questions: len(t.Questions), CreatedAt: t.CreatedAt,
		})
	}
	return out, nil
}

func (m *memoryStore) StartAttempt(_ context.Context, testID, studentID string) (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[testID]
	if !ok {
		return StartResult{}, ErrTestNotFound
	}
	if !t.Published {
		return StartResult{}, ErrTestNotPublished
	}

	for _, a := range m.attempts {
		if a.TestID == testID && a.StudentID == studentID && a.Status == StatusInProgress {
			return m.startResult(t, a, true), nil
		}
	}

	taken := m.countTakenLocked(testID, studentID)
	if t.MaxAttempts > 0 && taken >= t.MaxAttempts {
		return StartResult{}, ErrAttemptsExhausted
	}
	a := Attempt{
		ID:            uuid.NewString(),
		TestID:        testID,
		StudentID:     studentID,
		AttemptNumber: taken + 1,
		Status:        StatusInProgress,
		MaxScore:      t.MaxScore(),
		Answers:       map[string]Answer{},
		StartedAt:     m.now().Unix(),
	}
	m.attempts[a.ID] = a
	return m.startResult(t, a, false), nil
}

func (m *memoryStore) startResult(t Test, a Attempt, resumed bool) StartResult {
	res := StartResult{Test: t.StudentView(), Attempt: a, SavedAnswers: a.Answers, Resumed: resumed}
	if res.SavedAnswers == nil {
		res.SavedAnswers = map[string]Answer{}
	}
	if t.TimeMode == TimeModeTimed {
		remaining := int64(t.TimeLimitSec()) - (m.now().Unix() - a.StartedAt)
		if remaining < 0 {
			remaining = 0
		}
		res.RemainingSec = &remaining
	}
	return res
}

func (m *memoryStore) SaveAnswers(_ context.Context, attemptID string, answers map[string]Answer) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Terminal() {
		return Attempt{}, ErrAttemptAlreadySubmitted
	}
	if a.Answers == nil {
		a.Answers = map[string]Answer{}
	}
	for k, v := range answers {
		a.Answers[k] = v
	}
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) FinalizeAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.attempts[a.ID]
	if !ok {
		return ErrAttemptNotFound
	}
	if cur.Terminal() {
		return ErrAttemptAlreadySubmitted
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		if opts.StudentID != "" && a.StudentID != opts.StudentID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryStore) CountTaken(_ context.Context, testID, studentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countTakenLocked(testID, studentID), nil
}

func (m *memoryStore) countTakenLocked(testID, studentID string) int {
	n := 0
	for _, a := range m.attempts {
		if a.TestID != testID || a.StudentID != studentID {
			continue
		}
		if a.Status == StatusCompleted || a.Status == StatusTimedOut {
			n++
		}
	}
	return n
}
