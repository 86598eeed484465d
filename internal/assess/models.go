package assess

// Question types understood by the attempt engine.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeMultipleAnswer = "multiple_answer"
	TypeTrueFalse      = "true_false"
	TypePoll           = "poll"
	TypeOpenEnded      = "open_ended"
)

// Time modes for a test.
const (
	TimeModeTimed = "timed"
	TimeModeFree  = "free"
)

// Attempt statuses. A status other than in_progress is terminal.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusTimedOut   = "timed_out"
	StatusAbandoned  = "abandoned"
)

// Submit causes, recorded for analytics only; scoring is identical.
const (
	CauseManual  = "manual"
	CauseTimeout = "timeout"
)

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text,omitempty"`
}

type Question struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // multiple_choice, multiple_answer, true_false, poll, open_ended
	Text     string   `json:"text,omitempty"`
	MediaRef string   `json:"media_ref,omitempty"` // blob-store key, served via /assets
	Options  []Option `json:"options,omitempty"`
	// AnswerKey is the correct option id(s). Empty for poll and open_ended.
	// Never serialized to students before submission.
	AnswerKey []string `json:"answer_key,omitempty"`
	Points    float64  `json:"points"`
}

type Test struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	TimeMode     string     `json:"time_mode"` // timed|free
	TimeLimitMin int        `json:"time_limit_min,omitempty"`
	PassingScore float64    `json:"passing_score"` // percentage threshold
	MaxAttempts  int        `json:"max_attempts"`
	Published    bool       `json:"published"`
	OwnerID      string     `json:"owner_id,omitempty"`
	Questions    []Question `json:"questions"`
	CreatedAt    int64      `json:"created_at,omitempty"`
}

// TimeLimitSec returns the limit in seconds, or 0 for free-mode tests.
func (t Test) TimeLimitSec() int {
	if t.TimeMode != TimeModeTimed {
		return 0
	}
	return t.TimeLimitMin * 60
}

// MaxScore is the sum of question point values.
func (t Test) MaxScore() float64 {
	var sum float64
	for _, q := range t.Questions {
		sum += q.Points
	}
	return sum
}

type Attempt struct {
	ID            string            `json:"id"`
	TestID        string            `json:"test_id"`
	StudentID     string            `json:"student_id"`
	AttemptNumber int               `json:"attempt_number"` // 1-based per (test, student)
	Status        string            `json:"status"`
	Cause         string            `json:"cause,omitempty"` // manual|timeout once terminal
	Score         float64           `json:"score"`
	MaxScore      float64           `json:"max_score"`
	Percentage    float64           `json:"percentage"`
	Passed        bool              `json:"passed"`
	Answers       map[string]Answer `json:"answers"` // questionID -> answer snapshot
	StartedAt     int64             `json:"started_at"`
	EndedAt       int64             `json:"ended_at,omitempty"`
	TimeSpentSec  int64             `json:"time_spent_sec,omitempty"`
}

// Terminal reports whether the attempt has left in_progress. Terminal
// attempts are immutable.
func (a Attempt) Terminal() bool {
	return a.Status != StatusInProgress
}

// TestSummary is the listing row for catalog views; no questions attached.
type TestSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	TimeMode     string  `json:"time_mode"`
	TimeLimitMin int     `json:"time_limit_min,omitempty"`
	PassingScore float64 `json:"passing_score"`
	MaxAttempts  int     `json:"max_attempts"`
	Published    bool    `json:"published"`
	Questions    int     `json:"questions"`
	CreatedAt    int64   `json:"created_at,omitempty"`
}

// StudentView strips answer keys so a test can be served to a learner.
func (t Test) StudentView() Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	copy(out.Questions, t.Questions)
	for i := range out.Questions {
		out.Questions[i].AnswerKey = nil
	}
	return out
}
