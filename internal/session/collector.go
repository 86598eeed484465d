package session

import "github.com/aprendia/aprendia-lms/internal/assess"

// SavedAnswer is one entry of a submission snapshot.
type SavedAnswer struct {
	QuestionID string        `json:"question_id"`
	Answer     assess.Answer `json:"answer"`
}

// Collector accumulates the learner's current answer per question id,
// independent of navigation order. Last write wins; no shape validation
// happens here (that is the scoring engine's job).
type Collector struct {
	answers map[string]assess.Answer
	order   []string // question ids in first-answered order, for stable snapshots
}

func NewCollector() *Collector {
	return &Collector{answers: map[string]assess.Answer{}}
}

// Restore seeds the collector from a persisted snapshot (attempt resume).
func (c *Collector) Restore(saved map[string]assess.Answer) {
	for qid, ans := range saved {
		c.Set(qid, ans)
	}
}

// Set overwrites any prior answer for the question.
func (c *Collector) Set(questionID string, ans assess.Answer) {
	if _, seen := c.answers[questionID]; !seen {
		c.order = append(c.order, questionID)
	}
	c.answers[questionID] = ans
}

// Clear removes a recorded answer (learner deselects).
func (c *Collector) Clear(questionID string) {
	if _, seen := c.answers[questionID]; !seen {
		return
	}
	delete(c.answers, questionID)
	for i, qid := range c.order {
		if qid == questionID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len reports how many questions currently hold an answer.
func (c *Collector) Len() int { return len(c.answers) }

// Snapshot lists only questions with a recorded answer; unanswered
// questions are absent, not null-padded.
func (c *Collector) Snapshot() []SavedAnswer {
	out := make([]SavedAnswer, 0, len(c.answers))
	for _, qid := range c.order {
		out = append(out, SavedAnswer{QuestionID: qid, Answer: c.answers[qid]})
	}
	return out
}

// Map returns the snapshot keyed by question id, the form the scoring
// engine consumes.
func (c *Collector) Map() map[string]assess.Answer {
	out := make(map[string]assess.Answer, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}
