package grading

import "github.com/aprendia/aprendia-lms/internal/assess"

// Summary aggregates per-question results for one attempt.
type Summary struct {
	TotalQuestions int `json:"total_questions"`
	CorrectAnswers int `json:"correct_answers"`
	// IncorrectAnswers counts gradable questions answered wrong. Answered
	// polls and open_ended responses land in Ungraded instead.
	IncorrectAnswers int     `json:"incorrect_answers"`
	Unanswered       int     `json:"unanswered"`
	Ungraded         int     `json:"ungraded"`
	Score            float64 `json:"score"`
	MaxScore         float64 `json:"max_score"`
	Percentage       float64 `json:"percentage"`
	Passed           bool    `json:"passed"`
	TimeSpentSec     int64   `json:"time_spent"`
}

// QuestionReview is the post-submission per-question breakdown. Answer keys
// are revealed here and nowhere earlier.
type QuestionReview struct {
	QuestionID     string        `json:"question_id"`
	Type           string        `json:"type"`
	Submitted      assess.Answer `json:"submitted"`
	AnswerKey      []string      `json:"answer_key,omitempty"`
	Correct        bool          `json:"correct"`
	Answered       bool          `json:"answered"`
	NeedsManual    bool          `json:"needs_manual,omitempty"`
	PointsEarned   float64       `json:"points_earned"`
	PointsPossible float64       `json:"points_possible"`
}

// Summarize grades every question of the test in order against the answer
// snapshot. A missing answer is unanswered, never an error. The percentage
// is 0 when the test's questions sum to 0 points and is always in [0,100].
func Summarize(g Grader, t assess.Test, answers map[string]assess.Answer) (Summary, []QuestionReview, error) {
	sum := Summary{TotalQuestions: len(t.Questions)}
	review := make([]QuestionReview, 0, len(t.Questions))
	for _, q := range t.Questions {
		ans, ok := answers[q.ID]
		if ok {
			ans = ans.ForType(q.Type)
		}
		res, err := g.Grade(q, ans)
		if err != nil {
			// malformed shape: scored as incorrect, never surfaced
			res = Result{MaxPoints: q.Points, Answered: ok}
		}
		sum.MaxScore += q.Points
		sum.Score += res.PointsEarned
		switch {
		case !res.Answered:
			sum.Unanswered++
		case res.Correct:
			sum.CorrectAnswers++
		case q.Type == assess.TypePoll || res.NeedsManual:
			sum.Ungraded++
		default:
			sum.IncorrectAnswers++
		}
		review = append(review, QuestionReview{
			QuestionID:     q.ID,
			Type:           q.Type,
			Submitted:      ans,
			AnswerKey:      q.AnswerKey,
			Correct:        res.Correct,
			Answered:       res.Answered,
			NeedsManual:    res.NeedsManual,
			PointsEarned:   res.PointsEarned,
			PointsPossible: q.Points,
		})
	}
	if sum.MaxScore > 0 {
		sum.Percentage = sum.Score / sum.MaxScore * 100
	}
	if sum.Percentage < 0 {
		sum.Percentage = 0
	}
	if sum.Percentage > 100 {
		sum.Percentage = 100
	}
	sum.Passed = sum.Percentage >= t.PassingScore
	return sum, review, nil
}

// RetakePolicy: a passed attempt never offers a retake, and remaining
// attempts floor at zero. maxAttempts <= 0 means unlimited (remaining -1).
func RetakePolicy(maxAttempts, taken int, passed bool) (canRetake bool, remaining int) {
	if maxAttempts <= 0 {
		return !passed, -1
	}
	remaining = maxAttempts - taken
	if remaining < 0 {
		remaining = 0
	}
	return remaining > 0 && !passed, remaining
}
