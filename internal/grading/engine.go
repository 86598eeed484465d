package grading

import (
	"errors"

	"github.com/aprendia/aprendia-lms/internal/assess"
)

// Result is the outcome of grading a single question response.
type Result struct {
	PointsEarned float64
	MaxPoints    float64
	Correct      bool // exact match against the answer key
	Answered     bool // a response was recorded, even if ungradable
	NeedsManual  bool // open_ended: free text requires human review
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q assess.Question, ans assess.Answer) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q assess.Question, ans assess.Answer) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(q assess.Question, ans assess.Answer) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, Answered: ans.Kind != assess.AnswerNone, NeedsManual: true}, nil
	}
	return s.Grade(q, ans)
}

type Option func(*config)

type config struct {
	AllowPartialMulti bool // proportional credit for multiple_answer without false positives
}

// WithPartialMulti switches multiple_answer to proportional credit. The
// default is all-or-nothing: a partial overlap earns zero.
func WithPartialMulti(b bool) Option { return func(c *config) { c.AllowPartialMulti = b } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			assess.TypeMultipleChoice: singleChoiceStrategy{},
			assess.TypeTrueFalse:      singleChoiceStrategy{},
			assess.TypeMultipleAnswer: multiAnswerStrategy{allowPartial: cfg.AllowPartialMulti},
			assess.TypePoll:           pollStrategy{},
			assess.TypeOpenEnded:      openEndedStrategy{},
		},
	}
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(q assess.Question, ans assess.Answer) (Result, error) {
	res := Result{MaxPoints: q.Points}
	switch ans.Kind {
	case assess.AnswerNone:
		return res, nil
	case assess.AnswerSingle:
		res.Answered = ans.OptionID != ""
	default:
		return res, errors.New("response must be a single option id")
	}
	if !res.Answered {
		return res, nil
	}
	for _, k := range q.AnswerKey {
		if ans.OptionID == k {
			res.Correct = true
			res.PointsEarned = q.Points
			return res, nil
		}
	}
	return res, nil
}

type multiAnswerStrategy struct{ allowPartial bool }

func (s multiAnswerStrategy) Grade(q assess.Question, ans assess.Answer) (Result, error) {
	res := Result{MaxPoints: q.Points}
	switch ans.Kind {
	case assess.AnswerNone:
		return res, nil
	case assess.AnswerMulti:
		res.Answered = len(ans.OptionIDs) > 0
	case assess.AnswerSingle:
		// single selection on a multi question: treat as a one-element set
		if ans.OptionID != "" {
			ans = assess.MultiChoiceAnswer(ans.OptionID)
			res.Answered = true
		}
	default:
		return res, errors.New("response must be a set of option ids")
	}
	if !res.Answered {
		return res, nil
	}
	correct := toSet(q.AnswerKey)
	resp := toSet(ans.OptionIDs)
	if len(correct) > 0 && setEqual(correct, resp) {
		res.Correct = true
		res.PointsEarned = q.Points
		return res, nil
	}
	if s.allowPartial && len(correct) > 0 {
		hasFalsePositive := false
		inter := 0
		for r := range resp {
			if _, ok := correct[r]; ok {
				inter++
			} else {
				hasFalsePositive = true
			}
		}
		if !hasFalsePositive {
			res.PointsEarned = q.Points * (float64(inter) / float64(len(correct)))
		}
	}
	return res, nil
}

// pollStrategy: polls carry no key and never award points, but an answered
// poll still counts toward completion stats.
type pollStrategy struct{}

func (pollStrategy) Grade(q assess.Question, ans assess.Answer) (Result, error) {
	res := Result{MaxPoints: q.Points}
	switch ans.Kind {
	case assess.AnswerNone:
	case assess.AnswerSingle:
		res.Answered = ans.OptionID != ""
	case assess.AnswerMulti:
		res.Answered = len(ans.OptionIDs) > 0
	case assess.AnswerText:
		res.Answered = ans.Text != ""
	}
	return res, nil
}

// openEndedStrategy: free text is recorded for manual review, never
// auto-scored by this engine.
type openEndedStrategy struct{}

func (openEndedStrategy) Grade(q assess.Question, ans assess.Answer) (Result, error) {
	res := Result{MaxPoints: q.Points}
	switch ans.Kind {
	case assess.AnswerNone:
		return res, nil
	case assess.AnswerText:
		res.Answered = ans.Text != ""
	case assess.AnswerSingle:
		res.Answered = ans.OptionID != "" || ans.Text != ""
	default:
		return res, errors.New("response must be free text")
	}
	res.NeedsManual = res.Answered
	return res, nil
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
