package assess

import (
	"encoding/json"
	"fmt"
)

// AnswerKind tags the decoded shape of a learner answer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
	AnswerText
)

// Answer is the tagged variant for a learner's response to one question.
// Exactly one of the payload fields is meaningful, selected by Kind:
// AnswerSingle -> OptionID, AnswerMulti -> OptionIDs, AnswerText -> Text.
// The wire form stays loose (string or array of strings) for client
// compatibility; the variant exists so the scoring engine can switch
// exhaustively instead of sniffing interface{} shapes.
type Answer struct {
	Kind      AnswerKind
	OptionID  string
	OptionIDs []string
	Text      string
}

func SingleChoiceAnswer(optionID string) Answer {
	return Answer{Kind: AnswerSingle, OptionID: optionID}
}

func MultiChoiceAnswer(optionIDs ...string) Answer {
	return Answer{Kind: AnswerMulti, OptionIDs: optionIDs}
}

func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerText, Text: text}
}

// DecodeAnswer interprets a raw JSON answer value for a question type.
// Strings decode as a single option id, except for open_ended where they
// carry free text. Arrays decode as a set of option ids.
func DecodeAnswer(questionType string, raw json.RawMessage) (Answer, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if questionType == TypeOpenEnded {
			return TextAnswer(s), nil
		}
		return SingleChoiceAnswer(s), nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return MultiChoiceAnswer(arr...), nil
	}
	return Answer{}, fmt.Errorf("answer for question type %q must be a string or array of strings", questionType)
}

// MarshalJSON writes the wire form: a bare string for single/text answers,
// an array for multi answers, null when unanswered.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.OptionID)
	case AnswerMulti:
		ids := a.OptionIDs
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	case AnswerText:
		return json.Marshal(a.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the wire form. Free text and single option ids are
// indistinguishable on the wire; both land in OptionID/Text and the scoring
// engine picks the right field from the question type.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Kind = AnswerSingle
		a.OptionID = s
		a.Text = s
		a.OptionIDs = nil
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		a.Kind = AnswerMulti
		a.OptionIDs = arr
		a.OptionID = ""
		a.Text = ""
		return nil
	}
	if string(data) == "null" {
		*a = Answer{}
		return nil
	}
	return fmt.Errorf("answer must be a string or array of strings")
}

// ForType re-tags a wire-decoded answer for the question type it belongs to.
func (a Answer) ForType(questionType string) Answer {
	if questionType == TypeOpenEnded && a.Kind == AnswerSingle {
		return TextAnswer(a.Text)
	}
	return a
}
