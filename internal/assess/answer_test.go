package assess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAnswerByQuestionType(t *testing.T) {
	a, err := DecodeAnswer(TypeMultipleChoice, json.RawMessage(`"opt2"`))
	require.NoError(t, err)
	require.Equal(t, AnswerSingle, a.Kind)
	require.Equal(t, "opt2", a.OptionID)

	// the same wire string is free text when the question is open_ended
	a, err = DecodeAnswer(TypeOpenEnded, json.RawMessage(`"my essay"`))
	require.NoError(t, err)
	require.Equal(t, AnswerText, a.Kind)
	require.Equal(t, "my essay", a.Text)

	a, err = DecodeAnswer(TypeMultipleAnswer, json.RawMessage(`["a","c"]`))
	require.NoError(t, err)
	require.Equal(t, AnswerMulti, a.Kind)
	require.Equal(t, []string{"a", "c"}, a.OptionIDs)

	_, err = DecodeAnswer(TypeMultipleChoice, json.RawMessage(`{"nested":1}`))
	require.Error(t, err)
}

func TestAnswerWireRoundTrip(t *testing.T) {
	payload := map[string]Answer{
		"q1": SingleChoiceAnswer("b"),
		"q2": MultiChoiceAnswer("a", "c"),
		"q3": TextAnswer("free text"),
		"q4": {},
	}
	buf, err := json.Marshal(payload)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf, &raw))
	require.JSONEq(t, `"b"`, string(raw["q1"]))
	require.JSONEq(t, `["a","c"]`, string(raw["q2"]))
	require.JSONEq(t, `null`, string(raw["q4"]))

	var back map[string]Answer
	require.NoError(t, json.Unmarshal(buf, &back))
	require.Equal(t, "b", back["q1"].OptionID)
	require.Equal(t, []string{"a", "c"}, back["q2"].OptionIDs)
	require.Equal(t, AnswerNone, back["q4"].Kind)

	// strings are ambiguous on the wire; ForType resolves them
	require.Equal(t, AnswerSingle, back["q3"].Kind)
	resolved := back["q3"].ForType(TypeOpenEnded)
	require.Equal(t, AnswerText, resolved.Kind)
	require.Equal(t, "free text", resolved.Text)
}

func TestAnswerUnmarshalRejectsOtherShapes(t *testing.T) {
	var a Answer
	require.Error(t, json.Unmarshal([]byte(`42`), &a))
	require.Error(t, json.Unmarshal([]byte(`{"k":"v"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	require.Equal(t, AnswerNone, a.Kind)
}
