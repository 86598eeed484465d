package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aprendia/aprendia-lms/internal/assess"
)

func TestCollectorLastWriteWins(t *testing.T) {
	c := NewCollector()
	c.Set("q1", assess.SingleChoiceAnswer("a"))
	c.Set("q2", assess.SingleChoiceAnswer("x"))
	c.Set("q1", assess.SingleChoiceAnswer("b")) // revisit, change answer

	require.Equal(t, 2, c.Len())
	require.Equal(t, "b", c.Map()["q1"].OptionID)

	// snapshot order is first-answered, not last-touched
	snap := c.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "q1", snap[0].QuestionID)
	require.Equal(t, "q2", snap[1].QuestionID)
}

func TestCollectorClear(t *testing.T) {
	c := NewCollector()
	c.Set("q1", assess.SingleChoiceAnswer("a"))
	c.Set("q2", assess.TextAnswer("essay"))
	c.Clear("q1")
	c.Clear("never-set") // no-op

	require.Equal(t, 1, c.Len())
	snap := c.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, "q2", snap[0].QuestionID)
}

func TestCollectorRestore(t *testing.T) {
	c := NewCollector()
	c.Restore(map[string]assess.Answer{
		"q1": assess.MultiChoiceAnswer("a", "b"),
		"q2": assess.SingleChoiceAnswer("true"),
	})
	require.Equal(t, 2, c.Len())
	require.Equal(t, []string{"a", "b"}, c.Map()["q1"].OptionIDs)

	// restored answers can still be overwritten
	c.Set("q2", assess.SingleChoiceAnswer("false"))
	require.Equal(t, "false", c.Map()["q2"].OptionID)
}
