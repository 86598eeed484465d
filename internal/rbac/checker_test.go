package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	require.True(t, c.Has("student", "attempt:submit"))
	require.True(t, c.Has("student", "test:view"))
	require.False(t, c.Has("student", "test:view-keys"))
	require.False(t, c.Has("student", "attempt:view-all"))

	require.True(t, c.Has("teacher", "test:view-keys"))
	require.True(t, c.Has("teacher", "users:bulk_upsert"))
	require.False(t, c.Has("teacher", "attempt:submit"))

	// admin wildcard
	require.True(t, c.Has("admin", "anything:at-all"))

	require.False(t, c.Has("", "test:view"))
	require.False(t, c.Has("ghost", "test:view"))
}

func TestPrefixWildcard(t *testing.T) {
	c := NewChecker(map[string][]string{
		"grader": {"attempt:*"},
	})
	require.True(t, c.Has("grader", "attempt:view-all"))
	require.True(t, c.Has("grader", "attempt:submit"))
	require.False(t, c.Has("grader", "test:view"))
}

func TestAny(t *testing.T) {
	c := NewChecker(nil)
	require.True(t, c.Any("student", "attempt:view-own", "attempt:view-all"))
	require.False(t, c.Any("student", "test:create", "users:list"))
}
