package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := s.Put("media/q1.png", strings.NewReader("fake-png"))
	require.NoError(t, err)
	require.Equal(t, "media/q1.png", key)

	rc, err := s.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "fake-png", string(data))

	_, err = s.Get("media/missing.png")
	require.Error(t, err)
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put("", strings.NewReader("x"))
	require.Error(t, err)

	// traversal keys are pinned inside the base; writing one must not land
	// outside, so the cleaned key resolves under base or errors
	key, err := s.Put("../../etc/evil", strings.NewReader("x"))
	if err == nil {
		rc, gerr := s.Get(key)
		require.NoError(t, gerr)
		rc.Close()
	}
}
