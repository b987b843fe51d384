package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorageRoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "audio/clip.wav", strings.NewReader("payload"), -1, "audio/wav"))

	r, err := s.Read(ctx, "audio/clip.wav")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, s.Delete(ctx, "audio/clip.wav"))
	_, err = s.Read(ctx, "audio/clip.wav")
	assert.Error(t, err)
}

func TestLocalStorageDeleteMissingKey(t *testing.T) {
	s := newLocal(t)
	// Deleting a key that was never written is not an error.
	assert.NoError(t, s.Delete(context.Background(), "never/existed"))
}

func TestLocalStorageTraversalKey(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	// A traversal key must not escape the base path.
	require.NoError(t, s.Write(ctx, "../escape.txt", strings.NewReader("x"), -1, "text/plain"))

	r, err := s.Read(ctx, "escape.txt")
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
