package kv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindbloom/internal/crypto"
)

func exerciseMedium(t *testing.T, m Medium) {
	t.Helper()

	_, ok, err := m.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set("a", `[1,2]`))
	require.NoError(t, m.Set("b", "x"))
	require.NoError(t, m.Set("a", `[3]`))

	v, ok, err := m.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[3]`, v)

	require.NoError(t, m.Remove("a"))
	require.NoError(t, m.Remove("a"))
	_, ok, err = m.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, err = m.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestMemoryMedium(t *testing.T) {
	exerciseMedium(t, NewMemoryMedium())
}

func TestFileMedium(t *testing.T) {
	m, err := NewFileMedium(filepath.Join(t.TempDir(), "nested", "store.json"))
	require.NoError(t, err)
	exerciseMedium(t, m)
}

func TestFileMediumSharedBetweenHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	a, err := NewFileMedium(path)
	require.NoError(t, err)
	b, err := NewFileMedium(path)
	require.NoError(t, err)

	require.NoError(t, a.Set("k", "from-a"))
	v, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-a", v)
}

func TestFileMediumCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	m, err := NewFileMedium(path)
	require.NoError(t, err)

	_, _, err = m.Get("k")
	assert.Error(t, err)

	// a write replaces the unreadable file
	require.NoError(t, m.Set("k", "v"))
	v, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestFileMediumEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := NewFileMedium(path)
	require.NoError(t, err)
	_, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteMedium(t *testing.T) {
	m, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bloom.db"))
	require.NoError(t, err)
	defer m.Close()
	exerciseMedium(t, m)
}

func TestSealedMedium(t *testing.T) {
	svc, err := crypto.NewEncryptionService(bytes.Repeat([]byte{7}, crypto.KeySize), bytes.Repeat([]byte{8}, crypto.KeySize))
	require.NoError(t, err)

	inner := NewMemoryMedium()
	m := NewSealedMedium(inner, svc)
	exerciseMedium(t, m)

	require.NoError(t, m.Set("thoughts", `"a quiet day"`))
	raw, ok, err := inner.Get("thoughts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "quiet")

	require.NoError(t, inner.Set("thoughts", "bogus"))
	_, _, err = m.Get("thoughts")
	assert.Error(t, err)
}
