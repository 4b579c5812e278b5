package asset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIsGUID(t *testing.T) {
	assert.True(t, IsGUID("0123456789abcdef0123456789ABCDEF"))
	assert.False(t, IsGUID("0123"))
	assert.False(t, IsGUID("Assets/A.prefab"))
	assert.False(t, IsGUID("zz23456789abcdef0123456789abcdef"))
}

func TestBuildIndex(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "Prefabs", "A.prefab")
	b := filepath.Join(root, "Scenes", "B.unity")
	writeFile(t, a+".meta", "guid: AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n")
	writeFile(t, b+".meta", "fileFormatVersion: 2\nguid: bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n")
	writeFile(t, filepath.Join(root, "broken.prefab.meta"), "guid: nope\n")
	writeFile(t, filepath.Join(root, "Scenes", "B.unity"), "version: 1\nroots: []\n")

	idx, err := BuildIndex(context.Background(), root, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	p, ok := idx.Path("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.True(t, ok)
	assert.Equal(t, a, p)

	g, ok := idx.GUID(b)
	require.True(t, ok)
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", g)

	entries := idx.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, a, entries[0].Path)
}

func TestBuildIndexMissingRoot(t *testing.T) {
	idx, err := BuildIndex(context.Background(), filepath.Join(t.TempDir(), "absent"), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestBuildIndexCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A.prefab.meta"), "guid: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildIndex(ctx, root, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewIndexFirstWins(t *testing.T) {
	idx := NewIndex([]IndexEntry{
		{GUID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Path: "first"},
		{GUID: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", Path: "second"},
	})
	p, ok := idx.Path("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.True(t, ok)
	assert.Equal(t, "first", p)
	_, ok = idx.GUID("second")
	assert.False(t, ok)
}
