package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/autocheck/internal/asset"
)

const buttonTemplate = `version: 1
root:
  name: Button
  behaviors:
    - type: Image
      fields:
        color: {r: 1, g: 1, b: 1, a: 1}
    - type: ImageSetter
`

func TestFileStoreTemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeAsset(t, dir, "A.prefab", buttonTemplate)

	store := NewFileStore()
	tpl, err := store.LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Button", tpl.Root.Name)

	require.NoError(t, tpl.Root.Behavior("Image").Set("color", map[string]any{"r": 0, "g": 0, "b": 1, "a": 1}))
	tpl.MarkDirty()
	require.NoError(t, store.SaveTemplate(tpl))
	assert.False(t, tpl.Dirty())

	again, err := NewFileStore().LoadTemplate(path)
	require.NoError(t, err)
	color, _ := again.Root.Behavior("Image").Get("color")
	assert.Equal(t, map[string]any{"r": 0.0, "g": 0.0, "b": 1.0, "a": 1.0}, color)
}

func TestFileStoreLoadErrors(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore()

	_, err := store.LoadTemplate(filepath.Join(dir, "missing.prefab"))
	assert.Error(t, err)

	garbage := writeAsset(t, dir, "garbage.prefab", "::: not yaml [")
	_, err = store.LoadTemplate(garbage)
	assert.ErrorIs(t, err, asset.ErrInvalidAsset)

	doc := writeAsset(t, dir, "B.unity", emptyDocument)
	_, err = store.LoadTemplate(doc)
	assert.ErrorIs(t, err, asset.ErrInvalidAsset, "a document is not a template")
}

func TestFileStoreUntitled(t *testing.T) {
	store := NewFileStore()
	assert.ErrorIs(t, store.SaveDocument(asset.NewDocument("")), ErrUntitled)
	assert.ErrorIs(t, store.SaveTemplate(&asset.Template{Root: asset.NewNode("X")}), ErrUntitled)
}

func TestFileStoreReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeAsset(t, dir, "A.prefab", buttonTemplate)

	store := NewFileStore(WithReadOnly(true))
	assert.True(t, store.ReadOnly())
	tpl, err := store.LoadTemplate(path)
	require.NoError(t, err)
	require.NoError(t, tpl.Root.Behavior("Image").Set("color", "blue"))
	tpl.MarkDirty()

	require.NoError(t, store.SaveTemplate(tpl))
	assert.Equal(t, []string{path}, store.Written())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buttonTemplate, string(data))
}

func TestFileStoreFlush(t *testing.T) {
	dir := t.TempDir()
	a := writeAsset(t, dir, "A.prefab", buttonTemplate)
	b := writeAsset(t, dir, "B.unity", canvasDocument)
	c := writeAsset(t, dir, "C.unity", canvasDocument)

	store := NewFileStore()
	tpl, err := store.LoadTemplate(a)
	require.NoError(t, err)
	docB, err := store.LoadDocument(b)
	require.NoError(t, err)
	_, err = store.LoadDocument(c)
	require.NoError(t, err)

	require.NoError(t, tpl.Root.Behavior("Image").Set("color", "blue"))
	tpl.MarkDirty()
	require.NoError(t, docB.Roots()[0].Behavior("CanvasScaler").Set("ui_scale_mode", "ScaleWithScreenSize"))
	docB.MarkDirty()

	require.NoError(t, store.Flush())
	assert.Equal(t, []string{a, b}, store.Written())

	require.NoError(t, store.Flush())
	assert.Len(t, store.Written(), 2, "nothing left dirty")
}
