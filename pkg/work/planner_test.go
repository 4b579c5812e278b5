package work

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/autocheck/internal/asset"
)

var (
	tplExts = []string{".prefab"}
	docExts = []string{".unity"}
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))
}

func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range []string{
		"Prefabs/A.prefab",
		"Prefabs/A.prefab.meta",
		"Prefabs/UI/Button.prefab",
		"Scenes/B.unity",
		"Scenes/C.unity",
		"Scenes/notes.txt",
	} {
		touch(t, filepath.Join(root, filepath.FromSlash(p)))
	}
	return root
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  Plan
	}{
		{
			name:  "empty",
			input: nil,
			want:  Plan{Templates: []string{}, Documents: []string{}},
		},
		{
			name:  "mixed preserves order",
			input: []string{"x/B.unity", "a.txt", "A.prefab", "C.unity", "D.prefab", "A.prefab.meta"},
			want: Plan{
				Templates: []string{"A.prefab", "D.prefab"},
				Documents: []string{"x/B.unity", "C.unity"},
				Skipped:   []string{"a.txt", "A.prefab.meta"},
			},
		},
		{
			name:  "duplicates kept",
			input: []string{"A.prefab", "B.unity", "A.prefab"},
			want: Plan{
				Templates: []string{"A.prefab", "A.prefab"},
				Documents: []string{"B.unity"},
			},
		},
		{
			name:  "extension compare is exact",
			input: []string{"A.PREFAB", "B.Unity", "prefab"},
			want: Plan{
				Templates: []string{},
				Documents: []string{},
				Skipped:   []string{"A.PREFAB", "B.Unity", "prefab"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input, tplExts, docExts)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want.Templates)+len(tt.want.Documents), got.Total())
		})
	}
}

func TestExpandRootDirectory(t *testing.T) {
	root := fixtureTree(t)
	p := NewPlanner(PlannerConfig{})

	files, err := p.ExpandRoot(root)
	require.NoError(t, err)

	rel := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel[i] = filepath.ToSlash(r)
	}
	assert.Equal(t, []string{
		"Prefabs/A.prefab",
		"Prefabs/A.prefab.meta",
		"Prefabs/UI/Button.prefab",
		"Scenes/B.unity",
		"Scenes/C.unity",
		"Scenes/notes.txt",
	}, rel)
}

func TestExpandRootFileAndMissing(t *testing.T) {
	root := fixtureTree(t)
	p := NewPlanner(PlannerConfig{})

	file := filepath.Join(root, "Scenes", "B.unity")
	files, err := p.ExpandRoot(file)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)

	files, err = p.ExpandRoot(filepath.Join(root, "Nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExpandSelection(t *testing.T) {
	root := fixtureTree(t)
	a := filepath.Join(root, "Prefabs", "A.prefab")
	idx := asset.NewIndex([]asset.IndexEntry{{GUID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Path: a}})
	p := NewPlanner(PlannerConfig{Index: idx})

	files, err := p.ExpandSelection([]string{
		filepath.Join(root, "Scenes"),
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		filepath.Join(root, "Prefabs", "**", "*.prefab"),
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		"",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "Scenes", "B.unity"),
		filepath.Join(root, "Scenes", "C.unity"),
		filepath.Join(root, "Scenes", "notes.txt"),
		a,
		a,
		filepath.Join(root, "Prefabs", "UI", "Button.prefab"),
	}, files)
}

func TestExpandSelectionBadPattern(t *testing.T) {
	p := NewPlanner(PlannerConfig{})
	_, err := p.ExpandSelection([]string{"Assets/[unclosed"})
	assert.Error(t, err)
}

func TestPlanRoot(t *testing.T) {
	root := fixtureTree(t)
	p := NewPlanner(PlannerConfig{Root: root, TemplateExtensions: tplExts, DocumentExtensions: docExts})

	plan, err := p.PlanRoot()
	require.NoError(t, err)
	assert.Len(t, plan.Templates, 2)
	assert.Len(t, plan.Documents, 2)
	assert.Len(t, plan.Skipped, 2)
	assert.False(t, plan.Empty())
}

func TestPlannerIgnore(t *testing.T) {
	root := fixtureTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".autocheckignore"), []byte("UI/\n*.txt\n"), 0o644))

	p := NewPlanner(PlannerConfig{
		Root:               root,
		TemplateExtensions: tplExts,
		DocumentExtensions: docExts,
		UseIgnore:          true,
		IgnoreRoot:         root,
	})
	plan, err := p.PlanRoot()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Prefabs", "A.prefab")}, plan.Templates)
	assert.Len(t, plan.Documents, 2)
	assert.Contains(t, plan.Skipped, filepath.Join(root, "Prefabs", "A.prefab.meta"))
	assert.NotContains(t, plan.Skipped, filepath.Join(root, "Scenes", "notes.txt"))
}

func TestRecordingProgress(t *testing.T) {
	var rec RecordingProgress
	var p Progress = &rec
	p.Report("Checking templates", 0, 2, "A.prefab")
	p.Report("Checking templates", 1, 2, "D.prefab")
	p.Clear()

	require.Len(t, rec.Events, 2)
	assert.Equal(t, ProgressEvent{Stage: "Checking templates", Current: 1, Total: 2, Path: "D.prefab"}, rec.Events[1])
	assert.Equal(t, 1, rec.Cleared)

	// Must not panic without an initialized logger.
	lp := &LogProgress{}
	lp.Report("Checking documents", 0, 1, "B.unity")
	lp.Clear()
	NopProgress{}.Report("x", 0, 0, "")
}
