package ascii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	assert.Equal(t, "", Box(nil))

	out := Box([]string{"autocheck", "changed: 2   "})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "┌────────────┐", lines[0])
	assert.Equal(t, "│ autocheck  │", lines[1])
	assert.Equal(t, "│ changed: 2 │", lines[2])
	assert.Equal(t, "└────────────┘", lines[3])
}

func TestBoxWideRunes(t *testing.T) {
	out := Box([]string{"シーン", "abc"})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.Equal(t, StringWidth(lines[0]), StringWidth(l), l)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Assets/Scenes/B.unity", 100, "Assets/Scenes/B.unity"},
		{"Assets/Scenes/B.unity", 10, "Assets/..."},
		{"Assets", 3, "Ass"},
		{"Assets", 0, ""},
		{"シーンファイル", 7, "シー..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.width), tt.in)
	}
}

func TestTruncateLeft(t *testing.T) {
	assert.Equal(t, "Assets/B.unity", TruncateLeft("Assets/B.unity", 20))
	assert.Equal(t, "...B.unity", TruncateLeft("Assets/Scenes/B.unity", 10))
	assert.Equal(t, "ity", TruncateLeft("B.unity", 3))
	assert.Equal(t, "", TruncateLeft("B.unity", 0))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "abcdef", PadRight("abcdef", 4))
	assert.Equal(t, "シ  ", PadRight("シ", 4))
}
