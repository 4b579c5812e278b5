package asset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBehavior(t *testing.T, n *Node, typ string, fields map[string]any) *Behavior {
	t.Helper()
	b, err := n.AddBehavior(typ, fields)
	require.NoError(t, err)
	return b
}

func TestWalkOrder(t *testing.T) {
	root := NewNode("root")
	a := root.AddChild(NewNode("a"))
	a.AddChild(NewNode("a1"))
	root.AddChild(NewNode("b"))

	var seen []string
	require.NoError(t, root.Walk(func(n *Node) error {
		seen = append(seen, n.Path())
		return nil
	}))
	assert.Equal(t, []string{"root", "root/a", "root/a/a1", "root/b"}, seen)
}

func TestWalkStopsOnError(t *testing.T) {
	root := NewNode("root")
	root.AddChild(NewNode("a"))
	root.AddChild(NewNode("b"))

	stop := errors.New("stop")
	count := 0
	err := root.Walk(func(n *Node) error {
		count++
		if n.Name == "a" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestBehaviorSetTracksChanges(t *testing.T) {
	n := NewNode("Canvas")
	b := mustBehavior(t, n, "CanvasScaler", map[string]any{"reference_resolution": map[string]any{"x": 800, "y": 600}})

	require.NoError(t, b.Set("reference_resolution", map[string]any{"x": 800.0, "y": 600}))
	assert.False(t, b.Changed(), "int and float spellings of the same value are equal")

	require.NoError(t, b.Set("reference_resolution", map[string]any{"x": 1024, "y": 768}))
	assert.True(t, b.Changed())
	assert.True(t, n.Changed())

	n.ResetChanged()
	assert.False(t, b.Changed())
}

func TestBehaviorSetStruct(t *testing.T) {
	type vec struct {
		X float64 `mapstructure:"x"`
		Y float64 `mapstructure:"y"`
	}
	n := NewNode("Canvas")
	b := mustBehavior(t, n, "CanvasScaler", nil)

	require.NoError(t, b.Set("reference_resolution", vec{X: 1024, Y: 768}))
	v, ok := b.Get("reference_resolution")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1024.0, "y": 768.0}, v)

	var out struct {
		ReferenceResolution vec `mapstructure:"reference_resolution"`
	}
	require.NoError(t, b.Decode(&out))
	assert.Equal(t, vec{X: 1024, Y: 768}, out.ReferenceResolution)
}

func TestBehaviorSetUnsupportedValue(t *testing.T) {
	b := mustBehavior(t, NewNode("n"), "T", nil)
	err := b.Set("fn", func() {})
	assert.Error(t, err)
	assert.False(t, b.Changed())
}

func TestTemplateOrigin(t *testing.T) {
	root := NewNode("Canvas")
	button := root.AddChild(NewNode("Button"))
	label := button.AddChild(NewNode("Label"))
	require.NoError(t, button.Connect(TemplateLink{Template: "Assets/Button.prefab"}))

	link, instRoot := label.TemplateOrigin()
	require.NotNil(t, link)
	assert.Equal(t, "Assets/Button.prefab", link.Template)
	assert.Same(t, button, instRoot)

	link, instRoot = root.TemplateOrigin()
	assert.Nil(t, link)
	assert.Nil(t, instRoot)
}

func TestNestedInstanceOriginIsNearest(t *testing.T) {
	panel := NewNode("Panel")
	require.NoError(t, panel.Connect(TemplateLink{Template: "Assets/Panel.prefab"}))
	button := panel.AddChild(NewNode("Button"))
	require.NoError(t, button.Connect(TemplateLink{Template: "Assets/Button.prefab"}))

	link, r := button.TemplateOrigin()
	assert.Equal(t, "Assets/Button.prefab", link.Template)
	assert.Same(t, button, r)
}

func TestLinkedNodeRejectsMutation(t *testing.T) {
	button := NewNode("Button")
	img := mustBehavior(t, button, "Image", nil)
	require.NoError(t, button.Connect(TemplateLink{Template: "Assets/Button.prefab", GUID: "abc"}))

	err := img.Set("color", "blue")
	assert.ErrorIs(t, err, ErrLinked)
	assert.False(t, img.Changed())

	link, err := button.Disconnect()
	require.NoError(t, err)
	require.NoError(t, img.Set("color", "blue"))
	require.NoError(t, button.Connect(link))

	got, _ := img.Get("color")
	assert.Equal(t, "blue", got)
	assert.Equal(t, &TemplateLink{Template: "Assets/Button.prefab", GUID: "abc"}, button.Link())
}

func TestConnectDisconnectErrors(t *testing.T) {
	n := NewNode("n")
	_, err := n.Disconnect()
	assert.ErrorIs(t, err, ErrNotLinked)

	assert.Error(t, n.Connect(TemplateLink{}))
	require.NoError(t, n.Connect(TemplateLink{Template: "t.prefab"}))
	assert.ErrorIs(t, n.Connect(TemplateLink{Template: "t.prefab"}), ErrAlreadyLinked)
}

func TestLinkReturnsCopy(t *testing.T) {
	n := NewNode("n")
	require.NoError(t, n.Connect(TemplateLink{Template: "t.prefab"}))
	l := n.Link()
	l.Template = "other.prefab"
	assert.Equal(t, "t.prefab", n.Link().Template)
}

func TestCompanionLookup(t *testing.T) {
	n := NewNode("Canvas")
	scaler := mustBehavior(t, n, "CanvasScaler", nil)
	mustBehavior(t, n, "CanvasSetter", nil)

	assert.Same(t, scaler, n.Behavior("CanvasScaler"))
	assert.Nil(t, n.Behavior("Image"))
	assert.Same(t, n, scaler.Node())
}

func TestDocumentDirtyIsExplicit(t *testing.T) {
	doc := NewDocument("Assets/B.unity")
	root := doc.AddRoot(NewNode("Canvas"))
	b := mustBehavior(t, root, "CanvasScaler", nil)

	require.NoError(t, b.Set("ui_scale_mode", "ScaleWithScreenSize"))
	assert.True(t, doc.Changed())
	assert.False(t, doc.Dirty(), "node changes do not dirty the document by themselves")

	doc.MarkDirty()
	assert.True(t, doc.Dirty())
	doc.ClearDirty()
	assert.False(t, doc.Dirty())
	assert.False(t, doc.Changed())
}

func TestUntitledDocument(t *testing.T) {
	assert.True(t, NewDocument("").Untitled())
	assert.False(t, NewDocument("Assets/A.unity").Untitled())
}
