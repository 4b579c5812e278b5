package check

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/autocheck/internal/asset"
)

// flagSetter sets "fixed" to true on its own behavior and counts calls.
type flagSetter struct {
	b     *asset.Behavior
	calls map[*asset.Behavior]int
}

func (f *flagSetter) Check() error {
	f.calls[f.b]++
	return f.b.Set("fixed", true)
}

type failing struct{ err error }

func (f failing) Check() error { return f.err }

func testRegistry(t *testing.T, calls map[*asset.Behavior]int) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(TypeInfo{
		Name:      "Setter",
		Checkable: true,
		New:       func(b *asset.Behavior) Checkable { return &flagSetter{b: b, calls: calls} },
	}))
	require.NoError(t, reg.Register(TypeInfo{Name: "Plain"}))
	return reg
}

func addBehavior(t *testing.T, n *asset.Node, typ string) *asset.Behavior {
	t.Helper()
	b, err := n.AddBehavior(typ, nil)
	require.NoError(t, err)
	return b
}

func TestRegistry(t *testing.T) {
	reg := testRegistry(t, map[*asset.Behavior]int{})

	assert.True(t, reg.IsCheckable("Setter"))
	assert.False(t, reg.IsCheckable("Plain"))
	assert.False(t, reg.IsCheckable("Unknown"))

	assert.Error(t, reg.Register(TypeInfo{Name: "Plain"}))
	assert.Error(t, reg.Register(TypeInfo{Name: ""}))
	assert.Error(t, reg.Register(TypeInfo{Name: "NoFactory", Checkable: true}))

	types := reg.Types()
	require.Len(t, types, 2)
	assert.Equal(t, "Plain", types[0].Name)
	assert.Equal(t, "Setter", types[1].Name)
}

func TestVisitInvokesEachCheckableOnce(t *testing.T) {
	calls := map[*asset.Behavior]int{}
	v := NewVisitor(testRegistry(t, calls))

	root := asset.NewNode("Root")
	rootSetter := addBehavior(t, root, "Setter")
	addBehavior(t, root, "Plain")
	child := root.AddChild(asset.NewNode("Child"))
	childSetter := addBehavior(t, child, "Setter")
	second := addBehavior(t, child, "Setter")
	grand := child.AddChild(asset.NewNode("Grand"))
	addBehavior(t, grand, "Plain")

	res, err := v.Visit(root, "A.prefab")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Invoked)
	assert.Equal(t, 3, res.Changed)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 1, calls[rootSetter])
	assert.Equal(t, 1, calls[childSetter])
	assert.Equal(t, 1, calls[second])
	assert.Len(t, calls, 3)
}

func TestVisitIsIdempotent(t *testing.T) {
	v := NewVisitor(testRegistry(t, map[*asset.Behavior]int{}))
	root := asset.NewNode("Root")
	addBehavior(t, root, "Setter")

	first, err := v.Visit(root, "A.prefab")
	require.NoError(t, err)
	assert.True(t, first.HasChanges())

	second, err := v.Visit(root, "A.prefab")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Invoked)
	assert.False(t, second.HasChanges())
}

func TestVisitNoCheckables(t *testing.T) {
	v := NewVisitor(testRegistry(t, map[*asset.Behavior]int{}))
	root := asset.NewNode("Root")
	addBehavior(t, root, "Plain")

	res, err := v.Visit(root, "A.prefab")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestVisitMissingCompanionContinues(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(TypeInfo{
		Name:      "Needy",
		Checkable: true,
		New: func(b *asset.Behavior) Checkable {
			return failing{err: fmt.Errorf("%w: cannot find Partner", ErrMissingCompanion)}
		},
	}))
	calls := map[*asset.Behavior]int{}
	require.NoError(t, reg.Register(TypeInfo{
		Name:      "Setter",
		Checkable: true,
		New:       func(b *asset.Behavior) Checkable { return &flagSetter{b: b, calls: calls} },
	}))
	v := NewVisitor(reg)

	root := asset.NewNode("Root")
	addBehavior(t, root, "Needy")
	child := root.AddChild(asset.NewNode("Child"))
	setter := addBehavior(t, child, "Setter")

	res, err := v.Visit(root, "A.prefab")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invoked)
	assert.Equal(t, 1, res.Changed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "Root", res.Failures[0].Node)
	assert.Equal(t, "Needy", res.Failures[0].Behavior)
	assert.Equal(t, 1, calls[setter])
}

func TestVisitOtherErrorStops(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	require.NoError(t, reg.Register(TypeInfo{
		Name:      "Broken",
		Checkable: true,
		New:       func(*asset.Behavior) Checkable { return failing{err: boom} },
	}))
	v := NewVisitor(reg)

	root := asset.NewNode("Root")
	addBehavior(t, root, "Broken")

	_, err := v.Visit(root, "A.prefab")
	assert.ErrorIs(t, err, boom)
}

func TestVisitLinkedInstanceWithoutGuardFails(t *testing.T) {
	v := NewVisitor(testRegistry(t, map[*asset.Behavior]int{}))

	root := asset.NewNode("Root")
	inst := root.AddChild(asset.NewNode("Instance"))
	require.NoError(t, inst.Connect(asset.TemplateLink{Template: "Assets/A.prefab"}))
	addBehavior(t, inst, "Setter")

	_, err := v.Visit(root, "B.unity")
	assert.ErrorIs(t, err, asset.ErrLinked)
}

func TestVisitDetachedLinkGuard(t *testing.T) {
	calls := map[*asset.Behavior]int{}
	v := NewVisitor(testRegistry(t, calls), WithGuards(WithDetachedLink))

	link := asset.TemplateLink{Template: "Assets/A.prefab", GUID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	doc := asset.NewDocument("Assets/B.unity")
	free := doc.AddRoot(asset.NewNode("Free"))
	freeSetter := addBehavior(t, free, "Setter")
	inst := doc.AddRoot(asset.NewNode("Instance"))
	require.NoError(t, inst.Connect(link))
	nested := inst.AddChild(asset.NewNode("Nested"))
	nestedSetter := addBehavior(t, nested, "Setter")

	res, err := v.VisitDocument(doc, doc.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invoked)
	assert.Equal(t, 2, res.Changed)
	assert.Equal(t, 1, calls[freeSetter])
	assert.Equal(t, 1, calls[nestedSetter])

	assert.Equal(t, &link, inst.Link())
	assert.Nil(t, nested.Link())
	fixed, _ := nestedSetter.Get("fixed")
	assert.Equal(t, true, fixed)
}

func TestVisitNestedInstances(t *testing.T) {
	calls := map[*asset.Behavior]int{}
	v := NewVisitor(testRegistry(t, calls), WithGuards(WithDetachedLink))

	outerLink := asset.TemplateLink{Template: "Assets/Outer.prefab"}
	innerLink := asset.TemplateLink{Template: "Assets/Inner.prefab"}
	outer := asset.NewNode("Outer")
	require.NoError(t, outer.Connect(outerLink))
	outerSetter := addBehavior(t, outer, "Setter")
	inner := outer.AddChild(asset.NewNode("Inner"))
	require.NoError(t, inner.Connect(innerLink))
	leaf := inner.AddChild(asset.NewNode("Leaf"))
	leafSetter := addBehavior(t, leaf, "Setter")

	res, err := v.Visit(outer, "A.prefab")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invoked)
	assert.Equal(t, 2, res.Changed)
	assert.Equal(t, 1, calls[outerSetter])
	assert.Equal(t, 1, calls[leafSetter])
	assert.Equal(t, &outerLink, outer.Link())
	assert.Equal(t, &innerLink, inner.Link())
}
