package asset

// Template is a standalone file holding one root node and its subtree.
type Template struct {
	Path string
	GUID string
	Root *Node

	dirty bool
}

func (t *Template) MarkDirty()  { t.dirty = true }
func (t *Template) Dirty() bool { return t.dirty }

// ClearDirty resets the dirty flag and the behavior change flags after a save.
func (t *Template) ClearDirty() {
	t.dirty = false
	if t.Root != nil {
		t.Root.ResetChanged()
	}
}

// Changed reports whether any behavior in the tree changed.
func (t *Template) Changed() bool {
	return t.Root != nil && t.Root.Changed()
}

// Document is an in-memory composite document (scene). Path is empty for a
// document that has never been saved.
//
// The dirty flag is independent from behavior change tracking: callers
// that mutate nodes must call MarkDirty for the document to be persisted.
type Document struct {
	Path string
	GUID string

	roots []*Node
	dirty bool
}

// NewDocument returns an empty document for path.
func NewDocument(path string) *Document {
	return &Document{Path: path}
}

// AddRoot appends a top-level node.
func (d *Document) AddRoot(n *Node) *Node {
	n.parent = nil
	d.roots = append(d.roots, n)
	return n
}

func (d *Document) Roots() []*Node { return d.roots }

// Untitled reports whether the document has no backing path.
func (d *Document) Untitled() bool { return d.Path == "" }

func (d *Document) MarkDirty()  { d.dirty = true }
func (d *Document) Dirty() bool { return d.dirty }

// ClearDirty resets the dirty flag and the behavior change flags after a save.
func (d *Document) ClearDirty() {
	d.dirty = false
	for _, r := range d.roots {
		r.ResetChanged()
	}
}

// Walk visits every node reachable from the document roots.
func (d *Document) Walk(fn func(*Node) error) error {
	for _, r := range d.roots {
		if err := r.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Changed reports whether any behavior in the document changed.
func (d *Document) Changed() bool {
	for _, r := range d.roots {
		if r.Changed() {
			return true
		}
	}
	return false
}
