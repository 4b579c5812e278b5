package check

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/autocheck/internal/asset"
)

// Guard wraps the visit of a single node.
type Guard func(n *asset.Node, fn func() error) error

// Chain composes guards; the first guard is outermost.
func Chain(guards ...Guard) Guard {
	return func(n *asset.Node, fn func() error) error {
		call := fn
		for i := len(guards) - 1; i >= 0; i-- {
			g, next := guards[i], call
			call = func() error { return g(n, next) }
		}
		return call()
	}
}

// WithDetachedLink runs fn with the template link governing n removed, so
// that fn may mutate the instance. When the instance is nested inside other
// instances, their links are removed as well, nearest first. Every link is
// reattached to the same instance root afterwards, outermost first,
// including when fn fails or panics. Nodes that are not part of an instance
// run fn directly.
func WithDetachedLink(n *asset.Node, fn func() error) (err error) {
	var roots []*asset.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Link() != nil {
			roots = append(roots, cur)
		}
	}
	if len(roots) == 0 {
		return fn()
	}

	detached := make([]asset.TemplateLink, 0, len(roots))
	defer func() {
		for i := len(detached) - 1; i >= 0; i-- {
			root, link := roots[i], detached[i]
			if cerr := root.Connect(link); cerr != nil {
				err = errors.Join(err, fmt.Errorf("relink %s to %s: %w", root.Path(), link.Template, cerr))
			}
		}
	}()

	for _, root := range roots {
		link, derr := root.Disconnect()
		if derr != nil {
			return derr
		}
		detached = append(detached, link)
	}

	return fn()
}
