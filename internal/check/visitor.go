package check

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

// Failure is a checkable that could not apply its fix.
type Failure struct {
	Node     string `json:"node" yaml:"node" toml:"node"`
	Behavior string `json:"behavior" yaml:"behavior" toml:"behavior"`
	Error    string `json:"error" yaml:"error" toml:"error"`
}

// Result summarises one visitor pass.
type Result struct {
	Invoked  int       `json:"invoked" yaml:"invoked"`
	Changed  int       `json:"changed" yaml:"changed"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// HasChanges reports whether any invocation modified data.
func (r Result) HasChanges() bool { return r.Changed > 0 }

// Merge adds o into r.
func (r *Result) Merge(o Result) {
	r.Invoked += o.Invoked
	r.Changed += o.Changed
	r.Failures = append(r.Failures, o.Failures...)
}

// Visitor walks node trees and invokes every checkable behavior once.
// pipeline.Runner builds its visitor with WithDetachedLink, so templates
// and documents alike are checked through the link guard.
type Visitor struct {
	registry *Registry
	guard    Guard
	log      *logger.Logger
}

// VisitorOption configures a Visitor.
type VisitorOption func(*Visitor)

// WithGuards wraps every node visit in the given guards.
func WithGuards(guards ...Guard) VisitorOption {
	return func(v *Visitor) { v.guard = Chain(guards...) }
}

// WithLogger sets the logger used for per-invocation records.
func WithLogger(l *logger.Logger) VisitorOption {
	return func(v *Visitor) { v.log = l }
}

// NewVisitor returns a visitor with no guards unless WithGuards is given.
func NewVisitor(reg *Registry, opts ...VisitorOption) *Visitor {
	v := &Visitor{registry: reg, guard: Chain(), log: logger.With()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Visit checks root and its whole subtree. origin names the file the tree
// came from and is used for logging only. Missing companions are recorded
// as failures; any other checker error stops the pass.
func (v *Visitor) Visit(root *asset.Node, origin string) (Result, error) {
	var res Result
	err := root.Walk(func(n *asset.Node) error {
		return v.guard(n, func() error { return v.checkNode(n, origin, &res) })
	})
	return res, err
}

// VisitDocument checks every tree of a composite document.
func (v *Visitor) VisitDocument(doc *asset.Document, origin string) (Result, error) {
	var total Result
	for _, r := range doc.Roots() {
		res, err := v.Visit(r, origin)
		total.Merge(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (v *Visitor) checkNode(n *asset.Node, origin string, res *Result) error {
	for _, b := range n.Behaviors() {
		checker, ok := v.registry.Checker(b)
		if !ok {
			continue
		}

		v.log.Info("Check",
			logger.String("file", origin),
			logger.String("node", n.Name),
			logger.String("behavior", b.Type))

		before := n.Revision()
		res.Invoked++
		if err := checker.Check(); err != nil {
			if errors.Is(err, ErrMissingCompanion) {
				v.log.Error("Check skipped",
					logger.String("file", origin),
					logger.String("node", n.Path()),
					logger.String("behavior", b.Type),
					logger.Err(err))
				res.Failures = append(res.Failures, Failure{Node: n.Path(), Behavior: b.Type, Error: err.Error()})
				continue
			}
			return fmt.Errorf("check %s on %s in %s: %w", b.Type, n.Path(), origin, err)
		}

		if n.Revision() != before {
			res.Changed++
			v.log.Debug("Behavior data modified",
				logger.String("file", origin),
				logger.String("node", n.Path()),
				logger.String("behavior", b.Type))
		}
	}
	return nil
}
