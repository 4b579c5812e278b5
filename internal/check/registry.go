// Package check finds behaviors that opt into auto-fixing and runs them.
package check

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fulmenhq/autocheck/internal/asset"
)

// ErrMissingCompanion is returned by a Checkable whose required sibling
// behavior is absent. The visitor logs it and moves on.
var ErrMissingCompanion = errors.New("missing companion behavior")

// Checkable is the self-fix capability. Check must be idempotent: a second
// call on an already fixed behavior changes nothing. It must not open or
// close documents.
type Checkable interface {
	Check() error
}

// Factory binds a Checkable to a behavior instance.
type Factory func(b *asset.Behavior) Checkable

// TypeInfo declares a behavior type. Checkable types carry a factory.
type TypeInfo struct {
	Name        string
	Checkable   bool
	New         Factory
	Description string
}

// Registry records, per behavior type, whether it implements the
// checkable capability.
type Registry struct {
	mu    sync.RWMutex
	types map[string]TypeInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]TypeInfo)}
}

// Register adds a behavior type.
func (r *Registry) Register(info TypeInfo) error {
	if info.Name == "" {
		return fmt.Errorf("behavior type name is empty")
	}
	if info.Checkable && info.New == nil {
		return fmt.Errorf("checkable behavior type %s has no factory", info.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[info.Name]; exists {
		return fmt.Errorf("behavior type %s already registered", info.Name)
	}
	r.types[info.Name] = info
	return nil
}

// IsCheckable reports whether typ was registered as checkable. Unknown
// types are not checkable.
func (r *Registry) IsCheckable(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[typ].Checkable
}

// Checker returns the Checkable bound to b, if b's type is checkable.
func (r *Registry) Checker(b *asset.Behavior) (Checkable, bool) {
	r.mu.RLock()
	info, ok := r.types[b.Type]
	r.mu.RUnlock()
	if !ok || !info.Checkable {
		return nil, false
	}
	return info.New(b), true
}

// Types lists registered types sorted by name.
func (r *Registry) Types() []TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeInfo, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
