package runtime

import (
	"sort"
)

// Environment provides lexical scoping for runtime values. Lambdas hold a
// pointer to the environment they were created in, so a frame lives as long
// as the call that created it or any closure that captured it.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Snapshot returns a copy of the current scope's bindings.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Define inserts or overwrites a binding in the current scope only.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Lookup searches outward through the scope chain.
func (e *Environment) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get retrieves a binding, failing with UndefinedSymbol when no enclosing
// scope defines it.
func (e *Environment) Get(name string) (Value, error) {
	if v, ok := e.Lookup(name); ok {
		return v, nil
	}
	return nil, UndefinedSymbol(name)
}

// Keys returns the bindings of the current scope in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VisibleKeys returns every name reachable from this scope, sorted and
// without duplicates.
func (e *Environment) VisibleKeys() []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for env := e; env != nil; env = env.parent {
		for k := range env.values {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Extend creates a new child scope.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}
