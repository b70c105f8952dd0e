package frontend

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrSealed is returned when a builder is modified after analysis.
	ErrSealed = errors.New("frontend: module already analyzed")

	// ErrDuplicateDefinition is returned when a builder already holds a
	// definition with the same qualified name.
	ErrDuplicateDefinition = errors.New("frontend: duplicate definition")
)

// Builder accumulates the definitions of a synthetic module. It is safe
// for concurrent use.
type Builder struct {
	mu      sync.Mutex
	name    string
	imports []string
	defs    []Definition
	sealed  bool
}

// NewBuilder returns an empty builder for the module name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Name returns the module name.
func (b *Builder) Name() string { return b.name }

// AddImport records a module import. Repeated imports and imports of the
// module itself are ignored.
func (b *Builder) AddImport(module string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return ErrSealed
	}
	if module == "" || module == b.name {
		return nil
	}
	for _, m := range b.imports {
		if m == module {
			return nil
		}
	}
	b.imports = append(b.imports, module)
	return nil
}

// AddDefinition appends a copy of def.
func (b *Builder) AddDefinition(def Definition) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return ErrSealed
	}
	for _, d := range b.defs {
		if d.Def.Name == def.Def.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.Def.Name)
		}
	}
	b.defs = append(b.defs, def.Clone())
	return nil
}

// Has reports whether a definition named qualified was added.
func (b *Builder) Has(qualified string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.defs {
		if d.Def.Name == qualified {
			return true
		}
	}
	return false
}

// Len returns the number of definitions added.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.defs)
}

// Sealed reports whether the builder was analyzed.
func (b *Builder) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// Seal freezes the builder and returns its content. Frontend
// implementations call it from Analyze; it fails with ErrSealed when
// called twice.
func (b *Builder) Seal() ([]string, []Definition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return nil, nil, ErrSealed
	}
	b.sealed = true
	defs := make([]Definition, len(b.defs))
	for i, d := range b.defs {
		defs[i] = d.Clone()
	}
	return append([]string(nil), b.imports...), defs, nil
}
