package frontend

import (
	"context"
	"errors"
	"io"

	"github.com/roach88/shadestore/internal/ir"
)

// ErrNotFound is returned by lookups for unknown modules, definitions and
// annotation declarations.
var ErrNotFound = errors.New("frontend: not found")

// Frontend compiles modules and answers queries about compiled ones. All
// methods are safe for concurrent use.
type Frontend interface {
	// IsValidName reports whether name is a well-formed module name.
	IsValidName(name string) bool

	// ResolveAndCompile finds the module's source through the search
	// paths and compiles it. Diagnostics are returned even on failure.
	ResolveAndCompile(ctx context.Context, name string) (*Module, []ir.Message, error)

	// CompileFromText compiles src as the module name.
	CompileFromText(ctx context.Context, name string, src io.Reader) (*Module, []ir.Message, error)

	// NewEmptyModule returns a builder for a synthetic module.
	NewEmptyModule(name string) (*Builder, error)

	// Analyze seals b and turns it into a compiled module.
	Analyze(ctx context.Context, b *Builder) (*Module, []ir.Message, error)

	// Module returns a module from the cache.
	Module(name string) (*Module, bool)

	// Publish caches m as the module of its name, replacing any cached
	// one. Modules returned by CompileFromText and Analyze are not cached
	// until they are published.
	Publish(m *Module)

	// LookupDefinition resolves a qualified definition name.
	LookupDefinition(ctx context.Context, qualified string) (ir.Definition, error)

	// LookupAnnotation resolves a qualified annotation declaration name.
	LookupAnnotation(ctx context.Context, qualified string) (AnnotationDecl, error)

	// IsUniform reports whether expr is uniform. Parameter references are
	// resolved against scope.
	IsUniform(ctx context.Context, expr ir.Expression, scope []ir.Parameter) (bool, error)
}
