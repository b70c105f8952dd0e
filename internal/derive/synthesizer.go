package derive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/shadestore/internal/annotation"
	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

// Store is the part of the store prototypes are read from.
type Store interface {
	Lookup(ctx context.Context, name string) (ir.Tag, ir.ClassID, error)
	Access(ctx context.Context, tag ir.Tag) (store.Element, error)
}

// Queries is the part of the front-end the synthesizer consults.
type Queries interface {
	LookupDefinition(ctx context.Context, qualified string) (ir.Definition, error)
	LookupAnnotation(ctx context.Context, qualified string) (frontend.AnnotationDecl, error)
	IsUniform(ctx context.Context, expr ir.Expression, scope []ir.Parameter) (bool, error)
}

// Synthesizer adds derived definitions to builders. It is safe for
// concurrent use.
type Synthesizer struct {
	store  Store
	fe     Queries
	conv   *annotation.Converter
	logger *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = l
	}
}

// New returns a synthesizer reading prototypes from st.
func New(st Store, fe Queries, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store:  st,
		fe:     fe,
		conv:   annotation.New(fe),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is one derivation of a batch.
type Request interface {
	Apply(ctx context.Context, s *Synthesizer, b *frontend.Builder) error
}

// VariantRequest asks for AddVariant.
type VariantRequest struct {
	Prototype   ir.Tag
	Name        string
	Defaults    []ir.Argument
	Annotations ir.AnnotationBlock
}

// Apply adds the variant to b.
func (r VariantRequest) Apply(ctx context.Context, s *Synthesizer, b *frontend.Builder) error {
	return s.AddVariant(ctx, b, r.Prototype, r.Name, r.Defaults, r.Annotations)
}

// MaterialRequest asks for AddMaterial.
type MaterialRequest struct {
	Prototype ir.Tag
	Spec      MaterialSpec
}

// Apply adds the material to b.
func (r MaterialRequest) Apply(ctx context.Context, s *Synthesizer, b *frontend.Builder) error {
	return s.AddMaterial(ctx, b, r.Prototype, r.Spec)
}

// Apply runs reqs in order and stops at the first failure.
func (s *Synthesizer) Apply(ctx context.Context, b *frontend.Builder, reqs ...Request) error {
	for i, r := range reqs {
		if err := r.Apply(ctx, s, b); err != nil {
			return fmt.Errorf("request %d: %w", i, err)
		}
	}
	return nil
}

// prototype reads the element tag refers to. Missing elements are reported
// as a wrong prototype.
func (s *Synthesizer) prototype(ctx context.Context, tag ir.Tag) (store.Element, error) {
	el, err := s.store.Access(ctx, tag)
	if errors.Is(err, store.ErrNotFound) {
		return store.Element{}, ir.WrapError(ir.CodeWrongPrototypeType, tag.String(), err, "prototype does not exist")
	}
	if err != nil {
		return store.Element{}, ir.WrapError(ir.CodeUnspecified, tag.String(), err, "read prototype")
	}
	return el, nil
}

// definition resolves a qualified definition name, preferring the stored
// record over the front-end.
func (s *Synthesizer) definition(ctx context.Context, name string) (ir.Definition, error) {
	tag, class, err := s.store.Lookup(ctx, name)
	if err == nil && class.IsDefinition() {
		el, err := s.store.Access(ctx, tag)
		if err == nil {
			rec, err := element.DecodeDefinition(el.Payload)
			if err != nil {
				return ir.Definition{}, err
			}
			return rec.Def, nil
		}
	}
	return s.fe.LookupDefinition(ctx, name)
}

// add appends def and the imports it needs. A definition of the same name
// is a name collision; a sealed builder is unspecified.
func add(b *frontend.Builder, def frontend.Definition, imports []string) error {
	if b.Has(def.Def.Name) {
		return ir.NewError(ir.CodeNameCollision, def.Def.Name, "definition already added")
	}
	if err := b.AddDefinition(def); err != nil {
		switch {
		case errors.Is(err, frontend.ErrDuplicateDefinition):
			return ir.WrapError(ir.CodeNameCollision, def.Def.Name, err, "definition already added")
		default:
			return ir.WrapError(ir.CodeUnspecified, def.Def.Name, err, "add definition")
		}
	}
	for _, m := range imports {
		if err := b.AddImport(m); err != nil {
			return ir.WrapError(ir.CodeUnspecified, def.Def.Name, err, "add import")
		}
	}
	return nil
}

// importsOf returns the modules called from exprs, then the modules that
// declare the given annotations, without repeats.
func importsOf(exprs []ir.Expression, blocks ...*frontend.AnnotationBlock) []string {
	seen := make(map[string]bool)
	var out []string
	addModule := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, e := range exprs {
		e.Walk(func(n ir.Expression) bool {
			if n.Kind == ir.ExprCall {
				addModule(ir.ModuleOf(n.Definition))
			}
			return true
		})
	}
	for _, b := range blocks {
		for _, m := range b.Modules() {
			addModule(m)
		}
	}
	return out
}

func assignable(to, from ir.Type) bool {
	if to == from {
		return true
	}
	return to.IsDeferredArray() && from.IsArray() && to.Elem() == from.Elem()
}

func hasParamRef(e ir.Expression) bool {
	found := false
	e.Walk(func(n ir.Expression) bool {
		if n.Kind == ir.ExprParameter {
			found = true
		}
		return !found
	})
	return found
}
