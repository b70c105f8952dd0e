package module

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

// Reader is the part of the store a record needs to resolve its
// definition names.
type Reader interface {
	Lookup(ctx context.Context, name string) (ir.Tag, ir.ClassID, error)
	Access(ctx context.Context, tag ir.Tag) (store.Element, error)
}

// Params holds the contents of a new record.
type Params struct {
	Name        string
	Filename    string
	APIFilename string
	Imports     []ir.Tag
	Types       []ir.TypeDecl
	Constants   []ir.Constant
	Annotations ir.AnnotationBlock
	Functions   []string
	Materials   []string
	Resources   [][]ir.Tag
	Compiled    *frontend.Module
}

// Record is a committed module. It has no mutators; getters return copies.
type Record struct {
	name        string
	filename    string
	apiFilename string
	imports     []ir.Tag
	types       []ir.TypeDecl
	constants   []ir.Constant
	annotations ir.AnnotationBlock
	functions   []string
	materials   []string
	resources   [][]ir.Tag
	compiled    *frontend.Module
}

// New returns a record holding copies of p.
func New(p Params) *Record {
	r := &Record{
		name:        p.Name,
		filename:    p.Filename,
		apiFilename: p.APIFilename,
		imports:     append([]ir.Tag{}, p.Imports...),
		types:       make([]ir.TypeDecl, 0, len(p.Types)),
		constants:   make([]ir.Constant, 0, len(p.Constants)),
		annotations: p.Annotations.Clone(),
		functions:   append([]string{}, p.Functions...),
		materials:   append([]string{}, p.Materials...),
		resources:   make([][]ir.Tag, len(p.Resources)),
		compiled:    p.Compiled,
	}
	if r.annotations == nil {
		r.annotations = ir.AnnotationBlock{}
	}
	for _, t := range p.Types {
		r.types = append(r.types, t.Clone())
	}
	for _, c := range p.Constants {
		r.constants = append(r.constants, c.Clone())
	}
	for i, slot := range p.Resources {
		r.resources[i] = append([]ir.Tag{}, slot...)
	}
	return r
}

// Name returns the fully-qualified module name.
func (r *Record) Name() string { return r.name }

// Filename returns the source file, "" for synthetic modules.
func (r *Record) Filename() string { return r.filename }

// APIFilename returns the archive name for archived modules.
func (r *Record) APIFilename() string { return r.apiFilename }

// ImportCount returns the number of imported modules.
func (r *Record) ImportCount() int { return len(r.imports) }

// Import returns the tag of the i-th import, or the null tag when i is
// out of range.
func (r *Record) Import(i int) ir.Tag {
	if i < 0 || i >= len(r.imports) {
		return ir.NullTag
	}
	return r.imports[i]
}

// Imports returns the import tags in order.
func (r *Record) Imports() []ir.Tag {
	return append([]ir.Tag{}, r.imports...)
}

// FunctionCount returns the number of exported functions.
func (r *Record) FunctionCount() int { return len(r.functions) }

// FunctionName returns the qualified name of the i-th function.
func (r *Record) FunctionName(i int) string {
	if i < 0 || i >= len(r.functions) {
		return ""
	}
	return r.functions[i]
}

// Function resolves the i-th function through st. The definition record
// may have been removed, in which case store.ErrNotFound is returned.
func (r *Record) Function(ctx context.Context, st Reader, i int) (ir.Tag, element.Definition, error) {
	if i < 0 || i >= len(r.functions) {
		return ir.NullTag, element.Definition{}, fmt.Errorf("function %d of %s: index out of range", i, r.name)
	}
	return resolveDefinition(ctx, st, r.functions[i])
}

// MaterialCount returns the number of exported materials.
func (r *Record) MaterialCount() int { return len(r.materials) }

// MaterialName returns the qualified name of the i-th material.
func (r *Record) MaterialName(i int) string {
	if i < 0 || i >= len(r.materials) {
		return ""
	}
	return r.materials[i]
}

// Material resolves the i-th material through st.
func (r *Record) Material(ctx context.Context, st Reader, i int) (ir.Tag, element.Definition, error) {
	if i < 0 || i >= len(r.materials) {
		return ir.NullTag, element.Definition{}, fmt.Errorf("material %d of %s: index out of range", i, r.name)
	}
	return resolveDefinition(ctx, st, r.materials[i])
}

func resolveDefinition(ctx context.Context, st Reader, name string) (ir.Tag, element.Definition, error) {
	tag, class, err := st.Lookup(ctx, name)
	if err != nil {
		return ir.NullTag, element.Definition{}, err
	}
	if !class.IsDefinition() {
		return ir.NullTag, element.Definition{}, fmt.Errorf("resolve %s: %s is a %s", name, tag, class)
	}
	el, err := st.Access(ctx, tag)
	if err != nil {
		return ir.NullTag, element.Definition{}, err
	}
	def, err := element.DecodeDefinition(el.Payload)
	if err != nil {
		return ir.NullTag, element.Definition{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	return tag, def, nil
}

// Types returns the declared types.
func (r *Record) Types() []ir.TypeDecl {
	out := make([]ir.TypeDecl, len(r.types))
	for i, t := range r.types {
		out[i] = t.Clone()
	}
	return out
}

// Constants returns the declared constants.
func (r *Record) Constants() []ir.Constant {
	out := make([]ir.Constant, len(r.constants))
	for i, c := range r.constants {
		out[i] = c.Clone()
	}
	return out
}

// Annotations returns the module annotations. The block is empty, never
// nil, when the module has none.
func (r *Record) Annotations() ir.AnnotationBlock {
	return r.annotations.Clone()
}

var standardModules = []string{"::std", "::anno", "::state", "::tex", "::df", "::math", "::limits", "::debug"}

// IsStandardModule reports whether the record holds a built-in module.
func (r *Record) IsStandardModule() bool {
	for _, m := range standardModules {
		if r.name == m || strings.HasPrefix(r.name, m+"::") {
			return true
		}
	}
	return false
}

// ResourceCount returns the number of resource slots.
func (r *Record) ResourceCount() int { return len(r.resources) }

// ResourceTag returns the tag of the first variant of slot i. It is the
// null tag when resolution failed or i is out of range.
func (r *Record) ResourceTag(i int) ir.Tag {
	if i < 0 || i >= len(r.resources) || len(r.resources[i]) == 0 {
		return ir.NullTag
	}
	return r.resources[i][0]
}

// ResourceTags returns the tags of every variant of slot i.
func (r *Record) ResourceTags(i int) []ir.Tag {
	if i < 0 || i >= len(r.resources) {
		return nil
	}
	return append([]ir.Tag{}, r.resources[i]...)
}

// ResourcePath returns the MDL file path of slot i. It needs the compiled
// module attached.
func (r *Record) ResourcePath(i int) (string, bool) {
	ref, ok := r.resourceRef(i)
	return ref.Path, ok
}

// ResourceType returns the type of slot i. It needs the compiled module
// attached.
func (r *Record) ResourceType(i int) (ir.Type, bool) {
	ref, ok := r.resourceRef(i)
	return ref.Type, ok
}

func (r *Record) resourceRef(i int) (ir.ResourceRef, bool) {
	if r.compiled == nil {
		return ir.ResourceRef{}, false
	}
	return r.compiled.Resource(i)
}

// Compiled returns the attached compiled module, nil after decoding until
// Attach is called.
func (r *Record) Compiled() *frontend.Module { return r.compiled }

// Attach returns a copy of r with m attached. m must be the module r was
// created from.
func (r *Record) Attach(m *frontend.Module) (*Record, error) {
	if m == nil {
		return nil, fmt.Errorf("attach %s: nil module", r.name)
	}
	if m.Name() != r.name {
		return nil, fmt.Errorf("attach %s: compiled module is %s", r.name, m.Name())
	}
	if m.ResourceCount() != len(r.resources) {
		return nil, fmt.Errorf("attach %s: %d resource slots, compiled module has %d",
			r.name, len(r.resources), m.ResourceCount())
	}
	for i, slot := range r.resources {
		ref, _ := m.Resource(i)
		if n := len(ref.Variants()); n != len(slot) {
			return nil, fmt.Errorf("attach %s: resource %d has %d variants, compiled module has %d",
				r.name, i, len(slot), n)
		}
	}
	dag := m.DAG()
	if !sameNames(r.functions, dag.Functions) || !sameNames(r.materials, dag.Materials) {
		return nil, fmt.Errorf("attach %s: compiled module defines different functions or materials", r.name)
	}
	out := r.clone()
	out.compiled = m
	return out, nil
}

func sameNames(names []string, defs []frontend.Definition) bool {
	if len(names) != len(defs) {
		return false
	}
	for i, d := range defs {
		if d.Def.Name != names[i] {
			return false
		}
	}
	return true
}

func (r *Record) clone() *Record {
	return New(Params{
		Name:        r.name,
		Filename:    r.filename,
		APIFilename: r.apiFilename,
		Imports:     r.imports,
		Types:       r.types,
		Constants:   r.constants,
		Annotations: r.annotations,
		Functions:   r.functions,
		Materials:   r.materials,
		Resources:   r.resources,
		Compiled:    r.compiled,
	})
}

// References returns every tag the record points at: imports first, then
// the valid resource tags slot by slot.
func (r *Record) References() []ir.Tag {
	refs := append([]ir.Tag{}, r.imports...)
	for _, slot := range r.resources {
		for _, tag := range slot {
			if tag.IsValid() {
				refs = append(refs, tag)
			}
		}
	}
	return refs
}
