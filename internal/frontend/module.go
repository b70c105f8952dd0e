package frontend

import "github.com/roach88/shadestore/internal/ir"

// Definition is a function or material definition together with its native
// annotations. ParamAnnotations is parallel to Def.Parameters; entries may
// be nil.
type Definition struct {
	Def              ir.Definition
	Annotations      *AnnotationBlock
	ParamAnnotations []*AnnotationBlock
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	d.Def = d.Def.Clone()
	d.Annotations = d.Annotations.Clone()
	if d.ParamAnnotations != nil {
		pa := make([]*AnnotationBlock, len(d.ParamAnnotations))
		for i, b := range d.ParamAnnotations {
			pa[i] = b.Clone()
		}
		d.ParamAnnotations = pa
	}
	return d
}

// DAG is the dependency-ordered content of a compiled module. Functions and
// materials are ordered so that every definition follows the definitions
// of the same module it calls.
type DAG struct {
	Functions       []Definition
	Materials       []Definition
	Types           []ir.TypeDecl
	Constants       []ir.Constant
	Resources       []ir.ResourceRef
	Annotations     *AnnotationBlock
	AnnotationDecls []AnnotationDecl
}

// Clone returns a deep copy of d.
func (d DAG) Clone() DAG {
	out := DAG{Annotations: d.Annotations.Clone()}
	for _, f := range d.Functions {
		out.Functions = append(out.Functions, f.Clone())
	}
	for _, m := range d.Materials {
		out.Materials = append(out.Materials, m.Clone())
	}
	for _, t := range d.Types {
		out.Types = append(out.Types, t.Clone())
	}
	for _, c := range d.Constants {
		out.Constants = append(out.Constants, c.Clone())
	}
	for _, r := range d.Resources {
		out.Resources = append(out.Resources, r.Clone())
	}
	for _, a := range d.AnnotationDecls {
		out.AnnotationDecls = append(out.AnnotationDecls, a.Clone())
	}
	return out
}

// Definition returns the function or material named qualified.
func (d *DAG) Definition(qualified string) (Definition, bool) {
	for _, f := range d.Functions {
		if f.Def.Name == qualified {
			return f, true
		}
	}
	for _, m := range d.Materials {
		if m.Def.Name == qualified {
			return m, true
		}
	}
	return Definition{}, false
}

// Module is a compiled, immutable module. It has no mutators; accessors
// return copies.
type Module struct {
	name        string
	filename    string
	apiFilename string
	digest      string
	imports     []string
	dag         DAG
}

// ModuleInfo holds the identity of a compiled module.
type ModuleInfo struct {
	Name        string
	Filename    string
	APIFilename string
	Digest      string
	Imports     []string
}

// NewModule returns a compiled module holding copies of info and dag.
func NewModule(info ModuleInfo, dag DAG) *Module {
	return &Module{
		name:        info.Name,
		filename:    info.Filename,
		apiFilename: info.APIFilename,
		digest:      info.Digest,
		imports:     append([]string(nil), info.Imports...),
		dag:         dag.Clone(),
	}
}

// Name returns the fully-qualified module name.
func (m *Module) Name() string { return m.name }

// Filename returns the source file, or "" for synthetic modules.
func (m *Module) Filename() string { return m.filename }

// APIFilename returns the archive name for archived modules.
func (m *Module) APIFilename() string { return m.apiFilename }

// Digest identifies the source the module was compiled from.
func (m *Module) Digest() string { return m.digest }

// Imports returns the names of directly imported modules in order.
func (m *Module) Imports() []string {
	return append([]string(nil), m.imports...)
}

// DAG returns a copy of the module's content.
func (m *Module) DAG() DAG {
	return m.dag.Clone()
}

// ResourceCount returns the number of resource references.
func (m *Module) ResourceCount() int {
	return len(m.dag.Resources)
}

// Resource returns the i-th resource reference.
func (m *Module) Resource(i int) (ir.ResourceRef, bool) {
	if i < 0 || i >= len(m.dag.Resources) {
		return ir.ResourceRef{}, false
	}
	return m.dag.Resources[i].Clone(), true
}

// Definition returns a copy of the definition named qualified.
func (m *Module) Definition(qualified string) (Definition, bool) {
	d, ok := m.dag.Definition(qualified)
	if !ok {
		return Definition{}, false
	}
	return d.Clone(), true
}

// AnnotationDecl returns the annotation declared as qualified.
func (m *Module) AnnotationDecl(qualified string) (AnnotationDecl, bool) {
	for _, a := range m.dag.AnnotationDecls {
		if a.Name == qualified {
			return a.Clone(), true
		}
	}
	return AnnotationDecl{}, false
}
