package frontend

import "github.com/roach88/shadestore/internal/ir"

// AnnotationDecl declares an annotation. Name is qualified and carries the
// parameter signature, e.g. "::anno::description(string)".
type AnnotationDecl struct {
	Name   string         `json:"name"`
	Module string         `json:"module"`
	Params []ir.Parameter `json:"params"`
}

// Clone returns a deep copy of d.
func (d AnnotationDecl) Clone() AnnotationDecl {
	if d.Params != nil {
		params := make([]ir.Parameter, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Clone()
		}
		d.Params = params
	}
	return d
}

// NativeArg is a resolved annotation argument.
type NativeArg struct {
	Param string
	Value ir.Value
}

// Annotation is an annotation bound to its declaration with constant
// arguments.
type Annotation struct {
	Decl AnnotationDecl
	Args []NativeArg
}

// Clone returns a deep copy of a.
func (a Annotation) Clone() Annotation {
	a.Decl = a.Decl.Clone()
	if a.Args != nil {
		args := make([]NativeArg, len(a.Args))
		for i, arg := range a.Args {
			args[i] = NativeArg{Param: arg.Param, Value: arg.Value.Clone()}
		}
		a.Args = args
	}
	return a
}

// AnnotationBlock is an ordered list of native annotations. A nil
// *AnnotationBlock means "no block"; a non-nil block may be empty.
type AnnotationBlock struct {
	Annotations []Annotation
}

// Len returns the number of annotations; it is 0 for a nil block.
func (b *AnnotationBlock) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Annotations)
}

// Clone returns a deep copy of b. A nil block stays nil.
func (b *AnnotationBlock) Clone() *AnnotationBlock {
	if b == nil {
		return nil
	}
	out := &AnnotationBlock{Annotations: make([]Annotation, len(b.Annotations))}
	for i, a := range b.Annotations {
		out.Annotations[i] = a.Clone()
	}
	return out
}

// Modules returns the distinct modules that declare the block's
// annotations, in order of first use.
func (b *AnnotationBlock) Modules() []string {
	if b == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, a := range b.Annotations {
		if a.Decl.Module != "" && !seen[a.Decl.Module] {
			seen[a.Decl.Module] = true
			out = append(out, a.Decl.Module)
		}
	}
	return out
}
