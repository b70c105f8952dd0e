package element

import (
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// Definition is a function or material definition record. It is created
// together with its module and may be removed on its own afterwards.
type Definition struct {
	Module           ir.Tag               `json:"module"`
	ModuleName       string               `json:"module_name"`
	Def              ir.Definition        `json:"definition"`
	Annotations      ir.AnnotationBlock   `json:"annotations,omitempty"`
	ParamAnnotations []ir.AnnotationBlock `json:"param_annotations,omitempty"`
	Resources        []ir.Tag             `json:"resources,omitempty"`
}

// Class returns the record's class id.
func (d Definition) Class() ir.ClassID {
	return d.Def.Kind.Class()
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	d.Def = d.Def.Clone()
	d.Annotations = d.Annotations.Clone()
	if d.ParamAnnotations != nil {
		pa := make([]ir.AnnotationBlock, len(d.ParamAnnotations))
		for i, b := range d.ParamAnnotations {
			pa[i] = b.Clone()
		}
		d.ParamAnnotations = pa
	}
	d.Resources = append([]ir.Tag(nil), d.Resources...)
	return d
}

// ParamAnnotation returns the annotations of parameter i, nil if it has
// none.
func (d Definition) ParamAnnotation(i int) ir.AnnotationBlock {
	if i < 0 || i >= len(d.ParamAnnotations) {
		return nil
	}
	return d.ParamAnnotations[i].Clone()
}

// Encode serializes d.
func (d Definition) Encode() ([]byte, error) {
	return ir.Encode(d.Class(), d)
}

// References returns the module tag followed by the resources the
// definition embeds.
func (d Definition) References() []ir.Tag {
	refs := make([]ir.Tag, 0, 1+len(d.Resources))
	refs = append(refs, d.Module)
	return append(refs, d.Resources...)
}

// DecodeDefinition deserializes a function or material definition record.
func DecodeDefinition(payload []byte) (Definition, error) {
	class, err := ir.PeekClass(payload)
	if err != nil {
		return Definition{}, err
	}
	if class != ir.ClassFunctionDefinition && class != ir.ClassMaterialDefinition {
		return Definition{}, fmt.Errorf("decode definition: got %s: %w", class, ir.ErrClassMismatch)
	}
	var d Definition
	if err := ir.Decode(payload, class, &d); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// EmbeddedResources returns the resource values used by the defaults and
// the body of def, in order of appearance.
func EmbeddedResources(def ir.Definition) []ir.Value {
	var out []ir.Value
	visit := func(e ir.Expression) bool {
		if e.Kind == ir.ExprConstant && e.Value != nil {
			e.Value.Resources(func(v ir.Value) { out = append(out, v) })
		}
		return true
	}
	for _, p := range def.Parameters {
		if p.Default != nil {
			p.Default.Walk(visit)
		}
	}
	if def.Body != nil {
		def.Body.Walk(visit)
	}
	return out
}
