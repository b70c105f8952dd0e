package compiler

import (
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// collectResources lists the resources a module refers to: constants
// first, then definitions in order, defaults before bodies. A texture used
// with several gamma modes is one reference with one variant per mode.
func collectResources(constants []ir.Constant, defs []frontend.Definition) []ir.ResourceRef {
	type key struct {
		kind ir.ResourceKind
		typ  ir.Type
		path string
	}
	index := make(map[key]int)
	var refs []ir.ResourceRef

	add := func(v ir.Value) {
		kind, _ := v.Type.ResourceKind()
		k := key{kind: kind, typ: v.Type, path: v.Text}
		i, ok := index[k]
		if !ok {
			i = len(refs)
			index[k] = i
			refs = append(refs, ir.ResourceRef{Kind: kind, Type: v.Type, Path: v.Text})
		}
		if kind != ir.ResourceTexture {
			return
		}
		for _, g := range refs[i].Gammas {
			if g == v.Gamma {
				return
			}
		}
		refs[i].Gammas = append(refs[i].Gammas, v.Gamma)
	}
	visit := func(e ir.Expression) bool {
		if e.Kind == ir.ExprConstant && e.Value != nil {
			e.Value.Resources(add)
		}
		return true
	}

	for _, c := range constants {
		c.Value.Resources(add)
	}
	for _, d := range defs {
		for _, p := range d.Def.Parameters {
			if p.Default != nil {
				p.Default.Walk(visit)
			}
		}
		if d.Def.Body != nil {
			d.Def.Body.Walk(visit)
		}
	}
	return refs
}
