package derive

import (
	"context"
	"strings"

	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// MaterialSpec describes a material derived from a material instance.
type MaterialSpec struct {
	Name        string
	Parameters  []MaterialParameter
	Annotations ir.AnnotationBlock
}

// MaterialParameter lifts the argument at Path, a dot-separated list of
// argument names starting at the instance, into the parameter Name.
type MaterialParameter struct {
	Path           string
	Name           string
	EnforceUniform bool
	Annotations    ir.AnnotationBlock
}

// lifted is a resolved MaterialParameter.
type lifted struct {
	segments []string
	param    ir.Parameter
	native   *frontend.AnnotationBlock
}

// AddMaterial adds to b a material whose body is the instance prototype
// with the arguments at the requested paths replaced by new parameters. The
// current arguments become the parameters' defaults.
func (s *Synthesizer) AddMaterial(ctx context.Context, b *frontend.Builder, prototype ir.Tag, spec MaterialSpec) error {
	if !ir.IsIdentifier(spec.Name) {
		return ir.NewError(ir.CodeInvalidName, spec.Name, "not a valid definition name")
	}
	el, err := s.prototype(ctx, prototype)
	if err != nil {
		return err
	}
	if !el.Class.IsCall() {
		return ir.NewError(ir.CodeWrongPrototypeType, el.Name, "%s is a %s, not a material instance", prototype, el.Class)
	}
	call, err := element.DecodeCall(el.Payload)
	if err != nil {
		return ir.WrapError(ir.CodeUnspecified, el.Name, err, "decode prototype")
	}
	if !call.IsMaterial() {
		return ir.NewError(ir.CodeWrongPrototypeType, call.Definition, "instance returns %s, not material", call.ReturnType)
	}
	root := call.Expression()

	lifts := make([]lifted, 0, len(spec.Parameters))
	names := make(map[string]bool)
	for _, mp := range spec.Parameters {
		if !ir.IsIdentifier(mp.Name) {
			return ir.NewError(ir.CodeInvalidName, mp.Name, "not a valid parameter name")
		}
		if names[mp.Name] {
			return ir.NewError(ir.CodeUnspecified, mp.Name, "duplicate parameter name")
		}
		names[mp.Name] = true

		segs, err := splitPath(mp.Path)
		if err != nil {
			return err
		}
		for _, l := range lifts {
			if overlaps(l.segments, segs) {
				return ir.NewError(ir.CodeBadParameterPath, mp.Path,
					"overlaps %s", strings.Join(l.segments, "."))
			}
		}

		leaf, uniform, err := s.resolvePath(ctx, root, segs)
		if err != nil {
			return err
		}
		uniform = uniform || mp.EnforceUniform
		if uniform {
			ok, err := s.fe.IsUniform(ctx, leaf, nil)
			if err != nil {
				return ir.WrapError(ir.CodeUnspecified, mp.Path, err, "uniformity query")
			}
			if !ok {
				return ir.NewError(ir.CodeNonUniformArgument, mp.Path, "argument must be uniform but varies")
			}
		}

		var native *frontend.AnnotationBlock
		if mp.Annotations != nil {
			if native, err = s.conv.Convert(ctx, mp.Annotations); err != nil {
				return err
			}
		}
		def := leaf.Clone()
		lifts = append(lifts, lifted{
			segments: segs,
			param:    ir.Parameter{Name: mp.Name, Type: leaf.Type, Uniform: uniform, Default: &def},
			native:   native,
		})
	}

	native, err := s.conv.Convert(ctx, spec.Annotations)
	if err != nil {
		return err
	}

	body := root.Clone()
	params := make([]ir.Parameter, len(lifts))
	paramAnnotations := make([]*frontend.AnnotationBlock, len(lifts))
	blocks := []*frontend.AnnotationBlock{native}
	exprs := []ir.Expression{}
	for i, l := range lifts {
		replace(&body, l.segments, ir.ParamRef(l.param.Name, l.param.Type))
		params[i] = l.param
		paramAnnotations[i] = l.native
		blocks = append(blocks, l.native)
		exprs = append(exprs, *l.param.Default)
	}
	exprs = append(exprs, body)

	qualified := ir.QualifiedName(b.Name(), spec.Name, paramTypes(params))
	def := frontend.Definition{
		Def: ir.Definition{
			Name:       qualified,
			Simple:     spec.Name,
			Module:     b.Name(),
			Kind:       ir.KindMaterial,
			Parameters: params,
			ReturnType: ir.TypeMaterial,
			Body:       &body,
			Prototype:  call.Definition,
		},
		Annotations:      native,
		ParamAnnotations: paramAnnotations,
	}
	if err := add(b, def, importsOf(exprs, blocks...)); err != nil {
		return err
	}
	s.logger.Debug("material added",
		"module", b.Name(),
		"definition", qualified,
		"prototype", call.Definition,
		"parameters", len(params),
	)
	return nil
}

// resolvePath walks segs through the argument tree below root. It returns
// the expression found and whether any parameter slot on the way is
// declared uniform.
func (s *Synthesizer) resolvePath(ctx context.Context, root ir.Expression, segs []string) (ir.Expression, bool, error) {
	path := strings.Join(segs, ".")
	cur := root
	uniform := false
	for _, seg := range segs {
		if cur.Kind != ir.ExprCall {
			return ir.Expression{}, false, ir.NewError(ir.CodeBadParameterPath, path, "%s is not a call", seg)
		}
		def, err := s.definition(ctx, cur.Definition)
		if err != nil {
			return ir.Expression{}, false, ir.WrapError(ir.CodeBadParameterPath, path, err, "resolve "+cur.Definition)
		}
		i, ok := def.Param(seg)
		if !ok {
			return ir.Expression{}, false, ir.NewError(ir.CodeBadParameterPath, path, "%s has no parameter %s", cur.Definition, seg)
		}
		if def.Parameters[i].Uniform {
			uniform = true
		}
		next, ok := cur.Arg(seg)
		if !ok {
			return ir.Expression{}, false, ir.NewError(ir.CodeBadParameterPath, path, "no argument %s", seg)
		}
		cur = next
	}
	return cur, uniform, nil
}

func splitPath(path string) ([]string, error) {
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if !ir.IsIdentifier(seg) {
			return nil, ir.NewError(ir.CodeBadParameterPath, path, "malformed path")
		}
	}
	return segs, nil
}

// overlaps reports whether one path is a prefix of the other.
func overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// replace substitutes the argument at segs below e with repl.
func replace(e *ir.Expression, segs []string, repl ir.Expression) {
	for i := range e.Args {
		if e.Args[i].Name != segs[0] {
			continue
		}
		if len(segs) == 1 {
			e.Args[i].Expr = repl
		} else {
			replace(&e.Args[i].Expr, segs[1:], repl)
		}
		return
	}
}

func paramTypes(params []ir.Parameter) []ir.Type {
	out := make([]ir.Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}
