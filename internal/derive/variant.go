package derive

import (
	"context"

	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// AddVariant adds a variant of the function or material definition
// prototype to b. The variant keeps the prototype's parameters and
// parameter annotations, replaces the defaults named in defaults, carries
// only the given annotations and forwards every argument to the prototype.
func (s *Synthesizer) AddVariant(ctx context.Context, b *frontend.Builder, prototype ir.Tag, name string, defaults []ir.Argument, annotations ir.AnnotationBlock) error {
	if !ir.IsIdentifier(name) {
		return ir.NewError(ir.CodeInvalidName, name, "not a valid definition name")
	}
	el, err := s.prototype(ctx, prototype)
	if err != nil {
		return err
	}
	if !el.Class.IsDefinition() {
		return ir.NewError(ir.CodeWrongPrototypeType, el.Name, "%s is a %s, not a definition", prototype, el.Class)
	}
	proto, err := element.DecodeDefinition(el.Payload)
	if err != nil {
		return ir.WrapError(ir.CodeUnspecified, el.Name, err, "decode prototype")
	}

	params := make([]ir.Parameter, len(proto.Def.Parameters))
	for i, p := range proto.Def.Parameters {
		params[i] = p.Clone()
	}
	exprs := make([]ir.Expression, 0, len(defaults))
	for _, d := range defaults {
		i, ok := proto.Def.Param(d.Name)
		if !ok {
			return ir.NewError(ir.CodeUnknownParameter, proto.Def.Name, "no parameter %q", d.Name)
		}
		if !assignable(params[i].Type, d.Expr.Type) {
			return ir.NewError(ir.CodeParameterTypeMismatch, proto.Def.Name,
				"default for %s has type %s, parameter has type %s", d.Name, d.Expr.Type, params[i].Type)
		}
		if hasParamRef(d.Expr) {
			return ir.NewError(ir.CodeUnspecified, proto.Def.Name, "default for %s refers to a parameter", d.Name)
		}
		expr := d.Expr.Clone()
		params[i].Default = &expr
		exprs = append(exprs, expr)
	}

	native, err := s.conv.Convert(ctx, annotations)
	if err != nil {
		return err
	}
	blocks := []*frontend.AnnotationBlock{native}
	paramAnnotations := make([]*frontend.AnnotationBlock, len(params))
	for i := range params {
		pa, err := s.conv.Import(ctx, proto.ParamAnnotation(i))
		if err != nil {
			return err
		}
		paramAnnotations[i] = pa
		blocks = append(blocks, pa)
	}

	args := make([]ir.Argument, len(params))
	for i, p := range params {
		args[i] = ir.Arg(p.Name, ir.ParamRef(p.Name, p.Type))
	}
	body := ir.Call(proto.Def.Name, proto.Def.ReturnType, args...)

	def := frontend.Definition{
		Def: ir.Definition{
			Name:       ir.QualifiedName(b.Name(), name, proto.Def.ParamTypes()),
			Simple:     name,
			Module:     b.Name(),
			Kind:       proto.Def.Kind,
			Parameters: params,
			ReturnType: proto.Def.ReturnType,
			Varying:    proto.Def.Varying,
			Body:       &body,
			Prototype:  proto.Def.Name,
		},
		Annotations:      native,
		ParamAnnotations: paramAnnotations,
	}
	if err := add(b, def, importsOf(append(exprs, body), blocks...)); err != nil {
		return err
	}
	s.logger.Debug("variant added",
		"module", b.Name(),
		"definition", def.Def.Name,
		"prototype", proto.Def.Name,
	)
	return nil
}
