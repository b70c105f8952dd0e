package annotation

import (
	"context"

	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// Declarations resolves annotation declarations.
type Declarations interface {
	LookupAnnotation(ctx context.Context, qualified string) (frontend.AnnotationDecl, error)
}

// Converter turns store-form annotations into native ones.
type Converter struct {
	decls Declarations
}

// New returns a converter resolving declarations through decls.
func New(decls Declarations) *Converter {
	return &Converter{decls: decls}
}

// Convert validates block and returns its native form. Every annotation
// must take a single string parameter and be given one constant string
// argument. A nil block converts to an empty, non-nil native block.
func (c *Converter) Convert(ctx context.Context, block ir.AnnotationBlock) (*frontend.AnnotationBlock, error) {
	out := &frontend.AnnotationBlock{Annotations: make([]frontend.Annotation, 0, len(block))}
	for _, a := range block {
		if len(a.Args) != 1 || !a.Args[0].Expr.IsConstantString() {
			return nil, ir.NewError(ir.CodeBadAnnotationArgument, a.Name,
				"expected one constant string argument, got %d argument(s)", len(a.Args))
		}
		decl, err := c.decls.LookupAnnotation(ctx, a.Name)
		if err != nil {
			return nil, ir.WrapError(ir.CodeUnsupportedAnnotation, a.Name, err, "unknown annotation")
		}
		for _, p := range decl.Params {
			if p.Type.IsDeferredArray() {
				return nil, ir.NewError(ir.CodeUnsupportedAnnotation, a.Name,
					"parameter %s has deferred-size array type %s", p.Name, p.Type)
			}
		}
		if len(decl.Params) != 1 || decl.Params[0].Type != ir.TypeString {
			return nil, ir.NewError(ir.CodeBadAnnotationArgument, a.Name,
				"declaration does not take a single string parameter")
		}
		param := decl.Params[0].Name
		if arg := a.Args[0]; arg.Name != "" && arg.Name != param {
			return nil, ir.NewError(ir.CodeBadAnnotationArgument, a.Name,
				"argument %q does not match parameter %q", arg.Name, param)
		}
		out.Annotations = append(out.Annotations, frontend.Annotation{
			Decl: decl.Clone(),
			Args: []frontend.NativeArg{{Param: param, Value: a.Args[0].Expr.Value.Clone()}},
		})
	}
	return out, nil
}

// Import restores annotations taken from a stored record, such as the
// parameter annotations a variant inherits. Any number of constant
// arguments is accepted; unnamed arguments bind to parameters by
// position. A nil block stays nil.
func (c *Converter) Import(ctx context.Context, block ir.AnnotationBlock) (*frontend.AnnotationBlock, error) {
	if block == nil {
		return nil, nil
	}
	out := &frontend.AnnotationBlock{Annotations: make([]frontend.Annotation, 0, len(block))}
	for _, a := range block {
		decl, err := c.decls.LookupAnnotation(ctx, a.Name)
		if err != nil {
			return nil, ir.WrapError(ir.CodeUnsupportedAnnotation, a.Name, err, "unknown annotation")
		}
		if len(a.Args) > len(decl.Params) {
			return nil, ir.NewError(ir.CodeBadAnnotationArgument, a.Name,
				"%d arguments for %d parameters", len(a.Args), len(decl.Params))
		}
		args := make([]frontend.NativeArg, 0, len(a.Args))
		for i, arg := range a.Args {
			if arg.Expr.Kind != ir.ExprConstant || arg.Expr.Value == nil {
				return nil, ir.NewError(ir.CodeBadAnnotationArgument, a.Name,
					"argument %d is not a constant", i)
			}
			param := arg.Name
			if param == "" {
				param = decl.Params[i].Name
			}
			args = append(args, frontend.NativeArg{Param: param, Value: arg.Expr.Value.Clone()})
		}
		out.Annotations = append(out.Annotations, frontend.Annotation{Decl: decl.Clone(), Args: args})
	}
	return out, nil
}

// FromNative returns the store form of a native block. A nil block
// converts to nil; an empty one to an empty, non-nil block.
func FromNative(block *frontend.AnnotationBlock) ir.AnnotationBlock {
	if block == nil {
		return nil
	}
	out := make(ir.AnnotationBlock, 0, len(block.Annotations))
	for _, a := range block.Annotations {
		args := make([]ir.Argument, len(a.Args))
		for i, arg := range a.Args {
			args[i] = ir.Arg(arg.Param, ir.Const(arg.Value))
		}
		out = append(out, ir.Annotation{Name: a.Decl.Name, Args: args})
	}
	return out
}

// FromNativeParams converts parameter annotation blocks.
func FromNativeParams(blocks []*frontend.AnnotationBlock) []ir.AnnotationBlock {
	if blocks == nil {
		return nil
	}
	out := make([]ir.AnnotationBlock, len(blocks))
	for i, b := range blocks {
		out[i] = FromNative(b)
	}
	return out
}
