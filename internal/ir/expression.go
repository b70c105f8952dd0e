package ir

import (
	"fmt"
	"strings"
)

// ExprKind distinguishes expression nodes.
type ExprKind string

const (
	ExprConstant  ExprKind = "constant"
	ExprCall      ExprKind = "call"
	ExprParameter ExprKind = "parameter"
)

// Expression is a node of a definition body, a parameter default or a call
// argument. Call nodes name their callee by qualified definition name.
type Expression struct {
	Kind       ExprKind   `json:"kind"`
	Type       Type       `json:"type"`
	Value      *Value     `json:"value,omitempty"`
	Definition string     `json:"definition,omitempty"`
	Args       []Argument `json:"args,omitempty"`
	Parameter  string     `json:"parameter,omitempty"`
}

// Argument is a named expression.
type Argument struct {
	Name string     `json:"name"`
	Expr Expression `json:"expr"`
}

// Const returns a constant expression holding a copy of v.
func Const(v Value) Expression {
	c := v.Clone()
	return Expression{Kind: ExprConstant, Type: v.Type, Value: &c}
}

// Call returns a call of definition with the given return type.
func Call(definition string, ret Type, args ...Argument) Expression {
	return Expression{Kind: ExprCall, Type: ret, Definition: definition, Args: CloneArgs(args)}
}

// ParamRef returns a reference to the enclosing definition's parameter.
func ParamRef(name string, t Type) Expression {
	return Expression{Kind: ExprParameter, Type: t, Parameter: name}
}

// Arg pairs a name with an expression.
func Arg(name string, e Expression) Argument {
	return Argument{Name: name, Expr: e}
}

// Clone returns a deep copy of e.
func (e Expression) Clone() Expression {
	if e.Value != nil {
		v := e.Value.Clone()
		e.Value = &v
	}
	e.Args = CloneArgs(e.Args)
	return e
}

// CloneArgs deep copies an argument list.
func CloneArgs(args []Argument) []Argument {
	if args == nil {
		return nil
	}
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = Argument{Name: a.Name, Expr: a.Expr.Clone()}
	}
	return out
}

// Arg returns the call argument named name.
func (e Expression) Arg(name string) (Expression, bool) {
	for _, a := range e.Args {
		if a.Name == name {
			return a.Expr, true
		}
	}
	return Expression{}, false
}

// IsConstantString reports whether e is a constant of type string.
func (e Expression) IsConstantString() bool {
	return e.Kind == ExprConstant && e.Value != nil && e.Value.Type == TypeString
}

// Walk calls fn for e and its descendants in pre-order. Returning false
// from fn skips the node's children.
func (e Expression) Walk(fn func(Expression) bool) {
	if !fn(e) {
		return
	}
	for _, a := range e.Args {
		a.Expr.Walk(fn)
	}
}

// Format renders e the way it is shown in dumps.
func (e Expression) Format() string {
	switch e.Kind {
	case ExprConstant:
		if e.Value == nil {
			return "<nil>"
		}
		return e.Value.Format()
	case ExprParameter:
		return e.Parameter
	case ExprCall:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = fmt.Sprintf("%s: %s", a.Name, a.Expr.Format())
		}
		_, simple, _, _ := SplitQualified(e.Definition)
		return fmt.Sprintf("%s(%s)", simple, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("<%s>", e.Kind)
	}
}
