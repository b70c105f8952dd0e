package ir

import (
	"fmt"
	"strings"
)

// Annotation is an annotation in store form: the qualified name of its
// declaration, signature included, and its arguments.
type Annotation struct {
	Name string     `json:"name"`
	Args []Argument `json:"args"`
}

// NewAnnotation returns an annotation with copies of args.
func NewAnnotation(name string, args ...Argument) Annotation {
	return Annotation{Name: name, Args: CloneArgs(args)}
}

// Clone returns a deep copy of a.
func (a Annotation) Clone() Annotation {
	a.Args = CloneArgs(a.Args)
	return a
}

// AnnotationBlock is an ordered list of annotations.
type AnnotationBlock []Annotation

// Clone returns a deep copy of b. A nil block stays nil.
func (b AnnotationBlock) Clone() AnnotationBlock {
	if b == nil {
		return nil
	}
	out := make(AnnotationBlock, len(b))
	for i, a := range b {
		out[i] = a.Clone()
	}
	return out
}

// Format renders b the way it is shown in dumps.
func (b AnnotationBlock) Format() string {
	parts := make([]string, len(b))
	for i, a := range b {
		args := make([]string, len(a.Args))
		for j, arg := range a.Args {
			args[j] = arg.Expr.Format()
		}
		_, simple, _, _ := SplitQualified(a.Name)
		parts[i] = fmt.Sprintf("%s(%s)", simple, strings.Join(args, ", "))
	}
	return "[[ " + strings.Join(parts, ", ") + " ]]"
}
