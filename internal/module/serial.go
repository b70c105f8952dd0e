package module

import (
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// wire is the persisted layout. Field order is the serialization order.
type wire struct {
	Name        string             `json:"name"`
	Filename    string             `json:"filename"`
	APIFilename string             `json:"api_filename"`
	Imports     []ir.Tag           `json:"imports"`
	Types       []ir.TypeDecl      `json:"types"`
	Constants   []ir.Constant      `json:"constants"`
	Annotations ir.AnnotationBlock `json:"annotations"`
	Functions   []string           `json:"functions"`
	Materials   []string           `json:"materials"`
	Resources   [][]ir.Tag         `json:"resources"`
}

// Encode serializes r with ir.ClassModule in front. The compiled module
// is not part of the payload.
func (r *Record) Encode() ([]byte, error) {
	return ir.Encode(ir.ClassModule, wire{
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
	})
}

// Decode deserializes a module record. Tags are read as values and not
// checked against the store.
func Decode(payload []byte) (*Record, error) {
	var w wire
	if err := ir.Decode(payload, ir.ClassModule, &w); err != nil {
		return nil, err
	}
	if w.Name == "" {
		return nil, fmt.Errorf("decode module: missing name")
	}
	return New(Params{
		Name:        w.Name,
		Filename:    w.Filename,
		APIFilename: w.APIFilename,
		Imports:     w.Imports,
		Types:       w.Types,
		Constants:   w.Constants,
		Annotations: w.Annotations,
		Functions:   w.Functions,
		Materials:   w.Materials,
		Resources:   w.Resources,
	}), nil
}

// Size returns the approximate number of bytes the record occupies.
func (r *Record) Size() int {
	const tagSize = 12
	n := len(r.name) + len(r.filename) + len(r.apiFilename)
	n += tagSize * len(r.imports)
	for _, t := range r.types {
		n += len(t.Name) + len(t.Kind)
		for _, f := range t.Fields {
			n += len(f.Name) + len(f.Type)
		}
		for _, m := range t.Members {
			n += len(m.Name) + 8
		}
	}
	for _, c := range r.constants {
		n += len(c.Name) + valueSize(c.Value)
	}
	for _, a := range r.annotations {
		n += len(a.Name)
		for _, arg := range a.Args {
			n += len(arg.Name) + exprSize(arg.Expr)
		}
	}
	for _, f := range r.functions {
		n += len(f)
	}
	for _, m := range r.materials {
		n += len(m)
	}
	for _, slot := range r.resources {
		n += tagSize * len(slot)
	}
	return n
}

func valueSize(v ir.Value) int {
	n := len(v.Type) + len(v.Text) + len(v.Gamma) + 8
	for _, item := range v.Items {
		n += valueSize(item)
	}
	return n
}

func exprSize(e ir.Expression) int {
	n := len(e.Type) + len(e.Definition) + len(e.Parameter)
	if e.Value != nil {
		n += valueSize(*e.Value)
	}
	for _, a := range e.Args {
		n += len(a.Name) + exprSize(a.Expr)
	}
	return n
}
