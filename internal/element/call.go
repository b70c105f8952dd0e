package element

import (
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// Call is a function call or material instance: a definition applied to
// a full argument list.
type Call struct {
	Definition    string            `json:"definition"`
	DefinitionTag ir.Tag            `json:"definition_tag"`
	Kind          ir.DefinitionKind `json:"kind"`
	ReturnType    ir.Type           `json:"return_type"`
	Args          []ir.Argument     `json:"args"`
}

// Class returns ClassMaterialInstance for calls of materials and
// ClassFunctionCall otherwise.
func (c Call) Class() ir.ClassID {
	if c.Kind == ir.KindMaterial {
		return ir.ClassMaterialInstance
	}
	return ir.ClassFunctionCall
}

// IsMaterial reports whether the call produces a material.
func (c Call) IsMaterial() bool {
	return c.ReturnType == ir.TypeMaterial
}

// Clone returns a deep copy of c.
func (c Call) Clone() Call {
	c.Args = ir.CloneArgs(c.Args)
	return c
}

// Expression returns the call as an expression tree.
func (c Call) Expression() ir.Expression {
	return ir.Call(c.Definition, c.ReturnType, c.Args...)
}

// Encode serializes c.
func (c Call) Encode() ([]byte, error) {
	return ir.Encode(c.Class(), c)
}

// References returns the definition tag.
func (c Call) References() []ir.Tag {
	return []ir.Tag{c.DefinitionTag}
}

// DecodeCall deserializes a function call or material instance record.
func DecodeCall(payload []byte) (Call, error) {
	class, err := ir.PeekClass(payload)
	if err != nil {
		return Call{}, err
	}
	if !class.IsCall() {
		return Call{}, fmt.Errorf("decode call: got %s: %w", class, ir.ErrClassMismatch)
	}
	var c Call
	if err := ir.Decode(payload, class, &c); err != nil {
		return Call{}, err
	}
	return c, nil
}
