package resource

import (
	"fmt"

	"github.com/roach88/shadestore/internal/ir"
)

// Entry is a stored resource.
type Entry struct {
	Kind     ir.ResourceKind `json:"kind"`
	FilePath string          `json:"file_path"`
	Location string          `json:"location"`
	Gamma    ir.Gamma        `json:"gamma,omitempty"`
	Type     ir.Type         `json:"type"`
}

// Encode serializes e under its kind's class.
func (e Entry) Encode() ([]byte, error) {
	return ir.Encode(e.Kind.Class(), e)
}

// DecodeEntry deserializes a resource entry of any kind.
func DecodeEntry(payload []byte) (Entry, error) {
	class, err := ir.PeekClass(payload)
	if err != nil {
		return Entry{}, err
	}
	if !class.IsResource() {
		return Entry{}, fmt.Errorf("decode resource: got %s: %w", class, ir.ErrClassMismatch)
	}
	var e Entry
	if err := ir.Decode(payload, class, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Variant selects one decoded form of a resource.
type Variant struct {
	Gamma ir.Gamma
	Type  ir.Type
}

func (v Variant) fields() map[string]any {
	return map[string]any{"gamma": string(v.Gamma), "type": string(v.Type)}
}

// Key returns the resource index key of location in variant v.
func (v Variant) Key(location string) (string, error) {
	return ir.ResourceKey(location, v.fields())
}
