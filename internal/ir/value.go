package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a constant MDL value. Type decides which fields are meaningful:
//
//   - bool, int, float, double, string: Bool, Int, Float, Text
//   - color, float2, float3, arrays and structs: Items
//   - enums: Text is the member name, Int its value
//   - textures, light profiles, measurements: Text is the MDL file path,
//     Gamma the texture gamma mode
type Value struct {
	Type  Type    `json:"type"`
	Bool  bool    `json:"bool,omitempty"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Text  string  `json:"text,omitempty"`
	Gamma Gamma   `json:"gamma,omitempty"`
	Items []Value `json:"items,omitempty"`
}

// BoolValue returns a bool constant.
func BoolValue(b bool) Value { return Value{Type: TypeBool, Bool: b} }

// IntValue returns an int constant.
func IntValue(i int64) Value { return Value{Type: TypeInt, Int: i} }

// FloatValue returns a float constant.
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Float: f} }

// StringValue returns a string constant.
func StringValue(s string) Value { return Value{Type: TypeString, Text: s} }

// ColorValue returns a color constant.
func ColorValue(r, g, b float64) Value {
	return Value{Type: TypeColor, Items: []Value{FloatValue(r), FloatValue(g), FloatValue(b)}}
}

// EnumValue returns a member of the enum type t.
func EnumValue(t Type, name string, v int64) Value {
	return Value{Type: t, Text: name, Int: v}
}

// ArrayValue returns a sized array of elem.
func ArrayValue(elem Type, items ...Value) Value {
	t := Type(fmt.Sprintf("%s[%d]", elem, len(items)))
	return Value{Type: t, Items: cloneValues(items)}
}

// TextureValue returns a texture reference of shape t.
func TextureValue(t Type, path string, gamma Gamma) Value {
	if gamma == "" {
		gamma = GammaDefault
	}
	return Value{Type: t, Text: path, Gamma: gamma}
}

// LightProfileValue returns a light profile reference.
func LightProfileValue(path string) Value {
	return Value{Type: TypeLightProfile, Text: path}
}

// BSDFMeasurementValue returns a measured BSDF reference.
func BSDFMeasurementValue(path string) Value {
	return Value{Type: TypeBSDFMeasurement, Text: path}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	v.Items = cloneValues(v.Items)
	return v
}

func cloneValues(vs []Value) []Value {
	if vs == nil {
		return nil
	}
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = v.Clone()
	}
	return out
}

// Equal reports whether v and o are the same constant.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type || v.Bool != o.Bool || v.Int != o.Int || v.Float != o.Float ||
		v.Text != o.Text || v.Gamma != o.Gamma || len(v.Items) != len(o.Items) {
		return false
	}
	for i := range v.Items {
		if !v.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

// IsResource reports whether v refers to an external resource.
func (v Value) IsResource() bool {
	return v.Type.IsResource()
}

// Resources calls fn for v and every nested value that refers to a
// resource, in depth-first order.
func (v Value) Resources(fn func(Value)) {
	if v.IsResource() {
		fn(v)
		return
	}
	for _, item := range v.Items {
		item.Resources(fn)
	}
}

// Format renders v the way it is shown in dumps.
func (v Value) Format() string {
	switch {
	case v.Type == TypeBool:
		return strconv.FormatBool(v.Bool)
	case v.Type == TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case v.Type == TypeFloat || v.Type == TypeDouble:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case v.Type == TypeString:
		return strconv.Quote(v.Text)
	case v.Type.IsTexture():
		return fmt.Sprintf("%s(%q, %s)", v.Type, v.Text, v.Gamma)
	case v.IsResource():
		return fmt.Sprintf("%s(%q)", v.Type, v.Text)
	case len(v.Items) > 0:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.Format()
		}
		return fmt.Sprintf("%s(%s)", v.Type, strings.Join(parts, ", "))
	case v.Text != "":
		return fmt.Sprintf("%s::%s", v.Type, v.Text)
	default:
		return fmt.Sprintf("%s()", v.Type)
	}
}
