package ir

import (
	"strings"
)

// Type is an MDL type name as it appears in definition signatures, for
// example "float", "color", "texture_2d", "float[3]" or "float[]".
type Type string

// Builtin types.
const (
	TypeBool            Type = "bool"
	TypeInt             Type = "int"
	TypeFloat           Type = "float"
	TypeDouble          Type = "double"
	TypeString          Type = "string"
	TypeColor           Type = "color"
	TypeFloat2          Type = "float2"
	TypeFloat3          Type = "float3"
	TypeTexture2D       Type = "texture_2d"
	TypeTexture3D       Type = "texture_3d"
	TypeTextureCube     Type = "texture_cube"
	TypeTexturePtex     Type = "texture_ptex"
	TypeLightProfile    Type = "light_profile"
	TypeBSDFMeasurement Type = "bsdf_measurement"
	TypeMaterial        Type = "material"
)

// IsArray reports whether t is an array type, sized or deferred.
func (t Type) IsArray() bool {
	return strings.HasSuffix(string(t), "]") && strings.Contains(string(t), "[")
}

// IsDeferredArray reports whether t is an array whose size is fixed only
// at the use site, such as "string[]".
func (t Type) IsDeferredArray() bool {
	return strings.HasSuffix(string(t), "[]")
}

// Elem returns the element type of an array type, or t itself.
func (t Type) Elem() Type {
	i := strings.LastIndexByte(string(t), '[')
	if i < 0 || !t.IsArray() {
		return t
	}
	return t[:i]
}

// IsTexture reports whether t is one of the texture types.
func (t Type) IsTexture() bool {
	switch t {
	case TypeTexture2D, TypeTexture3D, TypeTextureCube, TypeTexturePtex:
		return true
	}
	return false
}

// ResourceKind returns the resource kind a value of type t refers to.
func (t Type) ResourceKind() (ResourceKind, bool) {
	switch {
	case t.IsTexture():
		return ResourceTexture, true
	case t == TypeLightProfile:
		return ResourceLightProfile, true
	case t == TypeBSDFMeasurement:
		return ResourceBSDFMeasurement, true
	}
	return "", false
}

// IsResource reports whether values of t refer to external resources.
func (t Type) IsResource() bool {
	_, ok := t.ResourceKind()
	return ok
}

// ResourceKind classifies resource entries.
type ResourceKind string

const (
	ResourceTexture         ResourceKind = "texture"
	ResourceLightProfile    ResourceKind = "light_profile"
	ResourceBSDFMeasurement ResourceKind = "bsdf_measurement"
)

// Class returns the element class of entries of kind k.
func (k ResourceKind) Class() ClassID {
	switch k {
	case ResourceLightProfile:
		return ClassLightProfile
	case ResourceBSDFMeasurement:
		return ClassBSDFMeasurement
	default:
		return ClassTexture
	}
}

// Valid reports whether k is a known kind.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceTexture, ResourceLightProfile, ResourceBSDFMeasurement:
		return true
	}
	return false
}

// Gamma is the gamma mode a texture is decoded with.
type Gamma string

const (
	GammaDefault Gamma = "default"
	GammaLinear  Gamma = "linear"
	GammaSRGB    Gamma = "srgb"
)

// Valid reports whether g is a known gamma mode. The empty gamma is valid
// and used by resources that have no gamma.
func (g Gamma) Valid() bool {
	switch g {
	case "", GammaDefault, GammaLinear, GammaSRGB:
		return true
	}
	return false
}

// ResourceRef is one resource reference of a compiled module. Textures that
// are used with several gamma modes get one variant per mode, in order of
// first use.
type ResourceRef struct {
	Kind   ResourceKind `json:"kind"`
	Type   Type         `json:"type"`
	Path   string       `json:"path"`
	Gammas []Gamma      `json:"gammas,omitempty"`
}

// Variants returns the gamma variants of r. Resources without gamma have a
// single variant with the empty gamma.
func (r ResourceRef) Variants() []Gamma {
	if len(r.Gammas) == 0 {
		return []Gamma{""}
	}
	return append([]Gamma(nil), r.Gammas...)
}

// Clone returns a deep copy of r.
func (r ResourceRef) Clone() ResourceRef {
	r.Gammas = append([]Gamma(nil), r.Gammas...)
	return r
}

// TypeDeclKind distinguishes user-declared types.
type TypeDeclKind string

const (
	TypeDeclStruct TypeDeclKind = "struct"
	TypeDeclEnum   TypeDeclKind = "enum"
)

// Field is a struct member.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// EnumMember is a named enum value.
type EnumMember struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// TypeDecl is a type declared by a module.
type TypeDecl struct {
	Name    string       `json:"name"`
	Kind    TypeDeclKind `json:"kind"`
	Fields  []Field      `json:"fields,omitempty"`
	Members []EnumMember `json:"members,omitempty"`
}

// Clone returns a deep copy of d.
func (d TypeDecl) Clone() TypeDecl {
	d.Fields = append([]Field(nil), d.Fields...)
	d.Members = append([]EnumMember(nil), d.Members...)
	return d
}

// Constant is a named constant declared by a module.
type Constant struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Clone returns a deep copy of c.
func (c Constant) Clone() Constant {
	c.Value = c.Value.Clone()
	return c
}
