package ir

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefinitionKind distinguishes function and material definitions.
type DefinitionKind string

const (
	KindFunction DefinitionKind = "function"
	KindMaterial DefinitionKind = "material"
)

// Class returns the element class of definitions of kind k.
func (k DefinitionKind) Class() ClassID {
	if k == KindMaterial {
		return ClassMaterialDefinition
	}
	return ClassFunctionDefinition
}

// Parameter is a definition parameter. Uniform parameters must receive
// values that do not vary across the shaded surface.
type Parameter struct {
	Name    string      `json:"name"`
	Type    Type        `json:"type"`
	Uniform bool        `json:"uniform,omitempty"`
	Default *Expression `json:"default,omitempty"`
}

// Clone returns a deep copy of p.
func (p Parameter) Clone() Parameter {
	if p.Default != nil {
		d := p.Default.Clone()
		p.Default = &d
	}
	return p
}

// Definition is a function or material definition. Name is qualified and
// carries the parameter signature, e.g. "::base::diffuse(color,float)".
// Varying functions return values that change across the surface even for
// uniform arguments.
type Definition struct {
	Name       string         `json:"name"`
	Simple     string         `json:"simple"`
	Module     string         `json:"module"`
	Kind       DefinitionKind `json:"kind"`
	Parameters []Parameter    `json:"parameters"`
	ReturnType Type           `json:"return_type"`
	Varying    bool           `json:"varying,omitempty"`
	Body       *Expression    `json:"body,omitempty"`
	Prototype  string         `json:"prototype,omitempty"`
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	if d.Parameters != nil {
		params := make([]Parameter, len(d.Parameters))
		for i, p := range d.Parameters {
			params[i] = p.Clone()
		}
		d.Parameters = params
	}
	if d.Body != nil {
		b := d.Body.Clone()
		d.Body = &b
	}
	return d
}

// Param returns the index of the parameter named name.
func (d Definition) Param(name string) (int, bool) {
	for i, p := range d.Parameters {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ParamTypes returns the parameter types in order.
func (d Definition) ParamTypes() []Type {
	out := make([]Type, len(d.Parameters))
	for i, p := range d.Parameters {
		out[i] = p.Type
	}
	return out
}

var (
	moduleNameRe = regexp.MustCompile(`^(::[A-Za-z_][A-Za-z0-9_]*)+$`)
	identRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	elementRe    = regexp.MustCompile(`^(::)?[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// NormalizeName returns name in Unicode NFC.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// IsModuleName reports whether name is a fully-qualified module name such
// as "::base" or "::nvidia::core".
func IsModuleName(name string) bool {
	return moduleNameRe.MatchString(name)
}

// IsElementName reports whether name can name a stored call: an
// identifier, optionally scoped with "::" like a module name.
func IsElementName(name string) bool {
	return elementRe.MatchString(name)
}

// IsIdentifier reports whether s is a simple MDL identifier.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// QualifiedName builds "module::simple(t1,t2)".
func QualifiedName(module, simple string, params []Type) string {
	sig := make([]string, len(params))
	for i, t := range params {
		sig[i] = string(t)
	}
	return module + "::" + simple + "(" + strings.Join(sig, ",") + ")"
}

// SplitQualified splits a qualified definition or annotation name into its
// module, simple name and signature. The signature is empty when name has
// none.
func SplitQualified(name string) (module, simple, sig string, ok bool) {
	prefix := name
	if p := strings.IndexByte(name, '('); p >= 0 {
		if !strings.HasSuffix(name, ")") {
			return "", "", "", false
		}
		prefix = name[:p]
		sig = name[p+1 : len(name)-1]
	}
	i := strings.LastIndex(prefix, "::")
	if i <= 0 {
		return "", "", "", false
	}
	return prefix[:i], prefix[i+2:], sig, true
}

// ModuleOf returns the module part of a qualified name, or "" if name is
// not qualified.
func ModuleOf(name string) string {
	m, _, _, _ := SplitQualified(name)
	return m
}
