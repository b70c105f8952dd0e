package cli

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shadestore/internal/ir"
)

// RequestFile is the YAML input of the derive command.
type RequestFile struct {
	// Instances are stored as calls before any derivation runs, so
	// materials can use them as prototypes by name.
	Instances []InstanceSpec `yaml:"instances,omitempty"`

	Variants  []VariantSpec  `yaml:"variants,omitempty"`
	Materials []MaterialSpec `yaml:"materials,omitempty"`

	// order lists "variants" and "materials" as they appear in the file.
	order []string
}

// InstanceSpec is a call of a stored definition.
type InstanceSpec struct {
	Name       string              `yaml:"name"`
	Definition string              `yaml:"definition"`
	Args       map[string]ExprSpec `yaml:"args,omitempty"`
}

// VariantSpec derives a variant of a stored definition.
type VariantSpec struct {
	Prototype   string              `yaml:"prototype"`
	Name        string              `yaml:"name"`
	Defaults    map[string]ExprSpec `yaml:"defaults,omitempty"`
	Annotations []AnnotationSpec    `yaml:"annotations,omitempty"`
}

// MaterialSpec derives a material from a stored material instance.
type MaterialSpec struct {
	Prototype   string           `yaml:"prototype"`
	Name        string           `yaml:"name"`
	Parameters  []ParameterSpec  `yaml:"parameters,omitempty"`
	Annotations []AnnotationSpec `yaml:"annotations,omitempty"`
}

// ParameterSpec lifts one argument of a material instance.
type ParameterSpec struct {
	Path        string           `yaml:"path"`
	Name        string           `yaml:"name"`
	Uniform     bool             `yaml:"uniform,omitempty"`
	Annotations []AnnotationSpec `yaml:"annotations,omitempty"`
}

// AnnotationSpec is an annotation with one string argument.
type AnnotationSpec struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// ExprSpec is a constant of a given type, or a call when Call is set.
type ExprSpec struct {
	Type  string              `yaml:"type"`
	Value any                 `yaml:"value,omitempty"`
	Gamma string              `yaml:"gamma,omitempty"`
	Call  string              `yaml:"call,omitempty"`
	Args  map[string]ExprSpec `yaml:"args,omitempty"`
}

// LoadRequestFile reads and validates a request file. Unknown fields are
// rejected.
func LoadRequestFile(path string) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var rf RequestFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(root.Content) == 1 && root.Content[0].Kind == yaml.MappingNode {
		keys := root.Content[0].Content
		for i := 0; i < len(keys); i += 2 {
			if k := keys[i].Value; k == "variants" || k == "materials" {
				rf.order = append(rf.order, k)
			}
		}
	}

	if err := validateRequestFile(&rf); err != nil {
		return nil, fmt.Errorf("invalid request file: %w", err)
	}
	return &rf, nil
}

func validateRequestFile(rf *RequestFile) error {
	if len(rf.Variants) == 0 && len(rf.Materials) == 0 {
		return fmt.Errorf("no variants or materials")
	}
	for i, in := range rf.Instances {
		if in.Name == "" || in.Definition == "" {
			return fmt.Errorf("instances[%d]: name and definition are required", i)
		}
	}
	for i, v := range rf.Variants {
		if v.Prototype == "" || v.Name == "" {
			return fmt.Errorf("variants[%d]: prototype and name are required", i)
		}
	}
	for i, m := range rf.Materials {
		if m.Prototype == "" || m.Name == "" {
			return fmt.Errorf("materials[%d]: prototype and name are required", i)
		}
		for j, p := range m.Parameters {
			if p.Path == "" || p.Name == "" {
				return fmt.Errorf("materials[%d].parameters[%d]: path and name are required", i, j)
			}
		}
	}
	return nil
}

// Order returns "variants" and "materials" in file order.
func (rf *RequestFile) Order() []string {
	if len(rf.order) > 0 {
		return rf.order
	}
	return []string{"variants", "materials"}
}

// Arguments converts a map of expressions in parameter-name order.
func Arguments(specs map[string]ExprSpec) ([]ir.Argument, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	slices.Sort(names)

	args := make([]ir.Argument, 0, len(names))
	for _, name := range names {
		e, err := specs[name].Expression()
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		args = append(args, ir.Arg(name, e))
	}
	return args, nil
}

// Expression converts s.
func (s ExprSpec) Expression() (ir.Expression, error) {
	if s.Type == "" {
		return ir.Expression{}, fmt.Errorf("type is required")
	}
	t := ir.Type(s.Type)
	if s.Call != "" {
		args, err := Arguments(s.Args)
		if err != nil {
			return ir.Expression{}, err
		}
		return ir.Call(s.Call, t, args...), nil
	}
	v, err := constant(t, s.Value, ir.Gamma(s.Gamma))
	if err != nil {
		return ir.Expression{}, err
	}
	return ir.Const(v), nil
}

func constant(t ir.Type, raw any, gamma ir.Gamma) (ir.Value, error) {
	switch {
	case t == ir.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return ir.Value{}, fmt.Errorf("want bool, got %T", raw)
		}
		return ir.BoolValue(b), nil
	case t == ir.TypeInt:
		i, ok := raw.(int)
		if !ok {
			return ir.Value{}, fmt.Errorf("want int, got %T", raw)
		}
		return ir.IntValue(int64(i)), nil
	case t == ir.TypeFloat || t == ir.TypeDouble:
		f, err := number(raw)
		if err != nil {
			return ir.Value{}, err
		}
		v := ir.FloatValue(f)
		v.Type = t
		return v, nil
	case t == ir.TypeString:
		s, ok := raw.(string)
		if !ok {
			return ir.Value{}, fmt.Errorf("want string, got %T", raw)
		}
		return ir.StringValue(s), nil
	case t == ir.TypeColor || t == ir.TypeFloat3 || t == ir.TypeFloat2:
		want := 3
		if t == ir.TypeFloat2 {
			want = 2
		}
		list, ok := raw.([]any)
		if !ok || len(list) != want {
			return ir.Value{}, fmt.Errorf("want %d numbers for %s", want, t)
		}
		items := make([]ir.Value, want)
		for i, x := range list {
			f, err := number(x)
			if err != nil {
				return ir.Value{}, err
			}
			items[i] = ir.FloatValue(f)
		}
		return ir.Value{Type: t, Items: items}, nil
	case t.IsResource():
		path, ok := raw.(string)
		if !ok || !strings.HasPrefix(path, "/") {
			return ir.Value{}, fmt.Errorf("want an absolute resource path for %s", t)
		}
		switch t {
		case ir.TypeLightProfile:
			return ir.LightProfileValue(path), nil
		case ir.TypeBSDFMeasurement:
			return ir.BSDFMeasurementValue(path), nil
		}
		return ir.TextureValue(t, path, gamma), nil
	}
	return ir.Value{}, fmt.Errorf("unsupported constant type %s", t)
}

func number(raw any) (float64, error) {
	switch n := raw.(type) {
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("want number, got %T", raw)
}

// annotationBlock converts specs; nil stays nil.
func annotationBlock(specs []AnnotationSpec) ir.AnnotationBlock {
	if specs == nil {
		return nil
	}
	block := make(ir.AnnotationBlock, len(specs))
	for i, a := range specs {
		block[i] = ir.NewAnnotation(a.Name, ir.Arg("", ir.Const(ir.StringValue(a.Value))))
	}
	return block
}
