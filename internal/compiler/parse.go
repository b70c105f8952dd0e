package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// sourceModule is a module source file after schema validation. Expressions
// stay as CUE values until the signatures of all definitions are known.
type sourceModule struct {
	imports     []string
	annotations []sourceAnnotation
	decls       []frontend.AnnotationDecl
	types       []ir.TypeDecl
	constants   []sourceConstant
	functions   []sourceDefinition
	materials   []sourceDefinition
}

type sourceAnnotation struct {
	name string
	args []cue.Value
	pos  token.Pos
}

type sourceConstant struct {
	name  string
	typ   ir.Type
	value cue.Value
	pos   token.Pos
}

type sourceParam struct {
	name        string
	typ         ir.Type
	uniform     bool
	def         cue.Value
	hasDefault  bool
	annotations []sourceAnnotation
	pos         token.Pos
}

type sourceDefinition struct {
	name        string
	kind        ir.DefinitionKind
	params      []sourceParam
	returns     ir.Type
	varying     bool
	annotations []sourceAnnotation
	body        cue.Value
	hasBody     bool
	pos         token.Pos
}

// field looks up a single label. Labels are quoted so keywords such as
// "type" are never parsed as syntax.
func field(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

func stringField(v cue.Value, name string) (string, error) {
	f := field(v, name)
	if !f.Exists() {
		return "", &CompileError{Code: ErrMissingDeclaration, Field: name, Message: "field is required", Pos: v.Pos()}
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Code: ErrSchemaViolation, Field: name, Message: err.Error(), Pos: f.Pos()}
	}
	return s, nil
}

func boolField(v cue.Value, name string) (bool, error) {
	f := field(v, name)
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, &CompileError{Code: ErrSchemaViolation, Field: name, Message: err.Error(), Pos: f.Pos()}
	}
	return b, nil
}

// eachItem calls fn for every element of the optional list field name.
func eachItem(v cue.Value, name string, fn func(cue.Value) error) error {
	f := field(v, name)
	if !f.Exists() {
		return nil
	}
	iter, err := f.List()
	if err != nil {
		return &CompileError{Code: ErrSchemaViolation, Field: name, Message: err.Error(), Pos: f.Pos()}
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// parseModule extracts the declarations of a validated module source.
func parseModule(v cue.Value) (*sourceModule, error) {
	src := &sourceModule{}

	err := eachItem(v, "imports", func(item cue.Value) error {
		s, err := item.String()
		if err != nil {
			return &CompileError{Code: ErrSchemaViolation, Field: "imports", Message: err.Error(), Pos: item.Pos()}
		}
		src.imports = append(src.imports, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if src.annotations, err = parseAnnotations(v); err != nil {
		return nil, err
	}

	err = eachItem(v, "annotation_decls", func(item cue.Value) error {
		decl, err := parseAnnotationDecl(item)
		if err != nil {
			return err
		}
		src.decls = append(src.decls, decl)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachItem(v, "types", func(item cue.Value) error {
		td, err := parseTypeDecl(item)
		if err != nil {
			return err
		}
		src.types = append(src.types, td)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachItem(v, "constants", func(item cue.Value) error {
		name, err := stringField(item, "name")
		if err != nil {
			return err
		}
		typ, err := stringField(item, "type")
		if err != nil {
			return err
		}
		src.constants = append(src.constants, sourceConstant{
			name:  name,
			typ:   ir.Type(typ),
			value: field(item, "value"),
			pos:   item.Pos(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachItem(v, "functions", func(item cue.Value) error {
		def, err := parseDefinition(item, ir.KindFunction)
		if err != nil {
			return err
		}
		src.functions = append(src.functions, def)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachItem(v, "materials", func(item cue.Value) error {
		def, err := parseDefinition(item, ir.KindMaterial)
		if err != nil {
			return err
		}
		src.materials = append(src.materials, def)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return src, nil
}

func parseAnnotations(v cue.Value) ([]sourceAnnotation, error) {
	var out []sourceAnnotation
	err := eachItem(v, "annotations", func(item cue.Value) error {
		name, err := stringField(item, "name")
		if err != nil {
			return err
		}
		sa := sourceAnnotation{name: name, pos: item.Pos()}
		err = eachItem(item, "args", func(arg cue.Value) error {
			sa.args = append(sa.args, arg)
			return nil
		})
		if err != nil {
			return err
		}
		out = append(out, sa)
		return nil
	})
	return out, err
}

func parseAnnotationDecl(v cue.Value) (frontend.AnnotationDecl, error) {
	var decl frontend.AnnotationDecl
	name, err := stringField(v, "name")
	if err != nil {
		return decl, err
	}
	decl.Name = name
	err = eachItem(v, "params", func(item cue.Value) error {
		pname, err := stringField(item, "name")
		if err != nil {
			return err
		}
		ptype, err := stringField(item, "type")
		if err != nil {
			return err
		}
		decl.Params = append(decl.Params, ir.Parameter{Name: pname, Type: ir.Type(ptype)})
		return nil
	})
	return decl, err
}

func parseTypeDecl(v cue.Value) (ir.TypeDecl, error) {
	var td ir.TypeDecl
	name, err := stringField(v, "name")
	if err != nil {
		return td, err
	}
	kind, err := stringField(v, "kind")
	if err != nil {
		return td, err
	}
	td.Name = name
	td.Kind = ir.TypeDeclKind(kind)

	err = eachItem(v, "fields", func(item cue.Value) error {
		fname, err := stringField(item, "name")
		if err != nil {
			return err
		}
		ftype, err := stringField(item, "type")
		if err != nil {
			return err
		}
		td.Fields = append(td.Fields, ir.Field{Name: fname, Type: ir.Type(ftype)})
		return nil
	})
	if err != nil {
		return td, err
	}

	err = eachItem(v, "members", func(item cue.Value) error {
		mname, err := stringField(item, "name")
		if err != nil {
			return err
		}
		value, err := field(item, "value").Int64()
		if err != nil {
			return &CompileError{Code: ErrSchemaViolation, Field: "members", Message: err.Error(), Pos: item.Pos()}
		}
		td.Members = append(td.Members, ir.EnumMember{Name: mname, Value: value})
		return nil
	})
	return td, err
}

func parseDefinition(v cue.Value, kind ir.DefinitionKind) (sourceDefinition, error) {
	def := sourceDefinition{kind: kind, pos: v.Pos()}

	name, err := stringField(v, "name")
	if err != nil {
		return def, err
	}
	def.name = name

	switch kind {
	case ir.KindMaterial:
		def.returns = ir.TypeMaterial
		if field(v, "returns").Exists() {
			return def, &CompileError{Code: ErrSchemaViolation, Field: name, Message: "materials have no return type", Pos: v.Pos()}
		}
	default:
		returns, err := stringField(v, "returns")
		if err != nil {
			return def, err
		}
		def.returns = ir.Type(returns)
	}

	if def.varying, err = boolField(v, "varying"); err != nil {
		return def, err
	}
	if def.annotations, err = parseAnnotations(v); err != nil {
		return def, err
	}

	err = eachItem(v, "params", func(item cue.Value) error {
		p, err := parseParam(item)
		if err != nil {
			return err
		}
		def.params = append(def.params, p)
		return nil
	})
	if err != nil {
		return def, err
	}

	if body := field(v, "body"); body.Exists() {
		def.body = body
		def.hasBody = true
	}
	return def, nil
}

func parseParam(v cue.Value) (sourceParam, error) {
	p := sourceParam{pos: v.Pos()}
	name, err := stringField(v, "name")
	if err != nil {
		return p, err
	}
	typ, err := stringField(v, "type")
	if err != nil {
		return p, err
	}
	p.name = name
	p.typ = ir.Type(typ)
	if p.uniform, err = boolField(v, "uniform"); err != nil {
		return p, err
	}
	if d := field(v, "default"); d.Exists() {
		p.def = d
		p.hasDefault = true
	}
	p.annotations, err = parseAnnotations(v)
	return p, err
}
