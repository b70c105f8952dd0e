package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// unit compiles one module source against its already compiled imports.
type unit struct {
	name    string
	src     *sourceModule
	diag    *diagnostics
	imports map[string]*frontend.Module
	local   []ir.Definition
	decls   []frontend.AnnotationDecl
	types   map[string]ir.TypeDecl
}

func newUnit(name string, src *sourceModule, imports map[string]*frontend.Module, diag *diagnostics) *unit {
	u := &unit{
		name:    name,
		src:     src,
		diag:    diag,
		imports: imports,
		types:   make(map[string]ir.TypeDecl),
	}
	for _, d := range src.decls {
		d.Module = name
		d.Name = ir.QualifiedName(name, d.Name, paramTypes(d.Params))
		u.decls = append(u.decls, d)
	}
	return u
}

func paramTypes(params []ir.Parameter) []ir.Type {
	out := make([]ir.Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

// build produces the module content. Errors are reported through u.diag.
func (u *unit) build() frontend.DAG {
	var dag frontend.DAG
	dag.AnnotationDecls = u.decls

	seen := make(map[string]token.Pos)
	for _, td := range u.src.types {
		if _, dup := u.types[td.Name]; dup {
			u.diag.errorf(ErrDuplicateName, token.NoPos, td.Name, "type declared twice")
			continue
		}
		u.types[td.Name] = td
		dag.Types = append(dag.Types, td)
	}

	// Signatures first, so bodies can call definitions declared later.
	type pendingDef struct {
		src sourceDefinition
		sig ir.Definition
	}
	var pending []pendingDef
	all := append(append([]sourceDefinition(nil), u.src.functions...), u.src.materials...)
	for _, sd := range all {
		def := ir.Definition{
			Simple:     sd.name,
			Module:     u.name,
			Kind:       sd.kind,
			ReturnType: sd.returns,
			Varying:    sd.varying,
		}
		for _, sp := range sd.params {
			def.Parameters = append(def.Parameters, ir.Parameter{Name: sp.name, Type: sp.typ, Uniform: sp.uniform})
		}
		def.Name = ir.QualifiedName(u.name, sd.name, def.ParamTypes())
		if _, dup := seen[def.Name]; dup {
			u.diag.errorf(ErrDuplicateName, sd.pos, def.Name, "definition declared twice")
			continue
		}
		seen[def.Name] = sd.pos
		u.local = append(u.local, def)
		pending = append(pending, pendingDef{src: sd, sig: def})
	}

	for _, sc := range u.src.constants {
		v, err := u.literal(sc.value, sc.typ, "")
		if err != nil {
			u.diag.errorf(ErrBadLiteral, sc.pos, sc.name, "%v", err)
			continue
		}
		dag.Constants = append(dag.Constants, ir.Constant{Name: sc.name, Value: v})
	}

	dag.Annotations = u.annotationBlock(u.src.annotations)

	var defs []frontend.Definition
	for _, p := range pending {
		defs = append(defs, u.definition(p.src, p.sig))
	}

	ordered := u.order(defs)
	for _, d := range ordered {
		if d.Def.Kind == ir.KindMaterial {
			dag.Materials = append(dag.Materials, d)
		} else {
			dag.Functions = append(dag.Functions, d)
		}
	}
	dag.Resources = collectResources(dag.Constants, ordered)
	return dag
}

func (u *unit) definition(sd sourceDefinition, sig ir.Definition) frontend.Definition {
	def := sig.Clone()
	out := frontend.Definition{
		Annotations:      u.annotationBlock(sd.annotations),
		ParamAnnotations: make([]*frontend.AnnotationBlock, len(sd.params)),
	}
	for i, sp := range sd.params {
		if sp.hasDefault {
			if e, ok := u.expr(sp.def, sp.typ, nil); ok {
				def.Parameters[i].Default = &e
			}
		}
		out.ParamAnnotations[i] = u.annotationBlock(sp.annotations)
	}
	if sd.hasBody {
		if e, ok := u.expr(sd.body, sd.returns, def.Parameters); ok {
			def.Body = &e
		}
	}
	out.Def = def
	return out
}

func (u *unit) order(defs []frontend.Definition) []frontend.Definition {
	ordered, cycles := orderDefinitions(defs)
	for _, c := range cycles {
		u.diag.errorf(ErrRecursiveCall, token.NoPos, c[0], "recursive call cycle: %s", strings.Join(c, " → "))
	}
	return ordered
}

// annotationBlock resolves source annotations. The result is never nil.
func (u *unit) annotationBlock(src []sourceAnnotation) *frontend.AnnotationBlock {
	block := &frontend.AnnotationBlock{}
	for _, sa := range src {
		decl, ok := u.resolveAnnotation(sa)
		if !ok {
			continue
		}
		a := frontend.Annotation{Decl: decl}
		for i, argV := range sa.args {
			p := decl.Params[i]
			v, err := u.literal(argV, p.Type, "")
			if err != nil {
				u.diag.errorf(ErrBadLiteral, argV.Pos(), sa.name, "argument %s: %v", p.Name, err)
				continue
			}
			a.Args = append(a.Args, frontend.NativeArg{Param: p.Name, Value: v})
		}
		block.Annotations = append(block.Annotations, a)
	}
	return block
}

func (u *unit) resolveAnnotation(sa sourceAnnotation) (frontend.AnnotationDecl, bool) {
	module, simple := u.name, sa.name
	if strings.HasPrefix(sa.name, "::") {
		m, s, _, ok := ir.SplitQualified(sa.name)
		if !ok {
			u.diag.errorf(ErrUnknownAnnotation, sa.pos, sa.name, "malformed annotation name")
			return frontend.AnnotationDecl{}, false
		}
		module, simple = m, s
	}

	var candidates []frontend.AnnotationDecl
	if module == u.name {
		candidates = u.decls
	} else {
		imp, ok := u.imports[module]
		if !ok {
			u.diag.errorf(ErrNotImported, sa.pos, sa.name, "module %s is not imported", module)
			return frontend.AnnotationDecl{}, false
		}
		candidates = imp.DAG().AnnotationDecls
	}
	for _, d := range candidates {
		_, s, _, _ := ir.SplitQualified(d.Name)
		if s == simple && len(d.Params) == len(sa.args) {
			return d.Clone(), true
		}
	}
	u.diag.errorf(ErrUnknownAnnotation, sa.pos, sa.name, "no declaration takes %d argument(s)", len(sa.args))
	return frontend.AnnotationDecl{}, false
}

// expr compiles an expression. expected is the type the context requires,
// or "" when any type is accepted.
func (u *unit) expr(v cue.Value, expected ir.Type, params []ir.Parameter) (ir.Expression, bool) {
	if v.Kind() == cue.StructKind {
		if call := field(v, "call"); call.Exists() {
			return u.callExpr(v, call, expected, params)
		}
		if p := field(v, "param"); p.Exists() {
			name, err := p.String()
			if err != nil {
				u.diag.errorf(ErrSchemaViolation, p.Pos(), "param", "%v", err)
				return ir.Expression{}, false
			}
			for _, param := range params {
				if param.Name == name {
					if !assignable(expected, param.Type) {
						u.diag.errorf(ErrTypeMismatch, p.Pos(), name, "parameter has type %s, want %s", param.Type, expected)
						return ir.Expression{}, false
					}
					return ir.ParamRef(name, param.Type), true
				}
			}
			u.diag.errorf(ErrUnknownParameter, p.Pos(), name, "no such parameter")
			return ir.Expression{}, false
		}
		if val := field(v, "value"); val.Exists() {
			typ := expected
			if t := field(v, "type"); t.Exists() {
				s, err := t.String()
				if err != nil {
					u.diag.errorf(ErrSchemaViolation, t.Pos(), "type", "%v", err)
					return ir.Expression{}, false
				}
				if !assignable(expected, ir.Type(s)) {
					u.diag.errorf(ErrTypeMismatch, t.Pos(), "type", "constant has type %s, want %s", s, expected)
					return ir.Expression{}, false
				}
				typ = ir.Type(s)
			}
			var gamma ir.Gamma
			if g := field(v, "gamma"); g.Exists() {
				s, _ := g.String()
				gamma = ir.Gamma(s)
			}
			c, err := u.literal(val, typ, gamma)
			if err != nil {
				u.diag.errorf(ErrBadLiteral, val.Pos(), string(typ), "%v", err)
				return ir.Expression{}, false
			}
			return ir.Const(c), true
		}
		u.diag.errorf(ErrSchemaViolation, v.Pos(), "expression", "expected one of call, param or value")
		return ir.Expression{}, false
	}

	c, err := u.literal(v, expected, "")
	if err != nil {
		u.diag.errorf(ErrBadLiteral, v.Pos(), "expression", "%v", err)
		return ir.Expression{}, false
	}
	return ir.Const(c), true
}

func (u *unit) callExpr(v, call cue.Value, expected ir.Type, params []ir.Parameter) (ir.Expression, bool) {
	target, err := call.String()
	if err != nil {
		u.diag.errorf(ErrSchemaViolation, call.Pos(), "call", "%v", err)
		return ir.Expression{}, false
	}

	given := make(map[string]cue.Value)
	var names []string
	if args := field(v, "args"); args.Exists() {
		iter, err := args.Fields()
		if err != nil {
			u.diag.errorf(ErrSchemaViolation, args.Pos(), target, "%v", err)
			return ir.Expression{}, false
		}
		for iter.Next() {
			label := iter.Selector().Unquoted()
			given[label] = iter.Value()
			names = append(names, label)
		}
	}

	def, ok := u.resolveCall(target, names, call.Pos())
	if !ok {
		return ir.Expression{}, false
	}
	if !assignable(expected, def.ReturnType) {
		u.diag.errorf(ErrTypeMismatch, call.Pos(), target, "returns %s, want %s", def.ReturnType, expected)
		return ir.Expression{}, false
	}

	var args []ir.Argument
	ok = true
	for _, p := range def.Parameters {
		argV, present := given[p.Name]
		if !present {
			continue
		}
		e, good := u.expr(argV, p.Type, params)
		if !good {
			ok = false
			continue
		}
		args = append(args, ir.Arg(p.Name, e))
	}
	if !ok {
		return ir.Expression{}, false
	}
	return ir.Call(def.Name, def.ReturnType, args...), true
}

// resolveCall finds the definition a call refers to. Overloads are
// resolved by argument names: the first definition that has a parameter
// for every given argument wins.
func (u *unit) resolveCall(target string, argNames []string, pos token.Pos) (ir.Definition, bool) {
	module, simple := u.name, target
	exact := strings.Contains(target, "(")
	if strings.HasPrefix(target, "::") {
		m, s, _, ok := ir.SplitQualified(target)
		if !ok {
			u.diag.errorf(ErrUnknownDefinition, pos, target, "malformed definition name")
			return ir.Definition{}, false
		}
		module, simple = m, s
	}

	var candidates []ir.Definition
	if module == u.name {
		candidates = u.local
	} else {
		imp, ok := u.imports[module]
		if !ok {
			u.diag.errorf(ErrNotImported, pos, target, "module %s is not imported", module)
			return ir.Definition{}, false
		}
		dag := imp.DAG()
		for _, d := range dag.Functions {
			candidates = append(candidates, d.Def)
		}
		for _, d := range dag.Materials {
			candidates = append(candidates, d.Def)
		}
	}

	for _, d := range candidates {
		if exact {
			want := target
			if !strings.HasPrefix(target, "::") {
				want = u.name + "::" + target
			}
			if d.Name == want {
				return d, true
			}
			continue
		}
		if d.Simple != simple {
			continue
		}
		if hasParams(d, argNames) {
			return d, true
		}
	}
	if exact {
		u.diag.errorf(ErrUnknownDefinition, pos, target, "no such definition")
		return ir.Definition{}, false
	}
	for _, d := range candidates {
		if d.Simple == simple {
			for _, n := range argNames {
				if _, ok := d.Param(n); !ok {
					u.diag.errorf(ErrUnknownArgument, pos, target, "no parameter named %s", n)
					return ir.Definition{}, false
				}
			}
		}
	}
	u.diag.errorf(ErrUnknownDefinition, pos, target, "no such definition")
	return ir.Definition{}, false
}

func hasParams(d ir.Definition, names []string) bool {
	for _, n := range names {
		if _, ok := d.Param(n); !ok {
			return false
		}
	}
	return true
}

// assignable reports whether a value of type got may appear where want is
// expected. Deferred-size arrays accept any array of their element type.
func assignable(want, got ir.Type) bool {
	if want == "" || want == got {
		return true
	}
	return want.IsDeferredArray() && got.IsArray() && want.Elem() == got.Elem()
}

// literal converts a plain CUE value to a constant of type t.
func (u *unit) literal(v cue.Value, t ir.Type, gamma ir.Gamma) (ir.Value, error) {
	if t == "" {
		return ir.Value{}, fmt.Errorf("cannot infer the type of a literal; use {type: ..., value: ...}")
	}
	switch {
	case t == ir.TypeBool:
		b, err := v.Bool()
		return ir.BoolValue(b), err
	case t == ir.TypeInt:
		i, err := v.Int64()
		return ir.IntValue(i), err
	case t == ir.TypeFloat || t == ir.TypeDouble:
		f, err := v.Float64()
		return ir.Value{Type: t, Float: f}, err
	case t == ir.TypeString:
		s, err := v.String()
		return ir.StringValue(s), err
	case t == ir.TypeColor || t == ir.TypeFloat3 || t == ir.TypeFloat2:
		n := 3
		if t == ir.TypeFloat2 {
			n = 2
		}
		items, err := u.listLiteral(v, ir.TypeFloat)
		if err != nil {
			return ir.Value{}, err
		}
		if len(items) != n {
			return ir.Value{}, fmt.Errorf("%s needs %d components, got %d", t, n, len(items))
		}
		return ir.Value{Type: t, Items: items}, nil
	case t.IsTexture():
		if !gamma.Valid() {
			return ir.Value{}, fmt.Errorf("unknown gamma mode %q", gamma)
		}
		path, err := v.String()
		return ir.TextureValue(t, path, gamma), err
	case t == ir.TypeLightProfile:
		path, err := v.String()
		return ir.LightProfileValue(path), err
	case t == ir.TypeBSDFMeasurement:
		path, err := v.String()
		return ir.BSDFMeasurementValue(path), err
	case t.IsArray():
		items, err := u.listLiteral(v, t.Elem())
		if err != nil {
			return ir.Value{}, err
		}
		if !t.IsDeferredArray() {
			size := strings.TrimSuffix(string(t[strings.LastIndexByte(string(t), '[')+1:]), "]")
			if n, err := strconv.Atoi(size); err == nil && n != len(items) {
				return ir.Value{}, fmt.Errorf("%s needs %d elements, got %d", t, n, len(items))
			}
		}
		return ir.Value{Type: t, Items: items}, nil
	}

	if td, ok := u.lookupType(t); ok && td.Kind == ir.TypeDeclEnum {
		name, err := v.String()
		if err != nil {
			return ir.Value{}, err
		}
		for _, m := range td.Members {
			if m.Name == name {
				return ir.EnumValue(t, name, m.Value), nil
			}
		}
		return ir.Value{}, fmt.Errorf("enum %s has no member %s", t, name)
	}
	return ir.Value{}, fmt.Errorf("no literal form for type %s", t)
}

func (u *unit) listLiteral(v cue.Value, elem ir.Type) ([]ir.Value, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	items := []ir.Value{}
	for iter.Next() {
		item, err := u.literal(iter.Value(), elem, "")
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// lookupType finds a declared type by simple or qualified name.
func (u *unit) lookupType(t ir.Type) (ir.TypeDecl, bool) {
	name := string(t)
	if !strings.HasPrefix(name, "::") {
		td, ok := u.types[name]
		return td, ok
	}
	i := strings.LastIndex(name, "::")
	module, simple := name[:i], name[i+2:]
	if module == u.name {
		td, ok := u.types[simple]
		return td, ok
	}
	imp, ok := u.imports[module]
	if !ok {
		return ir.TypeDecl{}, false
	}
	for _, td := range imp.DAG().Types {
		if td.Name == simple {
			return td, true
		}
	}
	return ir.TypeDecl{}, false
}
