package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/module"
	"github.com/roach88/shadestore/internal/resource"
	"github.com/roach88/shadestore/internal/store"
)

// Module reads the stored record of the module name and attaches its
// compiled module when the front-end can provide it.
func (r *Registry) Module(ctx context.Context, name string) (*module.Record, ir.Tag, error) {
	name = ir.NormalizeName(name)
	tag, class, err := r.store.Lookup(ctx, name)
	if err != nil {
		return nil, ir.NullTag, err
	}
	if class != ir.ClassModule {
		return nil, ir.NullTag, fmt.Errorf("%s is a %s, not a module", name, class)
	}
	el, err := r.store.Access(ctx, tag)
	if err != nil {
		return nil, ir.NullTag, err
	}
	rec, err := module.Decode(el.Payload)
	if err != nil {
		return nil, ir.NullTag, err
	}
	if attached, err := r.Attach(ctx, rec); err == nil {
		rec = attached
	} else {
		r.logger.Debug("compiled module not attached", "module", name, "error", err)
	}
	return rec, tag, nil
}

// Attach returns rec with its compiled module from the front-end cache.
// Modules that are not cached are compiled from the search paths. The
// compiled module must describe the same definitions and resources as the
// record; its resource paths are checked against the stored entries.
func (r *Registry) Attach(ctx context.Context, rec *module.Record) (*module.Record, error) {
	m, ok := r.fe.Module(rec.Name())
	if !ok {
		var err error
		m, _, err = r.fe.ResolveAndCompile(ctx, rec.Name())
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", rec.Name(), err)
		}
	}
	if err := r.checkResources(ctx, rec, m); err != nil {
		return nil, fmt.Errorf("attach %s: %w", rec.Name(), err)
	}
	return rec.Attach(m)
}

// checkResources compares every stored entry in rec's resource table with
// the reference m has for that slot. Removed entries are skipped.
func (r *Registry) checkResources(ctx context.Context, rec *module.Record, m *frontend.Module) error {
	for i := range rec.ResourceCount() {
		ref, ok := m.Resource(i)
		if !ok {
			return nil
		}
		for _, tag := range rec.ResourceTags(i) {
			if !tag.IsValid() {
				continue
			}
			el, err := r.store.Access(ctx, tag)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			entry, err := resource.DecodeEntry(el.Payload)
			if err != nil {
				return err
			}
			if entry.FilePath != ref.Path || entry.Type != ref.Type {
				return fmt.Errorf("resource %d is %s %s in the store but %s %s in the compiled module",
					i, entry.Type, entry.FilePath, ref.Type, ref.Path)
			}
		}
	}
	return nil
}

// CreateCall stores a call of the definition record named definition.
// Arguments are matched to parameters by name; parameters without an
// argument take their default. A non-empty name makes the call
// addressable by name.
func (r *Registry) CreateCall(ctx context.Context, txn *store.Txn, name, definition string, args []ir.Argument) Outcome {
	name = ir.NormalizeName(name)
	definition = ir.NormalizeName(definition)
	if name != "" && !ir.IsElementName(name) {
		return r.fail(InvalidName, name, nil, nil, "invalid call name")
	}
	tag, class, err := r.store.Lookup(ctx, definition)
	if errors.Is(err, store.ErrNotFound) {
		return r.fail(WrongPrototypeType, definition, nil, err, "no such definition")
	}
	if err != nil {
		return r.fail(Unspecified, definition, nil, err, "lookup")
	}
	if !class.IsDefinition() {
		return r.fail(WrongPrototypeType, definition, nil, nil, "not a definition but a "+class.String())
	}
	el, err := r.store.Access(ctx, tag)
	if err != nil {
		return r.fail(Unspecified, definition, nil, err, "read definition")
	}
	def, err := element.DecodeDefinition(el.Payload)
	if err != nil {
		return r.fail(Unspecified, definition, nil, err, "decode definition")
	}

	given := make(map[string]ir.Expression, len(args))
	for _, a := range args {
		i, ok := def.Def.Param(a.Name)
		if !ok {
			return r.fail(UnknownParameter, definition, nil, nil, fmt.Sprintf("no parameter %q", a.Name))
		}
		if p := def.Def.Parameters[i]; p.Type != a.Expr.Type &&
			!(p.Type.IsDeferredArray() && a.Expr.Type.IsArray() && p.Type.Elem() == a.Expr.Type.Elem()) {
			return r.fail(ParameterTypeMismatch, definition, nil, nil,
				fmt.Sprintf("argument %s has type %s, parameter has type %s", a.Name, a.Expr.Type, p.Type))
		}
		given[a.Name] = a.Expr
	}
	full := make([]ir.Argument, 0, len(def.Def.Parameters))
	for _, p := range def.Def.Parameters {
		e, ok := given[p.Name]
		switch {
		case ok:
		case p.Default != nil:
			e = *p.Default
		default:
			return r.fail(Unspecified, definition, nil, nil, fmt.Sprintf("missing argument %s", p.Name))
		}
		var bad bool
		e.Walk(func(n ir.Expression) bool {
			bad = bad || n.Kind == ir.ExprParameter
			return !bad
		})
		if bad {
			return r.fail(Unspecified, definition, nil, nil, fmt.Sprintf("argument %s refers to a parameter", p.Name))
		}
		full = append(full, ir.Arg(p.Name, e))
	}

	call := element.Call{
		Definition:    def.Def.Name,
		DefinitionTag: tag,
		Kind:          def.Def.Kind,
		ReturnType:    def.Def.ReturnType,
		Args:          full,
	}
	payload, err := call.Encode()
	if err != nil {
		return r.fail(Unspecified, definition, nil, err, "encode call")
	}

	var out ir.Tag
	if name == "" {
		out, err = r.store.Create(ctx, txn, call.Class(), payload)
	} else {
		out, err = r.store.CreateIfAbsent(ctx, txn, store.Pending{Name: name, Class: call.Class(), Payload: payload})
	}
	if errors.Is(err, store.ErrNameTaken) {
		return r.fail(NameCollision, name, nil, err, "create call")
	}
	if err != nil {
		return r.fail(Unspecified, definition, nil, err, "create call")
	}
	r.logger.Info("call created",
		"definition", def.Def.Name,
		"name", name,
		"tag", out.String(),
		"txn", txn.ID(),
	)
	return Outcome{Result: Created, Tag: out, Messages: []ir.Message{ir.Infof("created %s of %s as %s", call.Class(), def.Def.Name, out)}}
}

// References returns the tags el points at.
func (r *Registry) References(el store.Element) ([]ir.Tag, error) {
	switch {
	case el.Class == ir.ClassModule:
		rec, err := module.Decode(el.Payload)
		if err != nil {
			return nil, err
		}
		return rec.References(), nil
	case el.Class.IsDefinition():
		def, err := element.DecodeDefinition(el.Payload)
		if err != nil {
			return nil, err
		}
		return def.References(), nil
	case el.Class.IsCall():
		call, err := element.DecodeCall(el.Payload)
		if err != nil {
			return nil, err
		}
		return call.References(), nil
	case el.Class.IsResource():
		return nil, nil
	}
	return nil, fmt.Errorf("references: unknown class %s", el.Class)
}

// Reachable returns every element reachable from roots.
func (r *Registry) Reachable(ctx context.Context, roots ...ir.Tag) ([]ir.Tag, error) {
	return r.store.Reachable(ctx, roots, r.References)
}
