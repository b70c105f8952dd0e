package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/shadestore/internal/annotation"
	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/module"
	"github.com/roach88/shadestore/internal/store"
)

// frame is a module waiting for its imports.
type frame struct {
	mod     *frontend.Module
	next    int
	imports []ir.Tag
}

// materialize stores root after every import it needs. Imports are
// visited depth first; a module is committed once all of its imports have
// tags.
func (r *Registry) materialize(ctx context.Context, txn *store.Txn, root *frontend.Module, msgs []ir.Message) Outcome {
	name := root.Name()
	active := map[string]bool{name: true}
	stack := []*frame{{mod: root}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return r.fail(Unspecified, name, msgs, err, "cancelled")
		}
		f := stack[len(stack)-1]
		imports := f.mod.Imports()

		if f.next < len(imports) {
			imp := imports[f.next]
			f.next++

			tag, class, err := r.store.Lookup(ctx, imp)
			switch {
			case err == nil && class == ir.ClassModule:
				f.imports = append(f.imports, tag)
				continue
			case err == nil:
				return r.fail(NameCollision, name, msgs,
					ir.NewError(NameCollision, imp, "import name is held by a %s", class), "import")
			case !errors.Is(err, store.ErrNotFound):
				return r.fail(Unspecified, name, msgs, err, "lookup import "+imp)
			}
			if active[imp] {
				return r.fail(ImportInitFailed, name, msgs,
					ir.NewError(ImportInitFailed, imp, "import cycle"), "import")
			}

			mod, ms, err := r.fe.ResolveAndCompile(ctx, imp)
			msgs = append(msgs, ms...)
			if err != nil {
				return r.fail(ImportInitFailed, name, msgs, ir.WrapError(ImportInitFailed, imp, err, "compile import"), "import")
			}
			active[imp] = true
			stack = append(stack, &frame{mod: mod})
			continue
		}

		tag, ms, err := r.commit(ctx, txn, f)
		msgs = append(msgs, ms...)
		stack = stack[:len(stack)-1]
		delete(active, f.mod.Name())
		isRoot := len(stack) == 0

		if err != nil {
			var taken *store.NameTakenError
			switch {
			case errors.As(err, &taken) && isRoot:
				return r.fail(NameCollision, name, msgs, err, "lost commit race")
			case errors.As(err, &taken) && taken.Name == f.mod.Name() && taken.Class == ir.ClassModule:
				r.logger.Debug("import committed concurrently",
					"module", f.mod.Name(),
					"tag", taken.Existing.String(),
				)
				tag = taken.Existing
			case errors.As(err, &taken):
				return r.fail(NameCollision, name, msgs, err, "import "+f.mod.Name())
			case isRoot:
				return r.fail(Unspecified, name, msgs, err, "commit")
			default:
				return r.fail(ImportInitFailed, name, msgs, ir.WrapError(ImportInitFailed, f.mod.Name(), err, "commit import"), "import")
			}
		}

		if isRoot {
			msgs = append(msgs, ir.Infof("created %s as %s", name, tag))
			return Outcome{Result: Created, Tag: tag, Messages: msgs}
		}
		parent := stack[len(stack)-1]
		parent.imports = append(parent.imports, tag)
	}
	return r.fail(Unspecified, name, msgs, nil, "empty materialization")
}

// commit resolves the resources of f's module and stores the module
// record with its definition records. Resource failures leave null tags
// and warnings behind.
func (r *Registry) commit(ctx context.Context, txn *store.Txn, f *frame) (ir.Tag, []ir.Message, error) {
	mod := f.mod
	dag := mod.DAG()
	var msgs []ir.Message

	slots := make([][]ir.Tag, len(dag.Resources))
	for i, ref := range dag.Resources {
		slot, err := r.cache.ResolveRef(ctx, txn, ref)
		if err != nil {
			msgs = append(msgs, ir.Warningf("RESOURCE", "%s: resource %s: %v", mod.Name(), ref.Path, err))
		}
		slots[i] = slot
	}

	defs := append(append([]frontend.Definition{}, dag.Functions...), dag.Materials...)
	var functions, materials []string
	for _, d := range dag.Functions {
		functions = append(functions, d.Def.Name)
	}
	for _, d := range dag.Materials {
		materials = append(materials, d.Def.Name)
	}

	annotations := annotation.FromNative(dag.Annotations)
	if annotations == nil {
		annotations = ir.AnnotationBlock{}
	}
	rec := module.New(module.Params{
		Name:        mod.Name(),
		Filename:    mod.Filename(),
		APIFilename: mod.APIFilename(),
		Imports:     f.imports,
		Types:       dag.Types,
		Constants:   dag.Constants,
		Annotations: annotations,
		Functions:   functions,
		Materials:   materials,
		Resources:   slots,
		Compiled:    mod,
	})
	payload, err := rec.Encode()
	if err != nil {
		return ir.NullTag, msgs, fmt.Errorf("commit %s: %w", mod.Name(), err)
	}

	dependents := func(modTag ir.Tag) ([]store.Pending, error) {
		out := make([]store.Pending, 0, len(defs))
		for _, d := range defs {
			el := element.Definition{
				Module:           modTag,
				ModuleName:       mod.Name(),
				Def:              d.Def,
				Annotations:      annotation.FromNative(d.Annotations),
				ParamAnnotations: annotation.FromNativeParams(d.ParamAnnotations),
				Resources:        definitionResources(d.Def, dag.Resources, slots),
			}
			p, err := el.Encode()
			if err != nil {
				return nil, err
			}
			out = append(out, store.Pending{Name: d.Def.Name, Class: el.Class(), Payload: p})
		}
		return out, nil
	}

	tag, _, err := r.store.CommitModule(ctx, txn, store.Pending{Name: mod.Name(), Class: ir.ClassModule, Payload: payload}, dependents)
	if err != nil {
		return ir.NullTag, msgs, err
	}
	r.fe.Publish(mod)
	r.logger.Info("module committed",
		"module", mod.Name(),
		"tag", tag.String(),
		"txn", txn.ID(),
		"definitions", len(defs),
		"resources", len(slots),
	)
	return tag, msgs, nil
}

// definitionResources returns the resolved tags of the resources def
// embeds, without repeats.
func definitionResources(def ir.Definition, refs []ir.ResourceRef, slots [][]ir.Tag) []ir.Tag {
	seen := make(map[ir.Tag]bool)
	var out []ir.Tag
	for _, v := range element.EmbeddedResources(def) {
		for i, ref := range refs {
			if ref.Path != v.Text || ref.Type != v.Type {
				continue
			}
			for j, g := range ref.Variants() {
				if g != v.Gamma || j >= len(slots[i]) {
					continue
				}
				if tag := slots[i][j]; tag.IsValid() && !seen[tag] {
					seen[tag] = true
					out = append(out, tag)
				}
			}
		}
	}
	return out
}
