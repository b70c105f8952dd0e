package compiler

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

//go:embed schema.cue
var moduleSchema string

// ErrCompileFailed is returned when a module has error diagnostics.
var ErrCompileFailed = errors.New("compilation failed")

// Compiler is a frontend.Frontend for module sources written in CUE. Module
// "::a::b" is read from a/b.cue below the first search path that has it;
// the builtin standard modules are used when no file provides them.
//
// Modules compiled from the search paths are cached by name; modules
// compiled from text or analyzed from a builder are cached only once they
// are published. Compilation is serialized.
type Compiler struct {
	mu          sync.Mutex
	searchPaths []string
	logger      *slog.Logger
	modules     map[string]*frontend.Module
}

var _ frontend.Frontend = (*Compiler)(nil)

// Option configures a Compiler.
type Option func(*Compiler)

// WithSearchPaths sets the directories module sources are resolved in.
func WithSearchPaths(paths ...string) Option {
	return func(c *Compiler) {
		c.searchPaths = append([]string(nil), paths...)
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New returns a compiler with an empty module cache.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:  slog.Default(),
		modules: make(map[string]*frontend.Module),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsValidName reports whether name is a fully-qualified module name.
func (c *Compiler) IsValidName(name string) bool {
	return ir.IsModuleName(name)
}

// IsStandardModule reports whether name is provided by the builtin
// standard library.
func IsStandardModule(name string) bool {
	_, ok := stdlibSources[name]
	return ok
}

// ResolveAndCompile returns the cached module or compiles it from the
// search paths.
func (c *Compiler) ResolveAndCompile(ctx context.Context, name string) (*frontend.Module, []ir.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compileNamedLocked(ctx, name, make(map[string]bool))
}

// CompileFromText compiles src as module name. The result is not cached;
// see Publish.
func (c *Compiler) CompileFromText(ctx context.Context, name string, src io.Reader) (*frontend.Module, []ir.Message, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, fmt.Errorf("read source of %s: %w", name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !ir.IsModuleName(name) {
		msg := ir.Errorf(ErrInvalidModuleName, "invalid module name %q", name)
		return nil, []ir.Message{msg}, fmt.Errorf("compile %s: %w", name, ErrCompileFailed)
	}
	return c.compileSourceLocked(ctx, name, "", data, make(map[string]bool))
}

// NewEmptyModule returns a builder for a synthetic module.
func (c *Compiler) NewEmptyModule(name string) (*frontend.Builder, error) {
	if !ir.IsModuleName(name) {
		return nil, fmt.Errorf("invalid module name %q", name)
	}
	return frontend.NewBuilder(name), nil
}

// Module returns a cached module.
func (c *Compiler) Module(name string) (*frontend.Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[name]
	return m, ok
}

// Publish caches m under its name, replacing any cached module.
func (c *Compiler) Publish(m *frontend.Module) {
	if m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[m.Name()] = m
	c.logger.Debug("module published", "module", m.Name(), "digest", m.Digest())
}

func (c *Compiler) compileNamedLocked(ctx context.Context, name string, active map[string]bool) (*frontend.Module, []ir.Message, error) {
	if m, ok := c.modules[name]; ok {
		return m, nil, nil
	}
	if !ir.IsModuleName(name) {
		msg := ir.Errorf(ErrInvalidModuleName, "invalid module name %q", name)
		return nil, []ir.Message{msg}, fmt.Errorf("compile %s: %w", name, ErrCompileFailed)
	}
	if active[name] {
		msg := ir.Errorf(ErrImportCycle, "module %s imports itself", name)
		return nil, []ir.Message{msg}, fmt.Errorf("compile %s: import cycle: %w", name, ErrCompileFailed)
	}

	data, filename, err := c.findSource(name)
	if err != nil {
		msg := ir.Errorf(ErrModuleNotFound, "%v", err)
		return nil, []ir.Message{msg}, fmt.Errorf("compile %s: %w", name, err)
	}
	m, msgs, err := c.compileSourceLocked(ctx, name, filename, data, active)
	if err != nil {
		return nil, msgs, err
	}
	c.modules[name] = m
	return m, msgs, nil
}

// findSource reads the first source file for name on the search paths.
func (c *Compiler) findSource(name string) ([]byte, string, error) {
	rel := filepath.Join(strings.Split(strings.TrimPrefix(name, "::"), "::")...) + ".cue"
	for _, dir := range c.searchPaths {
		path := filepath.Join(dir, rel)
		data, err := os.ReadFile(path)
		if err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			return data, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	if src, ok := stdlibSources[name]; ok {
		return []byte(src), "", nil
	}
	return nil, "", fmt.Errorf("module %s not found on search paths %v", name, c.searchPaths)
}

func (c *Compiler) compileSourceLocked(ctx context.Context, name, filename string, data []byte, active map[string]bool) (*frontend.Module, []ir.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	fail := func(msgs []ir.Message) (*frontend.Module, []ir.Message, error) {
		return nil, msgs, fmt.Errorf("compile %s: %w", name, ErrCompileFailed)
	}

	sourceName := filename
	if sourceName == "" {
		sourceName = strings.TrimPrefix(strings.ReplaceAll(name, "::", "/"), "/") + ".cue"
	}

	cctx := cuecontext.New()
	v := cctx.CompileBytes(data, cue.Filename(sourceName))
	if err := v.Err(); err != nil {
		return fail(cueMessages(ErrSourceSyntax, err))
	}
	schema := cctx.CompileString(moduleSchema, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Module"))
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fail(cueMessages(ErrSchemaViolation, err))
	}

	src, err := parseModule(unified)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			return fail([]ir.Message{ce.Diagnostic()})
		}
		return fail([]ir.Message{ir.Errorf(ErrSchemaViolation, "%v", err)})
	}

	diag := &diagnostics{}
	active[name] = true
	defer delete(active, name)

	imports := make(map[string]*frontend.Module, len(src.imports))
	var importNames []string
	for _, imp := range src.imports {
		if _, dup := imports[imp]; dup {
			continue
		}
		m, msgs, err := c.compileNamedLocked(ctx, imp, active)
		diag.add(msgs...)
		if err != nil {
			diag.errorf(ErrImportFailed, token.NoPos, imp, "import failed: %v", err)
			continue
		}
		imports[imp] = m
		importNames = append(importNames, imp)
	}
	if diag.failed() {
		return fail(diag.msgs)
	}

	u := newUnit(name, src, imports, diag)
	dag := u.build()
	if diag.failed() {
		return fail(diag.msgs)
	}

	mod := frontend.NewModule(frontend.ModuleInfo{
		Name:     name,
		Filename: filename,
		Digest:   ir.SourceDigest(data),
		Imports:  importNames,
	}, dag)

	c.logger.Debug("module compiled",
		"module", name,
		"filename", filename,
		"functions", len(dag.Functions),
		"materials", len(dag.Materials),
		"resources", len(dag.Resources),
	)
	return mod, diag.msgs, nil
}

// Analyze seals b and checks its definitions against their imports. The
// result is not cached; see Publish.
func (c *Compiler) Analyze(ctx context.Context, b *frontend.Builder) (*frontend.Module, []ir.Message, error) {
	importNames, defs, err := b.Seal()
	if err != nil {
		return nil, nil, err
	}
	name := b.Name()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	diag := &diagnostics{}
	imported := map[string]bool{name: true}
	for _, imp := range importNames {
		_, msgs, err := c.compileNamedLocked(ctx, imp, map[string]bool{name: true})
		diag.add(msgs...)
		if err != nil {
			diag.errorf(ErrImportFailed, token.NoPos, imp, "import failed: %v", err)
			continue
		}
		imported[imp] = true
	}

	local := make(map[string]ir.Definition, len(defs))
	for _, d := range defs {
		local[d.Def.Name] = d.Def
	}
	for _, d := range defs {
		c.checkCallsLocked(ctx, d.Def, local, imported, diag)
	}

	ordered, cycles := orderDefinitions(defs)
	for _, cyc := range cycles {
		diag.errorf(ErrRecursiveCall, token.NoPos, cyc[0], "recursive call cycle: %s", strings.Join(cyc, " → "))
	}
	if diag.failed() {
		return nil, diag.msgs, fmt.Errorf("analyze %s: %w", name, ErrCompileFailed)
	}

	dag := frontend.DAG{Annotations: &frontend.AnnotationBlock{}}
	for _, d := range ordered {
		if d.Def.Kind == ir.KindMaterial {
			dag.Materials = append(dag.Materials, d)
		} else {
			dag.Functions = append(dag.Functions, d)
		}
	}
	dag.Resources = collectResources(nil, ordered)

	mod := frontend.NewModule(frontend.ModuleInfo{Name: name, Imports: importNames}, dag)
	diag.add(ir.Infof("analyzed %s: %d functions, %d materials", name, len(dag.Functions), len(dag.Materials)))

	c.logger.Debug("module analyzed",
		"module", name,
		"definitions", len(ordered),
		"imports", len(importNames),
	)
	return mod, diag.msgs, nil
}

// checkCallsLocked verifies that every call in def names a reachable
// definition and only passes arguments it declares.
func (c *Compiler) checkCallsLocked(ctx context.Context, def ir.Definition, local map[string]ir.Definition, imported map[string]bool, diag *diagnostics) {
	visit := func(e ir.Expression) bool {
		if e.Kind != ir.ExprCall {
			return true
		}
		module := ir.ModuleOf(e.Definition)
		if !imported[module] {
			diag.errorf(ErrNotImported, token.NoPos, def.Name, "calls %s but %s is not imported", e.Definition, module)
			return false
		}
		callee, ok := local[e.Definition]
		if !ok {
			var err error
			callee, err = c.lookupDefinitionLocked(ctx, e.Definition)
			if err != nil {
				diag.errorf(ErrUnknownDefinition, token.NoPos, def.Name, "calls unknown definition %s", e.Definition)
				return false
			}
		}
		for _, a := range e.Args {
			if _, ok := callee.Param(a.Name); !ok {
				diag.errorf(ErrUnknownArgument, token.NoPos, def.Name, "%s has no parameter %s", e.Definition, a.Name)
			}
		}
		return true
	}
	for _, p := range def.Parameters {
		if p.Default != nil {
			p.Default.Walk(visit)
		}
	}
	if def.Body != nil {
		def.Body.Walk(visit)
	}
}

// LookupDefinition resolves a qualified definition, compiling its module
// when it is not cached yet.
func (c *Compiler) LookupDefinition(ctx context.Context, qualified string) (ir.Definition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupDefinitionLocked(ctx, qualified)
}

func (c *Compiler) lookupDefinitionLocked(ctx context.Context, qualified string) (ir.Definition, error) {
	m, err := c.moduleOfLocked(ctx, qualified)
	if err != nil {
		return ir.Definition{}, err
	}
	d, ok := m.Definition(qualified)
	if !ok {
		return ir.Definition{}, fmt.Errorf("definition %s: %w", qualified, frontend.ErrNotFound)
	}
	return d.Def, nil
}

// LookupAnnotation resolves a qualified annotation declaration.
func (c *Compiler) LookupAnnotation(ctx context.Context, qualified string) (frontend.AnnotationDecl, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.moduleOfLocked(ctx, qualified)
	if err != nil {
		return frontend.AnnotationDecl{}, err
	}
	d, ok := m.AnnotationDecl(qualified)
	if !ok {
		return frontend.AnnotationDecl{}, fmt.Errorf("annotation %s: %w", qualified, frontend.ErrNotFound)
	}
	return d, nil
}

func (c *Compiler) moduleOfLocked(ctx context.Context, qualified string) (*frontend.Module, error) {
	module := ir.ModuleOf(qualified)
	if module == "" {
		return nil, fmt.Errorf("%s is not a qualified name: %w", qualified, frontend.ErrNotFound)
	}
	m, _, err := c.compileNamedLocked(ctx, module, make(map[string]bool))
	if err != nil {
		return nil, fmt.Errorf("module %s: %v: %w", module, err, frontend.ErrNotFound)
	}
	return m, nil
}

// IsUniform reports whether expr has the same value everywhere on a
// surface. Constants are uniform; parameter references are uniform when
// the parameter is; calls are uniform when the callee is not varying and
// every argument is uniform.
func (c *Compiler) IsUniform(ctx context.Context, expr ir.Expression, scope []ir.Parameter) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isUniformLocked(ctx, expr, scope)
}

func (c *Compiler) isUniformLocked(ctx context.Context, expr ir.Expression, scope []ir.Parameter) (bool, error) {
	switch expr.Kind {
	case ir.ExprConstant:
		return true, nil
	case ir.ExprParameter:
		for _, p := range scope {
			if p.Name == expr.Parameter {
				return p.Uniform, nil
			}
		}
		return false, fmt.Errorf("parameter %s: %w", expr.Parameter, frontend.ErrNotFound)
	case ir.ExprCall:
		def, err := c.lookupDefinitionLocked(ctx, expr.Definition)
		if err != nil {
			return false, err
		}
		if def.Varying {
			return false, nil
		}
		for _, a := range expr.Args {
			ok, err := c.isUniformLocked(ctx, a.Expr, scope)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown expression kind %q", expr.Kind)
	}
}
