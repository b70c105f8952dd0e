package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/shadestore/internal/derive"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/resource"
	"github.com/roach88/shadestore/internal/store"
)

// Result is the outcome code of a create.
type Result = ir.Code

// Result codes.
const (
	AlreadyExists         = ir.CodeAlreadyExists
	Created               = ir.CodeCreated
	InvalidName           = ir.CodeInvalidName
	CompileFailed         = ir.CodeCompileFailed
	NameCollision         = ir.CodeNameCollision
	ImportInitFailed      = ir.CodeImportInitFailed
	WrongPrototypeType    = ir.CodeWrongPrototypeType
	UnknownParameter      = ir.CodeUnknownParameter
	ParameterTypeMismatch = ir.CodeParameterTypeMismatch
	Unspecified           = ir.CodeUnspecified
	BadAnnotationArgument = ir.CodeBadAnnotationArgument
	UnsupportedAnnotation = ir.CodeUnsupportedAnnotation
	BadParameterPath      = ir.CodeBadParameterPath
	NonUniformArgument    = ir.CodeNonUniformArgument
)

// Outcome reports a create. Tag is set for Created and AlreadyExists.
// Messages holds the diagnostics gathered on the way, on success and on
// failure alike.
type Outcome struct {
	Result   Result
	Tag      ir.Tag
	Messages []ir.Message
	Err      error
}

// OK reports whether the module exists after the call.
func (o Outcome) OK() bool {
	return o.Result.Success()
}

// Store is the part of the store the registry uses.
type Store interface {
	Lookup(ctx context.Context, name string) (ir.Tag, ir.ClassID, error)
	Access(ctx context.Context, tag ir.Tag) (store.Element, error)
	Create(ctx context.Context, txn *store.Txn, class ir.ClassID, payload []byte) (ir.Tag, error)
	CreateIfAbsent(ctx context.Context, txn *store.Txn, el store.Pending) (ir.Tag, error)
	CommitModule(ctx context.Context, txn *store.Txn, module store.Pending, dependents func(ir.Tag) ([]store.Pending, error)) (ir.Tag, []ir.Tag, error)
	Reachable(ctx context.Context, roots []ir.Tag, refs store.RefsFunc) ([]ir.Tag, error)
}

// Registry creates modules. It is safe for concurrent use.
type Registry struct {
	store  Store
	fe     frontend.Frontend
	cache  *resource.Cache
	synth  *derive.Synthesizer
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New returns a registry over st, compiling with fe and resolving
// resources through cache.
func New(st Store, fe frontend.Frontend, cache *resource.Cache, opts ...Option) *Registry {
	r := &Registry{store: st, fe: fe, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.synth = derive.New(st, fe, derive.WithLogger(r.logger))
	return r
}

// Synthesizer returns the synthesizer derivation batches run through.
func (r *Registry) Synthesizer() *derive.Synthesizer {
	return r.synth
}

// CreateFromName compiles the module name from the front-end's search
// paths and stores it with every import not stored yet.
func (r *Registry) CreateFromName(ctx context.Context, txn *store.Txn, name string) Outcome {
	name = ir.NormalizeName(name)
	if out, done := r.precheck(ctx, name); done {
		return out
	}
	mod, msgs, err := r.fe.ResolveAndCompile(ctx, name)
	if err != nil {
		return r.fail(CompileFailed, name, msgs, err, "compile")
	}
	return r.materialize(ctx, txn, mod, msgs)
}

// CreateFromSource compiles src as the module name and stores it.
func (r *Registry) CreateFromSource(ctx context.Context, txn *store.Txn, name string, src io.Reader) Outcome {
	name = ir.NormalizeName(name)
	if out, done := r.precheck(ctx, name); done {
		return out
	}
	mod, msgs, err := r.fe.CompileFromText(ctx, name, src)
	if err != nil {
		return r.fail(CompileFailed, name, msgs, err, "compile")
	}
	return r.materialize(ctx, txn, mod, msgs)
}

// CreateFromDerivations builds the module name from reqs, applied in
// order. The first failing request aborts the batch before anything is
// stored.
func (r *Registry) CreateFromDerivations(ctx context.Context, txn *store.Txn, name string, reqs []derive.Request) Outcome {
	name = ir.NormalizeName(name)
	if out, done := r.precheck(ctx, name); done {
		return out
	}
	b, err := r.fe.NewEmptyModule(name)
	if err != nil {
		return r.fail(InvalidName, name, nil, err, "new module")
	}
	if err := r.synth.Apply(ctx, b, reqs...); err != nil {
		return r.fail(ir.CodeOf(err), name, nil, err, "derive")
	}
	mod, msgs, err := r.fe.Analyze(ctx, b)
	if err != nil {
		return r.fail(CompileFailed, name, msgs, err, "analyze")
	}
	return r.materialize(ctx, txn, mod, msgs)
}

// precheck validates name and looks it up. done is true when the outcome
// is final.
func (r *Registry) precheck(ctx context.Context, name string) (Outcome, bool) {
	if !r.fe.IsValidName(name) {
		return r.fail(InvalidName, name, nil, nil, "invalid module name"), true
	}
	tag, class, err := r.store.Lookup(ctx, name)
	switch {
	case err == nil && class == ir.ClassModule:
		return Outcome{
			Result:   AlreadyExists,
			Tag:      tag,
			Messages: []ir.Message{ir.Infof("module %s already exists as %s", name, tag)},
		}, true
	case err == nil:
		return r.fail(NameCollision, name, nil, nil, "name is held by a "+class.String()), true
	case !errors.Is(err, store.ErrNotFound):
		return r.fail(Unspecified, name, nil, err, "lookup"), true
	}
	return Outcome{}, false
}

// fail builds a failed outcome. The error is appended to msgs as an error
// message.
func (r *Registry) fail(code Result, name string, msgs []ir.Message, err error, msg string) Outcome {
	if ir.CodeOf(err) != code {
		err = ir.WrapError(code, name, err, msg)
	}
	msgs = append(msgs, ir.Errorf(string(code), "%s", err.Error()))
	r.logger.Debug("create failed", "module", name, "result", string(code), "error", err)
	return Outcome{Result: code, Messages: msgs, Err: err}
}
