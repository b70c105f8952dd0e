package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/shadestore/internal/compiler"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/registry"
	"github.com/roach88/shadestore/internal/resource"
	"github.com/roach88/shadestore/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Env is a complete registry over temporary directories.
type Env struct {
	ModuleDir   string
	ResourceDir string
	Store       *store.Store
	Compiler    *compiler.Compiler
	Cache       *resource.Cache
	Registry    *registry.Registry
}

// EnvOption configures NewEnv.
type EnvOption func(*envConfig)

type envConfig struct {
	modules   map[string]string
	resources []string
	frontend  func(*compiler.Compiler) frontend.Frontend
}

// WithModule writes src as the module name to the search path.
func WithModule(name, src string) EnvOption {
	return func(c *envConfig) {
		c.modules[name] = src
	}
}

// WithResources creates empty files at the given MDL paths below the
// resource root.
func WithResources(paths ...string) EnvOption {
	return func(c *envConfig) {
		c.resources = append(c.resources, paths...)
	}
}

// WithFrontend wraps the compiler before it is handed to the registry.
func WithFrontend(wrap func(*compiler.Compiler) frontend.Frontend) EnvOption {
	return func(c *envConfig) {
		c.frontend = wrap
	}
}

// NewEnv returns an environment with "::base" and "::scene" on the search
// path and the base resources on disk, plus whatever opts add.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()
	cfg := &envConfig{
		modules: map[string]string{
			BaseModule:  BaseSource,
			SceneModule: SceneSource,
		},
		resources: append([]string(nil), BaseResources...),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	env := &Env{ModuleDir: t.TempDir(), ResourceDir: t.TempDir()}
	for name, src := range cfg.modules {
		WriteModule(t, env.ModuleDir, name, src)
	}
	for _, p := range cfg.resources {
		WriteResource(t, env.ResourceDir, p)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	env.Store = st

	logger := DiscardLogger()
	env.Compiler = compiler.New(compiler.WithSearchPaths(env.ModuleDir), compiler.WithLogger(logger))
	env.Cache = resource.NewCache(st, resource.NewFSResolver([]string{env.ResourceDir}), resource.WithLogger(logger))

	var fe frontend.Frontend = env.Compiler
	if cfg.frontend != nil {
		fe = cfg.frontend(env.Compiler)
	}
	env.Registry = registry.New(st, fe, env.Cache, registry.WithLogger(logger))
	return env
}

// WriteModule writes src where the compiler looks for the module name
// below dir and returns the file path.
func WriteModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	rel := filepath.Join(strings.Split(strings.TrimPrefix(name, "::"), "::")...) + ".cue"
	return writeFile(t, filepath.Join(dir, rel), []byte(src))
}

// WriteResource creates a placeholder file for the MDL path below dir.
func WriteResource(t *testing.T, dir, mdlPath string) string {
	t.Helper()
	return writeFile(t, filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(mdlPath, "/"))), []byte("resource"))
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
