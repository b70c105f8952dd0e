package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/roach88/shadestore/internal/compiler"
	"github.com/roach88/shadestore/internal/config"
	"github.com/roach88/shadestore/internal/registry"
	"github.com/roach88/shadestore/internal/resource"
	"github.com/roach88/shadestore/internal/store"
)

// session is an open registry for the duration of one command.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      *OutputFormatter
	store    *store.Store
	compiler *compiler.Compiler
	cache    *resource.Cache
	registry *registry.Registry
}

// openSession resolves the configuration and opens the store. Callers
// must Close the session.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, path, err := config.Load(config.LoadOptions{
		ConfigFilePath: opts.ConfigFile,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Format, level)
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}

	st, err := store.Open(cfg.Database, store.WithDriver(cfg.Driver))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("database ready", "path", cfg.Database, "driver", cfg.Driver)

	comp := compiler.New(compiler.WithSearchPaths(cfg.SearchPaths...), compiler.WithLogger(logger))
	cache := resource.NewCache(st, resource.NewFSResolver(cfg.ResourcePaths), resource.WithLogger(logger))
	return &session{
		cfg:      cfg,
		logger:   logger,
		out:      &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
		store:    st,
		compiler: comp,
		cache:    cache,
		registry: registry.New(st, comp, cache, registry.WithLogger(logger)),
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// newLogger logs through charmbracelet/log in text mode and as JSON lines
// in json mode.
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Level:  log.Level(level),
		Prefix: "shadestore",
	}))
}
