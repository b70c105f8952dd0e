package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/shadestore/internal/store"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <module-name>",
		Short: "Compile a module from the search paths and store it",
		Long: `Compile the named module from the module search paths and store it,
together with every import that is not stored yet.

Example:
  shadestore load ::base --search-path ./mdl
  shadestore load ::nvidia::core --db registry.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			txn := store.NewTxn()
			out := s.registry.CreateFromName(cmd.Context(), txn, args[0])
			return report(s.out, txn.ID(), args[0], out)
		},
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <module-name> <source-file>",
		Short: "Compile a source file as a module and store it",
		Long: `Compile the given source file as the named module and store it. Imports
are resolved through the module search paths.

Example:
  shadestore compile ::scratch ./scratch.cue`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.Open(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open source", err)
			}
			defer src.Close()

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			txn := store.NewTxn()
			out := s.registry.CreateFromSource(cmd.Context(), txn, args[0], src)
			return report(s.out, txn.ID(), args[0], out)
		},
	}
}
