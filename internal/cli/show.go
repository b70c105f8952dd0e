package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <module-name>",
		Short: "Print the stored record of a module",
		Long: `Print the stored record of a module: its imports, definitions and
resource slots.

Example:
  shadestore show ::base
  shadestore show ::base --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, tag, err := s.registry.Module(cmd.Context(), args[0])
			if err != nil {
				return lookupFailed(s, args[0], err)
			}
			if rootOpts.Format != "json" {
				return s.out.Success("", strings.TrimSuffix(rec.Dump(), "\n"))
			}
			payload, err := rec.Encode()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode record", err)
			}
			return s.out.Success("", struct {
				Tag    string          `json:"tag"`
				Record json.RawMessage `json:"record"`
			}{tag.String(), payload})
		},
	}
}

// RefView is one element of a reachability set.
type RefView struct {
	Tag   string `json:"tag"`
	Class string `json:"class"`
	Name  string `json:"name,omitempty"`
}

// RefsView is the printable reachability set.
type RefsView struct {
	Root     string    `json:"root"`
	Elements []RefView `json:"elements"`
}

func (v RefsView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s reaches %d element(s)", v.Root, len(v.Elements))
	for _, e := range v.Elements {
		fmt.Fprintf(&b, "\n  %s %s", e.Tag, e.Class)
		if e.Name != "" {
			fmt.Fprintf(&b, " %s", e.Name)
		}
	}
	return b.String()
}

// NewRefsCommand creates the refs command.
func NewRefsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refs <name>",
		Short: "List every element reachable from a named element",
		Long: `List every element reachable from the named module, definition or call:
imported modules, called definitions and resources, transitively.

Example:
  shadestore refs ::scene
  shadestore refs '::base::wood_color(float3)'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			root, _, err := s.store.Lookup(ctx, ir.NormalizeName(args[0]))
			if err != nil {
				return lookupFailed(s, args[0], err)
			}
			tags, err := s.registry.Reachable(ctx, root)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to walk references", err)
			}

			view := RefsView{Root: args[0], Elements: make([]RefView, 0, len(tags))}
			for _, tag := range tags {
				el, err := s.store.Access(ctx, tag)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read element", err)
				}
				view.Elements = append(view.Elements, RefView{Tag: tag.String(), Class: el.Class.String(), Name: el.Name})
			}
			return s.out.Success("", view)
		},
	}
}

// lookupFailed reports a missing or unreadable element.
func lookupFailed(s *session, name string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		if ferr := s.out.Error("", "NOT_FOUND", fmt.Sprintf("%s is not stored", name), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "not found", err)
	}
	return WrapExitError(ExitCommandError, "lookup failed", err)
}
