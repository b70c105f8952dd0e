package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shadestore/internal/derive"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

// DeriveView is the printable result of the derive command.
type DeriveView struct {
	Instances []OutcomeView `json:"instances,omitempty"`
	Module    OutcomeView   `json:"module"`
}

func (v DeriveView) String() string {
	var b strings.Builder
	for _, in := range v.Instances {
		fmt.Fprintf(&b, "%s\n", in)
	}
	b.WriteString(v.Module.String())
	return b.String()
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <module-name> <requests.yaml>",
		Short: "Build a module from variants and materials of stored definitions",
		Long: `Build a module from a YAML request file. Instances are stored first as
named calls; variants and materials then run in file order, and the module
is stored only if every request succeeds.

Example request file:
  instances:
    - name: red_plastic
      definition: "::base::plastic(color,float)"
      args:
        tint: {type: color, value: [1, 0, 0]}
  variants:
    - prototype: "::base::tinted(color)"
      name: green_tinted
      defaults:
        tint: {type: color, value: [0, 1, 0]}
  materials:
    - prototype: red_plastic
      name: glass
      parameters:
        - {path: ior, name: glass_ior}

Example:
  shadestore derive ::looks looks.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := LoadRequestFile(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load requests", err)
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			return runDerive(cmd.Context(), s, args[0], rf)
		},
	}
}

func runDerive(ctx context.Context, s *session, name string, rf *RequestFile) error {
	txn := store.NewTxn()
	var view DeriveView

	for _, in := range rf.Instances {
		callArgs, err := Arguments(in.Args)
		if err != nil {
			return WrapExitError(ExitCommandError, "instance "+in.Name, err)
		}
		out := s.registry.CreateCall(ctx, txn, in.Name, in.Definition, callArgs)
		view.Instances = append(view.Instances, newOutcomeView(in.Name, out))
		if !out.OK() {
			return report(s.out, txn.ID(), in.Name, out)
		}
	}

	reqs, err := buildRequests(ctx, s, rf)
	if err != nil {
		return err
	}
	out := s.registry.CreateFromDerivations(ctx, txn, name, reqs)
	view.Module = newOutcomeView(name, out)
	if !out.OK() {
		return report(s.out, txn.ID(), name, out)
	}
	return s.out.Success(txn.ID(), view)
}

func buildRequests(ctx context.Context, s *session, rf *RequestFile) ([]derive.Request, error) {
	var reqs []derive.Request
	for _, section := range rf.Order() {
		switch section {
		case "variants":
			for _, v := range rf.Variants {
				proto, err := prototypeTag(ctx, s, v.Prototype)
				if err != nil {
					return nil, err
				}
				defaults, err := Arguments(v.Defaults)
				if err != nil {
					return nil, WrapExitError(ExitCommandError, "variant "+v.Name, err)
				}
				reqs = append(reqs, derive.VariantRequest{
					Prototype:   proto,
					Name:        v.Name,
					Defaults:    defaults,
					Annotations: annotationBlock(v.Annotations),
				})
			}
		case "materials":
			for _, m := range rf.Materials {
				proto, err := prototypeTag(ctx, s, m.Prototype)
				if err != nil {
					return nil, err
				}
				spec := derive.MaterialSpec{Name: m.Name, Annotations: annotationBlock(m.Annotations)}
				for _, p := range m.Parameters {
					spec.Parameters = append(spec.Parameters, derive.MaterialParameter{
						Path:           p.Path,
						Name:           p.Name,
						EnforceUniform: p.Uniform,
						Annotations:    annotationBlock(p.Annotations),
					})
				}
				reqs = append(reqs, derive.MaterialRequest{Prototype: proto, Spec: spec})
			}
		}
	}
	return reqs, nil
}

// prototypeTag looks name up. Unknown names map to the null tag, which the
// synthesizer reports as a wrong prototype.
func prototypeTag(ctx context.Context, s *session, name string) (ir.Tag, error) {
	tag, _, err := s.store.Lookup(ctx, ir.NormalizeName(name))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("prototype not stored", "name", name)
		return ir.NullTag, nil
	case err != nil:
		return ir.NullTag, WrapExitError(ExitCommandError, "lookup "+name, err)
	}
	return tag, nil
}
