package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/resource"
	"github.com/roach88/shadestore/internal/store"
)

// ResourceOptions holds flags for the resource command.
type ResourceOptions struct {
	*RootOptions
	Gamma    string
	Shape    string
	Unshared bool
}

// ResourceView is the printable form of a stored resource entry.
type ResourceView struct {
	Tag      string `json:"tag"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Location string `json:"location"`
	Gamma    string `json:"gamma,omitempty"`
	Type     string `json:"type"`
}

func (v ResourceView) String() string {
	s := fmt.Sprintf("%s %s %s -> %s", v.Tag, v.Type, v.Path, v.Location)
	if v.Gamma != "" {
		s += " (gamma " + v.Gamma + ")"
	}
	return s
}

// NewResourceCommand creates the resource command.
func NewResourceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResourceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resource <kind> <path>",
		Short: "Resolve a resource file and store its entry",
		Long: `Resolve an absolute MDL resource path against the resource search paths
and store an entry for it. Kind is texture, light_profile or
bsdf_measurement. Shared entries are reused by every caller asking for the
same file and variant.

Example:
  shadestore resource texture /textures/wood.png --gamma srgb
  shadestore resource light_profile /profiles/lamp.ies --unshared`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResource(cmd, opts, ir.ResourceKind(args[0]), args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Gamma, "gamma", "default", "texture gamma mode (default|linear|srgb)")
	cmd.Flags().StringVar(&opts.Shape, "shape", string(ir.TypeTexture2D), "texture shape type")
	cmd.Flags().BoolVar(&opts.Unshared, "unshared", false, "always create a new entry")

	return cmd
}

func runResource(cmd *cobra.Command, opts *ResourceOptions, kind ir.ResourceKind, path string) error {
	if !kind.Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown resource kind %q", kind))
	}
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	txn := store.NewTxn()
	shared := !opts.Unshared

	var tag ir.Tag
	switch kind {
	case ir.ResourceTexture:
		tag, err = s.cache.Texture(ctx, txn, path, ir.Type(opts.Shape), ir.Gamma(opts.Gamma), shared)
	case ir.ResourceLightProfile:
		tag, err = s.cache.LightProfile(ctx, txn, path, shared)
	case ir.ResourceBSDFMeasurement:
		tag, err = s.cache.BSDFMeasurement(ctx, txn, path, shared)
	}
	if err != nil {
		if ferr := s.out.Error(txn.ID(), "RESOURCE", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "failed to resolve resource", err)
	}

	el, err := s.store.Access(ctx, tag)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entry", err)
	}
	entry, err := resource.DecodeEntry(el.Payload)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode entry", err)
	}
	return s.out.Success(txn.ID(), ResourceView{
		Tag:      tag.String(),
		Kind:     string(entry.Kind),
		Path:     entry.FilePath,
		Location: entry.Location,
		Gamma:    string(entry.Gamma),
		Type:     string(entry.Type),
	})
}
