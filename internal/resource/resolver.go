package resource

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps MDL file paths to locations and reports decoder support.
type Resolver interface {
	// Resolve returns the candidate locations of path, best first.
	Resolve(path string) ([]string, error)

	// DecoderAvailable reports whether an image decoder accepts location.
	DecoderAvailable(location string) bool
}

// DefaultDecoders lists the image extensions FSResolver accepts.
var DefaultDecoders = []string{"png", "jpg", "jpeg", "exr", "hdr", "tif", "tiff", "dds", "bmp", "tga"}

// FSResolver resolves paths below a list of root directories.
type FSResolver struct {
	roots    []string
	decoders map[string]bool
}

// FSOption configures an FSResolver.
type FSOption func(*FSResolver)

// WithDecoders replaces the supported image extensions.
func WithDecoders(exts ...string) FSOption {
	return func(r *FSResolver) {
		r.decoders = make(map[string]bool, len(exts))
		for _, e := range exts {
			r.decoders[strings.ToLower(strings.TrimPrefix(e, "."))] = true
		}
	}
}

// NewFSResolver returns a resolver searching roots in order.
func NewFSResolver(roots []string, opts ...FSOption) *FSResolver {
	r := &FSResolver{roots: append([]string(nil), roots...)}
	WithDecoders(DefaultDecoders...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the absolute file paths of path below each root that
// holds a regular file for it.
func (r *FSResolver) Resolve(path string) ([]string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(path, "/"))
	var out []string
	for _, root := range r.roots {
		candidate := filepath.Join(root, rel)
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// DecoderAvailable reports whether the extension of location has a
// decoder.
func (r *FSResolver) DecoderAvailable(location string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(location), "."))
	return r.decoders[ext]
}
