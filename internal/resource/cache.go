package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

var (
	// ErrInvalidPath is returned for paths outside the absolute MDL
	// namespace.
	ErrInvalidPath = errors.New("resource: invalid path")

	// ErrResolveFailed is returned when no location or decoder is found.
	ErrResolveFailed = errors.New("resource: resolution failed")
)

// Store is the part of the store the cache writes to.
type Store interface {
	Create(ctx context.Context, txn *store.Txn, class ir.ClassID, payload []byte) (ir.Tag, error)
	InsertResourceIfAbsent(ctx context.Context, txn *store.Txn, key, location, variant string, class ir.ClassID, payload []byte) (ir.Tag, bool, error)
	LookupResource(ctx context.Context, key string) (ir.Tag, error)
}

// Cache resolves resource references into stored entries. It is safe for
// concurrent use.
type Cache struct {
	store    Store
	resolver Resolver
	logger   *slog.Logger

	// Dedupes in-process resolutions of the same shared key.
	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// NewCache returns a cache writing to st and resolving through r.
func NewCache(st Store, r Resolver, opts ...Option) *Cache {
	c := &Cache{store: st, resolver: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the entry for filePath in variant. Unshared resolutions
// always create a new entry; shared ones return the existing entry for the
// same location and variant if there is one.
func (c *Cache) Resolve(ctx context.Context, txn *store.Txn, filePath string, kind ir.ResourceKind, shared bool, variant Variant) (ir.Tag, error) {
	if err := ValidatePath(filePath); err != nil {
		return ir.NullTag, err
	}
	if err := checkVariant(kind, variant); err != nil {
		return ir.NullTag, err
	}

	candidates, err := c.resolver.Resolve(filePath)
	if err != nil {
		return ir.NullTag, fmt.Errorf("%w: %s: %v", ErrResolveFailed, filePath, err)
	}
	if len(candidates) == 0 {
		return ir.NullTag, fmt.Errorf("%w: %s: not found", ErrResolveFailed, filePath)
	}
	location := candidates[0]
	if kind == ir.ResourceTexture && !c.resolver.DecoderAvailable(location) {
		return ir.NullTag, fmt.Errorf("%w: %s: no image decoder", ErrResolveFailed, location)
	}

	entry := Entry{Kind: kind, FilePath: filePath, Location: location, Gamma: variant.Gamma, Type: variant.Type}
	payload, err := entry.Encode()
	if err != nil {
		return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, err)
	}

	if !shared {
		tag, err := c.store.Create(ctx, txn, kind.Class(), payload)
		if err != nil {
			return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, err)
		}
		c.logger.Debug("resource created", "path", filePath, "location", location, "tag", tag.String(), "shared", false)
		return tag, nil
	}

	key, err := variant.Key(location)
	if err != nil {
		return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, err)
	}

	// Fast path - entry already exists
	tag, err := c.store.LookupResource(ctx, key)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, err)
	}

	variantJSON, err := ir.MarshalCanonical(variant.fields())
	if err != nil {
		return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, err)
	}
	// The flight outlives any one caller: a cancelled caller stops waiting
	// but the insert finishes for the others. The entry belongs to the txn
	// of the caller that started the flight.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		tag, inserted, err := c.store.InsertResourceIfAbsent(flightCtx, txn, key, location, string(variantJSON), kind.Class(), payload)
		if err != nil {
			return ir.NullTag, err
		}
		if inserted {
			c.logger.Debug("resource created", "path", filePath, "location", location, "tag", tag.String(), "shared", true, "txn", txn.ID())
		}
		return tag, nil
	})
	select {
	case <-ctx.Done():
		return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return ir.NullTag, fmt.Errorf("resolve %s: %w", filePath, res.Err)
		}
		return res.Val.(ir.Tag), nil
	}
}

// Texture resolves a texture of shape t in gamma mode gamma.
func (c *Cache) Texture(ctx context.Context, txn *store.Txn, filePath string, t ir.Type, gamma ir.Gamma, shared bool) (ir.Tag, error) {
	if gamma == "" {
		gamma = ir.GammaDefault
	}
	return c.Resolve(ctx, txn, filePath, ir.ResourceTexture, shared, Variant{Gamma: gamma, Type: t})
}

// LightProfile resolves a light profile.
func (c *Cache) LightProfile(ctx context.Context, txn *store.Txn, filePath string, shared bool) (ir.Tag, error) {
	return c.Resolve(ctx, txn, filePath, ir.ResourceLightProfile, shared, Variant{Type: ir.TypeLightProfile})
}

// BSDFMeasurement resolves a measured BSDF.
func (c *Cache) BSDFMeasurement(ctx context.Context, txn *store.Txn, filePath string, shared bool) (ir.Tag, error) {
	return c.Resolve(ctx, txn, filePath, ir.ResourceBSDFMeasurement, shared, Variant{Type: ir.TypeBSDFMeasurement})
}

// ResolveRef resolves every gamma variant of a compiled module's resource
// reference. The returned slot holds one tag per variant; failed variants
// hold the null tag and their errors are joined.
func (c *Cache) ResolveRef(ctx context.Context, txn *store.Txn, ref ir.ResourceRef) ([]ir.Tag, error) {
	gammas := ref.Variants()
	slot := make([]ir.Tag, len(gammas))
	var errs []error
	for i, g := range gammas {
		tag, err := c.Resolve(ctx, txn, ref.Path, ref.Kind, true, Variant{Gamma: g, Type: ref.Type})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		slot[i] = tag
	}
	return slot, errors.Join(errs...)
}

// ValidatePath checks that path is absolute in the MDL namespace: a
// leading slash, no empty, "." or ".." segments, no backslashes and no
// drive letters.
func ValidatePath(path string) error {
	if path == "" || path == "/" || !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if strings.ContainsAny(path, `\:`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, seg := range strings.Split(path[1:], "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

func checkVariant(kind ir.ResourceKind, v Variant) error {
	if !kind.Valid() {
		return fmt.Errorf("resource: unknown kind %q", kind)
	}
	if !v.Gamma.Valid() {
		return fmt.Errorf("resource: unknown gamma %q", v.Gamma)
	}
	if k, ok := v.Type.ResourceKind(); !ok || k != kind {
		return fmt.Errorf("resource: type %q is not a %s", v.Type, kind)
	}
	return nil
}
