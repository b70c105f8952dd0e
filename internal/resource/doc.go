// Package resource resolves texture, light profile and measured BSDF
// references into stored resource entries.
//
// Shared entries are deduplicated store-wide on the resolved location and
// the variant (gamma mode and texture shape): the store's resource index
// decides the winner atomically, and concurrent resolutions of the same
// key inside one process are collapsed before they reach the store.
package resource
