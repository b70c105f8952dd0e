package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed keys. The version suffix allows
// the algorithm to change without colliding with old keys.
const (
	DomainResource = "shadestore/resource/v1"
	DomainSource   = "shadestore/source/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ResourceKey computes the shared-resource index key for a resolved
// location and its variant, such as {"gamma": "srgb", "type": "texture_2d"}.
func ResourceKey(location string, variant map[string]any) (string, error) {
	obj := map[string]any{
		"location": location,
		"variant":  variant,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ResourceKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResource, canonical), nil
}

// SourceDigest identifies compiled module source text.
func SourceDigest(src []byte) string {
	return hashWithDomain(DomainSource, src)
}
