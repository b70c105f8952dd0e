package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceKeyDeterminism(t *testing.T) {
	variant := map[string]any{"gamma": "srgb", "type": "texture_2d"}

	k1, err := ResourceKey("/data/wood.png", variant)
	require.NoError(t, err)
	k2, err := ResourceKey("/data/wood.png", map[string]any{"type": "texture_2d", "gamma": "srgb"})
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "key must not depend on map order")
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestResourceKeyChangesWithInput(t *testing.T) {
	base := map[string]any{"gamma": "srgb"}
	k1, _ := ResourceKey("/data/wood.png", base)
	k2, _ := ResourceKey("/data/oak.png", base)
	k3, _ := ResourceKey("/data/wood.png", map[string]any{"gamma": "linear"})

	assert.NotEqual(t, k1, k2, "different locations should produce different keys")
	assert.NotEqual(t, k1, k3, "different variants should produce different keys")
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain(DomainResource, data), hashWithDomain(DomainSource, data))
	assert.Equal(t, hashWithDomain(DomainSource, data), SourceDigest(data))
}
