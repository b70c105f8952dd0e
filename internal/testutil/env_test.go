package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteModule(t *testing.T) {
	dir := t.TempDir()
	path := WriteModule(t, dir, "::a::b", "functions: []")
	assert.Equal(t, filepath.Join(dir, "a", "b.cue"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "functions: []", string(data))
}

func TestNewEnv_CompilesFixtures(t *testing.T) {
	env := NewEnv(t, WithModule("::extra", "functions: []"), WithResources("/extra.png"))

	for _, name := range []string{BaseModule, SceneModule, "::extra"} {
		_, msgs, err := env.Compiler.ResolveAndCompile(context.Background(), name)
		require.NoError(t, err, "%s: %v", name, msgs)
	}
	for _, p := range append(BaseResources, "/extra.png") {
		_, err := os.Stat(filepath.Join(env.ResourceDir, filepath.FromSlash(p[1:])))
		assert.NoError(t, err)
	}
}
