package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifacts(t *testing.T) {
	got, err := ParseArtifacts([]string{"Model", " routes "})
	require.NoError(t, err)
	assert.Equal(t, []Artifact{ArtifactModel, ArtifactRoutes}, got)

	_, err = ParseArtifacts([]string{"swagger"})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(ArtifactSeeder)
	require.True(t, ok)
	assert.Equal(t, SeedersDir, k.Dir)
	assert.True(t, k.PerTable)

	k, ok = KindOf(ArtifactRoutes)
	require.True(t, ok)
	assert.False(t, k.PerTable)

	_, ok = KindOf("swagger")
	assert.False(t, ok)
	assert.Len(t, Artifacts(), len(AllKinds))
}

func TestRemoveGenerated(t *testing.T) {
	target := t.TempDir()
	dir := filepath.Join(target, ModelsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	gen := write("cita.go", "// Code generated by erdgen. DO NOT EDIT.\n\npackage models\n")
	own := write("scopes.go", "package models\n")
	empty := write("empty.go", "")

	require.NoError(t, KindModel.cleanup(&Config{Target: target}))
	assert.NoFileExists(t, gen)
	assert.FileExists(t, own)
	assert.FileExists(t, empty)

	t.Run("empty directory is removed", func(t *testing.T) {
		require.NoError(t, os.Remove(own))
		require.NoError(t, os.Remove(empty))
		write("medico.go", "// Code generated by erdgen. DO NOT EDIT.\n")
		require.NoError(t, KindModel.cleanup(&Config{Target: target}))
		assert.NoDirExists(t, dir)
	})
}
