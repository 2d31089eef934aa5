package gen

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdgen/internal/testutil"
)

func TestWithHeader(t *testing.T) {
	t.Run("sets header", func(t *testing.T) {
		c := &Config{}
		err := WithHeader("Custom header")(c)

		require.NoError(t, err)
		assert.Equal(t, "Custom header", c.Header)
	})

	t.Run("empty header is allowed", func(t *testing.T) {
		c := &Config{Header: "existing"}
		err := WithHeader("")(c)

		require.NoError(t, err)
		assert.Equal(t, "", c.Header)
	})
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty package", WithPackage("")},
		{"empty target", WithTarget("")},
		{"zero workers", WithWorkers(0)},
		{"negative seed rows", WithSeedRows(-1)},
		{"no artifacts", WithArtifacts()},
		{"unknown artifact", WithArtifacts("swagger")},
		{"nil logger", WithLogger(nil)},
		{"empty run id", WithRunID("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opt(&Config{})
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewConfig(WithTarget(t.TempDir()), WithPackage("github.com/acme/clinica"))
		require.NoError(t, err)
		assert.Equal(t, DefaultHeader, c.Header)
		assert.Equal(t, runtime.GOMAXPROCS(0), c.Workers)
		assert.Equal(t, 10, c.SeedRows)
		assert.Equal(t, Artifacts(), c.Artifacts)
		assert.NotEmpty(t, c.RunID)
		assert.NotNil(t, c.Logger)
		assert.False(t, c.Force)
	})

	t.Run("options", func(t *testing.T) {
		l := testutil.NewTestLogger(t)
		c, err := NewConfig(
			WithTarget("out"),
			WithPackage("github.com/acme/clinica"),
			WithWorkers(2),
			WithSeedRows(25),
			WithForce(true),
			WithArtifacts(ArtifactMigration, ArtifactModel),
			WithLogger(l),
			WithRunID("run-1"),
		)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Workers)
		assert.Equal(t, 25, c.SeedRows)
		assert.True(t, c.Force)
		assert.True(t, c.Enabled(ArtifactModel))
		assert.False(t, c.Enabled(ArtifactSeeder))
		assert.Same(t, l, c.Logger)
		assert.Equal(t, "run-1", c.RunID)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := NewConfig(WithPackage("github.com/acme/clinica"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingConfig)
	})

	t.Run("missing package", func(t *testing.T) {
		_, err := NewConfig(WithTarget("out"))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestApplyAll(t *testing.T) {
	c := &Config{}
	err := c.ApplyAll(WithWorkers(0), WithSeedRows(0), WithHeader("ok"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workers")
	assert.Contains(t, err.Error(), "SeedRows")
	assert.Equal(t, "ok", c.Header)
}

func TestMustNewConfig(t *testing.T) {
	assert.Panics(t, func() { MustNewConfig() })
	assert.NotPanics(t, func() {
		MustNewConfig(WithTarget("out"), WithPackage("x"), WithLogger(slog.Default()))
	})
}
