package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirs(t *testing.T) {
	home := t.TempDir()

	// idempotent
	require.NoError(t, EnsureDirs(home))
	require.NoError(t, EnsureDirs(home))

	for _, v := range []string{
		filepath.Join(home, ".config", "gnotu"),
		filepath.Join(home, ".cache", "gnotu"),
		filepath.Join(home, ".local", "share", "gnotu", "logs"),
	} {
		info, err := os.Stat(v)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), v)
	}
}

func TestEnsureConfigFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, EnsureDirs(home))
	require.NoError(t, EnsureConfigFile(home))

	path := config.ConfigFilePath(home)
	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ConfigYAML, string(bs))

	// existing file is kept
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644))
	require.NoError(t, EnsureConfigFile(home))
	bs, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(bs), "debug")
}

func TestEnsureFieldsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, EnsureFieldsFile(path))

	reg, err := fields.Load(path)
	require.NoError(t, err)
	f, ok := reg.Lookup("vegetation_type_id")
	require.True(t, ok)
	assert.Equal(t, fields.Ontology, f.Kind)
	assert.Contains(t, reg.Vocabularies(), "land_use")
}

func TestEnsureFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "fields.yaml")
	assert.Error(t, EnsureFieldsFile(path))
}
