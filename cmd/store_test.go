package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rival-intel/internal/config"
)

func TestInitStore_SQLite(t *testing.T) {
	tmpDir := t.TempDir()
	dsn := filepath.Join(tmpDir, "test.db")

	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: dsn,
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck
}

func TestInitStore_SQLiteDefaultDSN(t *testing.T) {
	// When DatabaseURL is empty, initStore should default to "rival-intel.db".
	// Run in a temp dir so we don't create files in the project root.
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: "",
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck

	_, statErr := os.Stat(filepath.Join(tmpDir, "rival-intel.db"))
	assert.NoError(t, statErr)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver: "mysql",
		},
	}

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestValidateKeys_MissingGemini(t *testing.T) {
	cfg = &config.Config{}

	err := validateKeys()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RIVAL_GEMINI_KEY")
}

func TestValidateKeys_GeminiOnly(t *testing.T) {
	cfg = &config.Config{
		Gemini: config.GeminiConfig{Key: "test-key"},
	}

	assert.NoError(t, validateKeys())
}

func TestInitRegistry_Default(t *testing.T) {
	cfg = &config.Config{}

	reg, err := initRegistry()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash-lite", reg.Default().ID)
}

func TestInitRegistry_MissingCatalogFile(t *testing.T) {
	cfg = &config.Config{
		Models: config.ModelsConfig{Catalog: "/nonexistent/catalog.yaml"},
	}

	reg, err := initRegistry()
	assert.Nil(t, reg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "load model catalog")
}
