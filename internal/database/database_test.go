package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDatabaseURL_FromEnvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"),
		[]byte("# local\nOTHER=1\nDATABASE_URL = \"postgres://u:p@db/x\"\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	url, err := loadDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/x", url)
}

func TestLoadDatabaseURL_EnvWins(t *testing.T) {
	t.Setenv("DATABASE_URL", " postgres://env/db ")

	url, err := loadDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", url)
}
