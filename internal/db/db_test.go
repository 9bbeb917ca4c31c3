package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(Config{Workspace: dir})
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, filepath.Join(dir, ".architect", "architect.db"), Path(dir))
	_, err = os.Stat(Path(dir))
	require.NoError(t, err)

	var mode string
	require.NoError(t, conn.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestPathDefaultsToCurrentDir(t *testing.T) {
	require.Equal(t, filepath.Join(".", ".architect", "architect.db"), Path(""))
}
