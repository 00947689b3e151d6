// Package testutil holds fixtures shared by command-level tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenesisCUE is a genesis with a gallery owner and two funded accounts.
const GenesisCUE = `owner:        "gallery"
royalty_rate: 5

accounts: [
	{address: "alice", coins: [{denom: "ucosm", amount: "1000"}]},
	{address: "bob", coins: [{denom: "ucosm", amount: "500"}]},
]
`

// WriteFile writes content to name under dir and returns its path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TempDatabase returns a database path in a fresh temporary directory.
func TempDatabase(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "arthouse.db")
}

// ClearEnv unsets the given variables for the duration of the test.
func ClearEnv(t testing.TB, names ...string) {
	t.Helper()
	for _, name := range names {
		if old, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { os.Setenv(name, old) })
		}
	}
}
