package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func() Store {
	dir := t.TempDir()

	return map[string]func() Store{
		"memory": func() Store {
			return NewMemory()
		},
		"file": func() Store {
			f, err := NewFile(filepath.Join(dir, "settings.yaml"))
			require.NoError(t, err)
			return f
		},
		"sqlite": func() Store {
			s, err := NewSQLite(filepath.Join(dir, "settings.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()

			t.Run("missing keys return defaults", func(t *testing.T) {
				ns, err := store.Open("servo", true)
				require.NoError(t, err)
				assert.Equal(t, uint32(24), ns.GetUint("Version", 24))
				assert.Equal(t, "fallback", ns.GetString("Name", "fallback"))
				assert.NoError(t, ns.Close())
			})

			t.Run("read-only namespace rejects writes", func(t *testing.T) {
				ns, err := store.Open("servo", true)
				require.NoError(t, err)
				assert.ErrorIs(t, ns.PutUint("Version", 1), ErrReadOnly)
				assert.NoError(t, ns.Close())
			})

			t.Run("writes are visible after close", func(t *testing.T) {
				ns, err := store.Open("servo", false)
				require.NoError(t, err)
				require.NoError(t, ns.PutUint("OpenPos", 2100))
				require.NoError(t, ns.PutString("Label", "left"))
				require.NoError(t, ns.Close())

				ns, err = store.Open("servo", true)
				require.NoError(t, err)
				assert.Equal(t, uint32(2100), ns.GetUint("OpenPos", 0))
				assert.Equal(t, "left", ns.GetString("Label", ""))
				assert.NoError(t, ns.Close())
			})

			t.Run("namespaces are isolated", func(t *testing.T) {
				ns, err := store.Open("other", true)
				require.NoError(t, err)
				assert.Equal(t, uint32(7), ns.GetUint("OpenPos", 7))
				assert.NoError(t, ns.Close())
			})

			t.Run("closing twice fails", func(t *testing.T) {
				ns, err := store.Open("servo", true)
				require.NoError(t, err)
				require.NoError(t, ns.Close())
				assert.ErrorIs(t, ns.Close(), ErrClosed)
			})

			t.Run("non-numeric value reads as default", func(t *testing.T) {
				ns, err := store.Open("servo", false)
				require.NoError(t, err)
				require.NoError(t, ns.PutString("Speed", "fast"))
				assert.Equal(t, uint32(1000), ns.GetUint("Speed", 1000))
				assert.NoError(t, ns.Close())
			})
		})
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	f, err := NewFile(path)
	require.NoError(t, err)
	ns, err := f.Open("servo.position", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("ShutterMoves", 42))
	require.NoError(t, ns.Close())

	reopened, err := NewFile(path)
	require.NoError(t, err)
	ns, err = reopened.Open("servo.position", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), ns.GetUint("ShutterMoves", 0))
}

func TestFileKeepsLastSavedValuesWhenWriteFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.Mkdir(dir, 0o755))

	f, err := NewFile(filepath.Join(dir, "settings.yaml"))
	require.NoError(t, err)
	ns, err := f.Open("servo.position", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("ShutterMoves", 1))
	require.NoError(t, ns.Close())

	require.NoError(t, os.RemoveAll(dir))

	ns, err = f.Open("servo.position", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("ShutterMoves", 2))
	require.NoError(t, ns.PutUint("EndPos", 2000))
	assert.Error(t, ns.Close())

	ns, err = f.Open("servo.position", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), ns.GetUint("ShutterMoves", 0))
	assert.Equal(t, uint32(0), ns.GetUint("EndPos", 0))
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	ns, err := s.Open("Site", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutString("Name", "garden"))
	require.NoError(t, ns.Close())
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	ns, err = reopened.Open("Site", true)
	require.NoError(t, err)
	assert.Equal(t, "garden", ns.GetString("Name", ""))
}
