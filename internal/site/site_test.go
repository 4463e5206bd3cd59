package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkaflik/birdcam/internal/kv"
)

func TestSiteInfo(t *testing.T) {
	t.Run("unset info has the default name", func(t *testing.T) {
		assert.Equal(t, Info{Name: DefaultName}, Load(kv.NewMemory()))
	})

	t.Run("saved info is loaded back", func(t *testing.T) {
		store := kv.NewMemory()
		require.NoError(t, Save(store, Info{Name: "Pond", Comment: "east bank"}))
		assert.Equal(t, Info{Name: "Pond", Comment: "east bank"}, Load(store))
	})

	t.Run("name and comment use separate namespaces", func(t *testing.T) {
		store := kv.NewMemory()
		require.NoError(t, Save(store, Info{Name: "Pond", Comment: "east bank"}))

		ns, err := store.Open("Comment", true)
		require.NoError(t, err)
		defer ns.Close()
		assert.Equal(t, "east bank", ns.GetString("Name", ""))
	})
}
