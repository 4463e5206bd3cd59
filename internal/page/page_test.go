package page

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkaflik/birdcam/internal/site"
)

func render(t *testing.T, info site.Info, p Page) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, info, p))
	return buf.String()
}

func TestRender(t *testing.T) {
	info := site.Info{Name: "Pond", Comment: "east <bank>"}

	t.Run("refresh meta is present only when refresh is set", func(t *testing.T) {
		view := View{OpenPosition: 135, ClosedPosition: 45, Speed: 90, MovesLeft: 3}

		assert.Contains(t, render(t, info, Adjust(view, 1)), `<meta http-equiv="refresh" content="1">`)
		assert.NotContains(t, render(t, info, Adjust(view, 0)), `http-equiv="refresh"`)
	})

	t.Run("site name and comment are escaped", func(t *testing.T) {
		out := render(t, info, Closed())
		assert.Contains(t, out, "<h1>Pond</h1>")
		assert.Contains(t, out, "east &lt;bank&gt;")
	})

	t.Run("adjust form carries the view values", func(t *testing.T) {
		out := render(t, info, Adjust(View{
			Status:         "The shutter is closed",
			OpenPosition:   135,
			ClosedPosition: 45,
			Speed:          90,
			MoveCount:      17,
			MovesLeft:      3,
		}, 0))

		assert.Contains(t, out, `name="openpos" min="0" max="180" value="135"`)
		assert.Contains(t, out, `name="clpos" min="0" max="180" value="45"`)
		assert.Contains(t, out, `name="speed" min="1" max="400" value="90"`)
		assert.Contains(t, out, `name="ntimes" min="0" max="1000" value="3"`)
		assert.Contains(t, out, "Total shutter moves so far: 17")
		assert.Contains(t, out, "The shutter is closed")
	})

	t.Run("index warns when the shutter is not closed", func(t *testing.T) {
		assert.Contains(t, render(t, info, Index(false)), "The shutter was left open")
		assert.NotContains(t, render(t, info, Index(true)), "The shutter was left open")
	})

	t.Run("site info form is prefilled", func(t *testing.T) {
		out := render(t, info, SiteInfo(info))
		assert.Contains(t, out, `value="Pond"`)
		assert.Contains(t, out, `value="east &lt;bank&gt;"`)
	})
}
