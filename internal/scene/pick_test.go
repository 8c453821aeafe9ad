package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/tle"
)

// issPixel builds an ISS-only scene and returns the pixel under the marker.
func issPixel(t *testing.T, vp Viewport) (*Engine, *Object, float64, float64) {
	t.Helper()
	e, _ := buildEngine(t, []tle.Record{issRecord()}, testOptions())
	e.Resize(vp.Width, vp.Height)

	iss, ok := e.Graph().Find(KindSatellite, "ISS (ZARYA)")
	require.True(t, ok)
	require.True(t, iss.Visible)

	x, y, _, ok := e.Camera().Project(iss.Transform.Position)
	require.True(t, ok)
	px, py := vp.Pixel(x, y)
	return e, iss, px, py
}

func TestPick(t *testing.T) {
	vp := Viewport{Left: 100, Top: 50, Width: 800, Height: 600}
	e, iss, px, py := issPixel(t, vp)

	t.Run("hit", func(t *testing.T) {
		id, ok := e.Pick(px, py, vp)
		require.True(t, ok)
		assert.Equal(t, iss.ID, id)
	})

	t.Run("near miss within radius", func(t *testing.T) {
		id, ok := e.Pick(px+0.5, py-0.5, vp)
		require.True(t, ok)
		assert.Equal(t, iss.ID, id)
	})

	t.Run("corner misses", func(t *testing.T) {
		_, ok := e.Pick(vp.Left, vp.Top, vp)
		assert.False(t, ok)
	})

	t.Run("empty viewport", func(t *testing.T) {
		_, ok := e.Pick(px, py, Viewport{})
		assert.False(t, ok)
	})
}

func TestPick_ScreenSlack(t *testing.T) {
	// Terminal-sized viewport: one pixel is a whole cell.
	vp := Viewport{Width: 80, Height: 40}
	e, iss, px, py := issPixel(t, vp)

	_, ok := e.Pick(px+0.9, py+0.9, vp)
	require.False(t, ok, "ray should miss the marker sphere")

	e.cfg.PickSlack = 1
	id, ok := e.Pick(px+0.9, py+0.9, vp)
	require.True(t, ok)
	assert.Equal(t, iss.ID, id)

	_, ok = e.Pick(px+1.5, py, vp)
	assert.False(t, ok)
}

func TestPick_SceneryNeverPickable(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	e, _, _, _ := issPixel(t, vp)
	e.SetMode(ModeDebris)

	// Straight through the body and atmosphere.
	x, y, _, ok := e.Camera().Project(astro.Vec3{})
	require.True(t, ok)
	px, py := vp.Pixel(x, y)

	_, hit := e.Pick(px, py, vp)
	assert.False(t, hit)
}

func TestPick_HiddenMarkersAreSkipped(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	e, _, px, py := issPixel(t, vp)

	e.SetMode(ModeDebris)
	_, ok := e.Pick(px, py, vp)
	assert.False(t, ok)
}

func TestPointer_Tooltip(t *testing.T) {
	vp := Viewport{Left: 100, Top: 50, Width: 800, Height: 600}
	e, iss, px, py := issPixel(t, vp)

	// Only the latest move before a tick counts.
	e.PointerMove(px, py, vp)
	e.PointerMove(vp.Left, vp.Top, vp)
	e.Tick(testEpoch)
	_, ok := e.Tooltip()
	assert.False(t, ok)

	e.PointerMove(vp.Left, vp.Top, vp)
	e.PointerMove(px, py, vp)
	e.Tick(testEpoch)
	tip, ok := e.Tooltip()
	require.True(t, ok)
	assert.Equal(t, iss.ID, tip.ID)
	assert.Equal(t, "ISS (ZARYA)", tip.Name)
	assert.InDelta(t, px-vp.Left+tooltipOffset, tip.X, 1e-9)
	assert.InDelta(t, py-vp.Top+tooltipOffset, tip.Y, 1e-9)

	// No new input keeps the tooltip.
	e.Tick(testEpoch)
	_, ok = e.Tooltip()
	assert.True(t, ok)

	e.PointerLeave()
	e.Tick(testEpoch)
	_, ok = e.Tooltip()
	assert.False(t, ok)
}

func TestPointer_TooltipDroppedWhenHidden(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	e, _, px, py := issPixel(t, vp)

	e.PointerMove(px, py, vp)
	e.Tick(testEpoch)
	_, ok := e.Tooltip()
	require.True(t, ok)

	e.SetMode(ModeDebris)
	e.Tick(testEpoch)
	_, ok = e.Tooltip()
	assert.False(t, ok)
}

func TestPointer_ClickSelects(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	e, iss, px, py := issPixel(t, vp)

	// Clicks resolve on the next tick, not before.
	e.Click(px, py, vp)
	assert.False(t, e.Focus().Active())

	e.Tick(testEpoch)
	assert.Equal(t, iss.ID, e.Focus().TargetID)
	assert.Equal(t, iss.ID, e.Filter().Forced)
	_, ok := e.TrailOf(iss.ID)
	assert.True(t, ok)

	// A click on empty space keeps the focus.
	e.Click(vp.Left, vp.Top, vp)
	e.Tick(testEpoch.Add(time.Second))
	assert.Equal(t, iss.ID, e.Focus().TargetID)
}

func TestPointer_IgnoredWhenNotRunning(t *testing.T) {
	e := New([]tle.Record{issRecord()}, testOptions())
	vp := Viewport{Width: 10, Height: 10}
	e.PointerMove(5, 5, vp)
	e.Click(5, 5, vp)

	require.NoError(t, e.Build(newCountingSurface()))
	e.Tick(testEpoch)
	assert.False(t, e.Focus().Active())
	_, ok := e.Tooltip()
	assert.False(t, ok)
}
