package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/scene"
)

const (
	// Marker glyphs
	glyphSatellite = '●'
	glyphDebris    = '•'
	glyphFocused   = '◆'
	glyphCollision = '✸'
	glyphTrail     = '·'

	// Star glyphs by magnitude
	glyphStarBright = '✶'
	glyphStarMedium = '+'
	glyphStarDim    = '·'

	// Background field stars are thinned to one in starStride.
	starStride = 9

	// Debris cloud points are thinned to one in debrisStride.
	debrisStride = 3

	colorBackground = "236"
	colorFocused    = "229" // bright gold
	colorTooltip    = "#d0c8ff"
	colorNight      = "#0b1426"
	colorStarBright = "255"
	colorStarMedium = "250"
	colorStarDim    = "240"
	colorCloudDim   = "#8a7f5a"
)

// Shading ramp for the lit body, darkest first.
var bodyRamp = []rune(" .:-=+*#%@")

// OrbitViewModel renders the engine's scene graph onto a character canvas.
// Each cell is sampled with one camera ray; points are depth-tested against
// the body using straight-line distance from the camera.
type OrbitViewModel struct {
	width  int
	height int
	top    int // first terminal row of the canvas
}

// NewOrbitViewModel creates an orbit view.
func NewOrbitViewModel() OrbitViewModel {
	return OrbitViewModel{}
}

// SetSize sets the canvas size and its row offset inside the terminal.
func (m OrbitViewModel) SetSize(width, height, top int) OrbitViewModel {
	m.width = width
	m.height = height
	m.top = top
	return m
}

// Viewport returns the canvas rectangle in terminal cells.
func (m OrbitViewModel) Viewport() scene.Viewport {
	return scene.Viewport{
		Left:   0,
		Top:    float64(m.top),
		Width:  float64(m.width),
		Height: float64(m.height),
	}
}

// SurfaceSize returns the dimensions the camera aspect is computed from.
// Terminal cells are roughly twice as tall as wide.
func (m OrbitViewModel) SurfaceSize() (float64, float64) {
	return float64(m.width), float64(m.height) * 2
}

// canvas is a grid of glyphs with per-cell colours and a depth buffer.
type canvas struct {
	width, height int
	cells         [][]rune
	colors        [][]lipgloss.Color
	depth         [][]float64
}

func newCanvas(width, height int) *canvas {
	c := &canvas{
		width:  width,
		height: height,
		cells:  make([][]rune, height),
		colors: make([][]lipgloss.Color, height),
		depth:  make([][]float64, height),
	}
	for y := 0; y < height; y++ {
		c.cells[y] = make([]rune, width)
		c.colors[y] = make([]lipgloss.Color, width)
		c.depth[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			c.cells[y][x] = ' '
			c.colors[y][x] = colorBackground
			c.depth[y][x] = math.Inf(1)
		}
	}
	return c
}

func (c *canvas) inside(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// plot draws r at (x, y) when dist is nearer than what the cell holds.
// Points do not write depth, so later points may overwrite earlier ones.
func (c *canvas) plot(x, y int, dist float64, r rune, color lipgloss.Color) bool {
	if !c.inside(x, y) || dist >= c.depth[y][x] {
		return false
	}
	c.cells[y][x] = r
	c.colors[y][x] = color
	return true
}

// text writes s starting at (x, y), ignoring depth.
func (c *canvas) text(x, y int, s string, color lipgloss.Color) {
	for i, r := range []rune(s) {
		if c.inside(x+i, y) {
			c.cells[y][x+i] = r
			c.colors[y][x+i] = color
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			style := lipgloss.NewStyle().Foreground(c.colors[y][x])
			b.WriteString(style.Render(string(c.cells[y][x])))
		}
		if y < c.height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Render draws the current engine state.
func (m OrbitViewModel) Render(e *scene.Engine) string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	c := newCanvas(m.width, m.height)
	if e == nil || e.Phase() != scene.PhaseRunning {
		return c.String()
	}
	m.paint(c, e)
	return c.String()
}

func (m OrbitViewModel) paint(c *canvas, e *scene.Engine) {
	cam := e.Camera()
	vp := m.Viewport()
	g := e.Graph()

	var body, atmosphere, stars, cloud *scene.Object
	g.Each(func(o *scene.Object) {
		switch o.Kind {
		case scene.KindBody:
			body = o
		case scene.KindAtmosphere:
			atmosphere = o
		case scene.KindStars:
			stars = o
		case scene.KindDebrisCloud:
			cloud = o
		}
	})

	t := e.LastTick()
	if t.IsZero() {
		t = time.Now()
	}
	sun := astro.ECIToScene(astro.SunDirection(t))

	m.paintShells(c, cam, vp, body, atmosphere, sun)
	if stars != nil && stars.Visible {
		m.paintStars(c, cam, vp, stars)
	}
	if cloud != nil && cloud.Visible {
		m.paintPoints(c, cam, vp, cloud, debrisStride, glyphTrail, colorCloudDim)
	}

	focused := e.Focus().TargetID
	collision, armed := e.Collision()

	// Trails first so markers sit on top.
	g.Each(func(o *scene.Object) {
		if o.Kind != scene.KindTrail || !o.Visible {
			return
		}
		p, ok := o.Payload.(scene.TrailPayload)
		if !ok {
			return
		}
		color := lipgloss.Color(o.Color)
		for _, pt := range p.Trail.Points() {
			m.plotPoint(c, cam, vp, pt, glyphTrail, color)
		}
	})

	g.Each(func(o *scene.Object) {
		if !o.Visible {
			return
		}
		switch o.Kind {
		case scene.KindSatellite, scene.KindDebris:
			glyph, color := markerGlyph(o, focused)
			m.plotPoint(c, cam, vp, o.Transform.Position, glyph, color)
		case scene.KindCollisionMarker:
			m.plotPoint(c, cam, vp, o.Transform.Position, glyphCollision, lipgloss.Color(scene.MarkerColor))
		}
	})

	if armed && collision.Transitioning {
		c.text(1, c.height-1, fmt.Sprintf("transition %3.0f%%", collision.Progress*100), lipgloss.Color(scene.MarkerColor))
	}

	if tip, ok := e.Tooltip(); ok {
		m.drawTooltip(c, cam, vp, g, tip)
	}
}

// drawTooltip labels the hovered marker. In cell units the label sits two
// cells right of the marker, clamped to the canvas.
func (m OrbitViewModel) drawTooltip(c *canvas, cam scene.Camera, vp scene.Viewport, g *scene.Graph, tip scene.Tooltip) {
	label := "◄ " + tip.Name
	x, y := int(tip.X), int(tip.Y)
	if o, ok := g.Get(tip.ID); ok {
		if cx, cy, _, ok := m.cellFor(cam, vp, o.Transform.Position); ok {
			x, y = cx+2, cy
		}
	}
	x = max(0, min(x, c.width-len([]rune(label))))
	if y < 0 || y >= c.height {
		return
	}
	c.text(x, y, label, colorTooltip)
}

func markerGlyph(o *scene.Object, focused scene.ObjectID) (rune, lipgloss.Color) {
	if o.ID == focused {
		return glyphFocused, colorFocused
	}
	if o.Kind == scene.KindDebris {
		return glyphDebris, lipgloss.Color(o.Color)
	}
	return glyphSatellite, lipgloss.Color(o.Color)
}

// cellFor projects a world point to a canvas cell and returns the distance
// from the camera.
func (m OrbitViewModel) cellFor(cam scene.Camera, vp scene.Viewport, p astro.Vec3) (int, int, float64, bool) {
	x, y, _, ok := cam.Project(p)
	if !ok || x < -1 || x > 1 || y < -1 || y > 1 {
		return 0, 0, 0, false
	}
	px, py := vp.Pixel(x, y)
	cx := int(math.Floor(px - vp.Left))
	cy := int(math.Floor(py - vp.Top))
	return cx, cy, p.DistanceTo(cam.Position), true
}

func (m OrbitViewModel) plotPoint(c *canvas, cam scene.Camera, vp scene.Viewport, p astro.Vec3, r rune, color lipgloss.Color) bool {
	x, y, dist, ok := m.cellFor(cam, vp, p)
	if !ok {
		return false
	}
	return c.plot(x, y, dist, r, color)
}

func (m OrbitViewModel) paintPoints(c *canvas, cam scene.Camera, vp scene.Viewport, o *scene.Object, stride int, r rune, color lipgloss.Color) {
	p, ok := o.Payload.(scene.PointsPayload)
	if !ok {
		return
	}
	for i := 0; i < len(p.Points); i += stride {
		m.plotPoint(c, cam, vp, o.WorldPoint(p.Points[i]), r, color)
	}
}

// paintStars draws the named bright stars with magnitude glyphs and a thin
// sample of the random field.
func (m OrbitViewModel) paintStars(c *canvas, cam scene.Camera, vp scene.Viewport, o *scene.Object) {
	p, ok := o.Payload.(scene.PointsPayload)
	if !ok {
		return
	}
	bright := astro.BrightStars()
	for i, pt := range p.Points {
		w := o.WorldPoint(pt)
		if i < len(bright) {
			glyph, color := starGlyph(bright[i].Mag)
			m.plotPoint(c, cam, vp, w, glyph, color)
			continue
		}
		if i%starStride == 0 {
			m.plotPoint(c, cam, vp, w, glyphStarDim, colorStarDim)
		}
	}
}

// starGlyph returns the glyph and color for a star based on its magnitude.
func starGlyph(mag float64) (rune, lipgloss.Color) {
	switch {
	case mag < 0.5:
		return glyphStarBright, colorStarBright
	case mag < 1.5:
		return glyphStarMedium, colorStarMedium
	default:
		return glyphStarDim, colorStarDim
	}
}

// paintShells ray-casts the body and its atmosphere. Body cells write depth;
// the atmosphere is a translucent rim and leaves depth untouched.
func (m OrbitViewModel) paintShells(c *canvas, cam scene.Camera, vp scene.Viewport, body, atmosphere *scene.Object, sun astro.Vec3) {
	if body == nil && atmosphere == nil {
		return
	}
	night, _ := colorful.Hex(colorNight)
	day, _ := colorful.Hex(scene.BodyColor)
	glow, _ := colorful.Hex(scene.AtmosphereColor)

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			nx, ny, ok := vp.NDC(vp.Left+float64(x)+0.5, vp.Top+float64(y)+0.5)
			if !ok {
				continue
			}
			ray := cam.Ray(nx, ny)

			if body != nil && body.Visible {
				center := body.Transform.Position
				if t, hit := ray.IntersectSphere(center, body.Radius); hit {
					light := astro.Illumination(ray.At(t).Sub(center), sun)
					idx := int(light * float64(len(bodyRamp)-1))
					glyph := bodyRamp[idx]
					if glyph == ' ' {
						glyph = '.'
					}
					col := night.BlendLab(day, 0.25+0.75*light).Clamped()
					c.cells[y][x] = glyph
					c.colors[y][x] = lipgloss.Color(col.Hex())
					c.depth[y][x] = t
					continue
				}
			}

			if atmosphere != nil && atmosphere.Visible {
				center := atmosphere.Transform.Position
				if _, hit := ray.IntersectSphere(center, atmosphere.Radius); hit {
					bg, _ := colorful.Hex("#303030")
					c.cells[y][x] = '░'
					c.colors[y][x] = lipgloss.Color(bg.BlendLab(glow, 0.35).Clamped().Hex())
				}
			}
		}
	}
}

// renderHUD describes the focused object and the conjunction state.
func renderHUD(e *scene.Engine, width int) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorFocused))
	alertStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(scene.MarkerColor)).Bold(true)

	if e == nil || e.Phase() != scene.PhaseRunning {
		return dimStyle.Render("  no scene")
	}

	var parts []string
	sats, satsVisible := e.Graph().Count(scene.KindSatellite)
	deb, debVisible := e.Graph().Count(scene.KindDebris)
	parts = append(parts, dimStyle.Render(fmt.Sprintf("mode:%s  sats %d/%d  debris %d/%d  hidden %d",
		e.Filter().Mode, satsVisible, sats, debVisible, deb, e.Hidden())))

	if fs := e.Focus(); fs.TargetID != 0 {
		if d, ok := e.Describe(fs.TargetID); ok {
			line := fmt.Sprintf("◆ %s", d.Name)
			if d.Valid {
				line += fmt.Sprintf("  alt %.0f km  lat %.1f°  lon %.1f°  %.2f km/s",
					d.AltKm, d.LatDeg, d.LonDeg, d.Speed)
			}
			parts = append(parts, accentStyle.Render(line))
		}
	}

	if cs, ok := e.Collision(); ok {
		switch {
		case cs.Transitioning:
			parts = append(parts, alertStyle.Render(fmt.Sprintf("✸ avoiding  %.0f%%", cs.Progress*100)))
		case cs.Resolved:
			parts = append(parts, accentStyle.Render("✓ on safe orbit"))
		case cs.Triggered:
			parts = append(parts, alertStyle.Render("✸ conjunction"))
		default:
			parts = append(parts, dimStyle.Render("conjunction armed"))
		}
	}

	line := "  " + strings.Join(parts, dimStyle.Render("  |  "))
	if lipgloss.Width(line) > width && width > 0 {
		line = "  " + parts[0]
	}
	return line
}
