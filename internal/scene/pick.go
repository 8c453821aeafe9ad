package scene

import (
	"math"

	"github.com/litescript/ls-orbits/internal/astro"
)

// tooltipOffset shifts the tooltip away from the pointer, in device pixels.
const tooltipOffset = 12

// Tooltip is the transient hover payload.
type Tooltip struct {
	ID   ObjectID
	Name string
	X, Y float64 // device pixels
}

type pointerEvent struct {
	x, y float64
	vp   Viewport
}

// Pick returns the nearest visible marker under the pointer. A marker is
// hit when the pointer ray passes within its pick radius, or when its
// projection lies within PickSlack pixels of the pointer on both axes.
// Scenery is never pickable.
func (e *Engine) Pick(px, py float64, vp Viewport) (ObjectID, bool) {
	if e.phase != PhaseRunning {
		return 0, false
	}
	x, y, ok := vp.NDC(px, py)
	if !ok {
		return 0, false
	}
	ray := e.camera.Ray(x, y)
	slack := e.cfg.PickSlack
	id, hit := pickNearest(e.graph, e.camera.Position, func(o *Object) bool {
		if _, ok := ray.IntersectSphere(o.Transform.Position, math.Max(o.Radius, e.cfg.PickRadius)); ok {
			return true
		}
		return slack > 0 && nearOnScreen(e.camera, vp, o.Transform.Position, px, py, slack)
	})
	e.metrics.Pick(hit)
	return id, hit
}

// pickNearest returns the hit object closest to the eye.
func pickNearest(g *Graph, eye astro.Vec3, hit func(*Object) bool) (ObjectID, bool) {
	best := math.Inf(1)
	var id ObjectID
	g.Each(func(o *Object) {
		if !o.Kind.Pickable() || !o.Visible || !hit(o) {
			return
		}
		if d := o.Transform.Position.DistanceTo(eye); d < best {
			best = d
			id = o.ID
		}
	})
	return id, id != 0
}

func nearOnScreen(cam Camera, vp Viewport, p astro.Vec3, px, py, slack float64) bool {
	x, y, _, ok := cam.Project(p)
	if !ok {
		return false
	}
	mx, my := vp.Pixel(x, y)
	return math.Abs(mx-px) <= slack && math.Abs(my-py) <= slack
}

// PointerMove records the latest pointer position. It is resolved on the
// next tick; earlier unprocessed moves are discarded.
func (e *Engine) PointerMove(px, py float64, vp Viewport) {
	if e.phase != PhaseRunning {
		return
	}
	e.hover = &pointerEvent{x: px, y: py, vp: vp}
	e.leave = false
}

// PointerLeave records that the pointer left the surface.
func (e *Engine) PointerLeave() {
	if e.phase != PhaseRunning {
		return
	}
	e.hover = nil
	e.leave = true
}

// Click records a click to be resolved on the next tick. Only the latest
// unprocessed click is kept.
func (e *Engine) Click(px, py float64, vp Viewport) {
	if e.phase != PhaseRunning {
		return
	}
	e.click = &pointerEvent{x: px, y: py, vp: vp}
}

// Tooltip returns the current hover tooltip.
func (e *Engine) Tooltip() (Tooltip, bool) {
	if e.tooltip == nil {
		return Tooltip{}, false
	}
	return *e.tooltip, true
}

func (e *Engine) processPointer() {
	if e.leave {
		e.tooltip = nil
		e.leave = false
	}

	if h := e.hover; h != nil {
		e.hover = nil
		if id, ok := e.Pick(h.x, h.y, h.vp); ok {
			o, _ := e.graph.Get(id)
			e.tooltip = &Tooltip{
				ID:   id,
				Name: o.Name,
				X:    h.x - h.vp.Left + tooltipOffset,
				Y:    h.y - h.vp.Top + tooltipOffset,
			}
		} else {
			e.tooltip = nil
		}
	}

	if c := e.click; c != nil {
		e.click = nil
		if id, ok := e.Pick(c.x, c.y, c.vp); ok {
			if err := e.Select(id); err != nil {
				e.log.Debug("click at %.0f,%.0f: %v", c.x, c.y, err)
			}
		}
	}
}

// dropStaleTooltip clears a tooltip whose object is no longer drawn.
func (e *Engine) dropStaleTooltip() {
	if e.tooltip == nil {
		return
	}
	if o, ok := e.graph.Get(e.tooltip.ID); !ok || !o.Visible {
		e.tooltip = nil
	}
}
