// Package orbit wraps the SGP4 model: compiled propagation handles, trail
// sampling and a bounded handle cache.
package orbit

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/tle"
)

// Radius bounds outside which a propagated position is treated as
// degenerate (decayed, or numerically diverged).
const (
	MinRadiusKm = 6200.0
	MaxRadiusKm = 1.0e6
)

// State is the result of propagating a record to an instant.
type State struct {
	Position astro.Vec3 // ECI, km
	Velocity astro.Vec3 // ECI, km/s
	Valid    bool
}

// Scene returns the position in scene world units, Y up.
func (s State) Scene() astro.Vec3 {
	return astro.KmToWorld(astro.ECIToScene(s.Position))
}

// Handle is a compiled element set. It holds no mutable state, so
// concurrent Propagate calls are safe and repeatable.
type Handle struct {
	rec    tle.Record
	sat    satellite.Satellite
	period time.Duration
}

// Compile validates rec and initializes the SGP4 model for it.
func Compile(rec tle.Record) (h *Handle, err error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("compile %q: %w", rec.Name, err)
	}
	period, ok := rec.Period()
	if !ok {
		return nil, fmt.Errorf("compile %q: %w", rec.Name, tle.ErrMalformed)
	}

	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("compile %q: %w: %v", rec.Name, tle.ErrMalformed, r)
		}
	}()

	sat := satellite.TLEToSat(rec.Line1, rec.Line2, satellite.GravityWGS72)
	return &Handle{rec: rec, sat: sat, period: period}, nil
}

// Record returns the element set the handle was compiled from.
func (h *Handle) Record() tle.Record { return h.rec }

// Name returns the object name.
func (h *Handle) Name() string { return h.rec.Name }

// Period returns the orbital period derived from the mean motion.
func (h *Handle) Period() time.Duration { return h.period }

// Propagate returns the state at t. The SGP4 model is evaluated at whole
// seconds; sub-second times interpolate linearly between the two
// neighbouring evaluations. Degenerate results come back with Valid false.
func (h *Handle) Propagate(t time.Time) State {
	if h == nil {
		return State{}
	}
	t = t.UTC()
	base := t.Truncate(time.Second)
	a := h.propagateAt(base)
	frac := t.Sub(base).Seconds()
	if frac == 0 || !a.Valid {
		return a
	}
	b := h.propagateAt(base.Add(time.Second))
	if !b.Valid {
		return State{}
	}
	return State{
		Position: a.Position.Lerp(b.Position, frac),
		Velocity: a.Velocity.Lerp(b.Velocity, frac),
		Valid:    true,
	}
}

func (h *Handle) propagateAt(t time.Time) (st State) {
	defer func() {
		if r := recover(); r != nil {
			st = State{}
		}
	}()

	pos, vel := satellite.Propagate(h.sat,
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())

	st = State{
		Position: astro.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: astro.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}
	st.Valid = plausible(st.Position)
	return st
}

// Propagate compiles rec and evaluates it at t in one step. A record that
// cannot be compiled yields an invalid state.
func Propagate(rec tle.Record, t time.Time) State {
	h, err := Compile(rec)
	if err != nil {
		return State{}
	}
	return h.Propagate(t)
}

func plausible(p astro.Vec3) bool {
	if !p.IsFinite() {
		return false
	}
	r := p.Norm()
	return r >= MinRadiusKm && r <= MaxRadiusKm
}
