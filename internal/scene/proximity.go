package scene

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/tle"
)

// CollisionDistance is the default trigger threshold in world units.
const CollisionDistance = 0.3

// BlendMode selects how the original and alternate trails are paired while
// transitioning.
type BlendMode int

const (
	// BlendTime pairs the samples at the same elapsed time since each
	// trail's epoch, wrapped by each trail's own period.
	BlendTime BlendMode = iota
	// BlendIndex pairs samples by a shared tick counter modulo the shorter
	// trail length.
	BlendIndex
)

func (b BlendMode) String() string {
	switch b {
	case BlendTime:
		return "time"
	case BlendIndex:
		return "index"
	default:
		return "unknown"
	}
}

// ParseBlendMode parses "time" or "index".
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "time":
		return BlendTime, nil
	case "index":
		return BlendIndex, nil
	default:
		return BlendTime, fmt.Errorf("unknown blend mode %q", s)
	}
}

// ProximityConfig tunes conjunction detection and the trajectory transition.
type ProximityConfig struct {
	Distance   float64       // trigger threshold, world units
	Delay      time.Duration // trigger to transition start
	Step       float64       // progress advance per tick
	Blend      BlendMode
	Samples    int // original trail samples
	AltSamples int // alternate trail samples
}

// DefaultProximityConfig returns the stock tuning.
func DefaultProximityConfig() ProximityConfig {
	return ProximityConfig{
		Distance:   CollisionDistance,
		Delay:      1500 * time.Millisecond,
		Step:       0.01,
		Blend:      BlendTime,
		Samples:    200,
		AltSamples: 180,
	}
}

// ConjunctionSetup names the protected object, the threat, and the
// corrected element set the protected object moves onto.
type ConjunctionSetup struct {
	Protected tle.Record
	Threat    tle.Record
	Alternate tle.Record
}

// CollisionState is the observable conjunction state. Triggered never goes
// back to false within one engine; Resolved excludes Transitioning.
type CollisionState struct {
	Armed         bool      `json:"armed" msgpack:"armed"`
	Triggered     bool      `json:"triggered" msgpack:"triggered"`
	Transitioning bool      `json:"transitioning" msgpack:"transitioning"`
	Resolved      bool      `json:"resolved" msgpack:"resolved"`
	Progress      float64   `json:"progress" msgpack:"progress"`
	Distance      float64   `json:"distance" msgpack:"distance"`
	TriggeredAt   time.Time `json:"triggered_at,omitempty" msgpack:"triggered_at,omitempty"`
	Marker        ObjectID  `json:"marker,omitempty" msgpack:"marker,omitempty"`
}

type proximityEvent int

const (
	proxNone proximityEvent = iota
	proxTriggered
	proxStarted
	proxFinished
)

type conjunction struct {
	cfg       ProximityConfig
	protected ObjectID
	threat    ObjectID
	alternate *orbit.Handle
	altRecord tle.Record
	original  orbit.Trail
	safe      orbit.Trail
	state     CollisionState
	startAt   time.Time
	ticks     int
}

// step advances the state machine one tick. When override is true, pos is
// the blended position the protected object must be drawn at.
func (c *conjunction) step(now time.Time, p, t orbit.State) (ev proximityEvent, pos astro.Vec3, override bool) {
	s := &c.state
	if !s.Armed || s.Resolved {
		return proxNone, astro.Vec3{}, false
	}

	if p.Valid && t.Valid {
		s.Distance = p.Scene().DistanceTo(t.Scene())
	}

	if !s.Triggered {
		if p.Valid && t.Valid && s.Distance < c.cfg.Distance {
			s.Triggered = true
			s.TriggeredAt = now
			c.startAt = now.Add(c.cfg.Delay)
			return proxTriggered, p.Scene(), false
		}
		return proxNone, astro.Vec3{}, false
	}

	if !s.Transitioning {
		if now.Before(c.startAt) {
			return proxNone, astro.Vec3{}, false
		}
		s.Transitioning = true
		s.Progress = 0
		c.ticks = 0
		pos, override = c.blend(now)
		return proxStarted, pos, override
	}

	c.ticks++
	s.Progress = math.Min(1, s.Progress+c.cfg.Step)
	if s.Progress > 1-1e-9 {
		s.Progress = 1
	}
	pos, override = c.blend(now)
	if s.Progress >= 1 {
		s.Transitioning = false
		s.Resolved = true
		return proxFinished, pos, override
	}
	return proxNone, pos, override
}

// blend interpolates between the paired samples of both trails. At full
// progress it returns the alternate sample unchanged.
func (c *conjunction) blend(now time.Time) (astro.Vec3, bool) {
	var a, b astro.Vec3
	var okA, okB bool

	switch c.cfg.Blend {
	case BlendIndex:
		n := min(c.original.Len(), c.safe.Len())
		if n == 0 {
			return astro.Vec3{}, false
		}
		i := c.ticks % n
		a, okA = c.original.Index(i)
		b, okB = c.safe.Index(i)
	default:
		a, okA = c.original.At(now.Sub(c.original.Epoch))
		b, okB = c.safe.At(now.Sub(c.safe.Epoch))
	}

	if !okA || !okB {
		return astro.Vec3{}, false
	}
	if c.state.Progress >= 1 {
		return b, true
	}
	return a.Lerp(b, c.state.Progress), true
}
