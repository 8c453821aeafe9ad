// Package scene owns the simulated world: the object graph, camera, picking,
// focus, proximity transitions and the per-tick engine that drives them.
package scene

import (
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/tle"
)

// ObjectID identifies a scene object. Zero means none.
type ObjectID int

// Kind enumerates scene object types.
type Kind int

const (
	KindBody Kind = iota
	KindAtmosphere
	KindStars
	KindDebrisCloud
	KindSatellite
	KindDebris
	KindTrail
	KindCollisionMarker
)

func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindAtmosphere:
		return "atmosphere"
	case KindStars:
		return "stars"
	case KindDebrisCloud:
		return "debris-cloud"
	case KindSatellite:
		return "satellite"
	case KindDebris:
		return "debris"
	case KindTrail:
		return "trail"
	case KindCollisionMarker:
		return "collision-marker"
	default:
		return "unknown"
	}
}

// Pickable reports whether objects of this kind take part in hit testing.
func (k Kind) Pickable() bool {
	return k == KindSatellite || k == KindDebris
}

// Tracked reports whether objects of this kind are propagated every tick.
func (k Kind) Tracked() bool {
	return k == KindSatellite || k == KindDebris
}

// Transform places an object in world units. Rotation holds Euler angles in
// radians; only X and Y are used.
type Transform struct {
	Position astro.Vec3
	Rotation astro.Vec3
}

// Object is one entity in the scene graph.
type Object struct {
	ID        ObjectID
	Kind      Kind
	Name      string
	Color     string // hex tag, e.g. "#4abcf7"
	Radius    float64
	Transform Transform
	Visible   bool
	Payload   Payload
}

// Payload is the kind-specific data attached to an object.
type Payload interface {
	payload()
}

// ShellPayload describes a sphere: the reference body or its atmosphere.
type ShellPayload struct {
	Radius  float64
	Opacity float64
}

// PointsPayload is a batch of points that moves as one object.
type PointsPayload struct {
	Points []astro.Vec3
	Size   float64
}

// TrackedPayload binds a marker to its element set and propagation handle.
type TrackedPayload struct {
	Record tle.Record
	Handle *orbit.Handle
	State  orbit.State
}

// TrailPayload is a sampled orbit owned by a tracked object.
type TrailPayload struct {
	Owner ObjectID
	Trail orbit.Trail
}

// MarkerPayload records where and when a proximity threshold was crossed.
type MarkerPayload struct {
	At        time.Time
	Distance  float64
	Protected ObjectID
	Threat    ObjectID
}

func (ShellPayload) payload()    {}
func (PointsPayload) payload()   {}
func (*TrackedPayload) payload() {}
func (TrailPayload) payload()    {}
func (MarkerPayload) payload()   {}

// Tracked returns the tracked payload of o, if it has one.
func (o *Object) Tracked() (*TrackedPayload, bool) {
	p, ok := o.Payload.(*TrackedPayload)
	return p, ok
}
