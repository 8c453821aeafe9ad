package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/litescript/ls-orbits/internal/astro"
)

// ObjectSnapshot is the exported view of one scene object.
type ObjectSnapshot struct {
	ID       ObjectID   `json:"id" msgpack:"id"`
	Kind     string     `json:"kind" msgpack:"kind"`
	Name     string     `json:"name" msgpack:"name"`
	Color    string     `json:"color,omitempty" msgpack:"color,omitempty"`
	Visible  bool       `json:"visible" msgpack:"visible"`
	Position [3]float64 `json:"position" msgpack:"position"`
	Points   int        `json:"points,omitempty" msgpack:"points,omitempty"`

	// Tracked objects only.
	Valid  bool    `json:"valid,omitempty" msgpack:"valid,omitempty"`
	AltKm  float64 `json:"alt_km,omitempty" msgpack:"alt_km,omitempty"`
	LatDeg float64 `json:"lat_deg,omitempty" msgpack:"lat_deg,omitempty"`
	LonDeg float64 `json:"lon_deg,omitempty" msgpack:"lon_deg,omitempty"`
	Speed  float64 `json:"speed_km_s,omitempty" msgpack:"speed_km_s,omitempty"`
}

// CameraSnapshot is the exported camera.
type CameraSnapshot struct {
	Position [3]float64 `json:"position" msgpack:"position"`
	Target   [3]float64 `json:"target" msgpack:"target"`
	FOV      float64    `json:"fov" msgpack:"fov"`
	Aspect   float64    `json:"aspect" msgpack:"aspect"`
}

// Snapshot is a point-in-time export of the scene.
type Snapshot struct {
	Time      time.Time        `json:"time" msgpack:"time"`
	Phase     string           `json:"phase" msgpack:"phase"`
	Mode      string           `json:"mode" msgpack:"mode"`
	Forced    ObjectID         `json:"forced,omitempty" msgpack:"forced,omitempty"`
	Focus     FocusState       `json:"focus" msgpack:"focus"`
	Camera    CameraSnapshot   `json:"camera" msgpack:"camera"`
	Collision *CollisionState  `json:"collision,omitempty" msgpack:"collision,omitempty"`
	Tick      uint64           `json:"tick" msgpack:"tick"`
	Hidden    int              `json:"hidden" msgpack:"hidden"`
	Objects   []ObjectSnapshot `json:"objects" msgpack:"objects"`
}

func vec(v astro.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Snapshot captures the current scene.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Time:   e.now(),
		Phase:  e.phase.String(),
		Mode:   e.filter.Mode.String(),
		Forced: e.filter.Forced,
		Focus:  e.focus.State(),
		Camera: CameraSnapshot{
			Position: vec(e.camera.Position),
			Target:   vec(e.camera.Target),
			FOV:      e.camera.FOV,
			Aspect:   e.camera.Aspect,
		},
		Tick:    e.tickCount,
		Hidden:  e.hidden,
		Objects: make([]ObjectSnapshot, 0, e.graph.Len()),
	}
	if cs, ok := e.Collision(); ok {
		s.Collision = &cs
	}

	e.graph.Each(func(o *Object) {
		s.Objects = append(s.Objects, e.describe(o))
	})
	return s
}

// Describe returns the exported view of one object.
func (e *Engine) Describe(id ObjectID) (ObjectSnapshot, bool) {
	o, ok := e.graph.Get(id)
	if !ok {
		return ObjectSnapshot{}, false
	}
	return e.describe(o), true
}

func (e *Engine) describe(o *Object) ObjectSnapshot {
	out := ObjectSnapshot{
		ID:       o.ID,
		Kind:     o.Kind.String(),
		Name:     o.Name,
		Color:    o.Color,
		Visible:  o.Visible,
		Position: vec(o.Transform.Position),
	}

	switch p := o.Payload.(type) {
	case PointsPayload:
		out.Points = len(p.Points)
	case TrailPayload:
		out.Points = p.Trail.Len()
	case *TrackedPayload:
		out.Valid = p.State.Valid
		if p.State.Valid {
			sp := astro.SubPointAt(p.State.Position, e.now())
			out.AltKm = sp.AltKm
			out.LatDeg = sp.LatDeg
			out.LonDeg = sp.LonDeg
			out.Speed = p.State.Velocity.Norm()
		}
	}
	return out
}

// WriteJSON encodes the snapshot as indented JSON.
func (s Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// WriteMsgpack encodes the snapshot as MessagePack.
func (s Snapshot) WriteMsgpack(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadMsgpack decodes a snapshot written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Write encodes the snapshot in the named format ("json" or "msgpack").
func (s Snapshot) Write(w io.Writer, format string) error {
	switch format {
	case "", "json":
		return s.WriteJSON(w)
	case "msgpack", "mp":
		return s.WriteMsgpack(w)
	default:
		return fmt.Errorf("unknown snapshot format %q", format)
	}
}
