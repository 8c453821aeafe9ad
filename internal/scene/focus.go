package scene

import (
	"math"

	"github.com/litescript/ls-orbits/internal/astro"
)

// FocusConfig tunes the camera fly-to.
type FocusConfig struct {
	CameraStep float64 // interpolation advance per tick
	Smoothing  float64 // look-at blend factor per tick
	Zoom       float64 // camera distance as a multiple of the target radius
}

// DefaultFocusConfig returns the stock fly-to tuning.
func DefaultFocusConfig() FocusConfig {
	return FocusConfig{
		CameraStep: 0.02,
		Smoothing:  0.08,
		Zoom:       1.8,
	}
}

// FocusState is the externally visible focus.
type FocusState struct {
	TargetID       ObjectID `json:"target_id" msgpack:"target_id"`
	CameraProgress float64  `json:"camera_progress" msgpack:"camera_progress"`
}

// Active reports whether an object is focused.
func (s FocusState) Active() bool {
	return s.TargetID != 0
}

// Focus moves the camera toward a tracked object. The position fly-to ends
// after a bounded number of steps; look-at smoothing continues while the
// target stays focused.
type Focus struct {
	cfg   FocusConfig
	state FocusState
	from  astro.Vec3
}

// NewFocus returns an idle focus controller.
func NewFocus(cfg FocusConfig) *Focus {
	return &Focus{cfg: cfg}
}

// State returns the current focus.
func (f *Focus) State() FocusState {
	return f.state
}

// Start focuses id, flying from the camera's current position.
func (f *Focus) Start(id ObjectID, cam Camera) {
	f.state = FocusState{TargetID: id}
	f.from = cam.Position
}

// Clear drops the focus.
func (f *Focus) Clear() {
	f.state = FocusState{}
}

// Step moves cam one tick toward target.
func (f *Focus) Step(cam *Camera, target astro.Vec3) {
	if !f.state.Active() {
		return
	}

	if f.state.CameraProgress < 1 {
		f.state.CameraProgress = math.Min(1, f.state.CameraProgress+f.cfg.CameraStep)
		cam.Position = f.from.Lerp(target.Scale(f.cfg.Zoom), f.state.CameraProgress)
	}
	cam.Target = cam.Target.Lerp(target, f.cfg.Smoothing)
}
