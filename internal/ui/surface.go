package ui

import (
	"github.com/litescript/ls-orbits/internal/scene"
)

// termSurface backs scene objects with terminal draw slots. The terminal
// needs no GPU storage, but the slot count keeps leaks visible.
type termSurface struct {
	live     map[scene.ObjectID]*termResource
	acquired int
	released int
}

type termResource struct {
	id      scene.ObjectID
	kind    scene.Kind
	surface *termSurface
	done    bool
}

func newTermSurface() *termSurface {
	return &termSurface{live: make(map[scene.ObjectID]*termResource)}
}

// Acquire implements scene.Surface.
func (s *termSurface) Acquire(o *scene.Object) (scene.Resource, error) {
	r := &termResource{id: o.ID, kind: o.Kind, surface: s}
	s.live[o.ID] = r
	s.acquired++
	return r, nil
}

// Release implements scene.Resource.
func (r *termResource) Release() {
	if r.done {
		return
	}
	r.done = true
	r.surface.released++
	delete(r.surface.live, r.id)
}

// Live returns the number of unreleased slots.
func (s *termSurface) Live() int {
	return len(s.live)
}
