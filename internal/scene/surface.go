package scene

// Surface is the render target. It backs each drawable object with a
// resource the engine must release exactly once.
type Surface interface {
	Acquire(o *Object) (Resource, error)
}

// Resource is renderer-owned storage for one object.
type Resource interface {
	Release()
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(o *Object) (Resource, error)

// Acquire calls f.
func (f SurfaceFunc) Acquire(o *Object) (Resource, error) {
	return f(o)
}
