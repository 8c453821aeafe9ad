package orbit

import (
	"sort"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
)

// DefaultSamples is the number of points in a trail.
const DefaultSamples = 180

// TrailPoint is one trail sample in scene world units.
type TrailPoint struct {
	Offset time.Duration // time after the trail epoch
	Point  astro.Vec3
}

// Trail is one orbital period of samples taken strictly after Epoch.
// Samples whose propagation was invalid are omitted, so Len may be smaller
// than Requested.
type Trail struct {
	Epoch     time.Time
	Step      time.Duration
	Requested int
	Samples   []TrailPoint
}

// Sample propagates h at epoch + i*step for i = 1..n, where step is the
// orbital period divided by n.
func Sample(h *Handle, epoch time.Time, n int) Trail {
	tr := Trail{Epoch: epoch, Requested: n}
	if h == nil || n <= 0 || h.period <= 0 {
		return tr
	}

	tr.Step = h.period / time.Duration(n)
	if tr.Step <= 0 {
		return tr
	}

	tr.Samples = make([]TrailPoint, 0, n)
	for i := 1; i <= n; i++ {
		off := time.Duration(i) * tr.Step
		st := h.Propagate(epoch.Add(off))
		if !st.Valid {
			continue
		}
		tr.Samples = append(tr.Samples, TrailPoint{Offset: off, Point: st.Scene()})
	}
	return tr
}

// Len returns the number of valid samples.
func (t Trail) Len() int { return len(t.Samples) }

// Period returns the time span the trail covers.
func (t Trail) Period() time.Duration {
	return t.Step * time.Duration(t.Requested)
}

// Points returns the sample positions in order.
func (t Trail) Points() []astro.Vec3 {
	pts := make([]astro.Vec3, len(t.Samples))
	for i, s := range t.Samples {
		pts[i] = s.Point
	}
	return pts
}

// Index returns the sample at i wrapped by the trail length.
func (t Trail) Index(i int) (astro.Vec3, bool) {
	n := len(t.Samples)
	if n == 0 {
		return astro.Vec3{}, false
	}
	i %= n
	if i < 0 {
		i += n
	}
	return t.Samples[i].Point, true
}

// At returns the position elapsed after the epoch, wrapped by one period and
// interpolated between the neighbouring samples.
func (t Trail) At(elapsed time.Duration) (astro.Vec3, bool) {
	s := t.Samples
	period := t.Period()
	if len(s) == 0 || period <= 0 {
		return astro.Vec3{}, false
	}

	e := elapsed % period
	if e < 0 {
		e += period
	}

	j := sort.Search(len(s), func(i int) bool { return s[i].Offset >= e })

	var a, b TrailPoint
	switch j {
	case 0:
		a, b = s[len(s)-1], s[0]
		a.Offset -= period
	case len(s):
		a, b = s[len(s)-1], s[0]
		b.Offset += period
	default:
		a, b = s[j-1], s[j]
	}

	if b.Offset == e {
		return b.Point, true
	}
	span := b.Offset - a.Offset
	if span <= 0 {
		return b.Point, true
	}
	return a.Point.Lerp(b.Point, float64(e-a.Offset)/float64(span)), true
}
