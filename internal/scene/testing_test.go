package scene

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-orbits/internal/tle"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

	// Same orbit as the ISS record, tilted to 131.6416°: both pass the
	// ascending node together.
	crossLine2 = "2 25544 131.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

	// The corrected orbit: node shifted by ten degrees.
	safeLine2 = "2 25544  51.6416 257.4627 0006703 130.5360 325.0288 15.72125391563537"
)

var testEpoch = time.Date(2008, 9, 20, 12, 25, 0, 0, time.UTC)

func issRecord() tle.Record {
	return tle.Record{Name: "ISS (ZARYA)", Line1: issLine1, Line2: issLine2}
}

func crossRecord() tle.Record {
	return tle.Record{Name: "COSMOS 2251 DEB", Line1: issLine1, Line2: crossLine2}
}

func safeRecord() tle.Record {
	return tle.Record{Name: "ISS (ZARYA) SAFE", Line1: issLine1, Line2: safeLine2}
}

// neighbourRecord shares the safe orbit under a satellite name.
func neighbourRecord() tle.Record {
	return tle.Record{Name: "NEIGHBOUR", Line1: issLine1, Line2: safeLine2}
}

func twoSatellites() []tle.Record {
	return []tle.Record{issRecord(), neighbourRecord()}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StarCount = 64
	cfg.DebrisCount = 32
	return cfg
}

func testOptions() Options {
	return Options{
		Config: testConfig(),
		Rand:   rand.New(rand.NewSource(7)),
		Clock:  func() time.Time { return testEpoch },
	}
}

// countingSurface hands out resources and remembers every release.
type countingSurface struct {
	acquired int
	failAt   int // fail the n-th acquire (1-based); 0 never fails
	live     map[ObjectID]*countingResource
	all      []*countingResource
}

type countingResource struct {
	id       ObjectID
	released int
	owner    *countingSurface
}

func (r *countingResource) Release() {
	r.released++
	delete(r.owner.live, r.id)
}

func newCountingSurface() *countingSurface {
	return &countingSurface{live: make(map[ObjectID]*countingResource)}
}

var errSurfaceLost = errors.New("surface lost")

func (s *countingSurface) Acquire(o *Object) (Resource, error) {
	s.acquired++
	if s.failAt > 0 && s.acquired == s.failAt {
		return nil, errSurfaceLost
	}
	r := &countingResource{id: o.ID, owner: s}
	s.live[o.ID] = r
	s.all = append(s.all, r)
	return r, nil
}

func (s *countingSurface) requireReleasedOnce(t *testing.T) {
	t.Helper()
	require.Empty(t, s.live)
	for _, r := range s.all {
		require.Equal(t, 1, r.released, "resource for object %d", r.id)
	}
}

func buildEngine(t *testing.T, catalog []tle.Record, opts Options) (*Engine, *countingSurface) {
	t.Helper()
	e := New(catalog, opts)
	s := newCountingSurface()
	require.NoError(t, e.Build(s))
	return e, s
}
