package ui

import (
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/tle"
)

const (
	issLine1   = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2   = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
	crossLine2 = "2 25544 131.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
	safeLine2  = "2 25544  51.6416 257.4627 0006703 130.5360 325.0288 15.72125391563537"
)

var testEpoch = time.Date(2008, 9, 20, 12, 25, 0, 0, time.UTC)

func issRecord() tle.Record {
	return tle.Record{Name: "ISS (ZARYA)", Line1: issLine1, Line2: issLine2}
}

func testEngineConfig() scene.Config {
	cfg := scene.DefaultConfig()
	cfg.StarCount = 64
	cfg.DebrisCount = 32
	return cfg
}

func testClock() time.Time { return testEpoch }

// runningEngine builds an ISS-only scene on a terminal surface.
func runningEngine(t *testing.T) (*scene.Engine, *termSurface) {
	t.Helper()
	e := scene.New([]tle.Record{issRecord()}, scene.Options{
		Config: testEngineConfig(),
		Rand:   rand.New(rand.NewSource(7)),
		Clock:  testClock,
	})
	s := newTermSurface()
	if err := e.Build(s); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return e, s
}

func plain(s string) string {
	return ansi.Strip(s)
}
