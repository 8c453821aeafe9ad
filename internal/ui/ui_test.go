package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/state"
	"github.com/litescript/ls-orbits/internal/tle"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := New(Options{
		Engine: testEngineConfig(),
		Seed:   7,
		Clock:  testClock,
		State:  state.NewManager(state.DefaultConfig()),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 44})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func loaded() CatalogLoadedMsg {
	return CatalogLoadedMsg{
		Source: "test",
		Result: tle.FetchResult{Records: []tle.Record{issRecord()}, FetchedAt: testEpoch},
	}
}

// loadedModel returns a model with a running ISS-only scene.
func loadedModel(t *testing.T) Model {
	t.Helper()
	m := newTestModel(t)
	next, cmd := m.Update(loaded())
	m = next.(Model)
	if cmd == nil {
		t.Fatal("load should start the tick loop")
	}
	if m.Engine() == nil || m.Engine().Phase() != scene.PhaseRunning {
		t.Fatal("engine not running after load")
	}
	return m
}

func TestModel_InitialView(t *testing.T) {
	m := New(Options{})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before resize = %q", got)
	}
	if m.Init() == nil {
		t.Error("Init() should start loading")
	}

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(plain(m.View()), "Loading element sets") {
		t.Error("placeholder missing while loading")
	}
}

func TestModel_LoadBuildsScene(t *testing.T) {
	m := loadedModel(t)

	if !m.loop.Running() {
		t.Error("loop not running")
	}
	if m.surface.Live() != m.Engine().Resources() {
		t.Errorf("surface live %d, engine resources %d", m.surface.Live(), m.Engine().Resources())
	}
	if snap := m.state.Snapshot(); snap.Records != 1 || snap.Source != "test" {
		t.Errorf("state snapshot = %+v", snap)
	}
	events := m.state.RecentEvents(5)
	if len(events) != 1 || events[0].Type != scene.EventBuilt {
		t.Errorf("journal = %+v, want one BUILT event", events)
	}

	view := plain(m.View())
	for _, want := range []string{"LS-ORBITS", "mode:both", "1 records"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_EmptyLoad(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, CatalogLoadedMsg{Source: "empty"})
	if m.Engine() != nil {
		t.Error("engine built from an empty catalog")
	}
	if m.statusMsg != "no objects to show" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestModel_Tick(t *testing.T) {
	m := loadedModel(t)
	m = update(t, m, TickMsg{Time: testEpoch.Add(time.Second), Gen: m.loop.gen})
	if m.Engine().TickCount() != 1 {
		t.Errorf("TickCount() = %d, want 1", m.Engine().TickCount())
	}
	if n := len(m.state.HiddenHistory()); n != 1 {
		t.Errorf("hidden history has %d points, want 1", n)
	}

	// Ticks from another run are dropped.
	m = update(t, m, TickMsg{Time: testEpoch.Add(2 * time.Second), Gen: m.loop.gen + 1})
	if m.Engine().TickCount() != 1 {
		t.Errorf("stale tick processed: TickCount() = %d", m.Engine().TickCount())
	}
}

func TestModel_Keys(t *testing.T) {
	m := loadedModel(t)
	iss, _ := m.Engine().Graph().Find(scene.KindSatellite, "ISS (ZARYA)")

	m = update(t, m, key("m"))
	if got := m.Engine().Filter().Mode; got != scene.ModeSatellites {
		t.Errorf("mode after m = %v, want satellites", got)
	}

	m = update(t, m, key("tab"))
	if got := m.Engine().Focus().TargetID; got != iss.ID {
		t.Errorf("focus after tab = %d, want %d", got, iss.ID)
	}

	m = update(t, m, key("esc"))
	if got := m.Engine().Focus().TargetID; got != 0 {
		t.Errorf("focus after esc = %d, want 0", got)
	}

	m = update(t, m, key("k"))
	if got := m.Engine().Focus().TargetID; got != iss.ID {
		t.Errorf("focus after k = %d, want %d", got, iss.ID)
	}
}

func TestModel_QuitDisposes(t *testing.T) {
	m := loadedModel(t)
	e, s := m.Engine(), m.surface

	next, cmd := m.Update(key("q"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if e.Phase() != scene.PhaseDisposed {
		t.Errorf("engine phase = %v, want disposed", e.Phase())
	}
	if s.Live() != 0 {
		t.Errorf("%d draw slots leaked", s.Live())
	}
	if m.loop.Running() {
		t.Error("loop still running after quit")
	}
}

func TestModel_Reload(t *testing.T) {
	m := loadedModel(t)
	old := m.Engine()
	gen := m.loop.gen

	next, cmd := m.Update(key("r"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("reload returned no command")
	}
	if m.Engine() != nil || !m.loading {
		t.Error("reload should tear down and start loading")
	}
	if old.Phase() != scene.PhaseDisposed {
		t.Error("old engine not disposed")
	}

	// A tick scheduled by the old engine's loop must not reach anything.
	m = update(t, m, TickMsg{Time: testEpoch, Gen: gen})

	// Reload while loading is ignored.
	if _, cmd := m.Update(key("r")); cmd != nil {
		t.Error("reload while loading should do nothing")
	}

	m = update(t, m, loaded())
	if m.Engine() == nil || m.Engine() == old {
		t.Fatal("reload did not build a new engine")
	}

	m = update(t, m, key("r"))
	if m.statusMsg != "reload cooling down" {
		t.Errorf("statusMsg = %q, want cooldown", m.statusMsg)
	}
	if m.Engine() == nil {
		t.Error("cooldown should keep the running engine")
	}
}

func TestModel_ReloadFetchFailure(t *testing.T) {
	m := loadedModel(t)
	m = update(t, m, key("r"))

	failed := CatalogLoadedMsg{
		Source: "test",
		Result: tle.FetchResult{Error: errors.New("network down"), FetchedAt: testEpoch},
	}
	next, cmd := m.Update(failed)
	m = next.(Model)
	if m.Engine() != nil {
		t.Fatalf("scene built after a failed fetch: phase=%v", m.Engine().Phase())
	}
	if cmd != nil {
		t.Error("a failed fetch should not start the tick loop")
	}
	if m.loading {
		t.Error("still loading after the fetch completed")
	}
	if !strings.Contains(m.statusMsg, "network down") {
		t.Errorf("statusMsg = %q, want the fetch error", m.statusMsg)
	}
	if !strings.Contains(plain(m.View()), "No scene") {
		t.Error("placeholder missing after a failed fetch")
	}
}

func TestModel_ScenarioFailureBlocksBuild(t *testing.T) {
	m := newTestModel(t)
	msg := loaded()
	msg.ConjunctionErr = errors.New("prediction service returned status 503")

	m = update(t, m, msg)
	if m.Engine() != nil {
		t.Fatalf("scene built after a failed prediction: phase=%v", m.Engine().Phase())
	}
	if !strings.Contains(m.statusMsg, "503") {
		t.Errorf("statusMsg = %q, want the prediction error", m.statusMsg)
	}
}

func TestModel_HoverMarkerCell(t *testing.T) {
	m := loadedModel(t)
	e := m.Engine()
	iss, _ := e.Graph().Find(scene.KindSatellite, "ISS (ZARYA)")
	vp := m.orbitView.Viewport()

	now := testEpoch
	m = update(t, m, TickMsg{Time: now, Gen: m.loop.gen})
	for i := 0; i < 40; i++ {
		cx, cy, _, ok := m.orbitView.cellFor(e.Camera(), vp, iss.Transform.Position)
		if !ok {
			t.Fatalf("step %d: ISS not on the canvas", i)
		}
		m = update(t, m, tea.MouseMsg{X: cx, Y: cy + int(vp.Top), Action: tea.MouseActionMotion})
		now = now.Add(97 * time.Second)
		m = update(t, m, TickMsg{Time: now, Gen: m.loop.gen})

		if tip, ok := e.Tooltip(); !ok || tip.ID != iss.ID {
			t.Errorf("step %d: hovering the marker's cell (%d,%d) gave tooltip %+v, %v", i, cx, cy, tip, ok)
		}
	}
}

func TestModel_MouseHoverAndClick(t *testing.T) {
	m := loadedModel(t)
	e := m.Engine()
	iss, _ := e.Graph().Find(scene.KindSatellite, "ISS (ZARYA)")

	vp := m.orbitView.Viewport()
	x, y, _, ok := e.Camera().Project(iss.Transform.Position)
	if !ok {
		t.Fatal("ISS not projectable")
	}
	px, py := vp.Pixel(x, y)
	at := tea.MouseMsg{X: int(px), Y: int(py)}

	motion := at
	motion.Action = tea.MouseActionMotion
	m = update(t, m, motion)
	m = update(t, m, TickMsg{Time: testEpoch, Gen: m.loop.gen})
	if tip, ok := e.Tooltip(); !ok || tip.ID != iss.ID {
		t.Errorf("tooltip = %+v, %v", tip, ok)
	}

	click := at
	click.Action = tea.MouseActionPress
	click.Button = tea.MouseButtonLeft
	m = update(t, m, click)
	m = update(t, m, TickMsg{Time: testEpoch, Gen: m.loop.gen})
	if got := e.Focus().TargetID; got != iss.ID {
		t.Errorf("focus after click = %d, want %d", got, iss.ID)
	}

	// Leaving the canvas clears the tooltip on the next tick.
	m = update(t, m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionMotion})
	update(t, m, TickMsg{Time: testEpoch, Gen: m.loop.gen})
	if _, ok := e.Tooltip(); ok {
		t.Error("tooltip survived leaving the canvas")
	}
}

func TestJournalLine(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []scene.Event{
		{Type: scene.EventBuilt, Timestamp: at},
		{Type: scene.EventSelected, Timestamp: at.Add(time.Second), Name: "ISS"},
	}
	got := journalLine(events)
	want := "03:04:06 selected ISS · 03:04:05 built"
	if got != want {
		t.Errorf("journalLine() = %q, want %q", got, want)
	}
}

func TestGradientColor(t *testing.T) {
	if got := gradientColor(0, 0, 10, 1); got != "#3B82F6" {
		t.Errorf("gradientColor start = %s, want #3B82F6", got)
	}
	got := gradientColor(9, 0, 10, 1)
	if len(got) != 7 || got[0] != '#' {
		t.Errorf("gradientColor end = %q", got)
	}
}
