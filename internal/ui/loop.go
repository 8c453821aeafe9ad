package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg drives one engine tick. Gen ties it to the loop run that
// scheduled it.
type TickMsg struct {
	Time time.Time
	Gen  uint64
}

// Loop is the repeating engine tick task. Start begins a run, Cancel ends
// it; ticks from an earlier run are rejected by Accept, so a cancelled loop
// never drives a newer engine.
type Loop struct {
	interval time.Duration
	gen      uint64
	running  bool
}

// NewLoop creates a stopped loop.
func NewLoop(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &Loop{interval: interval}
}

// Start begins a new run and returns the command for its first tick.
func (l *Loop) Start() tea.Cmd {
	l.gen++
	l.running = true
	return l.schedule(l.gen)
}

// Cancel stops the current run. Pending ticks become stale.
func (l *Loop) Cancel() {
	l.running = false
	l.gen++
}

// Accept reports whether msg belongs to the current run.
func (l *Loop) Accept(msg TickMsg) bool {
	return l.running && msg.Gen == l.gen
}

// Next schedules the tick after an accepted one.
func (l *Loop) Next() tea.Cmd {
	if !l.running {
		return nil
	}
	return l.schedule(l.gen)
}

// Running reports whether a run is active.
func (l *Loop) Running() bool {
	return l.running
}

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

func (l *Loop) schedule(gen uint64) tea.Cmd {
	return tea.Tick(l.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, Gen: gen}
	})
}
