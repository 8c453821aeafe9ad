// Package state provides thread-safe state shared between the fetch path,
// the engine and the UI.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/tle"
)

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager holds the loaded catalog, fetch status, the engine event journal
// and a short history of per-tick counts.
type Manager struct {
	mu sync.RWMutex

	// Catalog
	catalog       []tle.Record
	source        string
	dropped       int
	lastFetch     time.Time
	lastError     error
	fetchDuration time.Duration

	// Event journal (ring buffer)
	events       []scene.Event
	maxEvents    int
	eventWriteAt int

	// Hidden-object history, one point per recorded tick
	hidden        []TimeSeries
	maxHistoryLen int

	reloadCooldown time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents      int
	MaxHistoryLen  int
	ReloadCooldown time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents:      50,  // Last 50 events
		MaxHistoryLen:  300, // ~10 s at 30 fps
		ReloadCooldown: 5 * time.Second,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHist := cfg.MaxHistoryLen
	if maxHist <= 0 {
		maxHist = 300
	}
	return &Manager{
		maxEvents:      maxEvents,
		events:         make([]scene.Event, 0, maxEvents),
		maxHistoryLen:  maxHist,
		reloadCooldown: cfg.ReloadCooldown,
	}
}

// UpdateCatalog stores the outcome of a catalog load. A failed load keeps
// the previous catalog.
func (m *Manager) UpdateCatalog(source string, res tle.FetchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastFetch = res.FetchedAt
	if m.lastFetch.IsZero() {
		m.lastFetch = time.Now()
	}
	m.lastError = res.Error
	m.fetchDuration = res.Duration

	if res.Error != nil {
		return
	}
	m.source = source
	m.catalog = append([]tle.Record(nil), res.Records...)
	m.dropped = res.Dropped
}

// Catalog returns a copy of the loaded records.
func (m *Manager) Catalog() []tle.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]tle.Record(nil), m.catalog...)
}

// Record appends an engine event to the journal. It has the signature of
// scene.Options.OnEvent.
func (m *Manager) Record(e scene.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addEvent(e)
}

func (m *Manager) addEvent(e scene.Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// RecordTick appends the hidden-object count for one tick.
func (m *Manager) RecordTick(t time.Time, hidden int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hidden = append(m.hidden, TimeSeries{Timestamp: t, Value: float64(hidden)})
	if len(m.hidden) > m.maxHistoryLen {
		m.hidden = m.hidden[len(m.hidden)-m.maxHistoryLen:]
	}
}

// HiddenHistory returns a copy of the hidden-object history.
func (m *Manager) HiddenHistory() []TimeSeries {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TimeSeries, len(m.hidden))
	copy(out, m.hidden)
	return out
}

// Snapshot is a point-in-time copy of the state.
type Snapshot struct {
	Records       int
	Source        string
	Dropped       int
	LastFetch     time.Time
	LastError     error
	FetchDuration time.Duration
	Events        []scene.Event
}

// Snapshot returns a consistent copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Records:       len(m.catalog),
		Source:        m.source,
		Dropped:       m.dropped,
		LastFetch:     m.lastFetch,
		LastError:     m.lastError,
		FetchDuration: m.fetchDuration,
		Events:        m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []scene.Event {
	if len(m.events) == 0 {
		return nil
	}

	if len(m.events) < m.maxEvents {
		result := make([]scene.Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]scene.Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []scene.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// ReloadCooldown returns the minimum spacing between catalog reloads.
func (m *Manager) ReloadCooldown() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reloadCooldown
}

// HasData returns true once a catalog has loaded.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog != nil
}
