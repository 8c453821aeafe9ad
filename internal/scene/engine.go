package scene

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/astro"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/tle"
)

var (
	ErrEmptyCatalog     = errors.New("catalog is empty")
	ErrNoSurface        = errors.New("no render surface")
	ErrDisposed         = errors.New("engine disposed")
	ErrNotUninitialized = errors.New("engine already built")
	ErrNotRunning       = errors.New("engine not running")
	ErrUnknownObject    = errors.New("unknown or unselectable object")
)

// Phase is the engine lifecycle stage.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseBuilding
	PhaseRunning
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseBuilding:
		return "building"
	case PhaseRunning:
		return "running"
	case PhaseDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Config holds engine tuning.
type Config struct {
	StarCount    int
	DebrisCount  int
	MarkerRadius float64
	PickRadius   float64 // minimum hit radius around markers
	PickSlack    float64 // screen-space hit tolerance in viewport pixels
	TrailSamples int
	Filter       ViewFilter
	Focus        FocusConfig
	Proximity    ProximityConfig
}

// DefaultConfig returns the stock engine tuning.
func DefaultConfig() Config {
	return Config{
		StarCount:    5000,
		DebrisCount:  800,
		MarkerRadius: MarkerRadius,
		PickRadius:   MarkerRadius,
		TrailSamples: orbit.DefaultSamples,
		Focus:        DefaultFocusConfig(),
		Proximity:    DefaultProximityConfig(),
	}
}

// Options configures New. Zero values select defaults.
type Options struct {
	Config      Config
	Rand        *rand.Rand
	Clock       func() time.Time
	Logger      *logging.Logger
	Metrics     *metrics.Recorder
	Cache       *orbit.HandleCache
	OnEvent     func(Event)
	Conjunction *ConjunctionSetup
}

// Engine owns all mutable simulation state for one scene lifetime. It is
// driven from a single goroutine: inputs are recorded and applied on the
// next Tick.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	clock   func() time.Time
	log     *logging.Logger
	metrics *metrics.Recorder
	cache   *orbit.HandleCache
	onEvent func(Event)

	catalog []tle.Record
	setup   *ConjunctionSetup
	dropped int

	phase     Phase
	graph     *Graph
	camera    Camera
	filter    ViewFilter
	focus     *Focus
	conj      *conjunction
	trails    map[ObjectID]ObjectID // owner → trail
	pinned    ObjectID              // owner whose trail the conjunction manages
	surface   Surface
	resources map[ObjectID]Resource
	teardown  []func()

	hover   *pointerEvent
	click   *pointerEvent
	leave   bool
	tooltip *Tooltip

	lastTick  time.Time
	tickCount uint64
	hidden    int
	blended   ObjectID // drawn from trails this tick
}

// New creates an engine for the given catalog. Nothing is allocated until
// Build.
func New(catalog []tle.Record, opts Options) *Engine {
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if cfg.PickRadius < cfg.MarkerRadius {
		cfg.PickRadius = cfg.MarkerRadius
	}

	e := &Engine{
		cfg:       cfg,
		rng:       opts.Rand,
		clock:     opts.Clock,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		cache:     opts.Cache,
		onEvent:   opts.OnEvent,
		catalog:   append([]tle.Record(nil), catalog...),
		setup:     opts.Conjunction,
		graph:     NewGraph(),
		camera:    DefaultCamera(),
		filter:    cfg.Filter,
		focus:     NewFocus(cfg.Focus),
		trails:    make(map[ObjectID]ObjectID),
		resources: make(map[ObjectID]Resource),
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	if e.cache == nil {
		e.cache = orbit.NewHandleCache(0, 0)
	}
	return e
}

// Build compiles the catalog, populates the scene and acquires a resource
// for every object. On failure nothing stays allocated and the engine
// remains Uninitialized.
func (e *Engine) Build(surface Surface) error {
	switch e.phase {
	case PhaseUninitialized:
	case PhaseDisposed:
		return ErrDisposed
	default:
		return ErrNotUninitialized
	}
	if surface == nil {
		return ErrNoSurface
	}
	if len(e.catalog) == 0 && e.setup == nil {
		return ErrEmptyCatalog
	}

	e.phase = PhaseBuilding
	e.surface = surface
	now := e.clock()

	for _, o := range newScenery(e.rng, e.cfg.StarCount, e.cfg.DebrisCount) {
		e.graph.Add(o)
	}

	tracked := 0
	e.dropped = 0
	for _, rec := range e.catalog {
		if _, err := e.addTracked(rec, classify(rec)); err != nil {
			e.dropped++
			e.log.Debug("skip %q: %v", rec.Name, err)
			continue
		}
		tracked++
	}

	if e.setup != nil {
		if err := e.armConjunction(now); err != nil {
			e.abortBuild()
			return fmt.Errorf("conjunction: %w", err)
		}
		tracked++
	}

	if tracked == 0 {
		e.abortBuild()
		return ErrEmptyCatalog
	}

	var acquireErr error
	e.graph.Each(func(o *Object) {
		if acquireErr != nil {
			return
		}
		acquireErr = e.acquire(o)
	})
	if acquireErr != nil {
		e.abortBuild()
		return fmt.Errorf("%w: %v", ErrNoSurface, acquireErr)
	}

	e.phase = PhaseRunning
	e.hidden = e.propagate(now)
	e.applyVisibility()
	e.log.Info("scene built: %d objects, %d tracked, %d dropped", e.graph.Len(), tracked, e.dropped)
	e.emit(Event{Type: EventBuilt, Timestamp: now, Detail: fmt.Sprintf("%d tracked", tracked)})
	return nil
}

// abortBuild releases anything acquired so far and returns to
// Uninitialized.
func (e *Engine) abortBuild() {
	e.releaseAll()
	e.graph = NewGraph()
	e.trails = make(map[ObjectID]ObjectID)
	e.conj = nil
	e.pinned = 0
	e.blended = 0
	e.surface = nil
	e.phase = PhaseUninitialized
}

// classify treats catalog fragments and spent stages as debris.
func classify(rec tle.Record) Kind {
	name := strings.ToUpper(rec.Name)
	if strings.Contains(name, " DEB") || strings.Contains(name, "R/B") {
		return KindDebris
	}
	return KindSatellite
}

func (e *Engine) addTracked(rec tle.Record, kind Kind) (*Object, error) {
	h, err := e.cache.Get(rec)
	if err != nil {
		return nil, err
	}
	o := &Object{
		Kind:    kind,
		Name:    rec.Name,
		Color:   colorTag(e.rng),
		Radius:  e.cfg.MarkerRadius,
		Payload: &TrackedPayload{Record: rec, Handle: h},
	}
	e.graph.Add(o)
	return o, nil
}

func (e *Engine) armConjunction(now time.Time) error {
	s := e.setup

	p, err := e.findOrAddTracked(s.Protected, KindSatellite)
	if err != nil {
		return fmt.Errorf("protected: %w", err)
	}
	t, err := e.findOrAddTracked(s.Threat, KindDebris)
	if err != nil {
		return fmt.Errorf("threat: %w", err)
	}
	alt, err := e.cache.Get(s.Alternate)
	if err != nil {
		return fmt.Errorf("alternate: %w", err)
	}

	pp, _ := p.Tracked()
	cfg := e.cfg.Proximity
	e.conj = &conjunction{
		cfg:       cfg,
		protected: p.ID,
		threat:    t.ID,
		alternate: alt,
		altRecord: s.Alternate,
		original:  orbit.Sample(pp.Handle, now, cfg.Samples),
		safe:      orbit.Sample(alt, now, cfg.AltSamples),
		state:     CollisionState{Armed: true},
	}
	e.pinned = p.ID

	return e.newTrail(p, e.conj.original)
}

// findOrAddTracked reuses the catalog object named like rec, switching it to
// rec's elements, or adds a new one.
func (e *Engine) findOrAddTracked(rec tle.Record, kind Kind) (*Object, error) {
	o, ok := e.graph.Find(kind, rec.Name)
	if !ok {
		o, ok = e.graph.Find(classify(rec), rec.Name)
	}
	if !ok {
		return e.addTracked(rec, kind)
	}
	if tp, _ := o.Tracked(); tp.Record.Key() != rec.Key() {
		h, err := e.cache.Get(rec)
		if err != nil {
			return nil, err
		}
		o.Payload = &TrackedPayload{Record: rec, Handle: h}
	}
	o.Kind = kind
	return o, nil
}

func (e *Engine) acquire(o *Object) error {
	if e.surface == nil {
		return ErrNoSurface
	}
	if _, ok := e.resources[o.ID]; ok {
		return nil
	}
	r, err := e.surface.Acquire(o)
	if err != nil {
		return err
	}
	e.resources[o.ID] = r
	return nil
}

func (e *Engine) release(id ObjectID) {
	if r, ok := e.resources[id]; ok {
		delete(e.resources, id)
		r.Release()
	}
}

func (e *Engine) releaseAll() {
	for id := range e.resources {
		e.release(id)
	}
}

// remove deletes an object and frees its resource.
func (e *Engine) remove(id ObjectID) {
	if _, ok := e.graph.Remove(id); ok {
		e.release(id)
	}
}

// newTrail replaces owner's trail with tr. During Build the resource is
// acquired with everything else.
func (e *Engine) newTrail(owner *Object, tr orbit.Trail) error {
	e.retireTrail(owner.ID)
	if tr.Len() == 0 {
		return nil
	}

	o := &Object{
		Kind:    KindTrail,
		Name:    owner.Name + " trail",
		Color:   owner.Color,
		Visible: owner.Visible,
		Payload: TrailPayload{Owner: owner.ID, Trail: tr},
	}
	id := e.graph.Add(o)
	e.trails[owner.ID] = id

	if e.phase == PhaseBuilding {
		return nil
	}
	if err := e.acquire(o); err != nil {
		e.graph.Remove(id)
		delete(e.trails, owner.ID)
		return err
	}
	return nil
}

// attachTrail samples one period of owner's orbit starting at now.
func (e *Engine) attachTrail(owner *Object, now time.Time) error {
	p, ok := owner.Tracked()
	if !ok {
		return ErrUnknownObject
	}
	return e.newTrail(owner, orbit.Sample(p.Handle, now, e.cfg.TrailSamples))
}

func (e *Engine) retireTrail(owner ObjectID) {
	if id, ok := e.trails[owner]; ok {
		delete(e.trails, owner)
		e.remove(id)
	}
}

// Tick runs one animation step at now.
func Tick(e *Engine, now time.Time) {
	e.Tick(now)
}

// Tick propagates every tracked object to now, applies pending pointer input,
// advances focus and conjunction state, and recomputes visibility. It is a
// no-op unless the engine is Running.
func (e *Engine) Tick(now time.Time) {
	if e.phase != PhaseRunning {
		return
	}
	start := time.Now()
	e.tickCount++
	e.lastTick = now

	e.processPointer()

	e.graph.Each(spin)
	hidden := e.propagate(now)
	if hidden != e.hidden && hidden > 0 {
		e.log.Debug("%d objects without a valid state", hidden)
	}
	e.hidden = hidden

	e.blended = 0
	if e.conj != nil && e.stepConjunction(now) {
		e.blended = e.conj.protected
	}

	e.applyVisibility()
	e.dropStaleTooltip()

	if fs := e.focus.State(); fs.Active() {
		if o, ok := e.graph.Get(fs.TargetID); ok && o.Visible {
			e.focus.Step(&e.camera, o.Transform.Position)
		}
	}

	e.metrics.InvalidPropagations(hidden)
	e.metrics.Tick(time.Since(start))
}

// propagate moves every tracked object to now and returns how many had no
// valid state.
func (e *Engine) propagate(now time.Time) int {
	hidden := 0
	e.graph.Each(func(o *Object) {
		p, ok := o.Tracked()
		if !ok {
			return
		}
		p.State = p.Handle.Propagate(now)
		if p.State.Valid {
			o.Transform.Position = p.State.Scene()
		} else {
			hidden++
		}
	})
	return hidden
}

// stepConjunction applies one proximity step. It reports whether the
// protected object was drawn at a blended position.
func (e *Engine) stepConjunction(now time.Time) bool {
	c := e.conj
	p, ok := e.graph.Get(c.protected)
	if !ok {
		return false
	}
	t, ok := e.graph.Get(c.threat)
	if !ok {
		return false
	}
	pp, _ := p.Tracked()
	tp, _ := t.Tracked()

	ev, pos, override := c.step(now, pp.State, tp.State)
	if override {
		p.Transform.Position = pos
	}

	switch ev {
	case proxTriggered:
		marker := &Object{
			Kind:      KindCollisionMarker,
			Name:      "Conjunction",
			Color:     MarkerColor,
			Radius:    e.cfg.MarkerRadius * 3,
			Transform: Transform{Position: pos},
			Visible:   true,
			Payload: MarkerPayload{
				At:        now,
				Distance:  c.state.Distance,
				Protected: p.ID,
				Threat:    t.ID,
			},
		}
		c.state.Marker = e.graph.Add(marker)
		if err := e.acquire(marker); err != nil {
			e.log.Warn("conjunction marker: %v", err)
		}
		e.metrics.Conjunction()
		e.log.Info("conjunction %s / %s at %.3f units", p.Name, t.Name, c.state.Distance)
		e.emit(Event{
			Type:      EventConjunction,
			Timestamp: now,
			ObjectID:  p.ID,
			Name:      p.Name,
			Detail:    fmt.Sprintf("%s within %.0f km", t.Name, c.state.Distance/astro.KmToUnits),
		})

	case proxStarted:
		e.retireTrail(p.ID)
		e.metrics.Transition("start")
		e.log.Info("transition started for %s", p.Name)
		e.emit(Event{Type: EventTransitionStart, Timestamp: now, ObjectID: p.ID, Name: p.Name})

	case proxFinished:
		pp.Handle = c.alternate
		pp.Record = c.altRecord
		pp.Record.Name = p.Name
		if err := e.newTrail(p, orbit.Sample(c.alternate, now, e.cfg.TrailSamples)); err != nil {
			e.log.Warn("alternate trail for %s: %v", p.Name, err)
		}
		e.metrics.Transition("done")
		e.log.Info("transition finished for %s", p.Name)
		e.emit(Event{Type: EventTransitionDone, Timestamp: now, ObjectID: p.ID, Name: p.Name})
	}

	return override
}

// applyVisibility recomputes every object's visibility. Tracked objects
// need a valid state this tick, or a blended position.
func (e *Engine) applyVisibility() {
	e.graph.Each(func(o *Object) {
		switch o.Kind {
		case KindTrail:
			return
		case KindDebrisCloud:
			o.Visible = e.filter.DebrisCloudVisible()
		case KindSatellite, KindDebris:
			p, _ := o.Tracked()
			rendered := p.State.Valid || (e.blended != 0 && o.ID == e.blended)
			o.Visible = rendered && e.filter.Visible(o)
		default:
			o.Visible = e.filter.Visible(o)
		}
	})

	// Trails follow their owner.
	for owner, id := range e.trails {
		t, ok := e.graph.Get(id)
		if !ok {
			continue
		}
		ow, ok := e.graph.Get(owner)
		t.Visible = ok && ow.Visible
	}
}

// Select focuses a tracked object: the previous focus loses its trail, the
// new target gets a freshly sampled one, and it is forced visible.
func (e *Engine) Select(id ObjectID) error {
	if e.phase != PhaseRunning {
		return ErrNotRunning
	}
	o, ok := e.graph.Get(id)
	if !ok || !o.Kind.Pickable() {
		return fmt.Errorf("select %d: %w", id, ErrUnknownObject)
	}

	now := e.now()
	prev := e.focus.State().TargetID
	if prev != 0 && prev != id && prev != e.pinned {
		e.retireTrail(prev)
	}
	if id != e.pinned {
		if err := e.attachTrail(o, now); err != nil {
			e.log.Warn("trail for %s: %v", o.Name, err)
		}
	}

	e.focus.Start(id, e.camera)
	e.filter.Forced = id
	e.applyVisibility()

	e.log.Debug("selected %s", o.Name)
	e.emit(Event{Type: EventSelected, Timestamp: now, ObjectID: id, Name: o.Name})
	return nil
}

// Deselect clears the focus and its trail.
func (e *Engine) Deselect() {
	if e.phase != PhaseRunning {
		return
	}
	id := e.focus.State().TargetID
	if id == 0 {
		return
	}
	if id != e.pinned {
		e.retireTrail(id)
	}
	e.focus.Clear()
	e.filter.Forced = 0
	e.applyVisibility()

	name := ""
	if o, ok := e.graph.Get(id); ok {
		name = o.Name
	}
	e.emit(Event{Type: EventDeselected, Timestamp: e.now(), ObjectID: id, Name: name})
}

// SetFilter replaces the view filter and applies it immediately.
func (e *Engine) SetFilter(f ViewFilter) {
	e.filter = f
	if e.phase == PhaseRunning {
		e.applyVisibility()
	}
}

// SetMode changes the view mode, keeping any forced object.
func (e *Engine) SetMode(m Mode) {
	f := e.filter
	f.Mode = m
	e.SetFilter(f)
}

// Resize updates the camera aspect ratio for new surface dimensions.
func (e *Engine) Resize(width, height float64) {
	e.camera.SetAspect(width, height)
}

// OnDispose registers fn to run once when the engine is disposed. Hosts use
// it to cancel their tick task and detach input listeners.
func (e *Engine) OnDispose(fn func()) {
	if e.phase == PhaseDisposed {
		fn()
		return
	}
	e.teardown = append(e.teardown, fn)
}

// Dispose cancels host callbacks and releases every resource exactly once.
// Further calls are no-ops.
func (e *Engine) Dispose() {
	if e.phase == PhaseDisposed {
		return
	}
	teardown := e.teardown
	e.teardown = nil
	for _, fn := range teardown {
		fn()
	}

	released := len(e.resources)
	e.releaseAll()
	e.graph = NewGraph()
	e.trails = make(map[ObjectID]ObjectID)
	e.focus.Clear()
	e.conj = nil
	e.pinned = 0
	e.hover, e.click, e.tooltip = nil, nil, nil
	e.blended = 0
	e.surface = nil
	e.phase = PhaseDisposed

	e.log.Info("scene disposed: %d resources released", released)
	e.emit(Event{Type: EventDisposed, Timestamp: e.now()})
}

func (e *Engine) emit(ev Event) {
	if e.onEvent != nil {
		e.onEvent(ev)
	}
}

func (e *Engine) now() time.Time {
	if !e.lastTick.IsZero() {
		return e.lastTick
	}
	return e.clock()
}

// Phase returns the lifecycle stage.
func (e *Engine) Phase() Phase { return e.phase }

// Camera returns the current camera.
func (e *Engine) Camera() Camera { return e.camera }

// Filter returns the current view filter.
func (e *Engine) Filter() ViewFilter { return e.filter }

// Focus returns the current focus.
func (e *Engine) Focus() FocusState { return e.focus.State() }

// Graph exposes the scene graph for rendering. Callers must not mutate it.
func (e *Engine) Graph() *Graph { return e.graph }

// Collision returns the conjunction state, if a conjunction is armed.
func (e *Engine) Collision() (CollisionState, bool) {
	if e.conj == nil {
		return CollisionState{}, false
	}
	return e.conj.state, true
}

// Dropped returns how many catalog records failed to compile.
func (e *Engine) Dropped() int { return e.dropped }

// Hidden returns how many tracked objects lacked a valid state last tick.
func (e *Engine) Hidden() int { return e.hidden }

// TickCount returns the number of processed ticks.
func (e *Engine) TickCount() uint64 { return e.tickCount }

// LastTick returns the time passed to the most recent Tick.
func (e *Engine) LastTick() time.Time { return e.lastTick }

// TrailOf returns the trail object owned by owner.
func (e *Engine) TrailOf(owner ObjectID) (*Object, bool) {
	id, ok := e.trails[owner]
	if !ok {
		return nil, false
	}
	return e.graph.Get(id)
}

// Resources returns the number of live renderer resources.
func (e *Engine) Resources() int { return len(e.resources) }
