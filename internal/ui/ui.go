// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/state"
	"github.com/litescript/ls-orbits/internal/stream"
	"github.com/litescript/ls-orbits/internal/version"
)

// Screen layout, in rows.
const (
	headerLines = 1
	hudLines    = 1
	footerLines = 2
)

// cellPickSlack lets a pointer anywhere in a marker's cell, or the cells
// around it, pick the marker.
const cellPickSlack = 1.0

// AnimTickMsg triggers fast animation updates.
type AnimTickMsg time.Time

// Options wires the model to the rest of the program.
type Options struct {
	Context        context.Context
	Engine         scene.Config
	Seed           int64 // zero picks a time-based seed
	Clock          func() time.Time
	Interval       time.Duration
	Load           LoadRequest
	State          *state.Manager
	Logger         *logging.Logger
	Metrics        *metrics.Recorder
	Cache          *orbit.HandleCache
	Hub            *stream.Hub
	StreamInterval time.Duration
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	ctx     context.Context
	opts    Options
	state   *state.Manager
	log     *logging.Logger
	reloads *rate.Limiter

	// Scene lifetime
	engine  *scene.Engine
	surface *termSurface
	loop    *Loop
	loading bool

	// UI state
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	orbitView   OrbitViewModel
	lastPublish time.Time
}

// New creates a new root UI model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.State == nil {
		opts.State = state.NewManager(state.DefaultConfig())
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Engine == (scene.Config{}) {
		opts.Engine = scene.DefaultConfig()
	}

	return Model{
		ctx:       ctx,
		opts:      opts,
		state:     opts.State,
		log:       opts.Logger.With("component", "ui"),
		reloads:   rate.NewLimiter(rate.Every(opts.State.ReloadCooldown()), 1),
		loop:      NewLoop(opts.Interval),
		loading:   true,
		orbitView: NewOrbitViewModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadCmd(m.ctx, m.opts.Load),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.dispose()
			return m, tea.Quit

		case "r":
			if cmd := m.reload(); cmd != nil {
				cmds = append(cmds, cmd)
			}

		case "m":
			if m.engine != nil {
				next := m.engine.Filter().Mode.Next()
				m.engine.SetMode(next)
				m.statusMsg = "mode: " + next.String()
			}

		case "esc":
			if m.engine != nil {
				m.engine.Deselect()
			}

		case "tab", "j":
			m.cycleSelection(1)
		case "shift+tab", "k":
			m.cycleSelection(-1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.orbitView = m.orbitView.SetSize(msg.Width, m.canvasHeight(), headerLines)
		if m.engine != nil {
			m.engine.Resize(m.orbitView.SurfaceSize())
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case CatalogLoadedMsg:
		m.loading = false
		m.state.UpdateCatalog(msg.Source, msg.Result)
		if err := msg.Err(); err != nil {
			m.log.Error("load failed: %v", err)
			m.statusMsg = "load failed: " + err.Error()
			break
		}
		m.statusMsg = ""
		if msg.Result.Error != nil {
			m.log.Warn("catalog: %v", msg.Result.Error)
			m.statusMsg = "catalog unavailable, showing scenario only"
		}
		if cmd := m.build(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case TickMsg:
		if !m.loop.Accept(msg) {
			break
		}
		m.engine.Tick(msg.Time)
		m.state.RecordTick(msg.Time, m.engine.Hidden())
		m.publish(msg.Time)
		cmds = append(cmds, m.loop.Next())

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++
	}

	return m, tea.Batch(cmds...)
}

// build starts a fresh engine from a completed load. The previous engine,
// if any, has already been disposed.
func (m *Model) build(msg CatalogLoadedMsg) tea.Cmd {
	records := msg.Result.Records
	if len(records) == 0 && msg.Conjunction == nil {
		m.statusMsg = "no objects to show"
		return nil
	}

	seed := m.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cfg := m.opts.Engine
	cfg.PickSlack = max(cfg.PickSlack, cellPickSlack)

	m.surface = newTermSurface()
	e := scene.New(records, scene.Options{
		Config:      cfg,
		Rand:        rand.New(rand.NewSource(seed)),
		Clock:       m.opts.Clock,
		Logger:      m.opts.Logger,
		Metrics:     m.opts.Metrics,
		Cache:       m.opts.Cache,
		OnEvent:     m.state.Record,
		Conjunction: msg.Conjunction,
	})
	if err := e.Build(m.surface); err != nil {
		m.log.Error("build scene: %v", err)
		m.statusMsg = "build failed: " + err.Error()
		return nil
	}

	e.OnDispose(m.loop.Cancel)
	if m.ready {
		e.Resize(m.orbitView.SurfaceSize())
	}
	m.engine = e
	return m.loop.Start()
}

// dispose tears the running engine down. The loop is cancelled through the
// engine's dispose hook.
func (m *Model) dispose() {
	if m.engine == nil {
		return
	}
	m.engine.Dispose()
	if live := m.surface.Live(); live != 0 {
		m.log.Warn("%d draw slots still live after dispose", live)
	}
	m.engine = nil
}

// reload rebuilds the scene from a fresh fetch, subject to the cooldown.
func (m *Model) reload() tea.Cmd {
	if m.loading {
		return nil
	}
	if !m.reloads.Allow() {
		m.statusMsg = "reload cooling down"
		return nil
	}
	m.dispose()
	m.loading = true
	m.statusMsg = "reloading..."
	return loadCmd(m.ctx, m.opts.Load)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.engine == nil {
		return
	}
	vp := m.orbitView.Viewport()
	if row := float64(msg.Y); row < vp.Top || row >= vp.Top+vp.Height {
		m.engine.PointerLeave()
		return
	}
	// Aim at the centre of the cell under the pointer.
	x, y := float64(msg.X)+0.5, float64(msg.Y)+0.5

	switch {
	case msg.Action == tea.MouseActionMotion:
		m.engine.PointerMove(x, y, vp)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.engine.Click(x, y, vp)
	}
}

// cycleSelection moves the focus to the next or previous visible tracked
// object.
func (m *Model) cycleSelection(dir int) {
	if m.engine == nil {
		return
	}
	var ids []scene.ObjectID
	m.engine.Graph().Each(func(o *scene.Object) {
		if o.Kind.Pickable() && o.Visible {
			ids = append(ids, o.ID)
		}
	})
	if len(ids) == 0 {
		return
	}

	cur := -1
	focused := m.engine.Focus().TargetID
	for i, id := range ids {
		if id == focused {
			cur = i
			break
		}
	}

	next := 0
	if cur >= 0 {
		next = (cur + dir + len(ids)) % len(ids)
	} else if dir < 0 {
		next = len(ids) - 1
	}
	if err := m.engine.Select(ids[next]); err != nil {
		m.log.Debug("cycle selection: %v", err)
	}
}

// publish pushes a snapshot to stream subscribers at the stream interval.
func (m *Model) publish(now time.Time) {
	if m.opts.Hub == nil {
		return
	}
	if now.Sub(m.lastPublish) < m.opts.StreamInterval {
		return
	}
	m.lastPublish = now
	if err := m.opts.Hub.Publish(m.engine.Snapshot()); err != nil {
		m.log.Warn("publish snapshot: %v", err)
	}
}

func (m Model) canvasHeight() int {
	return max(1, m.height-headerLines-hudLines-footerLines)
}

// Engine returns the running engine, or nil between scenes.
func (m Model) Engine() *scene.Engine {
	return m.engine
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	content := m.orbitView.Render(m.engine)
	if m.engine == nil {
		content = m.renderPlaceholder()
	}
	return m.renderFrame(content)
}

func (m Model) renderFrame(content string) string {
	header := m.renderHeader()
	hud := renderHUD(m.engine, m.width)
	footer := m.renderFooter()

	return header + "\n" + content + "\n" + hud + "\n" + footer
}

func (m Model) renderPlaceholder() string {
	var msg string
	if m.loading {
		msg = m.renderShimmerText("Loading element sets...")
	} else {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("60")).Render("No scene. Press r to reload.")
	}
	box := lipgloss.Place(m.width, m.canvasHeight(), lipgloss.Center, lipgloss.Center, msg)
	return box
}

func (m Model) renderHeader() string {
	title := "◉ LS-ORBITS"
	runes := []rune(title)

	var b strings.Builder
	b.WriteString(" ")
	for col, r := range runes {
		color := gradientColor(col, 0, len(runes), 1)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  Orbit Visualization · v%s", version.Version)))
	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient.
// Creates a vibrant nebula effect: blue -> purple -> magenta -> pink
func gradientColor(col, row, width, height int) string {
	// Normalize positions to 0-1
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64

	if xRatio < 0.33 {
		// Blue to Purple
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		// Purple to Magenta
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		// Magenta to Pink
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	// Vertical fade: brighter at top, darker toward bottom
	brightnessFactor := 1.0 - (yRatio * 0.5)

	clamp := func(v float64) int {
		return max(0, min(255, int(v*brightnessFactor)))
	}
	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	// Animated spinner frames
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	snap := m.state.Snapshot()
	var status string
	switch {
	case m.loading:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Fetching catalog...")
	case snap.LastError != nil:
		status = errorStyle.Render("ERROR: " + snap.LastError.Error())
	default:
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" %d records", snap.Records))
		if snap.Dropped > 0 {
			status += dimStyle.Render(fmt.Sprintf(", %d dropped", snap.Dropped))
		}
		if snap.FetchDuration > 0 {
			status += dimStyle.Render(" (" + snap.FetchDuration.Round(time.Millisecond).String() + ")")
		}
	}

	help := dimStyle.Render("click/tab: select | esc: clear | m: mode | r: reload | q: quit")
	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help

	second := m.statusMsg
	if second == "" {
		second = journalLine(m.state.RecentEvents(3))
	}
	return footer + "\n  " + dimStyle.Render(second)
}

// journalLine summarises the latest engine events, newest first.
func journalLine(events []scene.Event) string {
	parts := make([]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		s := strings.ToLower(string(ev.Type))
		if ev.Name != "" {
			s += " " + ev.Name
		}
		parts = append(parts, ev.Timestamp.Format("15:04:05")+" "+s)
	}
	return strings.Join(parts, " · ")
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	// Shimmer sweeps smoothly across
	pos := m.animTick % (textLen + 8) // A bit of padding for smooth entry/exit

	var result strings.Builder

	for i, r := range runes {
		// Distance from shimmer center
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		if dist <= 1 {
			r8, g8, b8 = 180, 160, 220
		} else if dist <= 3 {
			r8, g8, b8 = 140, 120, 180
		} else if dist <= 5 {
			r8, g8, b8 = 110, 90, 150
		} else {
			r8, g8, b8 = 80, 70, 120
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}
