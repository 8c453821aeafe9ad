// Command ls-orbits is a terminal UI for visualizing satellites, debris and
// conjunction avoidance in low Earth orbit.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-orbits/internal/config"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/predict"
	"github.com/litescript/ls-orbits/internal/report"
	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/state"
	"github.com/litescript/ls-orbits/internal/stream"
	"github.com/litescript/ls-orbits/internal/tle"
	"github.com/litescript/ls-orbits/internal/ui"
)

// CLI flags for headless mode
var (
	summaryMode    bool
	analyzeMode    bool
	eventsMode     bool
	snapshotPath   string
	snapshotFormat string
	watchInterval  time.Duration
	satPath        string
	debrisPath     string
	safePath       string
)

// flagKeys maps flags that override config keys.
var flagKeys = map[string]string{
	"catalog":      "catalog.source",
	"log-level":    "logLevel",
	"log-file":     "logFile",
	"fps":          "scene.fps",
	"seed":         "scene.seed",
	"mode":         "scene.mode",
	"predict-url":  "predict.url",
	"serve":        "stream.addr",
	"metrics-addr": "metrics.addr",
}

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Config file (json, yaml or toml)")
	flag.String("catalog", tle.DefaultCatalogURL, "Element-set catalog URL or file")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-file", "", "Write logs to a rotated file")
	flag.Int("fps", 30, "Animation ticks per second")
	flag.Int64("seed", 0, "Seed for scenery and colours (0 = random)")
	flag.String("mode", "both", "View mode (both, satellites, debris)")
	flag.String("predict-url", "", "Conjunction analysis endpoint")
	flag.String("serve", "", "Stream scene snapshots over websocket on addr (e.g. :8090)")
	flag.String("metrics-addr", "", "Expose Prometheus metrics on addr (e.g. :9090)")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.BoolVar(&analyzeMode, "analyze", false, "Run one conjunction analysis for -sat and -debris")
	flag.BoolVar(&eventsMode, "events", false, "Print the critical-events feed")
	flag.StringVar(&snapshotPath, "snapshot-path", "", "Export scene snapshot to file (use - for stdout)")
	flag.StringVar(&snapshotFormat, "snapshot-format", "json", "Snapshot format (json, msgpack)")
	flag.DurationVar(&watchInterval, "watch", 0, "Repeat headless output at interval (e.g., 30s)")
	flag.StringVar(&satPath, "sat", "", "Protected satellite element-set file")
	flag.StringVar(&debrisPath, "debris", "", "Threatening debris element-set file")
	flag.StringVar(&safePath, "safe", "", "Corrected satellite element-set file")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			config.Set(key, f.Value.(flag.Getter).Get())
		}
	})
	cfg, err := config.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	headless := summaryMode || analyzeMode || eventsMode || snapshotPath != ""
	if !headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		// Piped output gets the summary table instead of an alt-screen.
		summaryMode, headless = true, true
	}

	// Set up logging. The TUI owns the terminal, so it only logs to a file.
	logger, err := newLogger(cfg, headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Initialize components
	stateMgr := state.NewManager(state.DefaultConfig())
	client := newPredictClient(cfg, logger)

	var recorder *metrics.Recorder
	if cfg.Metrics.Addr != "" {
		if recorder, err = metrics.NewRecorder(); err != nil {
			logger.Error("metrics: %v", err)
		} else {
			go func() {
				if err := recorder.Serve(ctx, cfg.Metrics.Addr); err != nil {
					logger.Error("metrics server: %v", err)
				}
			}()
		}
	}

	var hub *stream.Hub
	if cfg.Stream.Addr != "" {
		hub = stream.NewHub(logger)
		go func() {
			if err := hub.Serve(ctx, cfg.Stream.Addr); err != nil {
				logger.Error("stream server: %v", err)
			}
		}()
	}

	load := ui.LoadRequest{
		Source:         cfg.Catalog.Source,
		Max:            cfg.Catalog.Max,
		SatellitePath:  satPath,
		DebrisPath:     debrisPath,
		SafePath:       safePath,
		HorizonMinutes: cfg.Predict.HorizonMinutes,
		StepSeconds:    cfg.Predict.StepSeconds,
	}
	if cfg.Predict.URL != "" {
		load.Predict = client
	}

	run := runner{
		cfg:     cfg,
		engine:  engineCfg,
		load:    load,
		client:  client,
		state:   stateMgr,
		log:     logger,
		metrics: recorder,
		cache:   orbit.NewHandleCache(0, 0),
		hub:     hub,
		out:     os.Stdout,
	}

	// Headless mode: no TUI
	if headless {
		if err := run.headless(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create TUI model
	model := ui.New(ui.Options{
		Context:        ctx,
		Engine:         engineCfg,
		Seed:           cfg.Scene.Seed,
		Interval:       cfg.TickInterval(),
		Load:           load,
		State:          stateMgr,
		Logger:         logger,
		Metrics:        recorder,
		Cache:          run.cache,
		Hub:            hub,
		StreamInterval: cfg.Stream.Interval,
	})

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config, headless bool) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.LogLevel)
	switch {
	case cfg.LogFile != "":
		return logging.NewFile(level, cfg.LogFile)
	case headless:
		return logging.New(level), nil
	default:
		return logging.Discard(), nil
	}
}

func newPredictClient(cfg config.Config, logger *logging.Logger) *predict.Client {
	opts := []predict.Option{
		predict.WithEventsURL(cfg.Predict.EventsURL),
		predict.WithTimeout(cfg.Predict.Timeout),
		predict.WithMinInterval(cfg.Predict.MinInterval),
		predict.WithLogger(logger),
	}
	if cfg.Predict.URL != "" {
		opts = append(opts, predict.WithAnalyzeURL(cfg.Predict.URL))
	}
	return predict.NewClient(opts...)
}

// runner holds what the headless modes share.
type runner struct {
	cfg     config.Config
	engine  scene.Config
	load    ui.LoadRequest
	client  *predict.Client
	state   *state.Manager
	log     *logging.Logger
	metrics *metrics.Recorder
	cache   *orbit.HandleCache
	hub     *stream.Hub
	out     io.Writer
}

// headless handles all headless modes without starting TUI.
func (r runner) headless(ctx context.Context) error {
	if analyzeMode {
		return r.analyze(ctx)
	}
	if eventsMode {
		return r.criticalEvents(ctx)
	}

	msg := ui.Load(ctx, r.load)
	r.state.UpdateCatalog(msg.Source, msg.Result)
	if err := msg.Err(); err != nil {
		return err
	}
	if msg.Result.Error != nil {
		r.log.Warn("catalog: %v", msg.Result.Error)
	}

	seed := r.cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := scene.New(msg.Result.Records, scene.Options{
		Config:      r.engine,
		Rand:        rand.New(rand.NewSource(seed)),
		Logger:      r.log,
		Metrics:     r.metrics,
		Cache:       r.cache,
		OnEvent:     r.state.Record,
		Conjunction: msg.Conjunction,
	})
	if err := e.Build(scene.SurfaceFunc(headlessSurface)); err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	defer e.Dispose()

	outputOnce := func(now time.Time) error {
		e.Tick(now)
		r.state.RecordTick(now, e.Hidden())
		snap := e.Snapshot()
		if r.hub != nil {
			if err := r.hub.Publish(snap); err != nil {
				r.log.Warn("publish snapshot: %v", err)
			}
		}

		// Export snapshot if requested
		if snapshotPath != "" {
			if err := writeSnapshot(snap, snapshotPath, snapshotFormat, r.out); err != nil {
				return err
			}
		}

		// Print summary table if requested
		if summaryMode {
			report.WriteSummaryTable(r.out, snap, e.Dropped())
			fmt.Fprintln(r.out)
			report.WriteEvents(r.out, r.state.RecentEvents(10), 10)
		}
		return nil
	}

	// Single run
	if watchInterval == 0 {
		return outputOnce(time.Now())
	}

	// Watch mode: tick at the frame rate, print at the interval
	if err := outputOnce(time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ticks := time.NewTicker(r.cfg.TickInterval())
	defer ticks.Stop()
	output := time.NewTicker(watchInterval)
	defer output.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticks.C:
			e.Tick(now)
		case now := <-output.C:
			fmt.Fprintln(r.out)
			if err := outputOnce(now); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

func (r runner) analyze(ctx context.Context) error {
	if satPath == "" || debrisPath == "" {
		return fmt.Errorf("-analyze needs -sat and -debris")
	}
	req := r.load
	req.Source = ""
	req.Predict = r.client
	msg := ui.Load(ctx, req)
	if msg.ConjunctionErr != nil {
		return msg.ConjunctionErr
	}
	if msg.Analysis == nil {
		return fmt.Errorf("no analysis returned")
	}
	report.WriteAnalysis(r.out, *msg.Analysis)
	return nil
}

func (r runner) criticalEvents(ctx context.Context) error {
	events, err := r.client.CriticalEvents(ctx)
	if err != nil {
		return err
	}
	report.WriteCriticalEvents(r.out, events)
	return nil
}

func writeSnapshot(snap scene.Snapshot, path, format string, stdout io.Writer) error {
	if path == "-" {
		if err := snap.Write(stdout, format); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	if err := snap.Write(f, format); err != nil {
		return fmt.Errorf("write snapshot to file: %w", err)
	}
	return nil
}

// headlessSurface backs objects with nothing; headless runs never draw.
func headlessSurface(*scene.Object) (scene.Resource, error) {
	return nopResource{}, nil
}

type nopResource struct{}

func (nopResource) Release() {}
