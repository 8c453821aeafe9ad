// Package config loads runtime settings from an optional file, the
// environment and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/litescript/ls-orbits/internal/orbit"
	"github.com/litescript/ls-orbits/internal/predict"
	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/tle"
)

// EnvPrefix prefixes environment overrides, e.g. LSORBITS_SCENE_FPS.
const EnvPrefix = "LSORBITS"

// Config is the decoded settings tree.
type Config struct {
	LogLevel  string          `mapstructure:"logLevel"`
	LogFile   string          `mapstructure:"logFile"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Scene     SceneConfig     `mapstructure:"scene"`
	Trail     TrailConfig     `mapstructure:"trail"`
	Focus     FocusConfig     `mapstructure:"focus"`
	Collision CollisionConfig `mapstructure:"collision"`
	Predict   PredictConfig   `mapstructure:"predict"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Stream    StreamConfig    `mapstructure:"stream"`
}

// CatalogConfig selects the element-set source.
type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Max    int    `mapstructure:"max"`
}

// SceneConfig tunes the scenery and the tick rate.
type SceneConfig struct {
	DebrisCount int     `mapstructure:"debrisCount"`
	StarCount   int     `mapstructure:"starCount"`
	Seed        int64   `mapstructure:"seed"`
	PickRadius  float64 `mapstructure:"pickRadius"`
	PickSlack   float64 `mapstructure:"pickSlack"`
	FPS         int     `mapstructure:"fps"`
	Mode        string  `mapstructure:"mode"`
}

// TrailConfig sizes selection trails.
type TrailConfig struct {
	Samples int `mapstructure:"samples"`
}

// FocusConfig tunes the camera fly-to.
type FocusConfig struct {
	CameraStep float64 `mapstructure:"cameraStep"`
	Smoothing  float64 `mapstructure:"smoothing"`
	Zoom       float64 `mapstructure:"zoom"`
}

// CollisionConfig tunes the proximity engine.
type CollisionConfig struct {
	Distance       float64       `mapstructure:"distance"`
	Delay          time.Duration `mapstructure:"delay"`
	TransitionStep float64       `mapstructure:"transitionStep"`
	Blend          string        `mapstructure:"blend"`
	Samples        int           `mapstructure:"samples"`
	AltSamples     int           `mapstructure:"altSamples"`
}

// PredictConfig points at the prediction service.
type PredictConfig struct {
	URL            string        `mapstructure:"url"`
	EventsURL      string        `mapstructure:"eventsUrl"`
	HorizonMinutes int           `mapstructure:"horizonMinutes"`
	StepSeconds    int           `mapstructure:"stepSeconds"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MinInterval    time.Duration `mapstructure:"minInterval"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// StreamConfig enables the websocket snapshot stream.
type StreamConfig struct {
	Addr     string        `mapstructure:"addr"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "")

	viper.SetDefault("catalog.source", tle.DefaultCatalogURL)
	viper.SetDefault("catalog.max", tle.DefaultMaxRecords)

	viper.SetDefault("scene.debrisCount", 800)
	viper.SetDefault("scene.starCount", 5000)
	viper.SetDefault("scene.seed", 0)
	viper.SetDefault("scene.pickRadius", scene.MarkerRadius)
	viper.SetDefault("scene.pickSlack", 0)
	viper.SetDefault("scene.fps", 30)
	viper.SetDefault("scene.mode", "both")

	viper.SetDefault("trail.samples", orbit.DefaultSamples)

	viper.SetDefault("focus.cameraStep", 0.02)
	viper.SetDefault("focus.smoothing", 0.08)
	viper.SetDefault("focus.zoom", 1.8)

	viper.SetDefault("collision.distance", scene.CollisionDistance)
	viper.SetDefault("collision.delay", "1.5s")
	viper.SetDefault("collision.transitionStep", 0.01)
	viper.SetDefault("collision.blend", "time")
	viper.SetDefault("collision.samples", 200)
	viper.SetDefault("collision.altSamples", 180)

	viper.SetDefault("predict.url", "")
	viper.SetDefault("predict.eventsUrl", predict.DefaultEventsURL)
	viper.SetDefault("predict.horizonMinutes", predict.DefaultHorizonMinutes)
	viper.SetDefault("predict.stepSeconds", predict.DefaultStepSeconds)
	viper.SetDefault("predict.timeout", "30s")
	viper.SetDefault("predict.minInterval", "2s")

	viper.SetDefault("metrics.addr", "")

	viper.SetDefault("stream.addr", "")
	viper.SetDefault("stream.interval", "1s")
}

// Load sets defaults, enables environment overrides and, when path is not
// empty, reads the config file. The format follows the file extension.
func Load(path string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// Get decodes the current settings.
func Get() (Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Set overrides a single key, typically from a command-line flag.
func Set(key string, value any) {
	viper.Set(key, value)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// EngineConfig maps the settings onto scene tuning.
func (c Config) EngineConfig() (scene.Config, error) {
	mode, err := scene.ParseMode(c.Scene.Mode)
	if err != nil {
		return scene.Config{}, err
	}
	blend, err := scene.ParseBlendMode(c.Collision.Blend)
	if err != nil {
		return scene.Config{}, err
	}
	if c.Focus.CameraStep <= 0 {
		return scene.Config{}, fmt.Errorf("focus.cameraStep must be positive, got %v", c.Focus.CameraStep)
	}
	if c.Collision.TransitionStep <= 0 {
		return scene.Config{}, fmt.Errorf("collision.transitionStep must be positive, got %v", c.Collision.TransitionStep)
	}

	cfg := scene.DefaultConfig()
	cfg.StarCount = c.Scene.StarCount
	cfg.DebrisCount = c.Scene.DebrisCount
	cfg.PickRadius = c.Scene.PickRadius
	cfg.PickSlack = c.Scene.PickSlack
	cfg.TrailSamples = c.Trail.Samples
	cfg.Filter = scene.ViewFilter{Mode: mode}
	cfg.Focus = scene.FocusConfig{
		CameraStep: c.Focus.CameraStep,
		Smoothing:  c.Focus.Smoothing,
		Zoom:       c.Focus.Zoom,
	}
	cfg.Proximity = scene.ProximityConfig{
		Distance:   c.Collision.Distance,
		Delay:      c.Collision.Delay,
		Step:       c.Collision.TransitionStep,
		Blend:      blend,
		Samples:    c.Collision.Samples,
		AltSamples: c.Collision.AltSamples,
	}
	return cfg, nil
}

// TickInterval converts the frame rate into a tick period.
func (c Config) TickInterval() time.Duration {
	fps := c.Scene.FPS
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}
