package predict

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/tle"
)

// Analysis is the prediction service reply.
type Analysis struct {
	TLEOutput TLEOutput `json:"tle_output"`
	Risk      Risk      `json:"risk"`
	Maneuver  Maneuver  `json:"maneuver"`
}

// TLEOutput holds the three trajectories, each in two-line form.
type TLEOutput struct {
	SatelliteTLE     string `json:"satellite_tle"`
	DebrisTLE        string `json:"debris_tle"`
	PredictedSafeTLE string `json:"predicted_safe_tle"`
}

// Risk summarizes the screened close approach.
type Risk struct {
	MinDistanceKm float64 `json:"min_distance_km"`
	TCA           string  `json:"tca"`
	Regime        string  `json:"regime"`
	ThresholdKm   float64 `json:"threshold_km"`
	Risky         bool    `json:"risky"`
}

// TCATime parses the time of closest approach.
func (r Risk) TCATime() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(r.TCA)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Maneuver is the recommended avoidance burn.
type Maneuver struct {
	Type             string  `json:"type"`
	RecommendedDvMps float64 `json:"recommended_dv_mps"`
	Note             string  `json:"note"`
}

// Names used for the three trajectories when the request did not carry any.
const (
	DefaultSatelliteName = "SATELLITE"
	DefaultDebrisName    = "DEBRIS"
)

func (a Analysis) validate() error {
	out := a.TLEOutput
	for field, text := range map[string]string{
		"satellite_tle":      out.SatelliteTLE,
		"debris_tle":         out.DebrisTLE,
		"predicted_safe_tle": out.PredictedSafeTLE,
	} {
		rec, ok := tle.ParseElementSet(text, field)
		if !ok {
			return fmt.Errorf("%w: %s is not an element set", ErrBadResponse, field)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadResponse, field, err)
		}
	}
	return nil
}

// Setup turns the reply into the scene's conjunction arming input. The
// predicted safe trajectory keeps the satellite's name.
func (a Analysis) Setup(satellite, debris string) (scene.ConjunctionSetup, error) {
	if satellite == "" {
		satellite = DefaultSatelliteName
	}
	if debris == "" {
		debris = DefaultDebrisName
	}

	if err := a.validate(); err != nil {
		return scene.ConjunctionSetup{}, err
	}
	out := a.TLEOutput
	p, _ := tle.ParseElementSet(out.SatelliteTLE, satellite)
	t, _ := tle.ParseElementSet(out.DebrisTLE, debris)
	alt, _ := tle.ParseElementSet(out.PredictedSafeTLE, satellite)

	return scene.ConjunctionSetup{Protected: p, Threat: t, Alternate: alt}, nil
}

// RequestFor builds an analysis request from two records.
func RequestFor(satellite, debris tle.Record, horizonMinutes, stepSeconds int) Request {
	return Request{
		SatelliteTLE:   satellite.Line1 + "\n" + satellite.Line2,
		DebrisTLE:      debris.Line1 + "\n" + debris.Line2,
		HorizonMinutes: horizonMinutes,
		StepSeconds:    stepSeconds,
	}
}

// CriticalEvent is one entry of the critical-events feed.
type CriticalEvent struct {
	Satellite          string     `json:"satellite"`
	Debris             string     `json:"debris"`
	TimeToImpact       flexString `json:"time_to_impact"`
	Probability        flexString `json:"probability"`
	RiskLevel          string     `json:"risk_level"`
	ManeuverSuggestion string     `json:"maneuver_suggestion"`
	Confidence         flexString `json:"confidence"`
}

// Maneuver splits the suggestion at "~" into the maneuver and the burn.
// Without a separator both are the whole suggestion.
func (e CriticalEvent) Maneuver() (maneuver, burn string) {
	text := e.ManeuverSuggestion
	before, after, found := strings.Cut(text, "~")
	if !found {
		return text, text
	}
	burn = strings.TrimSpace(after)
	if burn == "" {
		burn = "N/A"
	}
	return strings.TrimSpace(before), burn
}

// Severity orders risk levels: 2 for high, 1 for medium, 0 otherwise.
func (e CriticalEvent) Severity() int {
	switch strings.ToLower(e.RiskLevel) {
	case "high":
		return 2
	case "medium":
		return 1
	default:
		return 0
	}
}

// flexString accepts either a JSON string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// Float returns the numeric value, ignoring a trailing percent sign.
func (f flexString) Float() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(string(f)), "%"), 64)
	return v, err == nil
}
