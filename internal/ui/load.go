package ui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-orbits/internal/predict"
	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/tle"
)

// LoadRequest describes what a scene is built from.
type LoadRequest struct {
	Source string // catalog URL or file path; empty for none
	Max    int

	// Element-set files for the conjunction scenario.
	SatellitePath string
	DebrisPath    string
	SafePath      string

	// Predict, when set, supplies the safe trajectory instead of SafePath.
	Predict        *predict.Client
	HorizonMinutes int
	StepSeconds    int
}

// CatalogLoadedMsg carries everything needed to build a scene.
type CatalogLoadedMsg struct {
	Source      string
	Result      tle.FetchResult
	Conjunction *scene.ConjunctionSetup
	Analysis    *predict.Analysis

	// ConjunctionErr is set when the scenario could not be prepared. The
	// backdrop catalog is still usable.
	ConjunctionErr error
}

// Load reads the scenario files, then fetches the backdrop catalog and the
// avoidance analysis concurrently.
func Load(ctx context.Context, req LoadRequest) CatalogLoadedMsg {
	msg := CatalogLoadedMsg{Source: req.Source}

	sat, deb, safe, err := readScenario(req)
	if err != nil {
		msg.ConjunctionErr = err
	}

	var g errgroup.Group
	if req.Source != "" {
		g.Go(func() error {
			msg.Result = tle.Load(ctx, req.Source, req.Max)
			return nil
		})
	}

	haveScenario := err == nil && sat != nil && deb != nil
	if haveScenario && req.Predict != nil {
		g.Go(func() error {
			a, err := req.Predict.Analyze(ctx, predict.RequestFor(*sat, *deb, req.HorizonMinutes, req.StepSeconds))
			if err != nil {
				return fmt.Errorf("analysis: %w", err)
			}
			setup, err := a.Setup(sat.Name, deb.Name)
			if err != nil {
				return fmt.Errorf("analysis: %w", err)
			}
			msg.Analysis = &a
			msg.Conjunction = &setup
			return nil
		})
	} else if haveScenario && safe != nil {
		alt := *safe
		alt.Name = sat.Name
		msg.Conjunction = &scene.ConjunctionSetup{Protected: *sat, Threat: *deb, Alternate: alt}
	}

	if err := g.Wait(); err != nil {
		msg.ConjunctionErr = err
	}
	return msg
}

// Err reports why no scene can be built from the load. A failed scenario
// always blocks the build; a failed catalog fetch blocks it unless a
// scenario is ready.
func (msg CatalogLoadedMsg) Err() error {
	if msg.ConjunctionErr != nil {
		return fmt.Errorf("scenario: %w", msg.ConjunctionErr)
	}
	if msg.Result.Error != nil && msg.Conjunction == nil {
		return fmt.Errorf("catalog: %w", msg.Result.Error)
	}
	return nil
}

func loadCmd(ctx context.Context, req LoadRequest) tea.Cmd {
	return func() tea.Msg {
		return Load(ctx, req)
	}
}

// readScenario loads the satellite, debris and safe element sets. Missing
// paths yield nil records.
func readScenario(req LoadRequest) (sat, deb, safe *tle.Record, err error) {
	if sat, err = readElementSet(req.SatellitePath, predict.DefaultSatelliteName); err != nil {
		return nil, nil, nil, err
	}
	if deb, err = readElementSet(req.DebrisPath, predict.DefaultDebrisName); err != nil {
		return nil, nil, nil, err
	}
	if safe, err = readElementSet(req.SafePath, predict.DefaultSatelliteName); err != nil {
		return nil, nil, nil, err
	}
	return sat, deb, safe, nil
}

// readElementSet parses a two- or three-line element set file.
func readElementSet(path, name string) (*tle.Record, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rec, ok := tle.ParseElementSet(string(raw), name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, tle.ErrMalformed)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &rec, nil
}
