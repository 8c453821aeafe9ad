package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/litescript/ls-orbits/internal/predict"
	"github.com/litescript/ls-orbits/internal/scene"
	"github.com/litescript/ls-orbits/internal/tle"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_CatalogOnly(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "catalog.txt",
		"ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"+
			"BROKEN\n1 short\n2 short\n")

	msg := Load(context.Background(), LoadRequest{Source: catalog, Max: 10})
	if msg.Result.Error != nil {
		t.Fatalf("Result.Error = %v", msg.Result.Error)
	}
	if len(msg.Result.Records) != 1 || msg.Result.Dropped != 1 {
		t.Errorf("records = %d dropped = %d, want 1 and 1", len(msg.Result.Records), msg.Result.Dropped)
	}
	if msg.Conjunction != nil || msg.ConjunctionErr != nil {
		t.Errorf("unexpected scenario: %+v, %v", msg.Conjunction, msg.ConjunctionErr)
	}
}

func TestLoad_ScenarioFromFiles(t *testing.T) {
	dir := t.TempDir()
	req := LoadRequest{
		SatellitePath: writeFile(t, dir, "sat.tle", "ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"),
		DebrisPath:    writeFile(t, dir, "debris.tle", issLine1+"\n"+crossLine2+"\n"),
		SafePath:      writeFile(t, dir, "safe.tle", issLine1+"\n"+safeLine2+"\n"),
	}

	msg := Load(context.Background(), req)
	if msg.ConjunctionErr != nil {
		t.Fatalf("ConjunctionErr = %v", msg.ConjunctionErr)
	}
	setup := msg.Conjunction
	if setup == nil {
		t.Fatal("no conjunction setup")
	}
	if setup.Protected.Name != "ISS (ZARYA)" {
		t.Errorf("Protected.Name = %q", setup.Protected.Name)
	}
	if setup.Threat.Name != predict.DefaultDebrisName {
		t.Errorf("Threat.Name = %q, want %q", setup.Threat.Name, predict.DefaultDebrisName)
	}
	if setup.Alternate.Name != "ISS (ZARYA)" || setup.Alternate.Line2 != safeLine2 {
		t.Errorf("Alternate = %+v", setup.Alternate)
	}
	if msg.Analysis != nil {
		t.Error("analysis set without a prediction client")
	}
}

func TestLoad_ScenarioWithoutSafeTrajectory(t *testing.T) {
	dir := t.TempDir()
	req := LoadRequest{
		SatellitePath: writeFile(t, dir, "sat.tle", issLine1+"\n"+issLine2+"\n"),
		DebrisPath:    writeFile(t, dir, "debris.tle", issLine1+"\n"+crossLine2+"\n"),
	}
	msg := Load(context.Background(), req)
	if msg.Conjunction != nil || msg.ConjunctionErr != nil {
		t.Errorf("want no scenario, got %+v, %v", msg.Conjunction, msg.ConjunctionErr)
	}
}

func TestLoad_ScenarioFromPrediction(t *testing.T) {
	body := `{"tle_output":{` +
		`"satellite_tle":"` + issLine1 + `\n` + issLine2 + `",` +
		`"debris_tle":"` + issLine1 + `\n` + crossLine2 + `",` +
		`"predicted_safe_tle":"` + issLine1 + `\n` + safeLine2 + `"},` +
		`"risk":{"min_distance_km":0.8,"tca":"2008-09-20T13:10:00Z","regime":"LEO","threshold_km":5,"risky":true},` +
		`"maneuver":{"type":"along-track","recommended_dv_mps":0.35,"note":""}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	req := LoadRequest{
		SatellitePath: writeFile(t, dir, "sat.tle", "ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"),
		DebrisPath:    writeFile(t, dir, "debris.tle", "COSMOS 2251 DEB\n"+issLine1+"\n"+crossLine2+"\n"),
		Predict:       predict.NewClient(predict.WithAnalyzeURL(srv.URL), predict.WithMinInterval(0)),
	}

	msg := Load(context.Background(), req)
	if msg.ConjunctionErr != nil {
		t.Fatalf("ConjunctionErr = %v", msg.ConjunctionErr)
	}
	if msg.Analysis == nil || msg.Analysis.Risk.Regime != "LEO" {
		t.Fatalf("Analysis = %+v", msg.Analysis)
	}
	if msg.Conjunction.Threat.Name != "COSMOS 2251 DEB" {
		t.Errorf("Threat.Name = %q", msg.Conjunction.Threat.Name)
	}
	if msg.Conjunction.Alternate.Line2 != safeLine2 {
		t.Errorf("Alternate.Line2 = %q", msg.Conjunction.Alternate.Line2)
	}
}

func TestLoad_BadScenarioKeepsCatalog(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "catalog.txt", "ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n")
	req := LoadRequest{
		Source:        catalog,
		SatellitePath: writeFile(t, dir, "sat.tle", "not an element set\n"),
	}

	msg := Load(context.Background(), req)
	if !errors.Is(msg.ConjunctionErr, tle.ErrMalformed) {
		t.Errorf("ConjunctionErr = %v, want ErrMalformed", msg.ConjunctionErr)
	}
	if len(msg.Result.Records) != 1 {
		t.Errorf("catalog records = %d, want 1", len(msg.Result.Records))
	}
	if msg.Err() == nil {
		t.Error("a broken scenario must block the build")
	}
}

func TestLoad_PredictionFailureBlocksBuild(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	req := LoadRequest{
		Source:        writeFile(t, dir, "catalog.txt", "ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"),
		SatellitePath: writeFile(t, dir, "sat.tle", "ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"),
		DebrisPath:    writeFile(t, dir, "debris.tle", "COSMOS 2251 DEB\n"+issLine1+"\n"+crossLine2+"\n"),
		Predict:       predict.NewClient(predict.WithAnalyzeURL(srv.URL), predict.WithMinInterval(0)),
	}

	msg := Load(context.Background(), req)
	if msg.ConjunctionErr == nil || msg.Conjunction != nil {
		t.Fatalf("want a failed scenario, got %+v, %v", msg.Conjunction, msg.ConjunctionErr)
	}
	if msg.Err() == nil {
		t.Error("a failed prediction must block the build")
	}
}

func TestCatalogLoadedMsg_Err(t *testing.T) {
	fetchErr := errors.New("network down")
	scenarioErr := errors.New("bad debris file")
	setup := &scene.ConjunctionSetup{}

	tests := []struct {
		name string
		msg  CatalogLoadedMsg
		want error
	}{
		{"ok", CatalogLoadedMsg{}, nil},
		{"fetch failed", CatalogLoadedMsg{Result: tle.FetchResult{Error: fetchErr}}, fetchErr},
		{"fetch failed with scenario", CatalogLoadedMsg{Result: tle.FetchResult{Error: fetchErr}, Conjunction: setup}, nil},
		{"scenario failed", CatalogLoadedMsg{ConjunctionErr: scenarioErr}, scenarioErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Err()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Err() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Err() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingScenarioFile(t *testing.T) {
	msg := Load(context.Background(), LoadRequest{SatellitePath: filepath.Join(t.TempDir(), "nope.tle")})
	if msg.ConjunctionErr == nil {
		t.Error("want an error for a missing file")
	}
}
