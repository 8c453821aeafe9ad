// Package report renders engine and prediction data as plain-text tables
// for the headless modes.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/litescript/ls-orbits/internal/predict"
	"github.com/litescript/ls-orbits/internal/scene"
)

const ruleWidth = 84

// SummaryRow represents one tracked object in the summary table.
type SummaryRow struct {
	Name    string
	Kind    string
	Valid   bool
	Visible bool
	AltKm   float64
	LatDeg  float64
	LonDeg  float64
	Speed   float64
}

// GenerateSummaryRows picks the tracked objects out of a snapshot.
func GenerateSummaryRows(snap scene.Snapshot) []SummaryRow {
	var rows []SummaryRow
	for _, o := range snap.Objects {
		if o.Kind != scene.KindSatellite.String() && o.Kind != scene.KindDebris.String() {
			continue
		}
		rows = append(rows, SummaryRow{
			Name:    o.Name,
			Kind:    o.Kind,
			Valid:   o.Valid,
			Visible: o.Visible,
			AltKm:   o.AltKm,
			LatDeg:  o.LatDeg,
			LonDeg:  o.LonDeg,
			Speed:   o.Speed,
		})
	}
	return rows
}

// WriteSummaryTable writes a text table of tracked objects.
func WriteSummaryTable(w io.Writer, snap scene.Snapshot, dropped int) {
	rows := GenerateSummaryRows(snap)

	fmt.Fprintf(w, "Orbits @ %s  (mode %s)\n", snap.Time.UTC().Format(time.RFC3339), snap.Mode)
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	if len(rows) == 0 {
		fmt.Fprintln(w, "No tracked objects")
		return
	}

	fmt.Fprintf(w, "%-24s %-9s %10s %8s %9s %8s %-6s\n",
		"Name", "Kind", "Alt (km)", "Lat", "Lon", "km/s", "State")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	valid := 0
	for _, r := range rows {
		if !r.Valid {
			fmt.Fprintf(w, "%-24s %-9s %10s %8s %9s %8s %-6s\n",
				truncateStr(r.Name, 24), r.Kind, "-", "-", "-", "-", "invalid")
			continue
		}
		valid++
		fmt.Fprintf(w, "%-24s %-9s %10.1f %8.2f %9.2f %8.3f %-6s\n",
			truncateStr(r.Name, 24), r.Kind, r.AltKm, r.LatDeg, r.LonDeg, r.Speed, "ok")
	}

	fmt.Fprintf(w, "\nTotal: %d tracked, %d valid, %d dropped\n", len(rows), valid, dropped)
}

// WriteEvents writes the last n journal events.
func WriteEvents(w io.Writer, events []scene.Event, n int) {
	fmt.Fprintln(w, "Recent events")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	if len(events) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-16s %s", e.Timestamp.UTC().Format("15:04:05"), e.Type, e.Name)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// WriteAnalysis writes a conjunction screening result.
func WriteAnalysis(w io.Writer, a predict.Analysis) {
	fmt.Fprintln(w, "Conjunction analysis")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	verdict := "clear"
	if a.Risk.Risky {
		verdict = "RISKY"
	}
	tca := a.Risk.TCA
	if t, ok := a.Risk.TCATime(); ok {
		tca = t.Format(time.RFC3339)
	}

	fmt.Fprintf(w, "%-18s %.3f km (threshold %.1f km)\n", "Min distance:", a.Risk.MinDistanceKm, a.Risk.ThresholdKm)
	fmt.Fprintf(w, "%-18s %s\n", "TCA:", tca)
	fmt.Fprintf(w, "%-18s %s\n", "Regime:", a.Risk.Regime)
	fmt.Fprintf(w, "%-18s %s\n", "Verdict:", verdict)
	fmt.Fprintf(w, "%-18s %s, %.3f m/s\n", "Maneuver:", a.Maneuver.Type, a.Maneuver.RecommendedDvMps)
	if a.Maneuver.Note != "" {
		fmt.Fprintf(w, "%-18s %s\n", "Note:", a.Maneuver.Note)
	}
}

// WriteCriticalEvents writes the critical-events feed, most severe first.
func WriteCriticalEvents(w io.Writer, events []predict.CriticalEvent) {
	fmt.Fprintln(w, "Critical conjunctions")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	if len(events) == 0 {
		fmt.Fprintln(w, "No critical events at this time")
		return
	}

	sorted := append([]predict.CriticalEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity() > sorted[j].Severity()
	})

	fmt.Fprintf(w, "%-18s %-18s %-10s %-8s %-6s %s\n",
		"Satellite", "Debris", "Impact in", "Prob", "Risk", "Burn")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
	for _, e := range sorted {
		maneuver, burn := e.Maneuver()
		fmt.Fprintf(w, "%-18s %-18s %-10s %-8s %-6s %s\n",
			truncateStr(e.Satellite, 18),
			truncateStr(e.Debris, 18),
			truncateStr(e.TimeToImpact.String(), 10),
			truncateStr(e.Probability.String(), 8),
			strings.ToUpper(e.RiskLevel),
			burn,
		)
		if maneuver != burn {
			fmt.Fprintf(w, "%-18s └ %s\n", "", maneuver)
		}
	}
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
