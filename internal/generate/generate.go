// Package generate runs one full feed-generation batch: fetch, match,
// render, write. A failed fetch aborts the whole run; partial output
// across hundreds of feeds is worse than no output, since consumers
// cannot tell which feeds are stale.
package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"idfmcal/internal/feed"
	appLog "idfmcal/internal/log"
	"idfmcal/internal/mapping"
	"idfmcal/internal/match"
	"idfmcal/internal/navitia"
)

// Options wires a run.
type Options struct {
	Client    *navitia.Client
	Mapping   *mapping.Store
	OutputDir string
	// Now supplies the DTSTAMP clock; nil means time.Now.
	Now func() time.Time
}

// Run generates every line and station feed under
// <OutputDir>/lines/<id>.ics and <OutputDir>/stations/<id>.ics.
func Run(ctx context.Context, opts Options) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()

	linesDir := filepath.Join(opts.OutputDir, "lines")
	stationsDir := filepath.Join(opts.OutputDir, "stations")
	for _, dir := range []string{linesDir, stationsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	lines, err := navitia.FetchAll[navitia.Line](ctx, opts.Client, "lines", "lines")
	if err != nil {
		return err
	}
	appLog.Info("fetched lines", "count", len(lines.Items))

	stopAreas, err := navitia.FetchAll[navitia.StopArea](ctx, opts.Client, "stop_areas", "stop_areas")
	if err != nil {
		return err
	}
	appLog.Info("fetched stop areas", "count", len(stopAreas.Items))

	// line_reports is fetched for its disruptions side; the report
	// objects themselves are not needed.
	reports, err := navitia.FetchAll[json.RawMessage](ctx, opts.Client, navitia.LineReportsPath(), "line_reports")
	if err != nil {
		return err
	}

	raw := make([]navitia.Disruption, 0,
		len(lines.Disruptions)+len(stopAreas.Disruptions)+len(reports.Disruptions))
	raw = append(raw, lines.Disruptions...)
	raw = append(raw, stopAreas.Disruptions...)
	raw = append(raw, reports.Disruptions...)
	disruptions := navitia.DedupeDisruptions(raw)
	appLog.Info("collected disruptions", "unique", len(disruptions), "raw", len(raw))

	timezone := lines.Context.Timezone
	if timezone == "" {
		timezone = "Europe/Paris"
	}

	merge := match.ComputeMerge(lines.Items)

	lineCount := 0
	for i := range lines.Items {
		line := &lines.Items[i]
		if merge.IsAbsorbed(line.ID) {
			continue
		}
		stripped, err := navitia.StripLineID(line.ID)
		if err != nil {
			return err
		}
		doc, err := feed.Line(line, disruptions, timezone, merge.Variants[line.ID], now)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(linesDir, stripped+".ics"), []byte(doc), 0o644); err != nil {
			return errors.Wrapf(err, "write line feed %s", stripped)
		}
		lineCount++
	}
	appLog.Info("generated line feeds", "count", lineCount)

	stationCount := 0
	for i := range stopAreas.Items {
		stopArea := &stopAreas.Items[i]
		stripped, err := navitia.StripStopAreaID(stopArea.ID)
		if err != nil {
			return err
		}
		doc, err := feed.Station(stopArea, disruptions, timezone, opts.Mapping.ServingLines(stopArea.ID), now)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(stationsDir, stripped+".ics"), []byte(doc), 0o644); err != nil {
			return errors.Wrapf(err, "write station feed %s", stripped)
		}
		stationCount++
	}
	appLog.Info("generated station feeds", "count", stationCount)

	stats := opts.Client.Stats()
	appLog.Info("run finished",
		"api_calls", stats.Calls(),
		"cache_hits", stats.CacheHits(),
		"output", opts.OutputDir,
	)
	return nil
}
