// Package feed assembles the per-line and per-station calendar
// documents from matched disruptions.
package feed

import (
	"strings"
	"time"

	"idfmcal/internal/ical"
	"idfmcal/internal/match"
	"idfmcal/internal/navitia"
)

// modeIcons decorates calendar names for the common modes; anything
// else falls back to the plain mode name.
var modeIcons = map[string]string{
	"Métro":            "🚇",
	"RER":              "🚆",
	"Train Transilien": "🚆",
	"Tramway":          "🚋",
	"Bus":              "🚌",
	"Funiculaire":      "🚞",
}

// obviousNetworks maps a mode name to the network it implies. When the
// line's network matches, the name suffix is redundant and omitted.
var obviousNetworks = map[string]string{
	"Métro":            "RATP",
	"Bus":              "RATP",
	"Tramway":          "RATP",
	"Funiculaire":      "RATP",
	"RER":              "RER",
	"TER":              "TER",
	"Train Transilien": "Transilien",
	"Orlyval, CDG VAL": "ADP",
}

// Line renders the calendar feed for one line. mergeIDs lists variant
// line ids folded into this feed (RER bus replacements); disruptions
// tagged to any of them are included.
func Line(line *navitia.Line, disruptions []navitia.Disruption, timezone string, mergeIDs []string, now time.Time) (string, error) {
	allIDs := append([]string{line.ID}, mergeIDs...)
	matched := match.FilterForLines(disruptions, allIDs)

	ctx := ical.EventContext{LineCode: line.Code}
	if line.CommercialMode != nil {
		ctx.ModeName = line.CommercialMode.Name
	}

	var events []*ical.VEvent
	for i := range matched {
		if ev := ical.FromDisruption(&matched[i], ctx); ev != nil {
			events = append(events, ev)
		}
	}

	return ical.Render(events, ical.Metadata{
		Name:        lineCalendarName(line) + " - Perturbations",
		Description: "Perturbations sur la ligne " + line.Name,
		Timezone:    timezone,
	}, now)
}

// lineCalendarName builds "<icon-or-mode> <code>" with the network
// appended only when it is not implied by the mode.
func lineCalendarName(line *navitia.Line) string {
	var modeName string
	if line.CommercialMode != nil {
		modeName = line.CommercialMode.Name
	} else if len(line.PhysicalModes) > 0 {
		modeName = line.PhysicalModes[0].Name
	}

	label := modeName
	if icon, ok := modeIcons[modeName]; ok {
		label = icon
	}

	networkName := "IDFM"
	if line.Network != nil && line.Network.Name != "" {
		networkName = line.Network.Name
	}

	name := strings.TrimSpace(label + " " + line.Code)
	if obviousNetworks[modeName] != networkName {
		name += " (" + networkName + ")"
	}
	return name
}
