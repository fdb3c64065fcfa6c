// Package ical maps matched disruptions to calendar events and
// serializes complete iCalendar documents.
package ical

import (
	"html"
	"regexp"
	"strings"

	appLog "idfmcal/internal/log"
	"idfmcal/internal/navitia"
)

// uidNamespace is appended to the disruption id to form a globally
// unique event UID.
const uidNamespace = "@idfmcal"

// effectLabels is the closed effect-code translation table. Codes
// outside it fall back to the generic label.
var effectLabels = map[string]string{
	navitia.EffectNoService:         "Service interrompu",
	navitia.EffectReducedService:    "Service réduit",
	navitia.EffectSignificantDelays: "Retards importants",
	navitia.EffectModifiedService:   "Service modifié",
	navitia.EffectDetour:            "Déviation",
	navitia.EffectAdditionalService: "Service supplémentaire",
	navitia.EffectOther:             "Perturbation",
	navitia.EffectUnknown:           "Perturbation",
}

const fallbackEffectLabel = "Perturbation"

// EventContext carries the display hints of the feed an event is
// generated for. All fields are optional.
type EventContext struct {
	ModeName    string
	LineCode    string
	StationName string
	Geo         *navitia.Coord
}

// VEvent is one calendar event ready for serialization. Timestamps keep
// the upstream YYYYMMDDTHHMMSS form, local to the feed's timezone.
type VEvent struct {
	UID         string
	Summary     string
	DTStart     string
	DTEnd       string
	Description string
	Location    string
	Geo         *navitia.Coord
	Categories  []string
}

// affectedStations is the structured detail extracted from a
// disruption's impacted objects: an endpoint pair and/or stop names.
type affectedStations struct {
	from, to string
	stops    []string
}

func (a *affectedStations) hasSection() bool { return a.from != "" && a.to != "" }

// extractAffected walks the impacted objects looking first for a
// section with both endpoints, then for a bare impacted-stop list.
func extractAffected(d *navitia.Disruption) affectedStations {
	for i := range d.ImpactedObjects {
		io := &d.ImpactedObjects[i]
		if sec := io.ImpactedSection; sec != nil {
			from := sec.From.DisplayName()
			to := sec.To.DisplayName()
			if from != "" && to != "" {
				return affectedStations{from: from, to: to, stops: stopNames(io.ImpactedStops)}
			}
		}
		if names := stopNames(io.ImpactedStops); len(names) > 0 {
			return affectedStations{stops: names}
		}
	}
	return affectedStations{}
}

func stopNames(stops []navitia.ImpactedStop) []string {
	var names []string
	for i := range stops {
		if sp := stops[i].StopPoint; sp != nil && sp.Name != "" {
			names = append(names, sp.Name)
		}
	}
	return names
}

// FromDisruption converts a disruption plus feed context into a single
// calendar event. It returns nil when the disruption has no application
// periods; the first period is authoritative for event placement.
func FromDisruption(d *navitia.Disruption, ctx EventContext) *VEvent {
	if len(d.ApplicationPeriods) == 0 {
		return nil
	}
	period := d.ApplicationPeriods[0]

	effect := d.Severity.Effect
	if effect == "" {
		effect = navitia.EffectUnknown
	}
	label, known := effectLabels[effect]
	if !known {
		label = fallbackEffectLabel
		appLog.Warn("unknown disruption effect", "effect", effect, "disruption", d.ID)
	}

	affected := extractAffected(d)

	var summary string
	switch {
	case ctx.ModeName != "" && ctx.LineCode != "" && ctx.StationName != "":
		summary = ctx.ModeName + " " + ctx.LineCode + " @ " + ctx.StationName + " – " + label
	case ctx.ModeName != "" && ctx.LineCode != "":
		summary = ctx.ModeName + " " + ctx.LineCode + " – " + label
	case ctx.LineCode != "":
		summary = "[" + ctx.LineCode + "] " + label
	default:
		summary = label
	}
	if affected.hasSection() {
		summary += " (" + affected.from + " → " + affected.to + ")"
	}

	description := buildDescription(d, affected)

	var location string
	switch {
	case affected.hasSection():
		location = affected.from + " → " + affected.to
	case ctx.StationName != "":
		location = ctx.StationName
	}

	var categories []string
	for _, c := range []string{effect, d.Cause} {
		if c != "" {
			categories = append(categories, c)
		}
	}

	return &VEvent{
		UID:         d.ID + uidNamespace,
		Summary:     summary,
		DTStart:     period.Begin,
		DTEnd:       period.End,
		Description: description,
		Location:    location,
		Geo:         ctx.Geo,
		Categories:  categories,
	}
}

// buildDescription assembles the description: structured detail lines
// (section, stop list) prepended to the first non-empty message text
// with its HTML stripped.
func buildDescription(d *navitia.Disruption, affected affectedStations) string {
	var message string
	for _, m := range d.Messages {
		if m.Text != "" {
			message = StripHTML(m.Text)
			break
		}
	}

	var parts []string
	if affected.hasSection() {
		parts = append(parts, "Section: "+affected.from+" → "+affected.to)
	}
	if len(affected.stops) > 0 {
		parts = append(parts, "Arrêts concernés: "+strings.Join(affected.stops, ", "))
	}
	if len(parts) == 0 {
		return message
	}
	detail := strings.Join(parts, "\n")
	if message == "" {
		return detail
	}
	return detail + "\n\n" + message
}

var (
	brRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	pCloseRe   = regexp.MustCompile(`(?i)</p>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// StripHTML turns the HTML message bodies the API serves into plain
// text: line breaks and paragraph closes become newlines, remaining
// tags are removed, character entities are decoded, and runs of blank
// lines are collapsed.
func StripHTML(s string) string {
	s = brRe.ReplaceAllString(s, "\n")
	s = pCloseRe.ReplaceAllString(s, "\n\n")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = html.UnescapeString(s)
	s = newlinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
