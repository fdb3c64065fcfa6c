package feed

import (
	"time"

	"idfmcal/internal/ical"
	"idfmcal/internal/match"
	"idfmcal/internal/navitia"
)

// Station renders the calendar feed for one stop area. servingLines,
// when known, broadens matching to disruptions reported purely at line
// granularity for lines calling at the station.
func Station(stopArea *navitia.StopArea, disruptions []navitia.Disruption, timezone string, servingLines []string, now time.Time) (string, error) {
	matched := match.FilterForStopArea(disruptions, stopArea.ID, match.NewLineSet(servingLines...))

	var events []*ical.VEvent
	for i := range matched {
		d := &matched[i]
		ctx := ical.EventContext{
			StationName: stopArea.Name,
			Geo:         stopArea.Coord,
		}
		if line := match.FirstImpactedLine(d); line != nil {
			ctx.LineCode = line.Code
			if line.CommercialMode != nil {
				ctx.ModeName = line.CommercialMode.Name
			}
		}
		if ev := ical.FromDisruption(d, ctx); ev != nil {
			events = append(events, ev)
		}
	}

	label := stopArea.Label
	if label == "" {
		label = stopArea.Name
	}

	return ical.Render(events, ical.Metadata{
		Name:        stopArea.Name + " - Perturbations IDFM",
		Description: "Perturbations à la station " + label,
		Timezone:    timezone,
	}, now)
}
