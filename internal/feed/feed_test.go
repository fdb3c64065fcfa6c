package feed

import (
	"strings"
	"testing"
	"time"

	"idfmcal/internal/navitia"
)

var now = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func rerA() *navitia.Line {
	return &navitia.Line{
		ID:             "line:IDFM:C01742",
		Name:           "RER A",
		Code:           "A",
		CommercialMode: &navitia.CommercialMode{Name: "RER"},
		Network:        &navitia.Network{Name: "RER"},
	}
}

func lineDisruption(id, lineID string) navitia.Disruption {
	return navitia.Disruption{
		ID:       id,
		Cause:    "travaux",
		Severity: navitia.Severity{Effect: navitia.EffectNoService},
		ApplicationPeriods: []navitia.Period{
			{Begin: "20260105T060000", End: "20260105T100000"},
		},
		ImpactedObjects: []navitia.ImpactedObject{{
			PTObject: &navitia.PTObject{
				EmbeddedType: navitia.EmbeddedLine,
				Line:         &navitia.Line{ID: lineID, Code: "A", CommercialMode: &navitia.CommercialMode{Name: "RER"}},
			},
		}},
	}
}

func TestLineFeed(t *testing.T) {
	disruptions := []navitia.Disruption{
		lineDisruption("d1", "line:IDFM:C01742"),
		lineDisruption("busVariant", "line:IDFM:C00A42"),
		lineDisruption("other", "line:IDFM:C00001"),
	}

	t.Run("should include merged variant disruptions and exclude the rest", func(t *testing.T) {
		out, err := Line(rerA(), disruptions, "Europe/Paris", []string{"line:IDFM:C00A42"}, now)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "UID:d1@idfmcal") {
			t.Error("direct disruption missing from the feed")
		}
		if !strings.Contains(out, "UID:busVariant@idfmcal") {
			t.Error("merged variant disruption missing from the feed")
		}
		if strings.Contains(out, "UID:other@idfmcal") {
			t.Error("unrelated disruption leaked into the feed")
		}
	})

	t.Run("should omit the network suffix when the mode implies it", func(t *testing.T) {
		out, err := Line(rerA(), nil, "Europe/Paris", nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "X-WR-CALNAME:🚆 A - Perturbations") {
			t.Error("calendar name differs from the implied-network form")
		}
	})

	t.Run("should name the network when it is not implied", func(t *testing.T) {
		line := rerA()
		line.Network = &navitia.Network{Name: "Transilien"}
		out, err := Line(line, nil, "Europe/Paris", nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "X-WR-CALNAME:🚆 A (Transilien) - Perturbations") {
			t.Error("calendar name lacks the network suffix")
		}
	})
}

func TestStationFeed(t *testing.T) {
	station := &navitia.StopArea{
		ID:    "stop_area:IDFM:471971",
		Name:  "Vincennes",
		Label: "Vincennes (Vincennes)",
		Coord: &navitia.Coord{Lat: "48.8443", Lon: "2.4324"},
	}

	t.Run("should pick up line-granularity disruptions via serving lines", func(t *testing.T) {
		disruptions := []navitia.Disruption{lineDisruption("X", "line:IDFM:C01742")}

		out, err := Station(station, disruptions, "Europe/Paris", []string{"line:IDFM:C01742"}, now)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "UID:X@idfmcal") {
			t.Error("serving-line disruption missing from the station feed")
		}
		if !strings.Contains(out, "SUMMARY:RER A @ Vincennes – Service interrompu") {
			t.Error("summary lacks the line context taken from the disruption")
		}
		if !strings.Contains(out, "GEO:48.8443;2.4324") {
			t.Error("station coordinates missing from the event")
		}

		without, err := Station(station, disruptions, "Europe/Paris", nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(without, "UID:X@idfmcal") {
			t.Error("line-granularity disruption matched without a serving-line set")
		}
	})

	t.Run("should use the label in the calendar description", func(t *testing.T) {
		out, err := Station(station, nil, "Europe/Paris", nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "X-WR-CALNAME:Vincennes - Perturbations IDFM") {
			t.Error("calendar name differs from the station form")
		}
		if !strings.Contains(out, "Vincennes (Vincennes)") {
			t.Error("calendar description does not use the station label")
		}
	})
}
