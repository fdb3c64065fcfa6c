package ical

import (
	"strings"
	"testing"

	"idfmcal/internal/navitia"
)

func baseDisruption() navitia.Disruption {
	return navitia.Disruption{
		ID:       "disruption-1",
		Cause:    "travaux",
		Severity: navitia.Severity{Effect: navitia.EffectNoService},
		ApplicationPeriods: []navitia.Period{
			{Begin: "20260105T060000", End: "20260105T100000"},
		},
	}
}

func sectionImpact(from, to string) navitia.ImpactedObject {
	return navitia.ImpactedObject{
		ImpactedSection: &navitia.ImpactedSection{
			From: &navitia.PTObject{StopArea: &navitia.StopArea{ID: "sa:1", Name: from}},
			To:   &navitia.PTObject{StopArea: &navitia.StopArea{ID: "sa:2", Name: to}},
		},
	}
}

func TestFromDisruption(t *testing.T) {
	t.Run("should skip disruptions without application periods", func(t *testing.T) {
		d := baseDisruption()
		d.ApplicationPeriods = nil
		if ev := FromDisruption(&d, EventContext{}); ev != nil {
			t.Errorf("got event %+v, want nil for an empty period list", ev)
		}
	})

	t.Run("should place the event on the first period only", func(t *testing.T) {
		d := baseDisruption()
		d.ApplicationPeriods = []navitia.Period{
			{Begin: "20260105T060000", End: "20260105T100000"},
			{Begin: "20260201T060000", End: "20260201T100000"},
		}
		ev := FromDisruption(&d, EventContext{})
		if ev == nil {
			t.Fatal("got nil event")
		}
		if ev.DTStart != "20260105T060000" || ev.DTEnd != "20260105T100000" {
			t.Errorf("got window %s/%s, want the first period verbatim", ev.DTStart, ev.DTEnd)
		}
	})

	t.Run("should compose the summary by available context", func(t *testing.T) {
		tests := []struct {
			name string
			ctx  EventContext
			want string
		}{
			{"mode, code and station", EventContext{ModeName: "RER", LineCode: "A", StationName: "Vincennes"}, "RER A @ Vincennes – Service interrompu"},
			{"mode and code", EventContext{ModeName: "RER", LineCode: "A"}, "RER A – Service interrompu"},
			{"code only", EventContext{LineCode: "A"}, "[A] Service interrompu"},
			{"label only", EventContext{}, "Service interrompu"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d := baseDisruption()
				ev := FromDisruption(&d, tt.ctx)
				if ev.Summary != tt.want {
					t.Errorf("got `%s`, want `%s`", ev.Summary, tt.want)
				}
			})
		}
	})

	t.Run("should append the section endpoints to any summary form", func(t *testing.T) {
		d := baseDisruption()
		d.ImpactedObjects = []navitia.ImpactedObject{sectionImpact("Vincennes", "Nation")}

		ev := FromDisruption(&d, EventContext{ModeName: "RER", LineCode: "A"})
		want := "RER A – Service interrompu (Vincennes → Nation)"
		if ev.Summary != want {
			t.Errorf("got `%s`, want `%s`", ev.Summary, want)
		}
	})

	t.Run("should fall back to the generic label for unknown effects", func(t *testing.T) {
		d := baseDisruption()
		d.Severity.Effect = "STOP_MOVED"
		ev := FromDisruption(&d, EventContext{})
		if ev == nil {
			t.Fatal("unknown effect must not fail the mapping")
		}
		if ev.Summary != "Perturbation" {
			t.Errorf("got `%s`, want the generic label", ev.Summary)
		}
		if ev.Categories[0] != "STOP_MOVED" {
			t.Errorf("got category `%s`, want the raw effect code", ev.Categories[0])
		}
	})

	t.Run("should strip HTML from the first non-empty message", func(t *testing.T) {
		d := baseDisruption()
		d.Messages = []navitia.Message{
			{Text: ""},
			{Text: "<p>Trafic interrompu&nbsp;entre <b>Vincennes</b> &amp; Nation.</p><p>Reprise estim&#233;e: 10h.</p>"},
		}
		ev := FromDisruption(&d, EventContext{})
		want := "Trafic interrompu entre Vincennes & Nation.\n\nReprise estimée: 10h."
		if ev.Description != want {
			t.Errorf("got description %q, want %q", ev.Description, want)
		}
	})

	t.Run("should prepend section and stop detail to the description", func(t *testing.T) {
		d := baseDisruption()
		impact := sectionImpact("Vincennes", "Nation")
		impact.ImpactedStops = []navitia.ImpactedStop{
			{StopPoint: &navitia.StopPoint{Name: "Fontenay-sous-Bois"}},
			{StopPoint: &navitia.StopPoint{Name: "Nogent-sur-Marne"}},
		}
		d.ImpactedObjects = []navitia.ImpactedObject{impact}
		d.Messages = []navitia.Message{{Text: "Bus de remplacement."}}

		ev := FromDisruption(&d, EventContext{})
		want := "Section: Vincennes → Nation\nArrêts concernés: Fontenay-sous-Bois, Nogent-sur-Marne\n\nBus de remplacement."
		if ev.Description != want {
			t.Errorf("got description %q, want %q", ev.Description, want)
		}
	})

	t.Run("should leave the description empty without text or detail", func(t *testing.T) {
		d := baseDisruption()
		if ev := FromDisruption(&d, EventContext{}); ev.Description != "" {
			t.Errorf("got description %q, want empty", ev.Description)
		}
	})

	t.Run("should pick the location from section, then station", func(t *testing.T) {
		d := baseDisruption()
		d.ImpactedObjects = []navitia.ImpactedObject{sectionImpact("Vincennes", "Nation")}
		ev := FromDisruption(&d, EventContext{StationName: "Vincennes"})
		if ev.Location != "Vincennes → Nation" {
			t.Errorf("got location `%s`, want the section endpoints", ev.Location)
		}

		d.ImpactedObjects = nil
		ev = FromDisruption(&d, EventContext{StationName: "Vincennes"})
		if ev.Location != "Vincennes" {
			t.Errorf("got location `%s`, want the station name", ev.Location)
		}

		ev = FromDisruption(&d, EventContext{})
		if ev.Location != "" {
			t.Errorf("got location `%s`, want empty", ev.Location)
		}
	})

	t.Run("should suffix the UID namespace and pass geo through", func(t *testing.T) {
		d := baseDisruption()
		geo := &navitia.Coord{Lat: "48.8443", Lon: "2.4324"}
		ev := FromDisruption(&d, EventContext{Geo: geo})
		if !strings.HasSuffix(ev.UID, "@idfmcal") || !strings.HasPrefix(ev.UID, "disruption-1") {
			t.Errorf("got uid `%s`, want disruption id plus namespace suffix", ev.UID)
		}
		if ev.Geo != geo {
			t.Error("geo was not passed through unchanged")
		}
	})

	t.Run("should drop empty category values", func(t *testing.T) {
		d := baseDisruption()
		d.Cause = ""
		ev := FromDisruption(&d, EventContext{})
		if len(ev.Categories) != 1 || ev.Categories[0] != navitia.EffectNoService {
			t.Errorf("got categories %v, want just the effect code", ev.Categories)
		}
	})
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"line breaks", "a<br>b<br />c", "a\nb\nc"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\n\ntwo"},
		{"entity decoding", "1 &lt; 2 &amp;&nbsp;3 &#62; 2", "1 < 2 & 3 > 2"},
		{"tag removal", `<a href="https://x.test">link</a>`, "link"},
		{"blank line collapse", "a<br><br><br><br>b", "a\n\nb"},
		{"plain text untouched", "rien à signaler", "rien à signaler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
