// Package navitia talks to the IDFM PRIM marketplace deployment of the
// Navitia journey-planning API and models the slice of its response
// vocabulary this project consumes. See https://doc.navitia.io/.
package navitia

// Period is a disruption validity window. Timestamps use the Navitia
// local date-time form YYYYMMDDTHHMMSS, with no zone designator.
type Period struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

// Severity effect codes, normalized per the GTFS-RT Effect enum.
const (
	EffectNoService         = "NO_SERVICE"
	EffectReducedService    = "REDUCED_SERVICE"
	EffectSignificantDelays = "SIGNIFICANT_DELAYS"
	EffectModifiedService   = "MODIFIED_SERVICE"
	EffectDetour            = "DETOUR"
	EffectAdditionalService = "ADDITIONAL_SERVICE"
	EffectOther             = "OTHER_EFFECT"
	EffectUnknown           = "UNKNOWN_EFFECT"
)

// Severity categorizes a disruption.
type Severity struct {
	Color    string `json:"color"`
	Priority int    `json:"priority"`
	Name     string `json:"name"`
	Effect   string `json:"effect"`
}

// Message is a free-form traveler-facing text, usually HTML.
type Message struct {
	Text string `json:"text"`
}

// Network is a public transport network.
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommercialMode is the commercial branding of a line (e.g. "RER").
type CommercialMode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PhysicalMode is the physical vehicle category of a line.
type PhysicalMode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Route is one direction/path of a line.
type Route struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Coord is a WGS84 coordinate; Navitia serializes both fields as strings.
type Coord struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Line is a public transport line, id form "line:IDFM:<code>".
type Line struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Color          string          `json:"color"`
	TextColor      string          `json:"text_color"`
	CommercialMode *CommercialMode `json:"commercial_mode,omitempty"`
	PhysicalModes  []PhysicalMode  `json:"physical_modes,omitempty"`
	Network        *Network        `json:"network,omitempty"`
	Routes         []Route         `json:"routes,omitempty"`
}

// StopArea is a station, id form "stop_area:IDFM:<code>".
type StopArea struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Coord *Coord `json:"coord,omitempty"`
}

// StopPoint is a single platform/quay belonging to a StopArea.
type StopPoint struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	StopArea *StopArea `json:"stop_area,omitempty"`
}

// Trip identifies a single vehicle journey.
type Trip struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Embedded type discriminator values carried by PTObject.
const (
	EmbeddedNetwork   = "network"
	EmbeddedLine      = "line"
	EmbeddedRoute     = "route"
	EmbeddedStopArea  = "stop_area"
	EmbeddedStopPoint = "stop_point"
	EmbeddedTrip      = "trip"
)

// PTObject is a polymorphic reference to a public transport object; the
// EmbeddedType field names which of the embedded pointers is populated.
type PTObject struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	EmbeddedType string     `json:"embedded_type"`
	Line         *Line      `json:"line,omitempty"`
	Network      *Network   `json:"network,omitempty"`
	Route        *Route     `json:"route,omitempty"`
	StopArea     *StopArea  `json:"stop_area,omitempty"`
	StopPoint    *StopPoint `json:"stop_point,omitempty"`
	Trip         *Trip      `json:"trip,omitempty"`
}

// StopAreaID resolves the stop area a PTObject belongs to: directly for
// stop_area references, via the parent station for stop_point references,
// and "" for everything else.
func (p *PTObject) StopAreaID() string {
	if p == nil {
		return ""
	}
	if p.StopArea != nil {
		return p.StopArea.ID
	}
	if p.StopPoint != nil && p.StopPoint.StopArea != nil {
		return p.StopPoint.StopArea.ID
	}
	return ""
}

// DisplayName prefers the stop area name over the raw object name, since
// section endpoints are often stop points with platform-level names.
func (p *PTObject) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.StopArea != nil && p.StopArea.Name != "" {
		return p.StopArea.Name
	}
	return p.Name
}

// ImpactedSection describes a line-section impact between two endpoints.
type ImpactedSection struct {
	From   *PTObject `json:"from,omitempty"`
	To     *PTObject `json:"to,omitempty"`
	Routes []Route   `json:"routes,omitempty"`
}

// Impacted stop statuses.
const (
	ImpactAdded     = "added"
	ImpactDeleted   = "deleted"
	ImpactDelayed   = "delayed"
	ImpactUnchanged = "unchanged"
)

// ImpactedStop is a per-stop schedule amendment, HHMMSS times.
type ImpactedStop struct {
	StopPoint           *StopPoint `json:"stop_point,omitempty"`
	AmendedDepartureTime string    `json:"amended_departure_time"`
	AmendedArrivalTime   string    `json:"amended_arrival_time"`
	BaseDepartureTime    string    `json:"base_departure_time"`
	BaseArrivalTime      string    `json:"base_arrival_time"`
	Cause                string    `json:"cause"`
	ArrivalStatus        string    `json:"arrival_status"`
	DepartureStatus      string    `json:"departure_status"`
}

// ImpactedObject is the union of the three impact shapes a disruption
// can carry. Any combination of facets may be populated; matching rules
// inspect each facet explicitly.
type ImpactedObject struct {
	PTObject        *PTObject        `json:"pt_object,omitempty"`
	ImpactedSection *ImpactedSection `json:"impacted_section,omitempty"`
	ImpactedStops   []ImpactedStop   `json:"impacted_stops,omitempty"`
}

// ImpactedLine returns the referenced line when the pt_object facet is a
// line reference, nil otherwise.
func (io *ImpactedObject) ImpactedLine() *Line {
	if io == nil || io.PTObject == nil || io.PTObject.EmbeddedType != EmbeddedLine {
		return nil
	}
	return io.PTObject.Line
}

// Disruption lifecycle statuses.
const (
	StatusPast   = "past"
	StatusActive = "active"
	StatusFuture = "future"
)

// Disruption is one service alert with validity periods and the list of
// transport objects it affects. Immutable once fetched.
type Disruption struct {
	ID                 string           `json:"id"`
	Status             string           `json:"status"`
	Cause              string           `json:"cause"`
	Category           string           `json:"category"`
	Severity           Severity         `json:"severity"`
	ApplicationPeriods []Period         `json:"application_periods"`
	Messages           []Message        `json:"messages"`
	ImpactedObjects    []ImpactedObject `json:"impacted_objects"`
	UpdatedAt          string           `json:"updated_at"`
}

// DedupeDisruptions removes duplicate records by id, keeping the first
// occurrence. The same disruption shows up once per page and collection
// that mentions it, so this runs before any matching.
func DedupeDisruptions(disruptions []Disruption) []Disruption {
	seen := make(map[string]struct{}, len(disruptions))
	out := make([]Disruption, 0, len(disruptions))
	for _, d := range disruptions {
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}
