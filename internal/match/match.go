// Package match decides which disruptions apply to which line or
// station. All filters are pure and preserve the input order.
package match

import (
	"idfmcal/internal/navitia"
)

// LineSet is the set of line ids a feed covers. For merged feeds it
// holds the primary line id plus its variant ids.
type LineSet map[string]struct{}

// NewLineSet builds a set from line ids.
func NewLineSet(ids ...string) LineSet {
	s := make(LineSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// AffectsLines reports whether the disruption carries an impacted line
// reference whose id is in the set.
func AffectsLines(d *navitia.Disruption, lines LineSet) bool {
	for i := range d.ImpactedObjects {
		if line := d.ImpactedObjects[i].ImpactedLine(); line != nil {
			if _, ok := lines[line.ID]; ok {
				return true
			}
		}
	}
	return false
}

// FilterForLines returns the disruptions affecting any line in lineIDs,
// in their original order.
func FilterForLines(disruptions []navitia.Disruption, lineIDs []string) []navitia.Disruption {
	set := NewLineSet(lineIDs...)
	var out []navitia.Disruption
	for i := range disruptions {
		if AffectsLines(&disruptions[i], set) {
			out = append(out, disruptions[i])
		}
	}
	return out
}

// AffectsStopArea reports whether the disruption touches the station.
// servingLines optionally broadens the match: when non-empty, a
// disruption reported purely at line granularity for a line serving the
// station also matches.
func AffectsStopArea(d *navitia.Disruption, stopAreaID string, servingLines LineSet) bool {
	for i := range d.ImpactedObjects {
		io := &d.ImpactedObjects[i]

		if pt := io.PTObject; pt != nil {
			switch pt.EmbeddedType {
			case navitia.EmbeddedStopArea:
				if pt.StopArea != nil && pt.StopArea.ID == stopAreaID {
					return true
				}
			case navitia.EmbeddedStopPoint:
				if pt.StopPoint != nil && pt.StopPoint.StopArea != nil && pt.StopPoint.StopArea.ID == stopAreaID {
					return true
				}
			case navitia.EmbeddedLine:
				if len(servingLines) > 0 && pt.Line != nil {
					if _, ok := servingLines[pt.Line.ID]; ok {
						return true
					}
				}
			}
		}

		if sec := io.ImpactedSection; sec != nil {
			if sec.From.StopAreaID() == stopAreaID || sec.To.StopAreaID() == stopAreaID {
				return true
			}
		}

		for j := range io.ImpactedStops {
			sp := io.ImpactedStops[j].StopPoint
			if sp != nil && sp.StopArea != nil && sp.StopArea.ID == stopAreaID {
				return true
			}
		}
	}
	return false
}

// FilterForStopArea returns the disruptions affecting the station, in
// their original order.
func FilterForStopArea(disruptions []navitia.Disruption, stopAreaID string, servingLines LineSet) []navitia.Disruption {
	var out []navitia.Disruption
	for i := range disruptions {
		if AffectsStopArea(&disruptions[i], stopAreaID, servingLines) {
			out = append(out, disruptions[i])
		}
	}
	return out
}

// FirstImpactedLine returns the first line referenced by the
// disruption's impacted objects, used as display context for station
// feeds.
func FirstImpactedLine(d *navitia.Disruption) *navitia.Line {
	for i := range d.ImpactedObjects {
		if line := d.ImpactedObjects[i].ImpactedLine(); line != nil {
			return line
		}
	}
	return nil
}
