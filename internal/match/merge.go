package match

import (
	appLog "idfmcal/internal/log"
	"idfmcal/internal/navitia"
)

// Merge describes the RER bus-variant merge computed over a line
// collection. Some RER lines are represented upstream as two records: a
// rail line plus a parallel bus-replacement line sharing the same code
// on the "RER" network. Both should present as one calendar subject.
type Merge struct {
	// Variants maps a primary (RER) line id to its merged variant ids.
	Variants map[string][]string
	// absorbed holds variant ids excluded from standalone feeds.
	absorbed map[string]struct{}
}

// IsAbsorbed reports whether the line id was merged into another line
// and must not get a standalone feed.
func (m *Merge) IsAbsorbed(lineID string) bool {
	_, ok := m.absorbed[lineID]
	return ok
}

// FeedIDs returns the full id set a line's feed covers: the line itself
// plus any merged variants.
func (m *Merge) FeedIDs(lineID string) []string {
	return append([]string{lineID}, m.Variants[lineID]...)
}

// ComputeMerge scans the line collection for RER bus variants. The scan
// is O(lines²) over a few hundred lines; upstream exposes no "variant
// of" relation that would make it unnecessary.
func ComputeMerge(lines []navitia.Line) *Merge {
	m := &Merge{
		Variants: make(map[string][]string),
		absorbed: make(map[string]struct{}),
	}
	for i := range lines {
		rer := &lines[i]
		if rer.CommercialMode == nil || rer.CommercialMode.Name != "RER" {
			continue
		}
		for j := range lines {
			other := &lines[j]
			if other.ID == rer.ID || other.Code != rer.Code {
				continue
			}
			if other.CommercialMode == nil || other.CommercialMode.Name != "Bus" {
				continue
			}
			if other.Network == nil || other.Network.Name != "RER" {
				continue
			}
			m.Variants[rer.ID] = append(m.Variants[rer.ID], other.ID)
			m.absorbed[other.ID] = struct{}{}
			appLog.Info("merging RER bus variant", "rer", rer.ID, "code", rer.Code, "variant", other.ID)
		}
	}
	return m
}
