// Package mapping loads the read-only line/station relation used to
// broaden station matching and rank line termini. The relation is an
// external artifact; a missing file degrades matching to direct-object
// rules only and is never fatal.
package mapping

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	appLog "idfmcal/internal/log"
	"idfmcal/internal/navitia"
)

// Terminus is one candidate terminus of a line with the number of
// routes ending there. Higher counts rank first when displayed.
type Terminus struct {
	StopAreaID string
	Count      int
}

// Store holds the relation keyed both ways. A nil *Store is valid and
// behaves as an empty relation.
type Store struct {
	stationLines map[string][]string
	lineTermini  map[string][]Terminus
}

// ServingLines returns the line ids serving the station, or nil when
// the relation is absent or does not know the station.
func (s *Store) ServingLines(stopAreaID string) []string {
	if s == nil {
		return nil
	}
	return s.stationLines[stopAreaID]
}

// Termini returns the line's termini ordered by descending count.
func (s *Store) Termini(lineID string) []Terminus {
	if s == nil {
		return nil
	}
	return s.lineTermini[lineID]
}

// Stations returns the number of stations in the relation.
func (s *Store) Stations() int {
	if s == nil {
		return 0
	}
	return len(s.stationLines)
}

// Load reads the relation from a CSV file with a
// line_id,stop_area_id,terminus_count header. Ids are stored
// unprefixed in the file and prefixed on load.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open line-station mapping")
	}
	defer f.Close()

	return read(csv.NewReader(f))
}

// LoadOptional is Load, except a missing file yields a nil store with a
// warning instead of an error.
func LoadOptional(path string) (*Store, error) {
	s, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			appLog.Warn("line-station mapping not found, station matching degrades to direct impacts", "path", path)
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func read(r *csv.Reader) (*Store, error) {
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read mapping header")
	}
	if len(header) != 3 || header[0] != "line_id" || header[1] != "stop_area_id" || header[2] != "terminus_count" {
		return nil, errors.Errorf("unexpected mapping header %v", header)
	}

	s := &Store{
		stationLines: make(map[string][]string),
		lineTermini:  make(map[string][]Terminus),
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read mapping record")
		}

		lineID := navitia.LinePrefix + record[0]
		stopAreaID := navitia.StopAreaPrefix + record[1]
		count, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, errors.Wrapf(err, "terminus count for %s/%s", record[0], record[1])
		}

		s.stationLines[stopAreaID] = append(s.stationLines[stopAreaID], lineID)
		if count > 0 {
			s.lineTermini[lineID] = append(s.lineTermini[lineID], Terminus{StopAreaID: stopAreaID, Count: count})
		}
	}

	for _, termini := range s.lineTermini {
		sort.SliceStable(termini, func(i, j int) bool {
			return termini[i].Count > termini[j].Count
		})
	}

	return s, nil
}
