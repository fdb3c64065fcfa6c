package navitia

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Object id prefixes in the IDFM coverage.
const (
	LinePrefix     = "line:IDFM:"
	StopAreaPrefix = "stop_area:IDFM:"
)

// StripLineID removes the "line:IDFM:" prefix from a line id. A
// mismatched prefix means a data-model assumption broke upstream, so it
// is an error rather than a passthrough.
func StripLineID(id string) (string, error) {
	if !strings.HasPrefix(id, LinePrefix) {
		return "", errors.Errorf("invalid line id prefix, expected %q, got %q", LinePrefix, id)
	}
	return id[len(LinePrefix):], nil
}

// StripStopAreaID removes the "stop_area:IDFM:" prefix from a stop area id.
func StripStopAreaID(id string) (string, error) {
	if !strings.HasPrefix(id, StopAreaPrefix) {
		return "", errors.Errorf("invalid stop_area id prefix, expected %q, got %q", StopAreaPrefix, id)
	}
	return id[len(StopAreaPrefix):], nil
}

// JoinURLPath joins URL fragments with single slashes, without touching
// anything else about the fragments.
func JoinURLPath(parts ...string) string {
	for i, part := range parts {
		if i > 0 {
			part = strings.TrimLeft(part, "/")
		}
		if i < len(parts)-1 {
			part = strings.TrimRight(part, "/")
		}
		parts[i] = part
	}
	return strings.Join(parts, "/")
}

// LineReportsPath builds the path of a scoped line_reports request from
// (object kind, value) pairs, e.g. ("line", "IDFM:C01742") becomes
// "line_reports/lines/line%3AIDFM%3AC01742/line_reports". Kinds are
// pluralized by appending "s", matching the Navitia collection names.
func LineReportsPath(scope ...[2]string) string {
	parts := make([]string, 0, len(scope)+2)
	parts = append(parts, "line_reports")
	for _, pair := range scope {
		kind, value := pair[0], pair[1]
		parts = append(parts, kind+"s", escapeSegment(kind+":"+value))
	}
	parts = append(parts, "line_reports")
	return JoinURLPath(parts...)
}

// escapeSegment percent-encodes a path segment including ':', which the
// upstream router requires escaped inside object ids.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
