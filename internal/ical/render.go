package ical

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	crlf   = "\r\n"
	prodID = "-//IDFM Disruptions//idfmcal//FR"

	// maxLineLength is the RFC 5545 octet limit after which content
	// lines must be folded.
	maxLineLength = 75
)

// Metadata is the calendar-level header information.
type Metadata struct {
	Name        string
	Description string
	Timezone    string
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\n", `\n`,
)

var textUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\;`, ";",
	`\,`, ",",
	`\n`, "\n",
	`\N`, "\n",
)

// escapeText escapes backslash, semicolon, comma and newline per the
// TEXT value rules. Nothing else is altered.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// unescapeText is the inverse of escapeText.
func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}

// foldLine splits a content line at the 75-character boundary,
// prefixing continuations with a single space.
func foldLine(line string) string {
	if len(line) <= maxLineLength {
		return line
	}
	var parts []string
	for len(line) > maxLineLength {
		parts = append(parts, line[:maxLineLength])
		line = " " + line[maxLineLength:]
	}
	parts = append(parts, line)
	return strings.Join(parts, crlf)
}

// timezoneComponent renders the single supported VTIMEZONE block. Only
// Europe/Paris exists in the IDFM coverage; any other id indicates a
// broken assumption and is a hard error.
func timezoneComponent(tzid string) (string, error) {
	if tzid != "Europe/Paris" {
		return "", errors.Errorf("unsupported timezone: %s", tzid)
	}
	return strings.Join([]string{
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Paris",
		"BEGIN:DAYLIGHT",
		"TZOFFSETFROM:+0100",
		"TZOFFSETTO:+0200",
		"TZNAME:CEST",
		"DTSTART:19700329T020000",
		"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU",
		"END:DAYLIGHT",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0200",
		"TZOFFSETTO:+0100",
		"TZNAME:CET",
		"DTSTART:19701025T030000",
		"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
		"END:STANDARD",
		"END:VTIMEZONE",
	}, crlf), nil
}

// renderEvent renders one VEVENT block, folding each line. Every event
// carries a zero-duration silent alarm so clients that only surface
// alarm-bearing events still show it.
func renderEvent(e *VEvent, tzid string, stamp time.Time) string {
	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + e.UID,
		"DTSTAMP:" + stamp.UTC().Format("20060102T150405Z"),
		"DTSTART;TZID=" + tzid + ":" + e.DTStart,
		"DTEND;TZID=" + tzid + ":" + e.DTEnd,
		"SUMMARY:" + escapeText(e.Summary),
		"TRANSP:TRANSPARENT",
		"X-APPLE-DEFAULT-ALARM:FALSE",
	}
	if e.Description != "" {
		lines = append(lines, "DESCRIPTION:"+escapeText(e.Description))
	}
	if e.Location != "" {
		lines = append(lines, "LOCATION:"+escapeText(e.Location))
	}
	if e.Geo != nil {
		lines = append(lines, "GEO:"+e.Geo.Lat+";"+e.Geo.Lon)
	}
	if len(e.Categories) > 0 {
		escaped := make([]string, len(e.Categories))
		for i, c := range e.Categories {
			escaped[i] = escapeText(c)
		}
		lines = append(lines, "CATEGORIES:"+strings.Join(escaped, ","))
	}
	lines = append(lines,
		"BEGIN:VALARM",
		"ACTION:NONE",
		"TRIGGER;VALUE=DURATION:-PT0M",
		"DESCRIPTION:",
		"END:VALARM",
		"END:VEVENT",
	)

	for i, l := range lines {
		lines[i] = foldLine(l)
	}
	return strings.Join(lines, crlf)
}

// Render serializes a complete calendar document. Events are sorted by
// DTSTART (lexicographic, correct for the fixed-width timestamp form)
// and the output is deterministic for a given now.
func Render(events []*VEvent, meta Metadata, now time.Time) (string, error) {
	tz, err := timezoneComponent(meta.Timezone)
	if err != nil {
		return "", err
	}

	header := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + escapeText(meta.Name),
	}
	if meta.Description != "" {
		header = append(header, "X-WR-CALDESC:"+escapeText(meta.Description))
	}
	header = append(header,
		"X-WR-TIMEZONE:"+meta.Timezone,
		"X-APPLE-DEFAULT-ALARM:FALSE",
	)
	for i, l := range header {
		header[i] = foldLine(l)
	}

	sorted := make([]*VEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DTStart < sorted[j].DTStart
	})

	blocks := []string{strings.Join(header, crlf), tz}
	for _, e := range sorted {
		blocks = append(blocks, renderEvent(e, meta.Timezone, now))
	}
	blocks = append(blocks, "END:VCALENDAR")

	return strings.Join(blocks, crlf) + crlf, nil
}
