// Package timefmt encodes timestamps as fixed-width UTC strings.
//
// Every encoded value has the same length and zone, so comparing two encoded
// strings lexicographically gives the same answer as comparing the times. The
// cache store relies on that to decide "newer wins" inside SQL.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical encoding.
const Layout = "2006-01-02T15:04:05.000000000Z"

// accepted lists layouts Parse falls back to for values written by other tools.
var accepted = []string{
	Layout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Format encodes t in UTC using Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse decodes a timestamp produced by Format or any of the fallback layouts.
// Values without a zone are taken as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("failed to parse time: empty value")
	}
	for _, layout := range accepted {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse time %q", s)
}

// Canonical re-encodes s with Layout. It is registered as the s_date SQL
// function so stored values and query arguments can be compared uniformly.
func Canonical(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}
