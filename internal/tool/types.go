package tool

import (
	"fmt"
	"time"
)

// VersionType classifies where a version was observed.
type VersionType string

const (
	Local     VersionType = "local"
	Remote    VersionType = "remote"
	Upstream  VersionType = "upstream"
	Undefined VersionType = "undefined"
)

// ParseVersionType maps a stored or user supplied string to a VersionType.
func ParseVersionType(s string) (VersionType, error) {
	switch VersionType(s) {
	case Local, Remote, Upstream, Undefined:
		return VersionType(s), nil
	case "":
		return Undefined, nil
	default:
		return Undefined, fmt.Errorf("unknown version type %q", s)
	}
}

// Tool is a tracked tool identified by name and location. Location is
// "local" for images on this host or the name of a registry.
type Tool struct {
	Name        string
	Location    string
	Updated     time.Time
	Description string
	Versions    []*VersionRecord
}

// VersionsOfType returns the records with the given type, in stored order.
func (t *Tool) VersionsOfType(vt VersionType) []*VersionRecord {
	var out []*VersionRecord
	for _, v := range t.Versions {
		if v.Type == vt {
			out = append(out, v)
		}
	}
	return out
}

// Latest returns the record of type vt tagged "latest", or the most recently
// updated one when no record carries the tag. Nil when there is none.
func (t *Tool) Latest(vt VersionType) *VersionRecord {
	var newest *VersionRecord
	for _, v := range t.VersionsOfType(vt) {
		if v.Tags.Has(LatestTag) {
			return v
		}
		if newest == nil || v.Updated().After(newest.Updated()) {
			newest = v
		}
	}
	return newest
}

// OriginVersion returns the upstream record that is authoritative for the
// tool. Records that only describe the install origin of a build recipe are
// used when nothing better exists.
func (t *Tool) OriginVersion() *VersionRecord {
	var fallback *VersionRecord
	for _, v := range t.VersionsOfType(Upstream) {
		if v.Origin() {
			return v
		}
		if fallback == nil || (fallback.DockerOrigin() && !v.DockerOrigin()) {
			fallback = v
		}
	}
	return fallback
}

// Metadata describes the configuration of an upstream checker for a tool.
type Metadata struct {
	ID           int64
	ToolName     string
	ToolLocation string
	URI          string
	Repository   string
	Tool         string
	Provider     string
	Suite        string
	Method       string
	// Origin marks the checker as authoritative for the tool's upstream version.
	Origin bool
	// DockerOrigin marks a checker that only tracks what the build recipe installs.
	DockerOrigin bool
}
