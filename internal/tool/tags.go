package tool

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// LatestTag is the tag registries use for the current release.
const LatestTag = "latest"

// ErrInvalidTag is returned for tags that cannot survive the comma separated
// storage form.
var ErrInvalidTag = errors.New("invalid tag")

// Tags is a sorted set of image tags.
type Tags []string

// NewTags de-duplicates and sorts tags, dropping empty entries.
func NewTags(tags ...string) Tags {
	seen := make(map[string]struct{}, len(tags))
	out := make(Tags, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Validate rejects tags containing the "," separator used by Join.
func (t Tags) Validate() error {
	for _, tag := range t {
		if strings.Contains(tag, ",") {
			return fmt.Errorf("%w: %q contains ','", ErrInvalidTag, tag)
		}
	}
	return nil
}

// SplitTags decodes the comma separated form written by Join.
func SplitTags(s string) Tags {
	if s == "" {
		return Tags{}
	}
	return NewTags(strings.Split(s, ",")...)
}

// Join encodes the tags as a comma separated string.
func (t Tags) Join() string {
	return strings.Join(t, ",")
}

// Has reports whether tag is in the set.
func (t Tags) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}
