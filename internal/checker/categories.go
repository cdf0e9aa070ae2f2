// Package checker names the upstream-checker categories the cache knows
// about. Concrete checkers live in the collector layer; the cache only needs
// to know whether a source string refers to one of them.
package checker

import (
	"sort"
	"strings"
)

// Known upstream provider names.
const (
	GitHub        = "github"
	GitLab        = "gitlab"
	Bitbucket     = "bitbucket"
	PyPI          = "pypi"
	Debian        = "debian"
	Alpine        = "alpine"
	DidierStevens = "didierstevens"
	Tar           = "tar"
)

// Categories is a set of checker category names.
type Categories map[string]struct{}

// Default holds every provider the upstream collectors implement.
var Default = NewCategories(GitHub, GitLab, Bitbucket, PyPI, Debian, Alpine, DidierStevens, Tar)

// NewCategories builds a set from names. Names are matched case-insensitively.
func NewCategories(names ...string) Categories {
	c := make(Categories, len(names))
	for _, n := range names {
		c[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return c
}

// Known reports whether source names a checker category.
func (c Categories) Known(source string) bool {
	_, ok := c[strings.ToLower(strings.TrimSpace(source))]
	return ok
}

// Names returns the categories sorted alphabetically.
func (c Categories) Names() []string {
	out := make([]string, 0, len(c))
	for n := range c {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
