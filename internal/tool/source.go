package tool

import "context"

// Checker is the capability an upstream checker exposes to a VersionRecord.
// GetVersion may perform network I/O; Version returns the checker's own
// cached value without blocking.
type Checker interface {
	GetVersion(ctx context.Context) (string, error)
	Version() string
	Provider() string
	DockerOrigin() bool
	ExtraInfo() string
	Origin() bool
}

// SourceKind discriminates Source values.
type SourceKind int

const (
	// Static sources are plain identifiers such as "local", a registry name
	// or a provider name read back from the cache.
	Static SourceKind = iota
	// Live sources wrap a Checker that can fetch fresh versions.
	Live
)

// Source tells where a VersionRecord came from.
type Source struct {
	kind    SourceKind
	name    string
	checker Checker
}

// StaticSource returns a Source identified only by name.
func StaticSource(name string) Source {
	return Source{kind: Static, name: name}
}

// LiveSource returns a Source backed by c.
func LiveSource(c Checker) Source {
	return Source{kind: Live, checker: c}
}

// Kind returns the discriminant.
func (s Source) Kind() SourceKind { return s.kind }

// IsLive reports whether s wraps a Checker.
func (s Source) IsLive() bool { return s.kind == Live && s.checker != nil }

// Checker returns the wrapped checker, nil for static sources.
func (s Source) Checker() Checker {
	if !s.IsLive() {
		return nil
	}
	return s.checker
}

// String returns the identifier persisted for the source: the provider name
// of a checker or the static name.
func (s Source) String() string {
	if s.IsLive() {
		return s.checker.Provider()
	}
	return s.name
}
