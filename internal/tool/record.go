package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cincanproject/cincan-registry/internal/version"
)

// ErrEmptyVersion is returned when an empty version is assigned to a record.
var ErrEmptyVersion = errors.New("cannot set empty value for version")

// VersionRecord is one observed version of a tool from one source.
//
// When the source is live, reading the version may call out to the checker.
// A record is not safe for concurrent use.
type VersionRecord struct {
	Type   VersionType
	Source Source
	Tags   Tags
	// Size is kept as the raw text reported by the registry.
	Size string

	obs    Observation
	origin bool
	clock  func() time.Time
	ttl    time.Duration
}

// RecordOption configures a VersionRecord.
type RecordOption func(*VersionRecord)

// WithTags sets the record tags.
func WithTags(tags ...string) RecordOption {
	return func(r *VersionRecord) { r.Tags = NewTags(tags...) }
}

// WithUpdated sets the observation time of the stored version.
func WithUpdated(t time.Time) RecordOption {
	return func(r *VersionRecord) { r.obs.ObservedAt = t }
}

// WithOrigin sets the stored origin flag used for static sources.
func WithOrigin(origin bool) RecordOption {
	return func(r *VersionRecord) { r.origin = origin }
}

// WithSize sets the raw size.
func WithSize(size string) RecordOption {
	return func(r *VersionRecord) { r.Size = size }
}

// WithClock replaces time.Now for staleness checks.
func WithClock(clock func() time.Time) RecordOption {
	return func(r *VersionRecord) { r.clock = clock }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) RecordOption {
	return func(r *VersionRecord) { r.ttl = ttl }
}

// NewRecord creates a record holding ver as observed from src.
func NewRecord(ver string, vt VersionType, src Source, opts ...RecordOption) *VersionRecord {
	r := &VersionRecord{
		Type:   vt,
		Source: src,
		Tags:   Tags{},
		obs:    Observation{Value: ver},
		clock:  time.Now,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Version returns the observed version.
//
// For a live source whose stored value is stale the checker is queried, which
// may block on the network; the fetch time becomes the new Updated value and
// fetch errors are returned unchanged in the chain. A fresh live value is
// replaced by the checker's cached one. Static sources return the stored value.
func (r *VersionRecord) Version(ctx context.Context) (string, error) {
	c := r.Source.Checker()
	if c == nil {
		return r.obs.Value, nil
	}

	now := r.now()
	if !r.obs.Fresh(now, r.ttl) {
		v, err := c.GetVersion(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get version from %s: %w", c.Provider(), err)
		}
		r.obs = Observation{Value: v, ObservedAt: now}
		return v, nil
	}

	if cached := c.Version(); cached != "" {
		r.obs.Value = cached
	}
	return r.obs.Value, nil
}

// StoredVersion returns the last known version without consulting a checker.
func (r *VersionRecord) StoredVersion() string {
	return r.obs.Value
}

// SetVersion replaces the stored version. Only the empty string is rejected,
// leaving the record unchanged; other values are stored verbatim.
func (r *VersionRecord) SetVersion(v string) error {
	if v == "" {
		return ErrEmptyVersion
	}
	r.obs.Value = v
	return nil
}

// Updated returns when the stored version was observed.
func (r *VersionRecord) Updated() time.Time {
	return r.obs.ObservedAt
}

// SetUpdated sets the observation time.
func (r *VersionRecord) SetUpdated(t time.Time) {
	r.obs.ObservedAt = t
}

// Provider returns the checker's provider name, or the static source name.
func (r *VersionRecord) Provider() string {
	return r.Source.String()
}

// DockerOrigin reports whether the source only tracks the version a build
// recipe installs.
func (r *VersionRecord) DockerOrigin() bool {
	if c := r.Source.Checker(); c != nil {
		return c.DockerOrigin()
	}
	return false
}

// ExtraInfo returns free-form details from the checker.
func (r *VersionRecord) ExtraInfo() string {
	if c := r.Source.Checker(); c != nil {
		return c.ExtraInfo()
	}
	return ""
}

// Origin reports whether the source is authoritative for the tool's upstream
// version. Live sources refresh the stored flag from the checker.
func (r *VersionRecord) Origin() bool {
	if c := r.Source.Checker(); c != nil {
		r.origin = c.Origin()
	}
	return r.origin
}

// SizeBytes parses Size as a byte count. Both plain integers and
// human-readable sizes such as "120 MB" or "1.2 GiB" are accepted.
func (r *VersionRecord) SizeBytes() (int64, bool) {
	n, err := humanize.ParseBytes(strings.TrimSpace(r.Size))
	if err != nil || n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

// Normalized returns the canonical form of the current version.
func (r *VersionRecord) Normalized(ctx context.Context) (version.Value, error) {
	v, err := r.Version(ctx)
	if err != nil {
		return version.Value{}, err
	}
	return version.Normalize(v), nil
}

// Equal compares the record's normalized version against a string, a
// version.Value or another record.
func (r *VersionRecord) Equal(ctx context.Context, other any) (bool, error) {
	mine, err := r.Normalized(ctx)
	if err != nil {
		return false, err
	}
	if o, ok := other.(*VersionRecord); ok {
		if o == nil {
			return false, fmt.Errorf("%w: nil *VersionRecord", version.ErrTypeMismatch)
		}
		theirs, err := o.Normalized(ctx)
		if err != nil {
			return false, err
		}
		return mine.Equal(theirs), nil
	}
	return version.Compare(mine, other)
}

func (r *VersionRecord) now() time.Time {
	if r.clock == nil {
		return time.Now()
	}
	return r.clock()
}
