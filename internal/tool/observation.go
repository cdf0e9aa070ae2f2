package tool

import "time"

// DefaultTTL is how long a value fetched from a live checker stays fresh.
const DefaultTTL = time.Hour

// Observation is a value together with the time it was observed.
type Observation struct {
	Value      string
	ObservedAt time.Time
}

// Fresh reports whether the observation is usable at now. Missing timestamps,
// timestamps older than ttl and timestamps in the future are all stale.
func (o Observation) Fresh(now time.Time, ttl time.Duration) bool {
	if o.ObservedAt.IsZero() {
		return false
	}
	if o.ObservedAt.After(now) {
		return false
	}
	return !o.ObservedAt.Before(now.Add(-ttl))
}
