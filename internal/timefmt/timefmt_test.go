package timefmt

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	in := time.Date(2024, 3, 9, 14, 5, 6, 123456789, loc)

	encoded := Format(in)
	assert.Equal(t, "2024-03-09T12:05:06.123456789Z", encoded)

	out, err := Parse(encoded)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
	assert.Equal(t, time.UTC, out.Location())
}

func TestLexicalOrderMatchesTime(t *testing.T) {
	base := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	times := []time.Time{
		base.Add(time.Nanosecond),
		base,
		base.Add(-time.Hour),
		base.Add(500 * time.Millisecond),
		base.Add(24 * time.Hour),
	}
	encoded := make([]string, len(times))
	for i, tm := range times {
		encoded[i] = Format(tm)
	}
	sort.Strings(encoded)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := range times {
		assert.Equal(t, Format(times[i]), encoded[i])
	}
}

func TestParseFallbacks(t *testing.T) {
	for _, s := range []string{
		"2024-01-02T03:04:05Z",
		"2024-01-02T05:04:05+02:00",
		"2024-01-02 03:04:05",
		"2024-01-02 03:04:05.000000",
	} {
		got, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), got, s)
	}

	_, err := Parse("")
	assert.Error(t, err)
	_, err = Parse("yesterday")
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	got, err := Canonical("2024-01-02T05:04:05+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T03:04:05.000000000Z", got)

	_, err = Canonical("not a time")
	assert.Error(t, err)
}
