package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow_ExtensionFormat(t *testing.T) {
	w, err := ParseWindow("2016-10-30T20:00:00.000Z", "2016-10-30T21:30:00.250Z")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2016, 10, 30, 20, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2016, 10, 30, 21, 30, 0, 250_000_000, time.UTC), w.End)
	assert.Equal(t, 90*time.Minute+250*time.Millisecond, w.Duration())
}

func TestParseWindow_NormalizesOffsetsToUTC(t *testing.T) {
	w, err := ParseWindow("2024-03-14T12:00:00+02:00", "2024-03-14T12:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, time.UTC, w.Start.Location())
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, 2*time.Hour, w.Duration())
}

func TestParseWindow_ZonelessTimestampsAreUTC(t *testing.T) {
	w, err := ParseWindow("2024-03-14 08:00:00", "2024-03-14T09:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC), w.Start)
}

func TestParseWindow_Errors(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2024-03-14T09:00:00Z"},
		{"missing end", "2024-03-14T09:00:00Z", "  "},
		{"unparseable start", "yesterday", "2024-03-14T09:00:00Z"},
		{"unparseable end", "2024-03-14T09:00:00Z", "14/03/2024"},
		{"start after end", "2024-03-14T10:00:00Z", "2024-03-14T09:00:00Z"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWindow(tc.start, tc.end)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestWindow_EmptyRangeIsValid(t *testing.T) {
	ts := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	w, err := NewWindow(ts, ts)
	require.NoError(t, err)
	assert.Zero(t, w.Duration())
	assert.True(t, w.Contains(ts))
}

func TestWindow_ValidateZeroBounds(t *testing.T) {
	err := Window{End: time.Now()}.Validate()
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestWindow_ContainsIsInclusive(t *testing.T) {
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	w, err := NewWindow(start, start.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(start.Add(time.Hour)))
	assert.False(t, w.Contains(start.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(start.Add(time.Hour+time.Nanosecond)))
}
