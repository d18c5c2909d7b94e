package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeProvider_SetTimezone(t *testing.T) {
	tp := &TimeProvider{}

	require.NoError(t, tp.SetTimezone("UTC"))
	assert.Equal(t, time.UTC, tp.Location())

	require.NoError(t, tp.SetTimezone(""))
	assert.Equal(t, time.Local, tp.Location())

	err := tp.SetTimezone("Mars/Olympus_Mons")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func TestTimeProvider_Parse(t *testing.T) {
	tp := &TimeProvider{location: time.UTC}
	want := time.Date(2023, 11, 5, 14, 3, 9, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "canonical", input: "2023-11-05 14:03:09"},
		{name: "compact", input: "20231105140309"},
		{name: "surrounding space", input: "  2023-11-05 14:03:09 "},
		{name: "date only", input: "2023-11-05", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tp.Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}
}

func TestTimeProvider_StampRoundTrip(t *testing.T) {
	tp := &TimeProvider{location: time.FixedZone("UTC+1", 3600)}

	ts := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	stamped := tp.Stamp(ts)
	assert.Equal(t, "2024-07-01 10:30:00", stamped)

	parsed, err := tp.Parse(stamped)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestCanonicalStampsSortChronologically(t *testing.T) {
	tp := &TimeProvider{location: time.UTC}
	earlier := tp.Stamp(time.Date(2023, 9, 30, 23, 59, 59, 0, time.UTC))
	later := tp.Stamp(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, earlier, later)
}

func TestTimeProvider_FormatUsesConfiguredZone(t *testing.T) {
	tp := &TimeProvider{location: time.FixedZone("UTC+9", 9*3600)}
	ts := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-10 210000", tp.Format(ts, "2006-01-02 150405"))
}
