package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"X", "Y"}

func TestSample_CheckSchema(t *testing.T) {
	ts := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		sample  Sample
		wantErr string
	}{
		{"exact", NewSample(ts, map[string]float64{"X": 1, "Y": 2}), ""},
		{"missing value is still present", NewSample(ts, map[string]float64{"X": Missing, "Y": 2}), ""},
		{"missing column", NewSample(ts, map[string]float64{"X": 1}), "missing columns [Y]"},
		{"unexpected columns sorted", NewSample(ts, map[string]float64{"X": 1, "Y": 2, "b": 0, "a": 0}), "unexpected columns [a, b]"},
		{"zero timestamp", NewSample(time.Time{}, map[string]float64{"X": 1, "Y": 2}), "missing timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.CheckSchema(columns)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
			assert.Contains(t, err.Error(), tt.wantErr)

			var mismatch *SchemaMismatchError
			assert.True(t, errors.As(fmt.Errorf("append: %w", err), &mismatch))
		})
	}
}

func TestSample_ValueAndClone(t *testing.T) {
	values := map[string]float64{"X": 1}
	s := NewSample(time.Now(), values)
	values["X"] = 5
	assert.Equal(t, 1.0, s.Value("X"), "NewSample copies its input")
	assert.True(t, IsMissing(s.Value("Z")))

	c := s.Clone()
	c.Values["X"] = 9
	assert.Equal(t, 1.0, s.Value("X"))
}

func TestView(t *testing.T) {
	ts := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	v := View{
		Columns: []string{"X", "Y"},
		Rows: []Row{
			{Timestamp: ts, Values: []float64{1, 2}},
			{Timestamp: ts.Add(time.Second), Values: []float64{3, Missing}},
		},
	}

	assert.Equal(t, 2, v.Len())
	assert.False(t, v.IsEmpty())
	assert.True(t, View{Columns: columns}.IsEmpty())
	assert.Equal(t, 1, v.ColumnIndex("Y"))
	assert.Equal(t, -1, v.ColumnIndex("Z"))
	assert.Equal(t, []float64{1, 3}, v.Series("X"))
	assert.Nil(t, v.Series("Z"))

	assert.True(t, v.SameColumns(View{Columns: []string{"X", "Y"}}))
	assert.False(t, v.SameColumns(View{Columns: []string{"Y", "X"}}))
	assert.False(t, v.SameColumns(View{Columns: []string{"X"}}))

	c := v.Clone()
	c.Rows[0].Values[0] = 42
	c.Columns[0] = "renamed"
	assert.Equal(t, 1.0, v.Rows[0].Values[0])
	assert.Equal(t, "X", v.Columns[0])
}

func TestMultiSink(t *testing.T) {
	var got []string
	sink := MultiSink{
		RenderFunc(func(v View) { got = append(got, "a") }),
		nil,
		RenderFunc(func(v View) { got = append(got, "b") }),
	}
	sink.Render(View{})
	assert.Equal(t, []string{"a", "b"}, got)
}
