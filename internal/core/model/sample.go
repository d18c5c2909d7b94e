package model

import (
	"math"
	"sort"
	"time"
)

// TimestampColumn is the name of the first column of every stored row.
const TimestampColumn = "Timestamp"

// MagnitudeColumn is the derived column appended by the magnitude projection.
const MagnitudeColumn = "Magnitude"

// Missing is the marker substituted for unparsable or absent cells.
var Missing = math.NaN()

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Sample is one timestamped set of named scalar readings.
type Sample struct {
	Timestamp time.Time
	Values    map[string]float64
}

// NewSample builds a sample, copying values so the caller may reuse its map.
func NewSample(ts time.Time, values map[string]float64) Sample {
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Sample{Timestamp: ts, Values: copied}
}

// Value returns the value for column, or Missing when absent.
func (s Sample) Value(column string) float64 {
	if v, ok := s.Values[column]; ok {
		return v
	}
	return Missing
}

// Clone returns a deep copy of the sample.
func (s Sample) Clone() Sample {
	return NewSample(s.Timestamp, s.Values)
}

// CheckSchema reports a *SchemaMismatchError when the sample does not carry
// exactly the given columns plus a timestamp.
func (s Sample) CheckSchema(columns []string) error {
	mismatch := &SchemaMismatchError{NoTimestamp: s.Timestamp.IsZero()}

	declared := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		declared[col] = struct{}{}
		if _, ok := s.Values[col]; !ok {
			mismatch.Missing = append(mismatch.Missing, col)
		}
	}
	for name := range s.Values {
		if _, ok := declared[name]; !ok {
			mismatch.Unexpected = append(mismatch.Unexpected, name)
		}
	}
	sort.Strings(mismatch.Unexpected)

	if mismatch.NoTimestamp || len(mismatch.Missing) > 0 || len(mismatch.Unexpected) > 0 {
		return mismatch
	}
	return nil
}
