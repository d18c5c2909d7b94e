package source

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// Gravity is the resting reading of a vertical accelerometer axis.
const Gravity = 9.81

// Simulated is a seeded random-walk source for demos and tests.
type Simulated struct {
	columns []string
	step    float64

	mu     sync.Mutex
	rng    *rand.Rand
	values map[string]float64
}

// NewSimulated returns a source walking every column by roughly step per Fetch.
// Columns ending in "_Z" start at Gravity, the rest at zero.
func NewSimulated(columns []string, seed int64, step float64) *Simulated {
	if step <= 0 {
		step = 0.1
	}
	s := &Simulated{
		columns: append([]string(nil), columns...),
		step:    step,
		rng:     rand.New(rand.NewSource(seed)),
		values:  make(map[string]float64, len(columns)),
	}
	for _, col := range columns {
		if strings.HasSuffix(col, "_Z") {
			s.values[col] = Gravity
		} else {
			s.values[col] = 0
		}
	}
	return s
}

// Fetch advances the walk by one step and returns the new readings.
func (s *Simulated) Fetch(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.columns))
	for _, col := range s.columns {
		v := s.values[col] + s.rng.NormFloat64()*s.step
		s.values[col] = v
		out[col] = v
	}
	return out, nil
}

// Close is a no-op.
func (s *Simulated) Close() error {
	return nil
}
