package dice

import "sync"

// Sequence is a Source that replays a fixed cycle of Float64 values. Intn maps
// the next value onto [0, n). It exists so scenario tests can pin every draw.
//
// Invariant: every configured value is in [0, 1).
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a Sequence cycling through values.
//
// Precondition: len(values) >= 1 and each value is in [0, 1).
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("dice.NewSequence: at least one value is required")
	}
	for _, v := range values {
		if v < 0 || v >= 1 {
			panic("dice.NewSequence: values must be in [0, 1)")
		}
	}
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float64 returns the next value in the cycle.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Intn returns int(next * n).
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return int(s.Float64() * float64(n))
}
