package tracking

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Window is a fixed-size ring of the most recent readings.
// It always holds exactly Size() values: it starts filled with the seed
// and each Push evicts the oldest entry.
type Window struct {
	values []float64
	next   int
	seed   float64
}

// NewWindow creates a window of size entries, all set to seed
func NewWindow(size int, seed float64) (*Window, error) {
	if size <= 0 {
		return nil, &ConfigError{Field: "window", Message: "size must be positive"}
	}
	w := &Window{values: make([]float64, size), seed: seed}
	w.Reset()
	return w, nil
}

// Push replaces the oldest entry with v
func (w *Window) Push(v float64) {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
}

// Size returns the fixed capacity
func (w *Window) Size() int {
	return len(w.values)
}

// Mean returns the arithmetic mean of the current entries
func (w *Window) Mean() float64 {
	return stat.Mean(w.values, nil)
}

// RoundedMean returns the mean rounded to the nearest integer
func (w *Window) RoundedMean() int {
	return int(math.Round(w.Mean()))
}

// Max returns the largest current entry
func (w *Window) Max() float64 {
	return floats.Max(w.values)
}

// Min returns the smallest current entry
func (w *Window) Min() float64 {
	return floats.Min(w.values)
}

// Reset refills the window with the seed
func (w *Window) Reset() {
	for i := range w.values {
		w.values[i] = w.seed
	}
	w.next = 0
}

// Values returns a copy of the entries, oldest first
func (w *Window) Values() []float64 {
	out := make([]float64, 0, len(w.values))
	out = append(out, w.values[w.next:]...)
	out = append(out, w.values[:w.next]...)
	return out
}
