package signal

import "math"

// rollingStat is a streaming mean/variance accumulator over a sliding
// window. It uses Welford-style updates so the window never has to be
// rescanned: Push and Drop are both O(1).
type rollingStat struct {
	count int
	mean  float64
	m2    float64
}

// Push adds a value to the window.
func (r *rollingStat) Push(x float64) {
	r.count++
	delta := x - r.mean
	r.mean += delta / float64(r.count)
	r.m2 += delta * (x - r.mean)
}

// Drop removes a value previously pushed. The caller is responsible for
// dropping values in the order they were pushed.
func (r *rollingStat) Drop(x float64) {
	if r.count <= 1 {
		r.count = 0
		r.mean = 0
		r.m2 = 0
		return
	}
	oldMean := r.mean
	r.count--
	r.mean = (float64(r.count+1)*oldMean - x) / float64(r.count)
	r.m2 -= (x - oldMean) * (x - r.mean)
	// Cancellation can leave m2 a hair below zero.
	if r.m2 < 0 {
		r.m2 = 0
	}
}

// Count returns the number of values currently in the window.
func (r *rollingStat) Count() int {
	return r.count
}

// Mean returns the mean of the current window.
func (r *rollingStat) Mean() float64 {
	return r.mean
}

// Std returns the population standard deviation of the current window.
func (r *rollingStat) Std() float64 {
	if r.count == 0 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.count))
}
