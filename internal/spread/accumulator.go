// Package spread provides the running spread average kept per admitted instrument.
package spread

// Accumulator is an online arithmetic mean of spread samples.
// The zero value is ready to use.
type Accumulator struct {
	sum   float64
	count int
}

// Add records one sample.
func (a *Accumulator) Add(sample float64) {
	a.sum += sample
	a.count++
}

// Average returns sum/count, or 0 before the first sample.
func (a *Accumulator) Average() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Saturated reports whether count has reached target.
func (a *Accumulator) Saturated(target int) bool {
	return a.count >= target
}

// Count returns the number of samples taken.
func (a *Accumulator) Count() int { return a.count }

// Sum returns the running sum of samples.
func (a *Accumulator) Sum() float64 { return a.sum }
