package stats

import (
	"math"
	"time"
)

const (
	// rateSteadinessThreshold is the maximum allowed rate standard deviation
	// as a fraction of the mean rate.
	// Example: 30 units/s mean → steady if stddev < 4.5 units/s
	rateSteadinessThreshold = 0.15

	// jitterSteadinessThreshold is the maximum allowed mean jitter as a
	// fraction of the expected interval between units.
	// Example: 30 units/s (33ms interval) → steady if jitter < 6.6ms
	jitterSteadinessThreshold = 0.20
)

// Pace describes how regularly units were delivered to the consumer.
type Pace struct {
	// Units is the number of delivery timestamps considered
	Units int
	// Duration is the observation window
	Duration time.Duration
	// RateMean is the overall delivery rate (units/s)
	RateMean float64
	// RateStdDev is the standard deviation of the instantaneous rate
	RateStdDev float64
	// RateMin is the minimum instantaneous rate
	RateMin float64
	// RateMax is the maximum instantaneous rate
	RateMax float64
	// JitterMean is the mean deviation from the expected interval (seconds)
	JitterMean float64
	// JitterStdDev is the standard deviation of the jitter (seconds)
	JitterStdDev float64
	// JitterMax is the largest deviation from the expected interval (seconds)
	JitterMax float64
	// IsSteady is true when rate stddev < 15% of mean AND jitter < 20% of interval
	IsSteady bool
}

// CalculatePace computes delivery pace statistics from unit timestamps
//
// This function:
//  1. Calculates the mean rate over the window
//  2. Calculates the instantaneous rate for each interval
//  3. Finds min/max instantaneous rate
//  4. Calculates the standard deviation of the instantaneous rate
//  5. Calculates jitter statistics (inter-unit interval variance)
//  6. Determines steadiness (stddev < 15% of mean AND jitter < 20%)
func CalculatePace(times []time.Time, window time.Duration) Pace {
	n := len(times)
	if n == 0 || window <= 0 {
		return Pace{Units: n, Duration: window}
	}

	rateMean := float64(n) / window.Seconds()

	instantaneous := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		interval := times[i].Sub(times[i-1]).Seconds()
		if interval > 0 {
			instantaneous = append(instantaneous, 1.0/interval)
		}
	}

	if len(instantaneous) == 0 {
		return Pace{Units: n, Duration: window, RateMean: rateMean}
	}

	rateMin, rateMax := instantaneous[0], instantaneous[0]
	var sumSquares float64
	for _, r := range instantaneous {
		rateMin = math.Min(rateMin, r)
		rateMax = math.Max(rateMax, r)
		diff := r - rateMean
		sumSquares += diff * diff
	}
	rateStdDev := math.Sqrt(sumSquares / float64(len(instantaneous)))

	expected := 1.0 / rateMean
	jitters := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		actual := times[i].Sub(times[i-1]).Seconds()
		jitters = append(jitters, math.Abs(actual-expected))
	}

	var jitterSum, jitterMax float64
	for _, j := range jitters {
		jitterSum += j
		jitterMax = math.Max(jitterMax, j)
	}
	jitterMean := jitterSum / float64(len(jitters))

	var jitterSquares float64
	for _, j := range jitters {
		diff := j - jitterMean
		jitterSquares += diff * diff
	}
	jitterStdDev := math.Sqrt(jitterSquares / float64(len(jitters)))

	return Pace{
		Units:        n,
		Duration:     window,
		RateMean:     rateMean,
		RateStdDev:   rateStdDev,
		RateMin:      rateMin,
		RateMax:      rateMax,
		JitterMean:   jitterMean,
		JitterStdDev: jitterStdDev,
		JitterMax:    jitterMax,
		IsSteady: rateStdDev < rateMean*rateSteadinessThreshold &&
			jitterMean < expected*jitterSteadinessThreshold,
	}
}

// PaceWindow keeps the delivery times of the most recent units in a ring.
// It is not safe for concurrent use.
type PaceWindow struct {
	times []time.Time
	next  int
	full  bool
}

// NewPaceWindow returns a window holding up to size timestamps.
func NewPaceWindow(size int) *PaceWindow {
	if size < 2 {
		size = 2
	}
	return &PaceWindow{times: make([]time.Time, size)}
}

// Add records a delivery time.
func (w *PaceWindow) Add(t time.Time) {
	w.times[w.next] = t
	w.next = (w.next + 1) % len(w.times)
	if w.next == 0 {
		w.full = true
	}
}

// Pace computes statistics over the recorded window, oldest first.
func (w *PaceWindow) Pace() Pace {
	var ordered []time.Time
	if w.full {
		ordered = append(ordered, w.times[w.next:]...)
		ordered = append(ordered, w.times[:w.next]...)
	} else {
		ordered = append(ordered, w.times[:w.next]...)
	}
	if len(ordered) < 2 {
		return Pace{Units: len(ordered)}
	}
	return CalculatePace(ordered, ordered[len(ordered)-1].Sub(ordered[0]))
}
