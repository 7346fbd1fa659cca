package audiofx

import (
	"math"
	"sync/atomic"
)

// param is a smoothed scalar audio parameter. Externally requested
// changes only move the target; the audible value approaches it with a
// one-pole exponential ramp, so a new request mid-ramp continues from
// the signal's current instantaneous value and never jumps.
//
// SetTarget may be called concurrently with next; both sides go through
// atomics so the render goroutine needs no lock.
type param struct {
	value  atomic.Uint64 // float64 bits
	target atomic.Uint64 // float64 bits
	coeff  float64       // per-sample approach coefficient
}

func newParam(initial, tau float64, sampleRate int) *param {
	p := &param{}
	p.value.Store(math.Float64bits(initial))
	p.target.Store(math.Float64bits(initial))
	// One-pole smoother equivalent of an exponential approach with
	// time constant tau at the given sample rate.
	p.coeff = 1 - math.Exp(-1/(tau*float64(sampleRate)))
	return p
}

// SetTarget requests a ramp toward v.
func (p *param) SetTarget(v float64) {
	p.target.Store(math.Float64bits(v))
}

// Target returns the value the parameter is ramping toward.
func (p *param) Target() float64 {
	return math.Float64frombits(p.target.Load())
}

// Value returns the current instantaneous value.
func (p *param) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// next advances the ramp by one sample and returns the new value.
// Called only from the render goroutine.
func (p *param) next() float64 {
	v := math.Float64frombits(p.value.Load())
	t := math.Float64frombits(p.target.Load())
	v += (t - v) * p.coeff
	p.value.Store(math.Float64bits(v))
	return v
}
