// Package audiofx implements the live voice output effects chain:
// a convolution reverb cascaded into a feedback delay, each with an
// independently controllable wet/dry balance.
//
// All parameter setters are pure bounded numeric updates: out-of-range
// input is clamped, never rejected. Every audible change is applied as
// a short smoothed ramp so the signal never clicks.
package audiofx

import (
	"math/rand/v2"
	"sync/atomic"
)

const (
	reverbOnLevel = 0.8
	delayOnLevel  = 0.5

	defaultDelaySeconds  = 0.5
	defaultFeedbackGain  = 0.4
	maxDelaySeconds      = 2.0
	maxFeedbackGain      = 0.9
	defaultSmoothingTau  = 0.01 // seconds; tens-of-milliseconds ramp
	defaultImpulseLength = 2.0  // seconds of synthetic room response
	impulseDecayExp      = 2.5
)

// Config configures a Graph. Zero values pick the defaults.
type Config struct {
	SampleRate     int     // default 24000 (the transport's output rate)
	ImpulseSeconds float64 // default 2.0
	Seed           uint64  // impulse noise seed; 0 picks a fixed seed
}

// Graph routes a mono input through reverb then delay into a stereo
// output. Topology is fixed at construction:
//
//	input ──┬─► dry ───────────┬─► delay dry ─┬─► out
//	        └─► convolver ─► wet┘             │
//	                 └──────────► delay line ─┴─► delay wet ─► out
//	                               ▲   └─ feedback ─┘
//
// The reverb stage's combined output feeds both the delay stage's dry
// path and the delay line itself; the delay line feeds back into its
// own input scaled by the feedback gain.
type Graph struct {
	sampleRate int

	reverb         *convolver
	delayL, delayR *delayLine

	reverbWet *param
	reverbDry *param
	delayWet  *param
	delayDry  *param
	delayTime *param // seconds
	feedback  *param

	reverbOn atomic.Bool
	delayOn  atomic.Bool
}

// New constructs the graph and generates the synthetic impulse response.
func New(cfg Config) *Graph {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	if cfg.ImpulseSeconds <= 0 {
		cfg.ImpulseSeconds = defaultImpulseLength
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 0x6b697468 // arbitrary fixed default
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xa5a5a5a5))

	irLen := int(float64(cfg.SampleRate) * cfg.ImpulseSeconds)
	maxDelay := int(float64(cfg.SampleRate)*maxDelaySeconds) + 1

	g := &Graph{
		sampleRate: cfg.SampleRate,
		reverb:     newConvolver(synthImpulse(irLen, rng), synthImpulse(irLen, rng)),
		delayL:     newDelayLine(maxDelay),
		delayR:     newDelayLine(maxDelay),
		reverbWet:  newParam(0, defaultSmoothingTau, cfg.SampleRate),
		reverbDry:  newParam(1, defaultSmoothingTau, cfg.SampleRate),
		delayWet:   newParam(0, defaultSmoothingTau, cfg.SampleRate),
		delayDry:   newParam(1, defaultSmoothingTau, cfg.SampleRate),
		delayTime:  newParam(defaultDelaySeconds, defaultSmoothingTau, cfg.SampleRate),
		feedback:   newParam(defaultFeedbackGain, defaultSmoothingTau, cfg.SampleRate),
	}
	return g
}

// ToggleReverb ramps the reverb wet gain to its on level (or zero) and
// the dry gain inversely, keeping perceived loudness steady.
func (g *Graph) ToggleReverb(enabled bool) {
	g.reverbOn.Store(enabled)
	if enabled {
		g.reverbWet.SetTarget(reverbOnLevel)
		g.reverbDry.SetTarget(reverbOnLevel)
	} else {
		g.reverbWet.SetTarget(0)
		g.reverbDry.SetTarget(1)
	}
}

// ToggleDelay ramps the delay wet gain to its on level (or zero). The
// delay stage's dry gain is not touched.
func (g *Graph) ToggleDelay(enabled bool) {
	g.delayOn.Store(enabled)
	if enabled {
		g.delayWet.SetTarget(delayOnLevel)
	} else {
		g.delayWet.SetTarget(0)
	}
}

// SetReverbMix ramps the reverb wet gain to x and the dry gain to 1-x.
// A no-op while the stage is disabled: the UI may still report state,
// but no ramp is issued against a muted signal.
func (g *Graph) SetReverbMix(x float64) {
	if !g.reverbOn.Load() {
		return
	}
	x = clamp(x, 0, 1)
	g.reverbWet.SetTarget(x)
	g.reverbDry.SetTarget(1 - x)
}

// SetDelayMix ramps the delay wet gain to x. A no-op while disabled.
func (g *Graph) SetDelayMix(x float64) {
	if !g.delayOn.Load() {
		return
	}
	g.delayWet.SetTarget(clamp(x, 0, 1))
}

// SetDelayTime ramps the echo spacing, bounded to [0, 2] seconds.
func (g *Graph) SetDelayTime(seconds float64) {
	g.delayTime.SetTarget(clamp(seconds, 0, maxDelaySeconds))
}

// SetDelayFeedback ramps the echo regeneration gain, bounded below
// unity so the feedback loop stays stable.
func (g *Graph) SetDelayFeedback(gain float64) {
	g.feedback.SetTarget(clamp(gain, 0, maxFeedbackGain))
}

// ReverbEnabled reports the reverb toggle state.
func (g *Graph) ReverbEnabled() bool { return g.reverbOn.Load() }

// DelayEnabled reports the delay toggle state.
func (g *Graph) DelayEnabled() bool { return g.delayOn.Load() }

// SampleRate returns the graph's sample rate.
func (g *Graph) SampleRate() int { return g.sampleRate }

// Process renders one block: mono input to stereo output. len(outL) and
// len(outR) must be at least len(in). Safe to call concurrently with
// the parameter setters, but only from one render goroutine.
func (g *Graph) Process(in, outL, outR []float32) {
	sr := float64(g.sampleRate)
	for i, s := range in {
		x := float64(s)

		// Reverb stage: dry bypass plus convolved wet, summed per
		// channel. Gains advance once per sample.
		rDry := g.reverbDry.next()
		rWet := g.reverbWet.next()
		wl, wr := g.reverb.process(x)
		stageL := x*rDry + wl*rWet
		stageR := x*rDry + wr*rWet

		// Delay stage: read the delayed sample first, then write the
		// stage output plus feedback into the line.
		dt := g.delayTime.next() * sr
		fb := g.feedback.next()
		dl := g.delayL.read(dt)
		dr := g.delayR.read(dt)
		g.delayL.write(stageL + dl*fb)
		g.delayR.write(stageR + dr*fb)

		dDry := g.delayDry.next()
		dWet := g.delayWet.next()
		outL[i] = float32(stageL*dDry + dl*dWet)
		outR[i] = float32(stageR*dDry + dr*dWet)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
