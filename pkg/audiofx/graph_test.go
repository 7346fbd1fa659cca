package audiofx

import (
	"math"
	"testing"
)

// Small rates keep the synthetic impulse short so convolution stays
// cheap in tests.
func newTestGraph() *Graph {
	return New(Config{SampleRate: 800, ImpulseSeconds: 0.05})
}

func TestSetDelayFeedback_ClampedBelowUnity(t *testing.T) {
	g := newTestGraph()
	g.SetDelayFeedback(1.5)
	if got := g.feedback.Target(); got != maxFeedbackGain {
		t.Errorf("feedback target = %v, want %v", got, maxFeedbackGain)
	}
	g.SetDelayFeedback(-0.2)
	if got := g.feedback.Target(); got != 0 {
		t.Errorf("feedback target = %v, want 0", got)
	}
}

func TestSetDelayTime_Clamped(t *testing.T) {
	g := newTestGraph()
	g.SetDelayTime(5)
	if got := g.delayTime.Target(); got != maxDelaySeconds {
		t.Errorf("delay time target = %v, want %v", got, maxDelaySeconds)
	}
	g.SetDelayTime(-1)
	if got := g.delayTime.Target(); got != 0 {
		t.Errorf("delay time target = %v, want 0", got)
	}
}

func TestSetReverbMix_NoOpWhileDisabled(t *testing.T) {
	g := newTestGraph()
	g.SetReverbMix(0.7)
	if got := g.reverbWet.Target(); got != 0 {
		t.Errorf("wet target = %v, want 0 (stage disabled)", got)
	}
	if got := g.reverbDry.Target(); got != 1 {
		t.Errorf("dry target = %v, want 1 (stage disabled)", got)
	}
}

func TestSetDelayMix_NoOpWhileDisabled(t *testing.T) {
	g := newTestGraph()
	g.SetDelayMix(0.9)
	if got := g.delayWet.Target(); got != 0 {
		t.Errorf("wet target = %v, want 0 (stage disabled)", got)
	}
}

func TestToggleReverb_Levels(t *testing.T) {
	g := newTestGraph()
	g.ToggleReverb(true)
	if got := g.reverbWet.Target(); got != reverbOnLevel {
		t.Errorf("wet target = %v, want %v", got, reverbOnLevel)
	}
	if got := g.reverbDry.Target(); got != reverbOnLevel {
		t.Errorf("dry target = %v, want %v", got, reverbOnLevel)
	}

	g.ToggleReverb(false)
	if got := g.reverbWet.Target(); got != 0 {
		t.Errorf("wet target = %v, want 0", got)
	}
	if got := g.reverbDry.Target(); got != 1 {
		t.Errorf("dry target = %v, want 1", got)
	}
}

func TestSetReverbMix_InverseDry(t *testing.T) {
	g := newTestGraph()
	g.ToggleReverb(true)
	g.SetReverbMix(0.3)
	if got := g.reverbWet.Target(); got != 0.3 {
		t.Errorf("wet target = %v, want 0.3", got)
	}
	if got := g.reverbDry.Target(); got != 0.7 {
		t.Errorf("dry target = %v, want 0.7", got)
	}
	g.SetReverbMix(1.8) // clamped
	if got := g.reverbWet.Target(); got != 1 {
		t.Errorf("wet target = %v, want 1", got)
	}
}

func TestToggleDelay_DryUntouched(t *testing.T) {
	g := newTestGraph()
	g.ToggleDelay(true)
	if got := g.delayWet.Target(); got != delayOnLevel {
		t.Errorf("wet target = %v, want %v", got, delayOnLevel)
	}
	if got := g.delayDry.Target(); got != 1 {
		t.Errorf("dry target = %v, want 1", got)
	}
}

func TestParam_RampNeverJumps(t *testing.T) {
	p := newParam(0, 0.01, 800)
	p.SetTarget(1)

	prev := 0.0
	first := p.next()
	if first >= 0.5 {
		t.Fatalf("first ramp step = %v, too large for a 10ms time constant", first)
	}
	prev = first
	for i := 0; i < 100; i++ {
		v := p.next()
		if v < prev {
			t.Fatalf("ramp not monotonic: %v after %v", v, prev)
		}
		prev = v
	}
	if prev < 0.99 {
		t.Errorf("ramp did not converge: %v", prev)
	}
}

func TestParam_RetargetContinuesFromCurrentValue(t *testing.T) {
	p := newParam(0, 0.01, 800)
	p.SetTarget(1)
	for i := 0; i < 5; i++ {
		p.next()
	}
	mid := p.Value()

	// Superseding the ramp must continue smoothly from the current
	// instantaneous value, not from the previous target.
	p.SetTarget(0)
	v := p.next()
	if math.Abs(v-mid) > mid*0.2 {
		t.Errorf("retarget jumped: value %v after %v", v, mid)
	}
	if v >= mid {
		t.Errorf("value should move toward the new target: %v >= %v", v, mid)
	}
}

func TestProcess_DryPassthroughAtRest(t *testing.T) {
	g := newTestGraph()

	in := make([]float32, 64)
	in[0] = 1
	in[10] = -0.5
	outL := make([]float32, len(in))
	outR := make([]float32, len(in))
	g.Process(in, outL, outR)

	for i := range in {
		if math.Abs(float64(outL[i]-in[i])) > 1e-6 {
			t.Fatalf("outL[%d] = %v, want %v", i, outL[i], in[i])
		}
		if math.Abs(float64(outR[i]-in[i])) > 1e-6 {
			t.Fatalf("outR[%d] = %v, want %v", i, outR[i], in[i])
		}
	}
}

func TestProcess_ReverbAddsEnergy(t *testing.T) {
	g := newTestGraph()
	g.ToggleReverb(true)

	in := make([]float32, 256)
	in[0] = 1
	outL := make([]float32, len(in))
	outR := make([]float32, len(in))
	g.Process(in, outL, outR)

	var tail float64
	for _, v := range outL[32:] {
		tail += math.Abs(float64(v))
	}
	if tail == 0 {
		t.Error("expected reverb tail energy after the impulse")
	}
}

func TestProcess_FeedbackEnergyBounded(t *testing.T) {
	g := newTestGraph()
	g.ToggleDelay(true)
	g.SetDelayMix(1)
	g.SetDelayFeedback(2.0) // clamps to 0.9
	g.SetDelayTime(0.01)

	in := make([]float32, 256)
	for i := range in {
		in[i] = 0.5
	}
	outL := make([]float32, len(in))
	outR := make([]float32, len(in))

	for block := 0; block < 50; block++ {
		g.Process(in, outL, outR)
		for i, v := range outL {
			if math.Abs(float64(v)) > 15 {
				t.Fatalf("block %d sample %d = %v, feedback loop unstable", block, i, v)
			}
		}
	}
}

func TestProcessPCM16_StereoOutput(t *testing.T) {
	g := newTestGraph()
	in := EncodePCM16([]float32{0.25, -0.25, 0.5, -0.5})

	out, err := g.ProcessPCM16(in)
	if err != nil {
		t.Fatalf("ProcessPCM16 failed: %v", err)
	}
	if len(out) != len(in)*2 {
		t.Errorf("len(out) = %d, want %d", len(out), len(in)*2)
	}
}

func TestDecodePCM16_RejectsOddLength(t *testing.T) {
	if _, err := DecodePCM16([]byte{0x01}); err == nil {
		t.Error("expected error for odd-length input")
	}
}
