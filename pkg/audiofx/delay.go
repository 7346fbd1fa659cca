package audiofx

// delayLine is a fixed-size ring buffer delay. The feedback loop of the
// echo stage is realized by writing input plus scaled output back into
// the ring, rather than modeling a literal node cycle.
type delayLine struct {
	buf []float64
	pos int
}

func newDelayLine(maxSamples int) *delayLine {
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &delayLine{buf: make([]float64, maxSamples)}
}

// read returns the sample delayed by delaySamples (fractional), with
// linear interpolation between neighbors.
func (d *delayLine) read(delaySamples float64) float64 {
	n := len(d.buf)
	if delaySamples < 0 {
		delaySamples = 0
	}
	max := float64(n - 1)
	if delaySamples > max {
		delaySamples = max
	}
	whole := int(delaySamples)
	frac := delaySamples - float64(whole)

	i0 := d.pos - whole
	if i0 < 0 {
		i0 += n
	}
	i1 := i0 - 1
	if i1 < 0 {
		i1 += n
	}
	return d.buf[i0]*(1-frac) + d.buf[i1]*frac
}

// write pushes one sample into the ring.
func (d *delayLine) write(x float64) {
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
	d.buf[d.pos] = x
}
