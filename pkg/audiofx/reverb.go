package audiofx

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/dsp/fourier"
)

// maxPartitionBlock caps the partition size so the wet path never lags
// the input by more than ~10 ms at the transport's 24 kHz rate.
const maxPartitionBlock = 256

// convolver convolves a mono input against a two-channel impulse
// response, producing a stereo wet signal. Uniformly partitioned
// overlap-save convolution: the impulse is split into equal blocks
// whose spectra multiply a delay line of input spectra, so per-sample
// cost stays flat no matter how long the tail is. The wet output runs
// one partition block behind the input.
type convolver struct {
	block   int
	fftSize int
	fft     *fourier.FFT

	partsL [][]complex128
	partsR [][]complex128
	fdl    [][]complex128 // input spectra, newest at c.newest
	newest int

	window  []float64 // previous block followed by the block being filled
	fill    int
	outL    []float64
	outR    []float64
	accL    []complex128
	accR    []complex128
	scratch []float64
}

func newConvolver(irL, irR []float64) *convolver {
	n := len(irL)
	if len(irR) < n {
		n = len(irR)
	}
	block := partitionBlock(n)
	fftSize := block * 2
	fft := fourier.NewFFT(fftSize)

	parts := (n + block - 1) / block
	if parts == 0 {
		parts = 1
	}

	c := &convolver{
		block:   block,
		fftSize: fftSize,
		fft:     fft,
		partsL:  impulseSpectra(fft, irL[:n], block, parts, fftSize),
		partsR:  impulseSpectra(fft, irR[:n], block, parts, fftSize),
		fdl:     make([][]complex128, parts),
		window:  make([]float64, fftSize),
		outL:    make([]float64, block),
		outR:    make([]float64, block),
		accL:    make([]complex128, fftSize/2+1),
		accR:    make([]complex128, fftSize/2+1),
		scratch: make([]float64, fftSize),
	}
	for i := range c.fdl {
		c.fdl[i] = make([]complex128, fftSize/2+1)
	}
	return c
}

// partitionBlock picks the partition size: short impulses round up to
// one power-of-two block, long ones cap at maxPartitionBlock.
func partitionBlock(irLen int) int {
	block := 1
	for block < irLen && block < maxPartitionBlock {
		block <<= 1
	}
	return block
}

func impulseSpectra(fft *fourier.FFT, ir []float64, block, parts, fftSize int) [][]complex128 {
	spectra := make([][]complex128, parts)
	padded := make([]float64, fftSize)
	for p := range spectra {
		for i := range padded {
			padded[i] = 0
		}
		seg := ir[min(p*block, len(ir)):]
		if len(seg) > block {
			seg = seg[:block]
		}
		copy(padded, seg)
		spectra[p] = fft.Coefficients(nil, padded)
	}
	return spectra
}

// process pushes one input sample and returns the convolved stereo pair.
func (c *convolver) process(x float64) (left, right float64) {
	c.window[c.block+c.fill] = x
	left = c.outL[c.fill]
	right = c.outR[c.fill]
	c.fill++
	if c.fill == c.block {
		c.renderBlock()
	}
	return left, right
}

// renderBlock transforms the freshly completed input block and produces
// the next block of wet output from the spectral delay line.
func (c *convolver) renderBlock() {
	parts := len(c.fdl)
	c.newest--
	if c.newest < 0 {
		c.newest = parts - 1
	}
	c.fft.Coefficients(c.fdl[c.newest], c.window)

	for k := range c.accL {
		c.accL[k] = 0
		c.accR[k] = 0
	}
	for p := 0; p < parts; p++ {
		spec := c.fdl[(c.newest+p)%parts]
		hL := c.partsL[p]
		hR := c.partsR[p]
		for k, s := range spec {
			c.accL[k] += s * hL[k]
			c.accR[k] += s * hR[k]
		}
	}

	norm := float64(c.fftSize)
	seq := c.fft.Sequence(c.scratch, c.accL)
	for i := 0; i < c.block; i++ {
		c.outL[i] = seq[c.block+i] / norm
	}
	seq = c.fft.Sequence(c.scratch, c.accR)
	for i := 0; i < c.block; i++ {
		c.outR[i] = seq[c.block+i] / norm
	}

	copy(c.window[:c.block], c.window[c.block:])
	c.fill = 0
}

// synthImpulse generates one channel of the synthetic room response:
// uniform noise in [-1,1) shaped by a ((N-i)/N)^2.5 decay envelope.
// Generated once at construction; no external asset dependency.
func synthImpulse(length int, rng *rand.Rand) []float64 {
	ir := make([]float64, length)
	n := float64(length)
	for i := range ir {
		env := math.Pow((n-float64(i))/n, impulseDecayExp)
		ir[i] = (rng.Float64()*2 - 1) * env
	}
	return ir
}
