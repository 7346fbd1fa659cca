package audiofx

import (
	"encoding/binary"
	"fmt"
)

// PCM16 block helpers so the graph can sit directly on the transport's
// little-endian 16-bit output path.

const bytesPerSample = 2

// DecodePCM16 converts little-endian 16-bit signed PCM into float32
// samples in [-1, 1).
func DecodePCM16(input []byte) ([]float32, error) {
	if len(input)%bytesPerSample != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of %d bytes per sample", len(input), bytesPerSample)
	}
	out := make([]float32, len(input)/bytesPerSample)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(input[i*bytesPerSample:]))
		out[i] = float32(s) / 32768
	}
	return out, nil
}

// EncodePCM16 converts float32 samples into little-endian 16-bit signed
// PCM, clipping anything outside [-1, 1).
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		v := float64(s) * 32768
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(v)))
	}
	return out
}

// ProcessPCM16 renders one mono PCM16 block through the graph and
// returns interleaved stereo PCM16.
func (g *Graph) ProcessPCM16(input []byte) ([]byte, error) {
	in, err := DecodePCM16(input)
	if err != nil {
		return nil, err
	}
	outL := make([]float32, len(in))
	outR := make([]float32, len(in))
	g.Process(in, outL, outR)

	interleaved := make([]float32, 0, len(in)*2)
	for i := range in {
		interleaved = append(interleaved, outL[i], outR[i])
	}
	return EncodePCM16(interleaved), nil
}
