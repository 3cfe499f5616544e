package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResampleLength(t *testing.T) {
	t.Parallel()

	in := make([]float32, 800)
	assert.Len(t, Resample(in, 8000, 16000), 1600)
	assert.Len(t, Resample(in, 24000, 8000), 266)
	assert.Equal(t, in, Resample(in, 16000, 16000))
}

func TestResampleInterpolates(t *testing.T) {
	t.Parallel()

	out := Resample([]float32{0, 1}, 8000, 16000)
	assert.Equal(t, []float32{0, 0.5, 1, 1}, out)
}

func TestResamplerMatchesAcrossBlocks(t *testing.T) {
	t.Parallel()

	ramp := make([]float32, 480)
	for i := range ramp {
		ramp[i] = float32(i)
	}

	r := NewResampler(8000, 16000)
	var streamed []float32
	for i := 0; i < len(ramp); i += 160 {
		streamed = append(streamed, r.Process(ramp[i:i+160])...)
	}

	// Output sample k sits at input position k/2 on a ramp.
	for k, v := range streamed {
		assert.InDelta(t, float32(k)/2, v, 1e-3, "sample %d", k)
	}
	assert.GreaterOrEqual(t, len(streamed), 2*len(ramp)-2)
}

func TestResamplerDownsample(t *testing.T) {
	t.Parallel()

	r := NewResampler(24000, 8000)
	out := r.Process(make([]float32, 480))
	assert.InDelta(t, 160, len(out), 1)
}
