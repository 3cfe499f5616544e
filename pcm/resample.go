package pcm

// Resample converts mono float samples from srcRate to dstRate using linear
// interpolation. Equal rates return the input unchanged.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float32, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))

		s0 := samples[idx]
		s1 := s0
		if idx+1 < len(samples) {
			s1 = samples[idx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}

// Resampler is a streaming linear resampler that carries its fractional
// position and last sample across calls, so block boundaries are seamless.
// Not safe for concurrent use.
type Resampler struct {
	srcRate, dstRate int
	pos              float64 // position of the next output sample relative to the current block
	last             float32
	primed           bool
}

// NewResampler returns a resampler from srcRate to dstRate.
func NewResampler(srcRate, dstRate int) *Resampler {
	return &Resampler{srcRate: srcRate, dstRate: dstRate}
}

// Process converts the next block of samples.
func (r *Resampler) Process(in []float32) []float32 {
	if r.srcRate == r.dstRate || r.srcRate <= 0 || r.dstRate <= 0 {
		return in
	}
	if len(in) == 0 {
		return nil
	}

	// Index -1 refers to the last sample of the previous block.
	at := func(i int) float32 {
		if i < 0 {
			return r.last
		}
		return in[i]
	}
	if !r.primed {
		r.last = in[0]
		r.primed = true
	}

	step := float64(r.srcRate) / float64(r.dstRate)
	out := make([]float32, 0, int(float64(len(in))/step)+1)
	for r.pos < float64(len(in)-1) {
		idx := int(r.pos+1) - 1 // floor, pos >= -1
		frac := float32(r.pos - float64(idx))
		out = append(out, at(idx)*(1-frac)+at(idx+1)*frac)
		r.pos += step
	}
	r.pos -= float64(len(in))
	r.last = in[len(in)-1]
	return out
}
