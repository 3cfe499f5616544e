package pcm

var muLawToPCMTable [256]int16

func init() {
	for i := 0; i < 256; i++ {
		muLawToPCMTable[i] = decodeMuLawByte(byte(i))
	}
}

// MuLawToInt16 expands one G.711 mu-law byte.
func MuLawToInt16(b byte) int16 {
	return muLawToPCMTable[b]
}

// DecodeMuLaw expands a mu-law payload into float samples at the same rate.
func DecodeMuLaw(data []byte) []float32 {
	out := make([]float32, len(data))
	for i, b := range data {
		out[i] = Int16ToFloat(muLawToPCMTable[b])
	}
	return out
}

// EncodeMuLaw compresses float samples to mu-law bytes.
func EncodeMuLaw(samples []float32) []byte {
	out := make([]byte, len(samples))
	for i, s := range samples {
		out[i] = Int16ToMuLaw(FloatToInt16(s))
	}
	return out
}

// Sun Microsystems G.711 reference algorithm.
func decodeMuLawByte(uVal byte) int16 {
	// mu-law bytes are stored inverted
	uVal = ^uVal

	sign := uVal & 0x80
	exponent := (uVal >> 4) & 0x07
	mantissa := uVal & 0x0F

	// 0x84 is the bias (33) aligned by the mantissa shift.
	sample := int16((int32(mantissa)<<3 + 0x84) << exponent)
	sample -= 0x84

	if sign != 0 {
		return -sample
	}
	return sample
}

// Int16ToMuLaw compresses one linear sample.
func Int16ToMuLaw(sample int16) byte {
	const (
		bias = 0x84
		clip = 32635
	)

	// int32 so that -32768 has a magnitude
	pcm := int32(sample)
	sign := byte(0)
	if pcm < 0 {
		sign = 0x80
		pcm = -pcm
	}
	if pcm > clip {
		pcm = clip
	}
	pcm += bias

	exponent := 7
	for mask := int32(0x4000); pcm&mask == 0 && exponent > 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(pcm>>(exponent+3)) & 0x0F

	return ^(sign | byte(exponent)<<4 | mantissa)
}
