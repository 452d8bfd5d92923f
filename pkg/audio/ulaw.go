package audio

// ITU-T G.711 mu-law companding constants.
const (
	ulawBias = 0x84
	ulawClip = 32635
)

// ULawToPCM decodes a single mu-law byte to a 16-bit PCM sample.
func ULawToPCM(b byte) int16 {
	// G.711 transmits mu-law bytes with all bits inverted.
	b = ^b

	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F

	sample := ((int16(mantissa) << 3) + ulawBias) << exponent
	sample -= ulawBias

	if sign != 0 {
		return -sample
	}
	return sample
}

// PCMToULaw encodes a 16-bit PCM sample to a mu-law byte.
func PCMToULaw(sample int16) byte {
	// Widen before negating so -32768 cannot overflow.
	s := int32(sample)

	var sign byte
	if s < 0 {
		sign = 0x80
		s = -s
	}

	if s > ulawClip {
		s = ulawClip
	}
	s += ulawBias

	exponent := segment(byte(s >> 7))
	mantissa := byte((s >> (exponent + 3)) & 0x0F)

	return ^(sign | (exponent << 4) | mantissa)
}

// segment returns the mu-law exponent for the top bits of a biased sample.
func segment(val byte) byte {
	switch {
	case val <= 1:
		return 0
	case val <= 3:
		return 1
	case val <= 7:
		return 2
	case val <= 15:
		return 3
	case val <= 31:
		return 4
	case val <= 63:
		return 5
	case val <= 127:
		return 6
	default:
		return 7
	}
}

// DecodeULaw decodes a buffer of mu-law bytes to PCM16 samples.
func DecodeULaw(data []byte) []int16 {
	samples := make([]int16, len(data))
	for i, b := range data {
		samples[i] = ULawToPCM(b)
	}
	return samples
}

// EncodeULaw encodes PCM16 samples to mu-law bytes.
func EncodeULaw(samples []int16) []byte {
	data := make([]byte, len(samples))
	for i, s := range samples {
		data[i] = PCMToULaw(s)
	}
	return data
}
