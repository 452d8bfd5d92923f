// Package audio converts between the G.711 mu-law telephony encoding and
// linear PCM16, wraps PCM in a WAV container for speech-to-text upload, and
// resamples at the TTS/telephony boundary.
//
// All functions are stateless; malformed input fails with *DecodeError
// rather than silently truncating.
package audio

import (
	"fmt"
	"math"
)

// Telephony leg parameters. Twilio-style media streams carry 8kHz mu-law
// in 20ms frames of 160 bytes.
const (
	TelephonyRate = 8000
	FrameBytes    = 160
	FrameDuration = 20 // milliseconds
)

// DecodeError reports malformed audio input. The frame is dropped and the
// stream continues.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio: %s", e.Reason)
}

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
// Returns a DecodeError if the byte count is odd.
func BytesToSamples(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("odd PCM16 byte count %d", len(data))}
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, nil
}

// SamplesToBytes converts int16 samples to raw PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// RMS calculates the root mean square of samples in raw sample units.
// A quiet phone line sits in the single digits; speech is typically in the
// hundreds.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
