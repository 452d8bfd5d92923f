// Package tts provides a unified interface for text-to-speech providers.
//
// Providers return linear PCM16 plus its sample rate; the media relay
// resamples to the telephony rate and re-encodes at the boundary. The
// Chain type layers fallback across providers so a dead provider degrades
// to a backup voice instead of dead air.
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// PCM contains raw little-endian PCM16 mono audio.
	PCM []byte

	// SampleRate of PCM in Hz.
	SampleRate int

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to last byte in milliseconds.
	LatencyMs int64
}

// Duration estimates the playback duration of the result.
func (r *AudioResult) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}
	samples := len(r.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(r.SampleRate)
}
