// Package vad implements energy-based voice activity detection over the
// telephony frame stream. It buffers speech frames and emits a complete
// utterance once trailing silence exceeds the configured threshold.
//
// The Detector interface is the consumer contract; a smarter (spectral or
// model-based) detector can replace Energy without touching callers.
package vad

import (
	"time"

	"github.com/callwire/callwire/pkg/audio"
)

// Utterance is a bounded run of speech emitted by a detector. Immutable
// once emitted.
type Utterance struct {
	// Samples is the linear PCM of the utterance at the telephony rate.
	Samples []int16

	// Start and End bound the utterance in wall-clock time. End is set
	// when the trailing silence threshold was crossed.
	Start time.Time
	End   time.Time
}

// Duration returns the audio length of the utterance.
func (u Utterance) Duration() time.Duration {
	return time.Duration(len(u.Samples)) * time.Second / audio.TelephonyRate
}

// Detector classifies incoming telephony frames and emits utterances.
type Detector interface {
	// Feed consumes one mu-law frame. Returns a complete utterance and
	// true when trailing silence closed one.
	Feed(frame []byte) (Utterance, bool)

	// Flush emits the partial utterance buffered so far, if any. Called
	// when the stream ends mid-speech so truncated calls are not lost.
	Flush() (Utterance, bool)

	// Reset clears detector state between turns.
	Reset()
}

// Config holds detector tuning. Thresholds are per-deployment values, not
// hardcoded; see internal/config.
type Config struct {
	// EnergyThreshold is the RMS level (raw sample units) at or above
	// which a frame counts as speech.
	EnergyThreshold float64

	// SilenceThreshold is how long silence must last before an utterance
	// is considered done.
	SilenceThreshold time.Duration

	// MaxUtterance force-closes an utterance after this much audio.
	// Zero means unbounded.
	MaxUtterance time.Duration

	// Adaptive enables the noise-floor tracking threshold.
	Adaptive bool

	// NoiseFloorMultiplier: speech must exceed noise floor times this.
	NoiseFloorMultiplier float64

	// NoiseFloorDecay is the EMA decay for the noise floor (0.99-0.999).
	NoiseFloorDecay float64

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Energy is a stateful per-call energy detector with states Idle and
// Speaking. Silence is tracked by accumulated frame time, so detection does
// not depend on frame arrival jitter.
type Energy struct {
	cfg Config

	speaking bool
	buf      []int16
	start    time.Time

	// speechEnd marks where in buf the last speech frame ended, so the
	// trailing silence tail can be discarded on close.
	speechEnd int

	silence  time.Duration
	buffered time.Duration

	noiseFloor float64
}

var _ Detector = (*Energy)(nil)

// New creates an energy detector with the given config.
func New(cfg Config) *Energy {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NoiseFloorMultiplier == 0 {
		cfg.NoiseFloorMultiplier = 3.0
	}
	if cfg.NoiseFloorDecay == 0 {
		cfg.NoiseFloorDecay = 0.995
	}
	return &Energy{cfg: cfg}
}

// Feed consumes one mu-law frame.
func (d *Energy) Feed(frame []byte) (Utterance, bool) {
	pcm := audio.DecodeULaw(frame)
	energy := audio.RMS(pcm)
	frameDur := time.Duration(len(pcm)) * time.Second / audio.TelephonyRate

	if !d.speaking {
		if energy >= d.threshold() {
			// Triggering frame is part of the utterance.
			d.speaking = true
			d.start = d.cfg.Now()
			d.buf = append(d.buf, pcm...)
			d.speechEnd = len(d.buf)
			d.silence = 0
			d.buffered = frameDur
		} else {
			// Confidently not speech, safe to learn the floor from it.
			d.updateNoiseFloor(energy)
		}
		return Utterance{}, false
	}

	d.buf = append(d.buf, pcm...)
	d.buffered += frameDur

	if energy >= d.threshold() {
		d.speechEnd = len(d.buf)
		d.silence = 0
	} else {
		d.silence += frameDur
	}

	if d.cfg.MaxUtterance > 0 && d.buffered >= d.cfg.MaxUtterance {
		return d.take(), true
	}

	if d.silence >= d.cfg.SilenceThreshold {
		return d.take(), true
	}

	return Utterance{}, false
}

// Flush emits whatever speech is buffered. Used on hangup mid-utterance.
func (d *Energy) Flush() (Utterance, bool) {
	if !d.speaking || d.speechEnd == 0 {
		d.Reset()
		return Utterance{}, false
	}
	return d.take(), true
}

// Reset clears buffered state. The noise floor persists across turns.
func (d *Energy) Reset() {
	d.speaking = false
	d.buf = nil
	d.speechEnd = 0
	d.silence = 0
	d.buffered = 0
}

// take closes the current utterance, discarding the trailing silence tail.
func (d *Energy) take() Utterance {
	u := Utterance{
		Samples: d.buf[:d.speechEnd],
		Start:   d.start,
		End:     d.cfg.Now(),
	}
	d.buf = nil
	d.speaking = false
	d.speechEnd = 0
	d.silence = 0
	d.buffered = 0
	return u
}

func (d *Energy) threshold() float64 {
	if d.cfg.Adaptive && d.noiseFloor > 0 {
		t := d.noiseFloor * d.cfg.NoiseFloorMultiplier
		if t > d.cfg.EnergyThreshold {
			return t
		}
	}
	return d.cfg.EnergyThreshold
}

func (d *Energy) updateNoiseFloor(energy float64) {
	if !d.cfg.Adaptive {
		return
	}
	if d.noiseFloor == 0 {
		d.noiseFloor = energy
		return
	}
	d.noiseFloor = d.cfg.NoiseFloorDecay*d.noiseFloor + (1-d.cfg.NoiseFloorDecay)*energy
}
