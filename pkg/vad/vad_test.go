package vad

import (
	"testing"
	"time"

	"github.com/callwire/callwire/pkg/audio"
)

// frame builds a 20ms mu-law frame whose decoded samples are the constant
// value v, giving an RMS of exactly the decoded magnitude.
func frame(v int16) []byte {
	samples := make([]int16, audio.FrameBytes)
	for i := range samples {
		samples[i] = v
	}
	return audio.EncodeULaw(samples)
}

func testConfig() Config {
	return Config{
		EnergyThreshold:  50,
		SilenceThreshold: 1500 * time.Millisecond,
	}
}

func TestSilenceNeverTriggers(t *testing.T) {
	d := New(testConfig())
	quiet := frame(5)

	for i := 0; i < 200; i++ {
		if _, ok := d.Feed(quiet); ok {
			t.Fatalf("utterance emitted from silence at frame %d", i)
		}
	}
}

func TestSpeechThenSilenceEmitsOneUtterance(t *testing.T) {
	// Threshold 50, silence 1500ms, 20ms frames: 10 frames at energy
	// ~80 then sustained silence closes exactly one utterance.
	d := New(testConfig())

	for i := 0; i < 10; i++ {
		if _, ok := d.Feed(frame(80)); ok {
			t.Fatalf("utterance closed during speech at frame %d", i)
		}
	}

	var got Utterance
	emitted := 0
	for i := 0; i < 80; i++ {
		if u, ok := d.Feed(frame(5)); ok {
			got = u
			emitted++
		}
	}

	if emitted != 1 {
		t.Fatalf("expected exactly one utterance, got %d", emitted)
	}
	if len(got.Samples) != 10*audio.FrameBytes {
		t.Errorf("expected %d samples (10 frames), got %d", 10*audio.FrameBytes, len(got.Samples))
	}

	// Back to Idle: further silence emits nothing.
	for i := 0; i < 100; i++ {
		if _, ok := d.Feed(frame(5)); ok {
			t.Fatal("detector did not return to idle")
		}
	}
}

func TestTriggeringFrameIncluded(t *testing.T) {
	d := New(testConfig())

	d.Feed(frame(80))
	u, ok := d.Flush()
	if !ok {
		t.Fatal("expected flushed utterance")
	}
	if len(u.Samples) != audio.FrameBytes {
		t.Errorf("expected the triggering frame buffered, got %d samples", len(u.Samples))
	}
}

func TestFlushMidSpeech(t *testing.T) {
	d := New(testConfig())

	for i := 0; i < 5; i++ {
		d.Feed(frame(80))
	}

	u, ok := d.Flush()
	if !ok {
		t.Fatal("expected partial utterance on flush")
	}
	if len(u.Samples) != 5*audio.FrameBytes {
		t.Errorf("expected 5 frames, got %d samples", len(u.Samples))
	}

	if _, ok := d.Flush(); ok {
		t.Error("second flush should be empty")
	}
}

func TestFlushIdle(t *testing.T) {
	d := New(testConfig())
	if _, ok := d.Flush(); ok {
		t.Fatal("flush with no speech should emit nothing")
	}
}

func TestTrailingSilenceDiscarded(t *testing.T) {
	d := New(testConfig())

	for i := 0; i < 3; i++ {
		d.Feed(frame(200))
	}

	var u Utterance
	var ok bool
	for i := 0; i < 100 && !ok; i++ {
		u, ok = d.Feed(frame(0))
	}
	if !ok {
		t.Fatal("utterance never closed")
	}

	// Only the speech frames survive; the silence tail is trimmed.
	if len(u.Samples) != 3*audio.FrameBytes {
		t.Errorf("expected 3 frames, got %d samples", len(u.Samples))
	}
}

func TestMaxUtteranceForcesClose(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUtterance = 200 * time.Millisecond // 10 frames
	d := New(cfg)

	emitted := 0
	for i := 0; i < 10; i++ {
		if _, ok := d.Feed(frame(80)); ok {
			emitted++
		}
	}
	if emitted != 1 {
		t.Fatalf("expected forced close after 10 frames, emitted=%d", emitted)
	}
}

func TestAdaptiveRaisesThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Adaptive = true
	cfg.NoiseFloorMultiplier = 3
	cfg.NoiseFloorDecay = 0.9
	d := New(cfg)

	// Noisy line: sits at ~decoded 40, under the base threshold, so it
	// trains the floor. 40*3 = 120 becomes the effective threshold.
	for i := 0; i < 50; i++ {
		d.Feed(frame(40))
	}

	// Energy 80 would trigger the base threshold but not the adapted one.
	if _, ok := d.Feed(frame(80)); ok {
		t.Fatal("noise-level frame should not trigger adapted detector")
	}
	if d.speaking {
		t.Error("detector entered speaking on sub-floor energy")
	}

	// Genuinely loud speech still triggers.
	d.Feed(frame(2000))
	if !d.speaking {
		t.Error("loud frame should trigger despite adaptive floor")
	}
}

func TestUtteranceDuration(t *testing.T) {
	u := Utterance{Samples: make([]int16, audio.TelephonyRate)}
	if u.Duration() != time.Second {
		t.Errorf("duration = %v", u.Duration())
	}
}
