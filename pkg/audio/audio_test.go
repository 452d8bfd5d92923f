package audio

import (
	"testing"
)

func TestULaw_RoundTripClose(t *testing.T) {
	// mu-law is lossy; roundtrip should land within quantization error.
	for _, original := range []int16{-32000, -1000, -50, 0, 50, 1000, 32000} {
		decoded := ULawToPCM(PCMToULaw(original))

		diff := float64(original) - float64(decoded)
		if diff < 0 {
			diff = -diff
		}
		limit := float64(abs16(original))*0.05 + 100
		if diff > limit {
			t.Errorf("original=%d decoded=%d diff=%v", original, decoded, diff)
		}
	}
}

func TestULaw_ReencodeIdempotent(t *testing.T) {
	// encode(decode(encode(x))) == encode(x) for all sample values.
	for s := -32768; s <= 32767; s += 7 {
		first := PCMToULaw(int16(s))
		again := PCMToULaw(ULawToPCM(first))
		if first != again {
			t.Fatalf("sample %d: encode %#x, re-encode %#x", s, first, again)
		}
	}
}

func TestDecodeULaw_Length(t *testing.T) {
	frame := make([]byte, FrameBytes)
	pcm := DecodeULaw(frame)
	if len(pcm) != FrameBytes {
		t.Errorf("expected %d samples, got %d", FrameBytes, len(pcm))
	}
}

func TestWAV_RoundTrip(t *testing.T) {
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = int16(i * 100)
	}

	wav := WrapWAV(samples, TelephonyRate)
	decoded, rate, err := UnwrapWAV(wav)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if rate != TelephonyRate {
		t.Errorf("rate = %d", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d: %d != %d", i, decoded[i], samples[i])
		}
	}
}

func TestUnwrapWAV_Malformed(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("too short"),
		append([]byte("NOPE"), make([]byte, 64)...),
	}
	for i, data := range cases {
		if _, _, err := UnwrapWAV(data); err == nil {
			t.Errorf("case %d: expected DecodeError", i)
		}
	}
}

func TestBytesToSamples_OddLength(t *testing.T) {
	if _, err := BytesToSamples([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected DecodeError for odd byte count")
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v", got)
	}
	if got := RMS(make([]int16, 100)); got != 0 {
		t.Errorf("RMS(silence) = %v", got)
	}

	loud := make([]int16, 100)
	for i := range loud {
		loud[i] = 1000
	}
	if got := RMS(loud); got < 999 || got > 1001 {
		t.Errorf("RMS(constant 1000) = %v", got)
	}
}

func TestResample_Downsample(t *testing.T) {
	// 16kHz -> 8kHz, 20ms
	samples := make([]int16, 320)
	for i := range samples {
		samples[i] = int16(i)
	}

	result := Resample(samples, 16000, 8000)
	if len(result) != 160 {
		t.Errorf("expected 160 samples, got %d", len(result))
	}
}

func TestResample_SameRate(t *testing.T) {
	samples := []int16{1, 2, 3}
	result := Resample(samples, 8000, 8000)
	if len(result) != 3 || result[0] != 1 || result[2] != 3 {
		t.Errorf("unexpected result %v", result)
	}
}

func abs16(v int16) int32 {
	if v < 0 {
		return -int32(v)
	}
	return int32(v)
}
