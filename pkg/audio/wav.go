package audio

import (
	"bytes"
	"encoding/binary"
)

// WrapWAV wraps PCM16 mono samples in a self-describing RIFF/WAVE container
// suitable for upload to a speech-to-text service.
func WrapWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	byteRate := sampleRate * 2 // mono, 16-bit

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))       // chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))        // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))        // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

// UnwrapWAV extracts PCM16 mono samples and the sample rate from a WAV
// container produced by WrapWAV. Returns a DecodeError on anything it
// cannot parse.
func UnwrapWAV(data []byte) ([]int16, int, error) {
	if len(data) < 44 {
		return nil, 0, &DecodeError{Reason: "WAV header truncated"}
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, &DecodeError{Reason: "not a RIFF/WAVE file"}
	}
	if string(data[12:16]) != "fmt " {
		return nil, 0, &DecodeError{Reason: "missing fmt chunk"}
	}

	format := binary.LittleEndian.Uint16(data[20:22])
	channels := binary.LittleEndian.Uint16(data[22:24])
	rate := binary.LittleEndian.Uint32(data[24:28])
	bits := binary.LittleEndian.Uint16(data[34:36])

	if format != 1 || channels != 1 || bits != 16 {
		return nil, 0, &DecodeError{Reason: "expected 16-bit mono PCM"}
	}
	if string(data[36:40]) != "data" {
		return nil, 0, &DecodeError{Reason: "missing data chunk"}
	}

	dataLen := int(binary.LittleEndian.Uint32(data[40:44]))
	if dataLen%2 != 0 || 44+dataLen > len(data) {
		return nil, 0, &DecodeError{Reason: "data chunk length mismatch"}
	}

	samples, err := BytesToSamples(data[44 : 44+dataLen])
	if err != nil {
		return nil, 0, err
	}

	return samples, int(rate), nil
}
