// Package stt provides a unified interface for speech-to-text providers.
//
// The default provider speaks the OpenAI-compatible /audio/transcriptions
// API (Groq hosts Whisper behind it), but any implementation of Provider
// can be swapped in without changing caller code.
package stt

import (
	"context"
	"strings"
)

// Provider defines the STT provider interface. Transcribe may take seconds;
// it must honor ctx cancellation so a hangup aborts the request in flight.
type Provider interface {
	// Transcribe converts a WAV container to text.
	Transcribe(ctx context.Context, wav []byte) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// hallucinations are phrases Whisper-family models invent from silence or
// line noise. Matching transcripts are treated as empty.
var hallucinations = map[string]struct{}{
	"thank you":              {},
	"thank you.":             {},
	"thanks for watching":    {},
	"thanks for watching.":   {},
	"thank you for watching": {},
	"thank you for watching.": {},
	"subscribe":              {},
	"like and subscribe":     {},
	"bye":                    {},
	"bye.":                   {},
	"bye bye":                {},
	"bye bye.":               {},
	"you":                    {},
	"you.":                   {},
	"the end":                {},
	"the end.":               {},
	"so":                     {},
	"...":                    {},
	"eh":                     {},
	"hmm":                    {},
	"uh":                     {},
	"oh":                     {},
}

// IsHallucination reports whether a transcript is a known noise artifact.
// The empty string is not a hallucination; it is just empty.
func IsHallucination(transcript string) bool {
	if transcript == "" {
		return false
	}
	_, ok := hallucinations[strings.ToLower(transcript)]
	return ok
}
