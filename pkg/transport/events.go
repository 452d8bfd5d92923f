// Package transport speaks the Twilio-style media stream protocol: JSON
// event envelopes over a websocket carrying base64 mu-law frames, plus the
// REST call used to place outbound calls.
package transport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Event types on the media stream socket.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
)

// StreamEvent is one inbound message on the media stream.
type StreamEvent struct {
	Event     string     `json:"event"`
	StreamSID string     `json:"streamSid"`
	Start     *StartMeta `json:"start,omitempty"`
	Media     *Media     `json:"media,omitempty"`
	Mark      *Mark      `json:"mark,omitempty"`
}

// StartMeta carries call metadata on the start event.
type StartMeta struct {
	CallSID     string       `json:"callSid"`
	MediaFormat *MediaFormat `json:"mediaFormat,omitempty"`
	// CustomParameters carries values set on the <Stream> TwiML noun,
	// e.g. the call direction for outbound calls.
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// MediaFormat describes the stream's audio encoding.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// Media carries one base64 mu-law frame.
type Media struct {
	Payload string `json:"payload"`
}

// Mark is the playback checkpoint event.
type Mark struct {
	Name string `json:"name"`
}

// ParseEvent decodes one inbound websocket message.
func ParseEvent(data []byte) (*StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("transport: parse event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("transport: event missing type")
	}
	return &ev, nil
}

// Frame decodes the media payload of a media event.
func (e *StreamEvent) Frame() ([]byte, error) {
	if e.Media == nil {
		return nil, fmt.Errorf("transport: media event missing payload")
	}
	frame, err := base64.StdEncoding.DecodeString(e.Media.Payload)
	if err != nil {
		return nil, fmt.Errorf("transport: decode payload: %w", err)
	}
	return frame, nil
}

// MediaMessage builds an outbound media message for one mu-law frame.
func MediaMessage(streamSID string, frame []byte) []byte {
	msg, _ := json.Marshal(map[string]any{
		"event":     EventMedia,
		"streamSid": streamSID,
		"media": map[string]string{
			"payload": base64.StdEncoding.EncodeToString(frame),
		},
	})
	return msg
}

// MarkMessage builds an outbound mark message. The remote echoes it back
// once everything queued before it has been played.
func MarkMessage(streamSID, name string) []byte {
	msg, _ := json.Marshal(map[string]any{
		"event":     EventMark,
		"streamSid": streamSID,
		"mark":      map[string]string{"name": name},
	})
	return msg
}

// ClearMessage builds the message that discards the remote's buffered
// audio, used for barge-in.
func ClearMessage(streamSID string) []byte {
	msg, _ := json.Marshal(map[string]any{
		"event":     "clear",
		"streamSid": streamSID,
	})
	return msg
}
