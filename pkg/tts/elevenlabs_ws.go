package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabsWS synthesizes over the ElevenLabs stream-input WebSocket.
// Each Synthesize call opens a short-lived connection, sends the full text
// and collects chunks until the final frame; the connection teardown on
// ctx cancel is what makes in-flight synthesis abortable on hangup.
type ElevenLabsWS struct {
	config  *Config
	logger  *slog.Logger
	baseURL string
	dialer  *websocket.Dialer
}

var _ Provider = (*ElevenLabsWS)(nil)

// NewElevenLabsWS creates a WebSocket-based ElevenLabs TTS provider.
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsWSBaseURL
	}

	return &ElevenLabsWS{
		config:  cfg,
		logger:  cfg.Logger.With("component", "tts.elevenlabs_ws"),
		baseURL: baseURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// wsInbound is one server frame on the stream-input socket.
type wsInbound struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
}

// Synthesize streams the text and returns the collected PCM.
func (e *ElevenLabsWS) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=pcm_16000",
		e.baseURL, e.config.VoiceID, e.config.ModelID)

	conn, _, err := e.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("dial: %w", err))
	}
	defer conn.Close()

	// Tear the socket down when the call is cancelled so ReadMessage
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	// Session open: voice settings ride on the first message with the key.
	open := map[string]any{
		"text":       " ",
		"xi_api_key": e.config.APIKey,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}
	if err := conn.WriteJSON(open); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("open session: %w", err))
	}

	if err := conn.WriteJSON(map[string]any{"text": text + " ", "try_trigger_generation": true}); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("send text: %w", err))
	}

	// Empty text closes the input stream.
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("close input: %w", err))
	}

	var pcm []byte
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, WrapError(providerElevenLabs, fmt.Errorf("read: %w", err))
		}

		var in wsInbound
		if err := json.Unmarshal(msg, &in); err != nil {
			return nil, WrapError(providerElevenLabs, fmt.Errorf("decode frame: %w", err))
		}
		if in.Error != "" {
			return nil, WrapError(providerElevenLabs, fmt.Errorf("server: %s", in.Error))
		}

		if in.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(in.Audio)
			if err != nil {
				return nil, WrapError(providerElevenLabs, fmt.Errorf("decode audio: %w", err))
			}
			pcm = append(pcm, chunk...)
		}

		if in.IsFinal {
			break
		}
	}

	latency := time.Since(start).Milliseconds()
	e.logger.Debug("streamed audio",
		"chars", len(text),
		"bytes", len(pcm),
		"latency_ms", latency,
	)

	return &AudioResult{
		PCM:        pcm,
		SampleRate: elevenLabsRate,
		CharCount:  len(text),
		LatencyMs:  latency,
	}, nil
}

// Health dials the endpoint to verify connectivity.
func (e *ElevenLabsWS) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s", e.baseURL, e.config.VoiceID, e.config.ModelID)
	conn, _, err := e.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}
	return conn.Close()
}

// Close implements Provider.
func (e *ElevenLabsWS) Close() error { return nil }
