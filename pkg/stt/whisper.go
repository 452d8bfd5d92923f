package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/callwire/callwire/internal/httpc"
)

const (
	defaultBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel    = "whisper-large-v3-turbo"
	defaultTimeout  = 30 * time.Second
	providerWhisper = "whisper"
)

// Whisper transcribes audio via an OpenAI-compatible transcription endpoint.
type Whisper struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

var _ Provider = (*Whisper)(nil)

// Option configures the Whisper provider.
type Option func(*Whisper)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(w *Whisper) { w.apiKey = key }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(w *Whisper) { w.baseURL = url }
}

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(w *Whisper) { w.model = model }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(w *Whisper) { w.client = httpc.NewClient(timeout) }
}

// NewWhisper creates a Whisper STT provider.
func NewWhisper(opts ...Option) (*Whisper, error) {
	w := &Whisper{
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  httpc.NewClient(defaultTimeout),
		logger:  slog.Default().With("component", "stt.whisper"),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	return w, nil
}

// Transcribe uploads the WAV container and returns its transcript.
func (w *Whisper) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", ErrEmptyAudio
	}

	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("build form: %w", err))
	}
	if _, err := part.Write(wav); err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("write audio: %w", err))
	}
	if err := mw.WriteField("model", w.model); err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("write model field: %w", err))
	}
	if err := mw.Close(); err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("close form: %w", err))
	}

	url := w.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", WrapError(providerWhisper, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Provider:   providerWhisper,
		}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	w.logger.Debug("transcribed audio",
		"wav_bytes", len(wav),
		"chars", len(parsed.Text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	// Whisper pads transcripts with leading whitespace.
	return strings.TrimSpace(parsed.Text), nil
}

// Close implements Provider.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
