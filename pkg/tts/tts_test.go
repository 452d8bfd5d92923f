package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewElevenLabs_Validation(t *testing.T) {
	if _, err := NewElevenLabs(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewElevenLabs(WithAPIKey("k")); !errors.Is(err, ErrNoVoiceID) {
		t.Errorf("expected ErrNoVoiceID, got %v", err)
	}
}

func TestElevenLabs_Synthesize(t *testing.T) {
	pcm := make([]byte, 3200) // 100ms at 16kHz

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "key123" {
			t.Errorf("api key header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("empty request body")
		}
		w.Write(pcm)
	}))
	defer srv.Close()

	p, err := NewElevenLabs(WithAPIKey("key123"), WithVoice("v1"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer p.Close()

	result, err := p.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(result.PCM) != len(pcm) {
		t.Errorf("pcm bytes = %d", len(result.PCM))
	}
	if result.SampleRate != 16000 {
		t.Errorf("sample rate = %d", result.SampleRate)
	}
	if result.Duration().Milliseconds() != 100 {
		t.Errorf("duration = %v", result.Duration())
	}
}

func TestElevenLabs_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, _ := NewElevenLabs(WithAPIKey("k"), WithVoice("v"), WithBaseURL(srv.URL))
	defer p.Close()

	_, err := p.Synthesize(context.Background(), "hi")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsRetryable() {
		t.Error("429 should be retryable")
	}
}

func TestChain_FallsBack(t *testing.T) {
	failing := &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, WrapError("mock", ErrProviderUnavailable)
		},
	}
	working := &Mock{}

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	result, err := chain.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("chain synthesize: %v", err)
	}
	if len(result.PCM) == 0 {
		t.Error("expected audio from fallback provider")
	}
	if got := working.Texts(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("fallback texts = %v", got)
	}
}

func TestChain_AllFail(t *testing.T) {
	failing := &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, WrapError("mock", ErrProviderUnavailable)
		},
	}

	chain, _ := NewChain(failing, failing)
	_, err := chain.Synthesize(context.Background(), "hi")

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected ChainError, got %v", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %d", len(chainErr.Errors))
	}
}

func TestChain_RequiresProvider(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestMock_DefaultPacing(t *testing.T) {
	m := &Mock{}
	result, err := m.Synthesize(context.Background(), "12345")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	// 5 chars * 640 bytes = 100ms at 16kHz
	if result.Duration().Milliseconds() != 100 {
		t.Errorf("duration = %v", result.Duration())
	}
}
