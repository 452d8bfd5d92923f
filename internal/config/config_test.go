package config

import (
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  external_url: https://calls.example.com\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.VAD.EnergyThreshold != DefaultEnergyThreshold {
		t.Errorf("expected default energy threshold %v, got %v", DefaultEnergyThreshold, cfg.VAD.EnergyThreshold)
	}
	if cfg.VAD.SilenceThresholdMs != DefaultSilenceThresholdMs {
		t.Errorf("expected default silence threshold %d, got %d", DefaultSilenceThresholdMs, cfg.VAD.SilenceThresholdMs)
	}
	if cfg.Reason.Command != DefaultReasonCommand {
		t.Errorf("expected default reason command, got %q", cfg.Reason.Command)
	}
	if cfg.STT.Model != DefaultSTTModel {
		t.Errorf("expected default STT model, got %q", cfg.STT.Model)
	}
}

func TestParse_Explicit(t *testing.T) {
	doc := `
server:
  host: 127.0.0.1
  port: 9000
  external_url: https://calls.example.com
vad:
  energy_threshold: 120
  silence_threshold_ms: 800
reason:
  command: reasoner
  turn_timeout_secs: 30
api:
  token: sekrit
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.VAD.EnergyThreshold != 120 {
		t.Errorf("energy threshold = %v", cfg.VAD.EnergyThreshold)
	}
	if cfg.VAD.SilenceThresholdMs != 800 {
		t.Errorf("silence threshold = %d", cfg.VAD.SilenceThresholdMs)
	}
	if cfg.Reason.Command != "reasoner" {
		t.Errorf("reason command = %q", cfg.Reason.Command)
	}
	if cfg.Reason.TurnTimeoutSecs != 30 {
		t.Errorf("turn timeout = %d", cfg.Reason.TurnTimeoutSecs)
	}
	if cfg.API.Token != "sekrit" {
		t.Errorf("api token = %q", cfg.API.Token)
	}
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("CALLWIRE_API_TOKEN", "from-env")
	t.Setenv("STT_API_KEY", "stt-env")

	cfg, err := Parse([]byte("api:\n  token: from-file\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.API.Token != "from-env" {
		t.Errorf("expected env override, got %q", cfg.API.Token)
	}
	if cfg.STT.APIKey != "stt-env" {
		t.Errorf("expected env STT key, got %q", cfg.STT.APIKey)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("server: [not a map")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
