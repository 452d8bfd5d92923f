// Package config loads callwire configuration from a YAML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config is the root configuration for the callwire server.
type Config struct {
	// AgentName is how the agent introduces itself on calls.
	AgentName string    `yaml:"agent_name"`
	Server    Server    `yaml:"server"`
	Telephony Telephony `yaml:"telephony"`
	STT       STT       `yaml:"stt"`
	TTS       TTS       `yaml:"tts"`
	Reason    Reason    `yaml:"reason"`
	VAD       VAD       `yaml:"vad"`
	API       API       `yaml:"api"`
	LogLevel  string    `yaml:"log_level"`
}

// Server holds HTTP server settings.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// ExternalURL is the public base URL Twilio reaches us at,
	// e.g. https://calls.example.com
	ExternalURL string `yaml:"external_url"`
	// IdleTimeoutSecs ends a call after this much caller silence.
	IdleTimeoutSecs int `yaml:"idle_timeout_secs"`
}

// Telephony holds the Twilio-style REST API credentials for outbound calls.
type Telephony struct {
	AccountSID  string `yaml:"account_sid"`
	AuthToken   string `yaml:"auth_token"`
	PhoneNumber string `yaml:"phone_number"`
}

// STT configures the speech-to-text provider.
type STT struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// TTS configures the text-to-speech provider.
type TTS struct {
	APIKey  string `yaml:"api_key"`
	VoiceID string `yaml:"voice_id"`
	ModelID string `yaml:"model_id"`
	// Streaming enables the websocket streaming provider.
	Streaming bool `yaml:"streaming"`
}

// Reason configures the reasoning subprocess.
type Reason struct {
	Command            string `yaml:"command"`
	WorkDir            string `yaml:"work_dir"`
	SystemPromptPath   string `yaml:"system_prompt_path"`
	TurnTimeoutSecs    int    `yaml:"turn_timeout_secs"`
	SessionTimeoutSecs int    `yaml:"session_timeout_secs"`
	SkipPermissions    bool   `yaml:"skip_permissions"`
}

// VAD configures voice activity detection.
type VAD struct {
	EnergyThreshold    float64 `yaml:"energy_threshold"`
	SilenceThresholdMs int     `yaml:"silence_threshold_ms"`
	MaxUtteranceSecs   int     `yaml:"max_utterance_secs"`
	Adaptive           bool    `yaml:"adaptive"`
}

// API holds settings for the /api endpoints.
type API struct {
	// Token is the bearer token required for /api/* requests.
	// If empty, all requests are rejected.
	Token string `yaml:"token"`
}

// Defaults applied when the file omits a value.
const (
	DefaultPort               = 8080
	DefaultSTTBaseURL         = "https://api.groq.com/openai/v1"
	DefaultSTTModel           = "whisper-large-v3-turbo"
	DefaultTTSModel           = "eleven_turbo_v2_5"
	DefaultReasonCommand      = "claude"
	DefaultTurnTimeoutSecs    = 60
	DefaultSessionTimeoutSecs = 300
	DefaultEnergyThreshold    = 50
	DefaultSilenceThresholdMs = 1500
	DefaultIdleTimeoutSecs    = 120
	DefaultAgentName          = "Alex"
)

// Load reads the config file and applies env overrides.
// The path comes from CALLWIRE_CONFIG, falling back to
// ~/.callwire/config.yaml.
func Load() (*Config, error) {
	path := Path()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w (copy config.example.yaml there to get started)", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults and env overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("CALLWIRE_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".callwire", "config.yaml")
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.IdleTimeoutSecs == 0 {
		c.Server.IdleTimeoutSecs = DefaultIdleTimeoutSecs
	}
	if c.AgentName == "" {
		c.AgentName = DefaultAgentName
	}
	if c.STT.BaseURL == "" {
		c.STT.BaseURL = DefaultSTTBaseURL
	}
	if c.STT.Model == "" {
		c.STT.Model = DefaultSTTModel
	}
	if c.TTS.ModelID == "" {
		c.TTS.ModelID = DefaultTTSModel
	}
	if c.Reason.Command == "" {
		c.Reason.Command = DefaultReasonCommand
	}
	if c.Reason.TurnTimeoutSecs == 0 {
		c.Reason.TurnTimeoutSecs = DefaultTurnTimeoutSecs
	}
	if c.Reason.SessionTimeoutSecs == 0 {
		c.Reason.SessionTimeoutSecs = DefaultSessionTimeoutSecs
	}
	if c.VAD.EnergyThreshold == 0 {
		c.VAD.EnergyThreshold = DefaultEnergyThreshold
	}
	if c.VAD.SilenceThresholdMs == 0 {
		c.VAD.SilenceThresholdMs = DefaultSilenceThresholdMs
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.Telephony.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Telephony.AuthToken = v
	}
	if v := os.Getenv("STT_API_KEY"); v != "" {
		c.STT.APIKey = v
	}
	if v := os.Getenv("TTS_API_KEY"); v != "" {
		c.TTS.APIKey = v
	}
	if v := os.Getenv("CALLWIRE_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("CALLWIRE_EXTERNAL_URL"); v != "" {
		c.Server.ExternalURL = v
	}
}
