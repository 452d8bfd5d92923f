// callwire: real-time voice agent over telephony media streams.
// Answers and places phone calls, turning caller speech into reasoning
// turns and spoken replies.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callwire/callwire/internal/config"
	"github.com/callwire/callwire/internal/log"
	"github.com/callwire/callwire/pkg/call"
	"github.com/callwire/callwire/pkg/callctx"
	"github.com/callwire/callwire/pkg/reason"
	"github.com/callwire/callwire/pkg/server"
	"github.com/callwire/callwire/pkg/stt"
	"github.com/callwire/callwire/pkg/transport"
	"github.com/callwire/callwire/pkg/tts"
	"github.com/callwire/callwire/pkg/vad"
)

var version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "callwire:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Init(cfg.LogLevel)
	log.Info("callwire starting", "version", version, "agent", cfg.AgentName)

	sttProvider, err := stt.NewWhisper(
		stt.WithAPIKey(cfg.STT.APIKey),
		stt.WithBaseURL(cfg.STT.BaseURL),
		stt.WithModel(cfg.STT.Model),
	)
	if err != nil {
		return fmt.Errorf("stt: %w", err)
	}
	defer sttProvider.Close()

	ttsProvider, err := buildTTS(cfg)
	if err != nil {
		return fmt.Errorf("tts: %w", err)
	}
	defer ttsProvider.Close()

	runner := reason.NewCLI(reason.CLIConfig{
		Command:          cfg.Reason.Command,
		WorkDir:          cfg.Reason.WorkDir,
		SystemPromptPath: cfg.Reason.SystemPromptPath,
		TurnTimeout:      time.Duration(cfg.Reason.TurnTimeoutSecs) * time.Second,
		SessionTimeout:   time.Duration(cfg.Reason.SessionTimeoutSecs) * time.Second,
		SkipPermissions:  cfg.Reason.SkipPermissions,
		Logger:           log.L(),
	})

	contexts := callctx.New()
	defer contexts.Close()

	dialer := transport.NewDialer(transport.DialerConfig{
		AccountSID:  cfg.Telephony.AccountSID,
		AuthToken:   cfg.Telephony.AuthToken,
		PhoneNumber: cfg.Telephony.PhoneNumber,
		WebhookURL:  cfg.Server.ExternalURL + "/voice/outbound",
	})

	vadCfg := vad.Config{
		EnergyThreshold:  cfg.VAD.EnergyThreshold,
		SilenceThreshold: time.Duration(cfg.VAD.SilenceThresholdMs) * time.Millisecond,
		MaxUtterance:     time.Duration(cfg.VAD.MaxUtteranceSecs) * time.Second,
		Adaptive:         cfg.VAD.Adaptive,
	}

	srv := server.New(server.Config{
		ExternalURL: cfg.Server.ExternalURL,
		APIToken:    cfg.API.Token,
		IdleTimeout: time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		STT:         sttProvider,
		TTS:         ttsProvider,
		Reason:      runner,
		Contexts:    contexts,
		Dialer:      dialer,
		Greeter:     call.NewGreeter(cfg.AgentName, rand.New(rand.NewSource(time.Now().UnixNano())), nil),
		NewDetector: func() vad.Detector { return vad.New(vadCfg) },
	})

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(cfg.Server.Host, cfg.Server.Port)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case s := <-sig:
		log.Info("shutting down", "signal", s.String())
		return srv.Shutdown(10 * time.Second)
	}
}

// buildTTS assembles the synthesis chain: the streaming websocket provider
// first when enabled, with the plain HTTP provider as fallback.
func buildTTS(cfg *config.Config) (tts.Provider, error) {
	opts := []tts.Option{
		tts.WithAPIKey(cfg.TTS.APIKey),
		tts.WithVoice(cfg.TTS.VoiceID),
		tts.WithModel(cfg.TTS.ModelID),
		tts.WithLogger(log.L()),
	}

	httpProvider, err := tts.NewElevenLabs(opts...)
	if err != nil {
		return nil, err
	}
	if !cfg.TTS.Streaming {
		return httpProvider, nil
	}

	wsProvider, err := tts.NewElevenLabsWS(opts...)
	if err != nil {
		return nil, err
	}
	return tts.NewChain(wsProvider, httpProvider)
}
