// Package server exposes the telephony webhooks, the media stream
// websocket, and the control API.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/callwire/callwire/internal/log"
	"github.com/callwire/callwire/pkg/call"
	"github.com/callwire/callwire/pkg/callctx"
	"github.com/callwire/callwire/pkg/reason"
	"github.com/callwire/callwire/pkg/stt"
	"github.com/callwire/callwire/pkg/tts"
	"github.com/callwire/callwire/pkg/vad"
)

// dialer places outbound calls. Satisfied by transport.Dialer.
type dialer interface {
	Call(ctx context.Context, to, message string) (string, error)
}

// Config wires the server to the rest of the system.
type Config struct {
	// ExternalURL is the public base URL Twilio reaches us at.
	ExternalURL string

	// APIToken authorizes the control API. Empty disables /api entirely.
	APIToken string

	// IdleTimeout ends calls after this long without the caller saying
	// anything. Streams carry frames continuously, so this tracks
	// detected speech rather than inbound traffic.
	IdleTimeout time.Duration

	STT      stt.Provider
	TTS      tts.Provider
	Reason   reason.Runner
	Contexts *callctx.Store
	Dialer   dialer
	Greeter  *call.Greeter

	// NewDetector builds a fresh voice activity detector per call.
	NewDetector func() vad.Detector
}

// Server is the HTTP and websocket front end.
type Server struct {
	app      *fiber.App
	cfg      Config
	registry *call.Registry
}

// New builds the server and registers all routes.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		registry: call.NewRegistry(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "callwire",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/health", s.handleHealth)

	// Telephony webhooks. Twilio posts here when a call needs routing.
	app.Post("/voice", s.handleVoice)
	app.Post("/voice/outbound", s.handleVoiceOutbound)

	// Media stream websocket.
	app.Use("/media", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/media", websocket.New(s.handleMedia))

	// Control API.
	api := app.Group("/api", s.requireToken)
	api.Post("/call", s.handleCall)
	api.Post("/inject", s.handleInject)
	api.Get("/calls", s.handleListCalls)

	s.app = app
	return s
}

// Registry exposes live calls, mainly for tests.
func (s *Server) Registry() *call.Registry {
	return s.registry
}

// Start serves on the given address until Shutdown.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info("server listening", "addr", addr, "external_url", s.cfg.ExternalURL)
	return s.app.Listen(addr)
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}
