package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/callwire/callwire/internal/log"
	"github.com/callwire/callwire/pkg/audio"
	"github.com/callwire/callwire/pkg/transport"
)

// requireToken gates the control API behind a bearer token. An unset token
// disables the API rather than leaving it open.
func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.cfg.APIToken == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "control API disabled, no token configured",
		})
	}
	auth := c.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token != s.cfg.APIToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid or missing bearer token",
		})
	}
	return c.Next()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "ok",
		"active_calls": s.registry.Len(),
	})
}

// handleVoice answers the inbound voice webhook with TwiML that connects
// the call to the media stream.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	return s.twiml(c, "inbound")
}

// handleVoiceOutbound is the webhook hit when an outbound callee answers.
// A message query parameter, set when the caller supplied one, is passed
// into the stream so the agent opens with it.
func (s *Server) handleVoiceOutbound(c *fiber.Ctx) error {
	var extra []transport.StreamParam
	if msg := c.Query("message"); msg != "" {
		extra = append(extra, transport.StreamParam{Name: "initial_message", Value: msg})
	}
	return s.twiml(c, "outbound", extra...)
}

func (s *Server) twiml(c *fiber.Ctx, direction string, extra ...transport.StreamParam) error {
	streamURL := transport.StreamURL(s.cfg.ExternalURL)
	c.Set("Content-Type", "text/xml")
	return c.SendString(transport.TwiML(streamURL, direction, extra...))
}

type callRequest struct {
	To      string `json:"to"`
	Context string `json:"context"`
	Message string `json:"message"`
	TTLSecs int    `json:"ttl_secs"`
}

// handleCall places an outbound call. Context and message are both
// optional: context is stored, keyed by the call SID, for the media
// stream to consume when the callee answers; message is delivered as the
// call's opening line.
func (s *Server) handleCall(c *fiber.Ctx) error {
	var req callRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.To == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing 'to' number"})
	}

	callID, err := s.cfg.Dialer.Call(c.Context(), req.To, req.Message)
	if err != nil {
		log.Error("outbound call failed", "to", req.To, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Context != "" {
		ttl := time.Duration(req.TTLSecs) * time.Second
		s.cfg.Contexts.Put(callID, req.Context, ttl)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call_id": callID})
}

type injectRequest struct {
	CallID  string `json:"call_id"`
	Message string `json:"message"`
}

// handleInject speaks an operator-supplied message into a live call.
func (s *Server) handleInject(c *fiber.Ctx) error {
	var req injectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.CallID == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "call_id and message are required"})
	}

	active, ok := s.registry.Get(req.CallID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active call with that id"})
	}

	res, err := s.cfg.TTS.Synthesize(c.Context(), req.Message)
	if err != nil {
		log.Error("inject synthesis failed", "call_id", req.CallID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	samples, err := audio.BytesToSamples(res.PCM)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	active.Relay.Enqueue(samples, res.SampleRate)

	log.Info("message injected", "call_id", req.CallID, "chars", len(req.Message))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

// handleListCalls reports live calls for operators.
func (s *Server) handleListCalls(c *fiber.Ctx) error {
	type callInfo struct {
		CallID    string `json:"call_id"`
		Direction string `json:"direction"`
		State     string `json:"state"`
		Turns     int    `json:"turns"`
		StartedAt string `json:"started_at"`
	}

	infos := make([]callInfo, 0)
	for _, a := range s.registry.All() {
		infos = append(infos, callInfo{
			CallID:    a.Session.ID,
			Direction: a.Session.Direction.String(),
			State:     a.Session.State().String(),
			Turns:     a.Session.Turns(),
			StartedAt: a.Session.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"calls": infos})
}
