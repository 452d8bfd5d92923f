package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/websocket/v2"

	"github.com/callwire/callwire/internal/log"
	"github.com/callwire/callwire/pkg/call"
	"github.com/callwire/callwire/pkg/transport"
)

// handleMedia owns one media stream websocket for the lifetime of a call.
// The connection's read loop runs here; writes happen on a dedicated
// goroutine draining the relay, because fiber websocket connections do not
// allow concurrent writers.
func (s *Server) handleMedia(c *websocket.Conn) {
	meta, err := awaitStart(c)
	if err != nil {
		log.Warn("media stream closed before start", "error", err)
		return
	}

	direction := call.Inbound
	if meta.Start.CustomParameters["direction"] == "outbound" {
		direction = call.Outbound
	}

	sess := call.NewSession(meta.Start.CallSID, meta.StreamSID, direction)
	relay := call.NewRelay(meta.StreamSID, log.L())
	defer relay.Close()

	logger := log.With("call_id", sess.ID, "direction", direction.String())
	logger.Info("media stream started")

	s.registry.Add(&call.Active{Session: sess, Relay: relay})
	defer s.registry.Remove(sess.ID)

	orch := call.NewOrchestrator(sess, relay, call.Config{
		STT:            s.cfg.STT,
		TTS:            s.cfg.TTS,
		Reason:         s.cfg.Reason,
		Contexts:       s.cfg.Contexts,
		Greeter:        s.cfg.Greeter,
		Detector:       s.cfg.NewDetector(),
		IdleTimeout:    s.cfg.IdleTimeout,
		InitialMessage: meta.Start.CustomParameters["initial_message"],
		Logger:         log.L(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Writer: relay wire messages out to the socket.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-relay.Out():
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Warn("media stream write failed", "error", err)
					cancel()
					return
				}
			}
		}
	}()

	// Orchestrator: drives the call until hangup or terminal error. Its
	// exit ends the connection too, so a reasoning-session death hangs up
	// instead of leaving the caller in dead air.
	orchDone := make(chan error, 1)
	go func() {
		orchDone <- orch.Run(ctx)
	}()

	// Reader: inbound frames feed the relay ring until the stream stops.
	s.readLoop(c, relay, logger)

	cancel()
	if err := <-orchDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Info("call ended", "reason", err)
	}
	<-writerDone
}

// awaitStart consumes protocol preamble events until the start event
// carrying call metadata arrives.
func awaitStart(c *websocket.Conn) (*transport.StreamEvent, error) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return nil, err
		}
		ev, err := transport.ParseEvent(data)
		if err != nil {
			log.Debug("skipping unparseable preamble event", "error", err)
			continue
		}
		switch ev.Event {
		case transport.EventConnected:
			continue
		case transport.EventStart:
			if ev.Start == nil || ev.Start.CallSID == "" {
				continue
			}
			return ev, nil
		case transport.EventStop:
			return nil, errors.New("stream stopped before start")
		}
	}
}

func (s *Server) readLoop(c *websocket.Conn, relay *call.Relay, logger *slog.Logger) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("media stream read closed", "error", err)
			return
		}
		ev, err := transport.ParseEvent(data)
		if err != nil {
			logger.Warn("bad media stream event", "error", err)
			continue
		}
		switch ev.Event {
		case transport.EventMedia:
			frame, err := ev.Frame()
			if err != nil {
				logger.Warn("bad media payload", "error", err)
				continue
			}
			relay.PushInbound(frame)
		case transport.EventMark:
			if ev.Mark != nil {
				logger.Debug("playback mark", "name", ev.Mark.Name)
			}
		case transport.EventStop:
			logger.Debug("media stream stop event")
			return
		}
	}
}
