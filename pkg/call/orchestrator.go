package call

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/callwire/callwire/pkg/audio"
	"github.com/callwire/callwire/pkg/callctx"
	"github.com/callwire/callwire/pkg/reason"
	"github.com/callwire/callwire/pkg/stt"
	"github.com/callwire/callwire/pkg/tts"
	"github.com/callwire/callwire/pkg/vad"
)

// Canned lines for failure paths. Spoken text, not log text.
const (
	phraseRepeat   = "Sorry, I didn't catch that. Could you say it again?"
	phraseApology  = "Sorry, something went wrong on my end. Let's keep going."
	phraseGoodbye  = "I'm having trouble continuing this call. I'll let you go now. Goodbye."
	phraseFallback = "I'm having some audio trouble right now. One moment."
)

// ErrIdleTimeout ends a call after prolonged silence from the remote end.
var ErrIdleTimeout = errors.New("call: idle timeout")

// idlePollInterval is how often the turn loop checks for idle expiry.
const idlePollInterval = 5 * time.Second

// Config wires one call's pipeline stages together.
type Config struct {
	STT      stt.Provider
	TTS      tts.Provider
	Reason   reason.Runner
	Contexts *callctx.Store
	Greeter  *Greeter
	Detector vad.Detector

	// IdleTimeout ends the call after this long without a detected
	// utterance from the caller. Zero disables.
	IdleTimeout time.Duration

	// InitialMessage, when set, is appended to the greeting so an
	// outbound call opens with the message the caller asked us to
	// deliver.
	InitialMessage string

	Logger *slog.Logger
}

// Orchestrator drives one call: greet, then loop utterances through
// transcription, reasoning, and synthesis until hangup or timeout.
//
// Turns are handled synchronously on the loop goroutine, so at most one
// utterance is ever in flight; inbound frames that arrive mid-turn buffer
// in the relay's ring and are drained when the turn completes.
type Orchestrator struct {
	cfg    Config
	sess   *Session
	relay  *Relay
	logger *slog.Logger
}

// NewOrchestrator builds the turn loop for one session.
func NewOrchestrator(sess *Session, relay *Relay, cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		sess:   sess,
		relay:  relay,
		logger: logger.With("component", "orchestrator", "call_id", sess.ID),
	}
}

// Run executes the call until ctx is cancelled (hangup), the remote goes
// idle past the timeout, or the reasoning session dies.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.shutdown()

	o.greet(ctx)

	poll := idlePollInterval
	if o.cfg.IdleTimeout > 0 && o.cfg.IdleTimeout < poll {
		poll = o.cfg.IdleTimeout
	}
	idle := time.NewTicker(poll)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("call ended by transport", "turns", o.sess.Turns())
			return ctx.Err()

		case frame, ok := <-o.relay.Inbound():
			if !ok {
				return nil
			}
			utt, done := o.cfg.Detector.Feed(frame)
			if !done {
				continue
			}
			if err := o.handleUtterance(ctx, utt); err != nil {
				return err
			}

		case <-idle.C:
			if o.cfg.IdleTimeout > 0 && o.sess.IdleFor() >= o.cfg.IdleTimeout {
				o.logger.Info("call idle timeout", "idle", o.sess.IdleFor())
				o.speak(ctx, phraseGoodbye)
				o.waitForDrain(ctx)
				return ErrIdleTimeout
			}
		}
	}
}

// greet speaks the opening line. Outbound calls consume their stored
// context, if any, and carry it into the first reasoning turn. An
// explicit initial message wins over the generated opener.
func (o *Orchestrator) greet(ctx context.Context) {
	var line string
	if o.sess.Direction == Outbound {
		callCtx, ok := o.cfg.Contexts.Take(o.sess.ID)
		if ok {
			o.sess.setPendingContext(callCtx)
		}
		switch {
		case o.cfg.InitialMessage != "":
			line = o.cfg.Greeter.Line() + ". " + o.cfg.InitialMessage
		case ok:
			line = o.cfg.Greeter.OutboundLine(callCtx)
		default:
			line = o.cfg.Greeter.Line()
		}
	} else {
		line = o.cfg.Greeter.Line()
	}

	o.sess.setState(StateSpeaking)
	o.speak(ctx, line)
	o.sess.setState(StateListening)
}

// handleUtterance runs one full turn. A non-nil return ends the call.
func (o *Orchestrator) handleUtterance(ctx context.Context, utt vad.Utterance) error {
	// Media streams carry frames continuously even when nobody talks, so
	// idle tracking keys off detected speech, not raw inbound traffic.
	o.sess.Touch()

	// Barge-in: the caller talking over us wins.
	if o.relay.Speaking() {
		o.logger.Debug("barge-in, cancelling playback")
		o.relay.CancelPlayback()
	}

	turn := o.sess.NextTurn()
	start := time.Now()

	o.sess.setState(StateTranscribing)
	transcript, err := o.transcribe(ctx, utt)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Error("transcription failed", "turn", turn, "error", err)
		o.sess.setState(StateSpeaking)
		o.speak(ctx, phraseRepeat)
		o.sess.setState(StateListening)
		return nil
	}
	if transcript == "" || stt.IsHallucination(transcript) {
		o.logger.Debug("discarding empty or hallucinated transcript",
			"turn", turn, "transcript", transcript)
		o.sess.setState(StateListening)
		return nil
	}

	o.sess.setState(StateReasoning)
	input := transcript
	if pending, ok := o.sess.takePendingContext(); ok {
		input = "Context for this call: " + pending + "\n\nThe person said: " + transcript
	}

	reply, err := o.cfg.Reason.Run(ctx, o.sess.ID, input)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return o.handleReasonError(ctx, turn, err)
	}

	o.sess.setState(StateSpeaking)
	o.speak(ctx, reply)
	o.sess.setState(StateListening)

	o.logger.Info("turn complete",
		"turn", turn,
		"utterance", utt.Duration(),
		"transcript_chars", len(transcript),
		"reply_chars", len(reply),
		"elapsed", time.Since(start))
	return nil
}

// handleReasonError maps reasoning failures to spoken recoveries. A turn
// that times out ends the call with a goodbye; anything else gets an
// apology and the call continues.
func (o *Orchestrator) handleReasonError(ctx context.Context, turn int, err error) error {
	o.logger.Error("reasoning failed", "turn", turn, "error", err)

	if errors.Is(err, reason.ErrTimeout) {
		o.sess.setState(StateSpeaking)
		o.speak(ctx, phraseGoodbye)
		o.waitForDrain(ctx)
		return err
	}

	o.sess.setState(StateSpeaking)
	o.speak(ctx, phraseApology)
	o.sess.setState(StateListening)
	return nil
}

// transcribe wraps an utterance in a WAV container and sends it to the
// STT provider.
func (o *Orchestrator) transcribe(ctx context.Context, utt vad.Utterance) (string, error) {
	wav := audio.WrapWAV(utt.Samples, audio.TelephonyRate)
	return o.cfg.STT.Transcribe(ctx, wav)
}

// speak synthesizes text and queues it for paced delivery. Synthesis
// failure falls back to a short canned line; if even that fails, the call
// continues in silence.
func (o *Orchestrator) speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	res, err := o.cfg.TTS.Synthesize(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.logger.Error("synthesis failed", "error", err, "chars", len(text))
		if res, err = o.cfg.TTS.Synthesize(ctx, phraseFallback); err != nil {
			o.logger.Error("fallback synthesis failed", "error", err)
			return
		}
	}
	samples, err := audio.BytesToSamples(res.PCM)
	if err != nil {
		o.logger.Error("bad synthesis payload", "error", err)
		return
	}
	o.relay.Enqueue(samples, res.SampleRate)
}

// waitForDrain gives queued goodbye audio time to play before the call is
// torn down. Bounded so a stalled transport cannot hold the loop hostage.
func (o *Orchestrator) waitForDrain(ctx context.Context) {
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for o.relay.Speaking() {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-tick.C:
		}
	}
}

// shutdown releases per-call state once the loop exits.
func (o *Orchestrator) shutdown() {
	if utt, ok := o.cfg.Detector.Flush(); ok {
		o.logger.Debug("discarding utterance in progress at hangup",
			"duration", utt.Duration())
	}
	o.relay.CancelPlayback()
	o.cfg.Reason.EndSession(o.sess.ID)
	o.sess.setState(StateEnded)
}
