package call

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/callwire/callwire/pkg/audio"
	"github.com/callwire/callwire/pkg/transport"
)

// inboundRingFrames bounds buffered inbound audio to about five seconds.
const inboundRingFrames = 250

// outChanSize bounds messages waiting on the websocket writer.
const outChanSize = 64

// Relay is the per-call duplex frame pump. Inbound transport frames pass
// through the bounded ring to the pipeline; outbound synthesized PCM is
// re-encoded to mu-law and emitted one frame per frame-duration, because
// sending faster than real time desynchronizes remote playback and sending
// slower causes audible gaps.
type Relay struct {
	streamSID string
	logger    *slog.Logger

	in  *FrameRing
	out chan []byte

	mu       sync.Mutex
	queue    [][]byte // pending outbound mu-law frames
	speaking bool

	frameDur time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewRelay creates a relay and starts its paced output pump.
func NewRelay(streamSID string, logger *slog.Logger) *Relay {
	return newRelay(streamSID, logger, audio.FrameDuration*time.Millisecond)
}

// newRelay lets tests shrink the pacing interval.
func newRelay(streamSID string, logger *slog.Logger, frameDur time.Duration) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		streamSID: streamSID,
		logger:    logger.With("component", "relay", "stream_id", streamSID),
		in:        NewFrameRing(inboundRingFrames),
		out:       make(chan []byte, outChanSize),
		frameDur:  frameDur,
		done:      make(chan struct{}),
	}
	go r.pump()
	return r
}

// PushInbound hands a raw mu-law frame from the transport to the pipeline.
// Never blocks; the ring drops the oldest frame under pressure.
func (r *Relay) PushInbound(frame []byte) {
	before := r.in.Dropped()
	r.in.Push(frame)
	if after := r.in.Dropped(); after > before && after%50 == 1 {
		r.logger.Warn("inbound ring full, dropping oldest frames", "dropped_total", after)
	}
}

// Inbound returns the channel of buffered inbound frames.
func (r *Relay) Inbound() <-chan []byte {
	return r.in.Frames()
}

// Out returns the channel of wire messages for the websocket writer.
func (r *Relay) Out() <-chan []byte {
	return r.out
}

// Enqueue converts synthesized PCM to telephony frames and queues them for
// paced delivery. Returns once everything is queued, not played.
func (r *Relay) Enqueue(pcm []int16, sampleRate int) {
	resampled := audio.Resample(pcm, sampleRate, audio.TelephonyRate)
	ulaw := audio.EncodeULaw(resampled)

	r.mu.Lock()
	defer r.mu.Unlock()

	for off := 0; off < len(ulaw); off += audio.FrameBytes {
		end := off + audio.FrameBytes
		if end > len(ulaw) {
			end = len(ulaw)
		}
		r.queue = append(r.queue, ulaw[off:end])
	}
	if len(r.queue) > 0 {
		r.speaking = true
	}
}

// Speaking reports whether outbound audio is still queued or draining.
func (r *Relay) Speaking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speaking
}

// CancelPlayback discards all unsent outbound frames immediately and tells
// the remote to flush its buffer. Used for barge-in and hangup.
func (r *Relay) CancelPlayback() {
	r.mu.Lock()
	discarded := len(r.queue)
	r.queue = nil
	r.speaking = false
	r.mu.Unlock()

	if discarded > 0 {
		r.logger.Debug("playback cancelled", "frames_discarded", discarded)
		r.send(transport.ClearMessage(r.streamSID))
	}
}

// QueuedFrames returns how many outbound frames await delivery.
func (r *Relay) QueuedFrames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Close stops the pump and releases buffers.
func (r *Relay) Close() {
	r.once.Do(func() {
		close(r.done)
		r.mu.Lock()
		r.queue = nil
		r.speaking = false
		r.mu.Unlock()
	})
}

// pump emits one queued frame per tick. When the queue drains after
// playback, a mark message follows so the remote end can signal playback
// completion.
func (r *Relay) pump() {
	ticker := time.NewTicker(r.frameDur)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.mu.Lock()
			var frame []byte
			var finished bool
			if len(r.queue) > 0 {
				frame = r.queue[0]
				r.queue = r.queue[1:]
				finished = len(r.queue) == 0
			}
			r.mu.Unlock()

			if frame == nil {
				continue
			}

			r.send(transport.MediaMessage(r.streamSID, frame))

			if finished {
				r.mu.Lock()
				// Enqueue may have appended while we were sending.
				still := len(r.queue) == 0
				if still {
					r.speaking = false
				}
				r.mu.Unlock()

				if still {
					r.send(transport.MarkMessage(r.streamSID, "playback-"+uuid.NewString()))
				}
			}
		}
	}
}

// send queues a wire message without ever blocking the pump; a writer that
// has stalled for the full channel depth loses frames, which beats stalling
// every other call sharing this process.
func (r *Relay) send(msg []byte) {
	select {
	case r.out <- msg:
	case <-r.done:
	default:
		r.logger.Warn("outbound channel full, dropping message")
	}
}
