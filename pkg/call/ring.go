package call

import (
	"sync/atomic"
)

// FrameRing is a bounded buffer between the transport reader and the
// per-call pipeline. When a turn is in flight the pipeline drains slowly,
// so the ring drops the oldest frames once full; further speech while the
// system is still finishing the previous turn cannot change that turn's
// outcome, and the reader must never block.
type FrameRing struct {
	ch      chan []byte
	dropped atomic.Int64
}

// NewFrameRing creates a ring holding up to capacity frames. At 20ms per
// frame, 250 frames is five seconds of audio.
func NewFrameRing(capacity int) *FrameRing {
	return &FrameRing{ch: make(chan []byte, capacity)}
}

// Push adds a frame, evicting the oldest if the ring is full. Never blocks.
func (r *FrameRing) Push(frame []byte) {
	for {
		select {
		case r.ch <- frame:
			return
		default:
		}

		select {
		case <-r.ch:
			r.dropped.Add(1)
		default:
		}
	}
}

// Frames returns the channel the pipeline drains.
func (r *FrameRing) Frames() <-chan []byte {
	return r.ch
}

// Dropped returns how many frames were evicted.
func (r *FrameRing) Dropped() int64 {
	return r.dropped.Load()
}
