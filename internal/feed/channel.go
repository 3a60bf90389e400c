package feed

import "sync/atomic"

// Channel is the bounded, non-blocking frame queue feeding one wire
// publisher (§6: "the core feeds each publisher via a bounded channel
// and drops (with counter) when full"). When full, a feed channel drops
// the incoming (newest) frame and keeps the frames already queued, so a
// slow network client never causes the core to discard data it has
// already accepted elsewhere. The RTL-SDR capture callback also drops
// the incoming sample buffer when its channel is full, but counts
// nothing.
type Channel struct {
	frames  chan []byte
	dropped uint64 // atomic
}

// NewChannel creates a feed channel buffering up to size frames.
func NewChannel(size int) *Channel {
	return &Channel{frames: make(chan []byte, size)}
}

// Push enqueues frame, dropping and counting it if the channel is full.
func (c *Channel) Push(frame []byte) {
	select {
	case c.frames <- frame:
	default:
		atomic.AddUint64(&c.dropped, 1)
	}
}

// Dropped returns the count of frames dropped for backpressure.
func (c *Channel) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

// C returns the receive side of the queue, for a sink's broadcast loop.
func (c *Channel) C() <-chan []byte {
	return c.frames
}

// Close stops accepting new frames; draining goroutines should range
// over C() until it closes.
func (c *Channel) Close() {
	close(c.frames)
}
