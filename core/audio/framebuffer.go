package audio

import "sync"

// DefaultProcessingThreshold is ~125ms of 8kHz µ-law audio.
const DefaultProcessingThreshold = 1000

// FrameBuffer accumulates inbound call audio until there is enough of it to
// be worth transcribing.
type FrameBuffer struct {
	mu sync.Mutex

	data      []byte
	threshold int
	// armed is cleared once readiness has been reported for the current fill
	// and set again by Drain.
	armed bool
}

func NewFrameBuffer(threshold int) *FrameBuffer {
	if threshold <= 0 {
		threshold = DefaultProcessingThreshold
	}
	return &FrameBuffer{threshold: threshold, armed: true}
}

func (b *FrameBuffer) Threshold() int { return b.threshold }

// Append copies chunk to the end of the buffer.
func (b *FrameBuffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	b.mu.Lock()
	b.data = append(b.data, chunk...)
	b.mu.Unlock()
}

// IsReadyForProcessing reports whether the buffer holds at least the
// threshold amount of audio. It reports true once per threshold crossing;
// after that it stays false until the buffer is drained.
func (b *FrameBuffer) IsReadyForProcessing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.armed || len(b.data) < b.threshold {
		return false
	}
	b.armed = false
	return true
}

// Drain returns everything accumulated so far and empties the buffer.
func (b *FrameBuffer) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	drained := b.data
	b.data = nil
	b.armed = true
	return drained
}

func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// IsViable reports whether a drained chunk is long enough to be speech
// rather than a noise burst.
func IsViable(audio []byte, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultProcessingThreshold
	}
	return len(audio) >= threshold
}
