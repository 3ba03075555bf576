package audio

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestFrameBufferReadyOncePerThresholdCrossing(t *testing.T) {
	b := NewFrameBuffer(10)

	b.Append(make([]byte, 4))
	if b.IsReadyForProcessing() {
		t.Fatalf("expected buffer below threshold not to be ready")
	}

	b.Append(make([]byte, 6))
	if !b.IsReadyForProcessing() {
		t.Fatalf("expected buffer at threshold to be ready")
	}
	if b.IsReadyForProcessing() {
		t.Fatalf("expected readiness to be reported once per crossing")
	}

	b.Append(make([]byte, 20))
	if b.IsReadyForProcessing() {
		t.Fatalf("expected no second report before drain")
	}

	b.Drain()
	b.Append(make([]byte, 10))
	if !b.IsReadyForProcessing() {
		t.Fatalf("expected buffer to be ready again after drain and refill")
	}
}

func TestFrameBufferDrainReturnsConcatenationInOrder(t *testing.T) {
	b := NewFrameBuffer(0)
	if b.Threshold() != DefaultProcessingThreshold {
		t.Fatalf("expected default threshold %d, got %d", DefaultProcessingThreshold, b.Threshold())
	}

	b.Append([]byte{1, 2})
	b.Append(nil)
	b.Append([]byte{3})
	b.Append([]byte{4, 5, 6})

	got := b.Drain()
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("unexpected drained audio %v", got)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer after drain, got %d bytes", b.Len())
	}
	if drained := b.Drain(); len(drained) != 0 {
		t.Fatalf("expected second drain to be empty, got %v", drained)
	}
}

func TestFrameBufferAppendCopiesChunk(t *testing.T) {
	b := NewFrameBuffer(2)
	chunk := []byte{7, 8}
	b.Append(chunk)
	chunk[0] = 0

	if got := b.Drain(); got[0] != 7 {
		t.Fatalf("expected buffer to keep its own copy, got %v", got)
	}
}

func TestFrameBufferConcurrentAppendAndDrainLosesNothing(t *testing.T) {
	b := NewFrameBuffer(1)

	const writers = 8
	const chunks = 200
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range chunks {
				b.Append([]byte{1})
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

loop:
	for {
		select {
		case <-done:
			break loop
		default:
			total += len(b.Drain())
		}
	}
	total += len(b.Drain())

	if total != writers*chunks {
		t.Fatalf("expected %d bytes drained, got %d", writers*chunks, total)
	}
}

func TestIsViable(t *testing.T) {
	if IsViable(make([]byte, 999), 0) {
		t.Fatalf("expected 999 bytes to be below the default threshold")
	}
	if !IsViable(make([]byte, 1000), 0) {
		t.Fatalf("expected 1000 bytes to be viable")
	}
	if !IsViable(make([]byte, 3), 3) {
		t.Fatalf("expected custom threshold to be honoured")
	}
}

func TestTelephonyEncodingDuration(t *testing.T) {
	enc := GetDefaultEncodingInfo()
	if got := enc.Duration(DefaultProcessingThreshold); got != 125*time.Millisecond {
		t.Fatalf("expected 125ms for the default threshold, got %s", got)
	}
}
