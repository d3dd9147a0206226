package audio

import (
	"sync"
	"testing"
)

func TestPushTakesFirstChannel(t *testing.T) {
	b := NewSampleBuffer(4)
	stereo := []float32{1, -1, 2, -2, 3, -3, 4, -4, 5, -5}
	if n := b.Push(stereo, 2); n != 4 {
		t.Fatalf("stored=%d want=4", n)
	}
	if b.Frames() != 5 {
		t.Fatalf("frames=%d want=5", b.Frames())
	}
	dst := make([]float32, 4)
	stamp, ok := b.Drain(dst)
	if !ok {
		t.Fatalf("expected full buffer")
	}
	if stamp != 4 {
		t.Fatalf("stamp=%d want=4", stamp)
	}
	for i, want := range []float32{1, 2, 3, 4} {
		if dst[i] != want {
			t.Fatalf("dst[%d]=%f want=%f", i, dst[i], want)
		}
	}
	if b.Full() {
		t.Fatalf("buffer should be empty after drain")
	}
}

func TestDrainBeforeFull(t *testing.T) {
	b := NewSampleBuffer(8)
	b.Push([]float32{1, 2, 3}, 1)
	if _, ok := b.Drain(make([]float32, 8)); ok {
		t.Fatalf("drained a partial window")
	}
	b.Push([]float32{4, 5, 6, 7, 8}, 1)
	if _, ok := b.Drain(make([]float32, 8)); !ok {
		t.Fatalf("expected full window")
	}
}

func TestFullBufferDropsUntilDrained(t *testing.T) {
	b := NewSampleBuffer(2)
	b.Push([]float32{1, 2}, 1)
	if n := b.Push([]float32{3, 4}, 1); n != 0 {
		t.Fatalf("stored %d into a full buffer", n)
	}
	dst := make([]float32, 2)
	stamp, _ := b.Drain(dst)
	if dst[0] != 1 || dst[1] != 2 || stamp != 2 {
		t.Fatalf("dst=%v stamp=%d", dst, stamp)
	}
	b.Push([]float32{5, 6}, 1)
	stamp, _ = b.Drain(dst)
	if dst[0] != 5 || stamp != 6 {
		t.Fatalf("dst=%v stamp=%d, dropped frames must still advance the clock", dst, stamp)
	}
}

func TestConcurrentHandoff(t *testing.T) {
	const size = 64
	const chunks = 2000
	b := NewSampleBuffer(size)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		chunk := make([]float32, 32)
		for c := 0; c < chunks; c++ {
			for i := range chunk {
				chunk[i] = float32(c*len(chunk) + i)
			}
			b.Push(chunk, 1)
		}
	}()

	dst := make([]float32, size)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := b.Drain(dst); ok {
			for i := 1; i < size; i++ {
				if dst[i] <= dst[i-1] {
					t.Fatalf("torn window: %v", dst)
				}
			}
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
