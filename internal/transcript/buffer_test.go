package transcript

import (
	"sync"
	"testing"
	"time"
)

func TestBufferApplyAndTail(t *testing.T) {
	b := NewBuffer()
	base := time.UnixMilli(1_700_000_000_000)

	b.Apply(
		Segment{ID: "a", Text: "say mirror mirror", Final: true, FirstReceived: base},
		Segment{ID: "b", Text: "on the wall", Final: true, FirstReceived: base.Add(time.Second)},
	)

	if got := b.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if got := b.Tail(3); got != "on the wall" {
		t.Errorf("Tail(3) = %q, want %q", got, "on the wall")
	}
	if got := b.Tail(100); got != "say mirror mirror on the wall" {
		t.Errorf("Tail(100) = %q, want the full text", got)
	}
}

func TestBufferRevisionKeepsOrder(t *testing.T) {
	b := NewBuffer()
	base := time.UnixMilli(1_700_000_000_000)

	b.Apply(Segment{ID: "a", Text: "say miror", FirstReceived: base})
	b.Apply(Segment{ID: "b", Text: "mirror", FirstReceived: base.Add(time.Second)})
	// the transcriber revises the first segment after the second arrived
	b.Apply(Segment{ID: "a", Text: "say mirror", Final: true, FirstReceived: base.Add(2 * time.Second)})

	if got := b.Tail(100); got != "say mirror mirror" {
		t.Errorf("Tail = %q, revision must keep the original position", got)
	}
}

func TestBufferAssignsReceiveTime(t *testing.T) {
	b := NewBuffer()
	b.Apply(Segment{ID: "a", Text: "hello"})
	b.Apply(Segment{ID: "b", Text: "there"})
	if got := b.Tail(2); got != "hello there" {
		t.Errorf("Tail = %q, want %q", got, "hello there")
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer()
	b.Apply(Segment{ID: "a", Text: "stale"})
	b.Reset()
	if got := b.Len(); got != 0 {
		t.Errorf("Len after reset = %d, want 0", got)
	}
	if got := b.Tail(3); got != "" {
		t.Errorf("Tail after reset = %q, want empty", got)
	}
}

func TestBufferEmptyTail(t *testing.T) {
	b := NewBuffer()
	if got := b.Tail(3); got != "" {
		t.Errorf("Tail on empty buffer = %q, want empty", got)
	}
}

func TestBufferConcurrentApply(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			b.Apply(Segment{ID: id, Text: "word"})
		}(string(rune('a' + i)))
	}
	wg.Wait()
	if got := b.Len(); got != 8 {
		t.Errorf("Len = %d, want 8", got)
	}
}
