package transcript

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTailWords is how many trailing words the mirror overlays while
// a guest is speaking.
const DefaultTailWords = 3

// Segment is one transcription unit. Non-final segments are replaced in
// place as the transcriber revises them.
type Segment struct {
	ID            string
	Text          string
	Final         bool
	FirstReceived time.Time
}

// Buffer accumulates transcription segments for the current session,
// keyed by segment id. First-received order is stable across revisions
// of the same segment.
type Buffer struct {
	mx       *sync.Mutex
	segments map[string]Segment
	now      func() time.Time
}

func NewBuffer() *Buffer {
	return &Buffer{
		mx:       &sync.Mutex{},
		segments: make(map[string]Segment),
		now:      time.Now,
	}
}

// Apply upserts segments. A revision of a known segment keeps the
// original first-received time so display order never jumps.
func (b *Buffer) Apply(segs ...Segment) {
	b.mx.Lock()
	defer b.mx.Unlock()

	for _, seg := range segs {
		if prev, ok := b.segments[seg.ID]; ok {
			seg.FirstReceived = prev.FirstReceived
		} else if seg.FirstReceived.IsZero() {
			seg.FirstReceived = b.now()
		}
		b.segments[seg.ID] = seg
	}
}

// Reset drops everything; called when a new session connects.
func (b *Buffer) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.segments = make(map[string]Segment)
}

func (b *Buffer) Len() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return len(b.segments)
}

// Tail joins all segments in first-received order and returns the last
// n words.
func (b *Buffer) Tail(n int) string {
	b.mx.Lock()
	segs := make([]Segment, 0, len(b.segments))
	for _, s := range b.segments {
		segs = append(segs, s)
	}
	b.mx.Unlock()

	if len(segs) == 0 {
		return ""
	}
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].FirstReceived.Before(segs[j].FirstReceived)
	})

	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, s.Text)
	}
	words := strings.Fields(strings.Join(parts, " "))
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
