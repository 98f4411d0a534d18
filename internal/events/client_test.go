package events

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingSink struct {
	mu     sync.Mutex
	texts  []string
	sounds int
	status []bool
}

func (r *recordingSink) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recordingSink) PlaySound() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sounds++
}

func (r *recordingSink) SetStreamStatus(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, connected)
}

func (r *recordingSink) lastText() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return "", false
	}
	return r.texts[len(r.texts)-1], true
}

func newTestClient(sink Sink, url string, delay time.Duration) *Client {
	logger := zerolog.Nop()
	return NewClient(Config{
		URL:            url,
		Sink:           sink,
		Logger:         &logger,
		ReconnectDelay: delay,
	})
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantText  string
		wantSound int
	}{
		{
			name:     "text update",
			payload:  `{"type":"text_update","text":"Welcome, Sarah"}`,
			wantText: "Welcome, Sarah",
		},
		{
			name:    "text update without text is skipped",
			payload: `{"type":"text_update","text":""}`,
		},
		{
			name:     "reset carries replacement text",
			payload:  `{"type":"reset","new_text":"<h1>Hello</h1>"}`,
			wantText: "<h1>Hello</h1>",
		},
		{
			name:     "connected replays current text",
			payload:  `{"type":"connected","current_text":"already shown"}`,
			wantText: "already shown",
		},
		{
			name:    "connected without text leaves display alone",
			payload: `{"type":"connected","message":"hi"}`,
		},
		{
			name:      "audio play with matching action",
			payload:   `{"type":"audio_play","action":"play_mirror_sound"}`,
			wantSound: 1,
		},
		{
			name:    "audio play with other action is ignored",
			payload: `{"type":"audio_play","action":"play_other"}`,
		},
		{
			name:    "ping is a no-op",
			payload: `{"type":"ping","timestamp":1746093600.5}`,
		},
		{
			name:    "unknown type is ignored",
			payload: `{"type":"confetti"}`,
		},
		{
			name:    "malformed payload is dropped",
			payload: `{"type":"text_update","text":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			c := newTestClient(sink, "http://unused", time.Second)
			c.dispatch(tt.payload)

			if tt.wantText == "" {
				if len(sink.texts) != 0 {
					t.Errorf("unexpected text applied: %v", sink.texts)
				}
			} else if got, ok := sink.lastText(); !ok || got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
			if sink.sounds != tt.wantSound {
				t.Errorf("sounds = %d, want %d", sink.sounds, tt.wantSound)
			}
		})
	}
}

func TestDispatchAppliesInArrivalOrder(t *testing.T) {
	sink := &recordingSink{}
	c := newTestClient(sink, "http://unused", time.Second)

	c.dispatch(`{"type":"text_update","text":"first"}`)
	c.dispatch(`{"type":"reset","new_text":"second"}`)
	c.dispatch(`{"type":"text_update","text":"third"}`)

	want := []string{"first", "second", "third"}
	if len(sink.texts) != len(want) {
		t.Fatalf("texts = %v, want %v", sink.texts, want)
	}
	for i := range want {
		if sink.texts[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, sink.texts[i], want[i])
		}
	}
}

func TestReconnectGuard(t *testing.T) {
	t.Run("single pending slot", func(t *testing.T) {
		c := newTestClient(&recordingSink{}, "http://unused", time.Second)
		if !c.armReconnect() {
			t.Fatal("first arm should succeed")
		}
		if c.armReconnect() {
			t.Error("second arm must be refused while one is pending")
		}
		if !c.fireReconnect() {
			t.Error("fire should proceed while disconnected")
		}
		if !c.armReconnect() {
			t.Error("arm should succeed again after the slot is consumed")
		}
	})

	t.Run("stands down when stream recovered", func(t *testing.T) {
		sink := &recordingSink{}
		c := newTestClient(sink, "http://unused", time.Second)
		if !c.armReconnect() {
			t.Fatal("arm failed")
		}
		c.setConnected(true)
		if c.fireReconnect() {
			t.Error("fire must stand down when the stream is open")
		}
	})

	t.Run("arm refused while connected", func(t *testing.T) {
		c := newTestClient(&recordingSink{}, "http://unused", time.Second)
		c.setConnected(true)
		if c.armReconnect() {
			t.Error("arm must be refused while connected")
		}
	})
}

func TestRunAppliesStreamedEvents(t *testing.T) {
	events := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-events:
				fmt.Fprintf(w, "data: %s\n\n", ev)
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	sink := &recordingSink{}
	c := newTestClient(sink, srv.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go c.Run(ctx, &wg)

	events <- `{"type":"connected","message":"ready"}`
	events <- `{"type":"text_update","text":"streamed"}`

	deadline := time.After(2 * time.Second)
	for {
		if got, ok := sink.lastText(); ok && got == "streamed" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("streamed event never reached the sink")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !c.Connected() {
		t.Error("client should report connected while the stream is open")
	}

	cancel()
	wg.Wait()
	if c.Connected() {
		t.Error("client should report disconnected after shutdown")
	}
}

func TestRunReconnectsAfterDrop(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := dials.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"type\":\"text_update\",\"text\":\"dial-%d\"}\n\n", n)
		// first stream drops immediately, second stays open
		if n == 1 {
			return
		}
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	sink := &recordingSink{}
	c := newTestClient(sink, srv.URL, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go c.Run(ctx, &wg)

	deadline := time.After(2 * time.Second)
	for {
		if got, ok := sink.lastText(); ok && got == "dial-2" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("no reconnect observed, dials = %d", dials.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := dials.Load(); got != 2 {
		t.Errorf("dials = %d, want 2 (one drop, one reconnect)", got)
	}

	cancel()
	wg.Wait()
}

func TestStreamRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(&recordingSink{}, srv.URL, time.Second)
	err := c.stream(context.Background())
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if c.Connected() {
		t.Error("client must not report connected after a rejected stream")
	}
}
