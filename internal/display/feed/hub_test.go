package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

func newTestHub() *Hub {
	logger := zerolog.Nop()
	return NewHub(&logger)
}

func TestHubAttachDetach(t *testing.T) {
	h := newTestHub()
	h.Attach("one")
	h.Attach("two")
	if got := h.Size(); got != 2 {
		t.Errorf("Size = %d, want 2", got)
	}
	h.Detach("one")
	if got := h.Size(); got != 1 {
		t.Errorf("Size = %d, want 1", got)
	}
	h.Detach("one") // double detach is a no-op
	if got := h.Size(); got != 1 {
		t.Errorf("Size = %d, want 1", got)
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	h := newTestHub()

	rx1 := h.Attach("one")
	rx2 := h.Attach("two")

	update := model.DisplayUpdate{Text: "Welcome", StreamConnected: true}
	done := make(chan struct{})
	go func() {
		h.Broadcast(context.Background(), update)
		close(done)
	}()

	for name, rx := range map[string]<-chan model.DisplayUpdate{"one": rx1, "two": rx2} {
		select {
		case got := <-rx:
			if got.Text != "Welcome" || !got.StreamConnected {
				t.Errorf("client %s got %+v", name, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("client %s never received the update", name)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not return")
	}
}

func TestHubBroadcastSkipsDeadClient(t *testing.T) {
	h := newTestHub()
	h.Attach("dead") // never reads
	rx := h.Attach("alive")

	go func() {
		h.Broadcast(context.Background(), model.DisplayUpdate{Text: "state"})
	}()

	// the dead client costs one push timeout at most; the live client
	// still gets the update
	select {
	case got := <-rx:
		if got.Text != "state" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("live client starved by dead client")
	}
}

func TestHubBroadcastHonorsCancel(t *testing.T) {
	h := newTestHub()
	h.Attach("stuck") // never reads

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	h.Broadcast(ctx, model.DisplayUpdate{Text: "late"})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("canceled broadcast took %s", elapsed)
	}
}

func TestHubBroadcastWithNoClients(t *testing.T) {
	h := newTestHub()
	h.Broadcast(context.Background(), model.DisplayUpdate{Text: "nobody"})
}
