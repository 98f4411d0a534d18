package display

import (
	"strings"
	"sync"
	"testing"
)

func TestStateDefaultWelcome(t *testing.T) {
	s := NewState()
	if got := s.Text(); got != DefaultWelcome {
		t.Errorf("initial text = %q, want the default welcome", got)
	}
	if !strings.Contains(s.Text(), "Say Mirror Mirror") {
		t.Error("default welcome should carry the activation prompt")
	}
}

func TestStateSetReplacesWholeText(t *testing.T) {
	s := NewState()
	s.Set("Welcome, Sarah")
	if got := s.Text(); got != "Welcome, Sarah" {
		t.Errorf("text = %q, want %q", got, "Welcome, Sarah")
	}
	s.Set("<h1>Next guest</h1>")
	if got := s.Text(); got != "<h1>Next guest</h1>" {
		t.Errorf("text = %q, want full replacement", got)
	}
}

func TestStateIdenticalSetIsNoOp(t *testing.T) {
	s := NewState()
	var notifies int
	s.OnChange(func(string) { notifies++ })

	s.Set("same")
	s.Set("same")
	s.Set("same")

	if notifies != 1 {
		t.Errorf("notifies = %d, want 1", notifies)
	}
}

func TestStateLastWriteWins(t *testing.T) {
	s := NewState()
	var seen []string
	s.OnChange(func(text string) { seen = append(seen, text) })

	s.Set("update")
	s.Set("reset text")

	if got := s.Text(); got != "reset text" {
		t.Errorf("text = %q, want the later write", got)
	}
	if len(seen) != 2 || seen[0] != "update" || seen[1] != "reset text" {
		t.Errorf("notifications = %v, want applied in order", seen)
	}
}

func TestStateConcurrentSets(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set("contended")
		}()
	}
	wg.Wait()
	if got := s.Text(); got != "contended" {
		t.Errorf("text = %q after concurrent sets", got)
	}
}

type fakePlayer struct {
	mu    sync.Mutex
	plays int
}

func (f *fakePlayer) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
}

func TestMirrorAppliesEvents(t *testing.T) {
	player := &fakePlayer{}
	m := NewMirror(NewState(), player)

	m.SetText("hello")
	if got := m.State().Text(); got != "hello" {
		t.Errorf("text = %q, want %q", got, "hello")
	}

	m.PlaySound()
	m.PlaySound()
	if player.plays != 2 {
		t.Errorf("plays = %d, want 2", player.plays)
	}
}

func TestMirrorWithoutPlayer(t *testing.T) {
	m := NewMirror(NewState(), nil)
	// must not panic when no speaker is configured
	m.PlaySound()
}

func TestMirrorStreamStatus(t *testing.T) {
	m := NewMirror(NewState(), nil)
	var seen []bool
	m.OnStatus(func(up bool) { seen = append(seen, up) })

	if m.StreamConnected() {
		t.Error("stream should start disconnected")
	}

	m.SetStreamStatus(true)
	m.SetStreamStatus(true) // repeat must not re-notify
	m.SetStreamStatus(false)

	if m.StreamConnected() {
		t.Error("stream should end disconnected")
	}
	if len(seen) != 2 || seen[0] != true || seen[1] != false {
		t.Errorf("status notifications = %v, want [true false]", seen)
	}
}

func TestMirrorStatusDoesNotTouchText(t *testing.T) {
	m := NewMirror(NewState(), nil)
	m.SetText("shown")
	m.SetStreamStatus(true)
	m.SetStreamStatus(false)
	if got := m.State().Text(); got != "shown" {
		t.Errorf("text = %q, stream status must not alter the message", got)
	}
}
