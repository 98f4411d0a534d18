package display

import (
	"slices"
	"sync"
)

// DefaultWelcome is shown until the backend provides a message.
const DefaultWelcome = `<span class="line welcome fancy">Welcome to</span><span class="line names fancy">Rakan & Farah Wedding</span><span class="line script">Say Mirror Mirror to begin</span>`

// State holds the current mirror text. The text is operator-authored
// markup and is passed through verbatim: sanitization is owned by the
// backend and the operator tooling, never by this package. Each update
// replaces the previous value in full.
type State struct {
	mu   sync.RWMutex
	text string
	subs []func(string)
}

func NewState() *State {
	return &State{text: DefaultWelcome}
}

func (s *State) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Set replaces the current text. Setting the same text again is a
// no-op: subscribers are not re-notified.
func (s *State) Set(text string) {
	s.mu.Lock()
	if text == s.text {
		s.mu.Unlock()
		return
	}
	s.text = text
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(text)
	}
}

// OnChange registers fn to run after every effective text change. fn is
// called outside the state lock.
func (s *State) OnChange(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
