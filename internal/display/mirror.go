package display

import (
	"slices"
	"sync"
)

// Mirror ties the display state, the activation sound and the stream
// status indicator together. It is the sink the event stream applies
// events to.
type Mirror struct {
	state  *State
	player Player

	mu        sync.RWMutex
	connected bool
	statusFns []func(bool)
}

func NewMirror(state *State, player Player) *Mirror {
	return &Mirror{state: state, player: player}
}

func (m *Mirror) State() *State {
	return m.state
}

func (m *Mirror) SetText(text string) {
	m.state.Set(text)
}

func (m *Mirror) PlaySound() {
	if m.player != nil {
		m.player.Play()
	}
}

// SetStreamStatus records event stream health. It drives only the
// status indicator, never the displayed message.
func (m *Mirror) SetStreamStatus(connected bool) {
	m.mu.Lock()
	if m.connected == connected {
		m.mu.Unlock()
		return
	}
	m.connected = connected
	fns := slices.Clone(m.statusFns)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
}

func (m *Mirror) StreamConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mirror) OnStatus(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusFns = append(m.statusFns, fn)
}
