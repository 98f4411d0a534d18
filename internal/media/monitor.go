package media

import (
	"context"
	"sync"

	"github.com/pilebones/go-udev/netlink"
	"github.com/rs/zerolog"
)

// Monitor listens for udev netlink events and fires the change hook
// whenever a camera or audio device is plugged or removed, so the gate
// re-enumerates without polling.
type Monitor struct {
	logger   zerolog.Logger
	onChange func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func NewMonitor(logger *zerolog.Logger, onChange func()) *Monitor {
	return &Monitor{
		logger:   logger.With().Str("component", "device-monitor").Logger(),
		onChange: onChange,
	}
}

// Start begins listening for device topology changes. A failure to open
// the netlink socket is non-fatal: the device list simply stops
// tracking hotplug until restart.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn().Err(err).Msg("failed to connect to netlink socket, device hotplug tracking disabled")
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.loop(ctx, quit)

	m.logger.Info().Msg("device monitor started")
	return nil
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Debug().Msg("device monitor stopped")
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.matcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.logger.Debug().
				Str("action", string(uevent.Action)).
				Str("kobj", uevent.KObj).
				Msg("device topology changed")
			if m.onChange != nil {
				m.onChange()
			}
		case err := <-errs:
			m.logger.Warn().Err(err).Msg("device monitor error")
		}
	}
}

// matcher selects hotplug events for capture-relevant subsystems:
// SUBSYSTEM=video4linux|sound, ACTION=add|remove|change
func (m *Monitor) matcher() netlink.Matcher {
	action := "add|remove|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}
