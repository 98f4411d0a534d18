package media

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrGateClosed = errors.New("permission gate is closed")
)

// Gate owns the local camera and microphone handles and tracks
// permission state and the enumerated device list. Handles acquired by
// a gate belong to it exclusively and are released before any
// re-acquisition and again on Close.
type Gate struct {
	logger   zerolog.Logger
	provider Provider

	mu      sync.Mutex
	perms   map[Capability]Permission
	devices Devices
	handles map[Capability]Handle
	closed  bool
}

type GateConfig struct {
	Provider Provider
	Logger   *zerolog.Logger
}

func NewGate(cfg GateConfig) *Gate {
	return &Gate{
		logger:   cfg.Logger.With().Str("component", "permission-gate").Logger(),
		provider: cfg.Provider,
		perms: map[Capability]Permission{
			CapabilityCamera:     PermissionPrompt,
			CapabilityMicrophone: PermissionPrompt,
		},
		handles: make(map[Capability]Handle),
	}
}

// Request releases any held handles, then acquires microphone and
// camera independently and in parallel. Either acquisition may fail
// without failing the other; a failure is logged and leaves a nil
// handle for that capability. Permission state and the device list are
// refreshed afterwards to reflect the outcome.
func (g *Gate) Request(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGateClosed
	}
	g.releaseLocked()
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	caps := []Capability{CapabilityMicrophone, CapabilityCamera}
	acquired := make([]Handle, len(caps))

	wg := &sync.WaitGroup{}
	wg.Add(len(caps))
	for i, cap := range caps {
		go func(i int, cap Capability) {
			defer wg.Done()
			h, err := g.provider.Acquire(ctx, cap)
			if err != nil {
				g.logger.Warn().Err(err).Str("capability", string(cap)).Msg("acquisition failed")
				return
			}
			acquired[i] = h
		}(i, cap)
	}
	wg.Wait()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		for _, h := range acquired {
			if h != nil {
				_ = h.Close()
			}
		}
		return ErrGateClosed
	}
	for i, cap := range caps {
		if acquired[i] != nil {
			g.handles[cap] = acquired[i]
		}
	}
	g.mu.Unlock()

	g.Refresh(ctx)
	return ctx.Err()
}

// Refresh re-probes permission state and re-enumerates devices. A
// provider that cannot probe permissions leaves the last known state
// untouched; that is not an error.
func (g *Gate) Refresh(ctx context.Context) {
	perms, err := g.provider.Permissions(ctx)
	switch {
	case errors.Is(err, ErrProbeUnsupported):
		g.logger.Debug().Msg("permission probe unsupported, keeping last known state")
	case err != nil:
		g.logger.Warn().Err(err).Msg("permission probe failed")
	default:
		g.mu.Lock()
		for cap, p := range perms {
			g.perms[cap] = p
		}
		g.mu.Unlock()
	}

	g.RefreshDevices(ctx)
}

// RefreshDevices re-enumerates the device list. Invoked directly by the
// topology-change monitor.
func (g *Gate) RefreshDevices(ctx context.Context) {
	list, err := g.provider.Devices(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("device enumeration failed")
		return
	}

	var devs Devices
	for _, d := range list {
		switch d.Kind {
		case DeviceAudioInput:
			devs.AudioInputs = append(devs.AudioInputs, d)
		case DeviceVideoInput:
			devs.VideoInputs = append(devs.VideoInputs, d)
		case DeviceAudioOutput:
			devs.AudioOutputs = append(devs.AudioOutputs, d)
		}
	}

	g.mu.Lock()
	g.devices = devs
	g.mu.Unlock()
}

func (g *Gate) Permission(cap Capability) Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.perms[cap]
}

func (g *Gate) Granted(cap Capability) bool {
	return g.Permission(cap) == PermissionGranted
}

func (g *Gate) Devices() Devices {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.devices
}

// Held reports whether a handle is currently held for the capability.
func (g *Gate) Held(cap Capability) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handles[cap] != nil
}

// Close releases all held handles. Safe to call more than once; handles
// are released exactly once.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.releaseLocked()
	g.logger.Debug().Msg("permission gate closed")
	return nil
}

func (g *Gate) releaseLocked() {
	for cap, h := range g.handles {
		if err := h.Close(); err != nil {
			g.logger.Warn().Err(err).Str("capability", string(cap)).Msg("handle release failed")
		}
		delete(g.handles, cap)
	}
}
