package media

import (
	"context"
	"errors"
)

// Permission mirrors the platform permission states for a capability.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

type Capability string

const (
	CapabilityCamera     Capability = "camera"
	CapabilityMicrophone Capability = "microphone"
)

type DeviceKind string

const (
	DeviceAudioInput  DeviceKind = "audioinput"
	DeviceVideoInput  DeviceKind = "videoinput"
	DeviceAudioOutput DeviceKind = "audiooutput"
)

type Device struct {
	ID    string
	Label string
	Kind  DeviceKind
}

// Devices is the enumerated device list partitioned by kind.
type Devices struct {
	AudioInputs  []Device
	VideoInputs  []Device
	AudioOutputs []Device
}

// Handle is an exclusively owned local media device. It must be
// released before the same capability can be acquired again.
type Handle interface {
	Close() error
}

var (
	// ErrProbeUnsupported means the platform cannot report permission
	// state; the gate keeps its last known values.
	ErrProbeUnsupported = errors.New("permission probe not supported")

	ErrNoDevice = errors.New("no device for capability")
)

// Provider abstracts the platform's media device layer.
type Provider interface {
	// Acquire opens an exclusive handle for the capability.
	Acquire(ctx context.Context, cap Capability) (Handle, error)
	// Permissions probes current permission state per capability.
	Permissions(ctx context.Context) (map[Capability]Permission, error)
	// Devices enumerates the current device topology.
	Devices(ctx context.Context) ([]Device, error)
}
