package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// DevFS probes video4linux and ALSA device nodes directly. On the kiosk
// hosts the mirror runs on there is no permission broker: "granted" is
// plain read/write access to the device node, "prompt" means the node
// does not exist yet.
type DevFS struct {
	videoGlob string
	soundDir  string
	sysVideo  string
	logger    zerolog.Logger
}

func NewDevFS(logger *zerolog.Logger) *DevFS {
	return &DevFS{
		videoGlob: "/dev/video*",
		soundDir:  "/dev/snd",
		sysVideo:  "/sys/class/video4linux",
		logger:    logger.With().Str("component", "devfs").Logger(),
	}
}

func (d *DevFS) Acquire(_ context.Context, cap Capability) (Handle, error) {
	nodes, err := d.nodes(cap)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDevice, cap)
	}

	var errs []error
	for _, node := range nodes {
		f, err := os.OpenFile(node, os.O_RDWR, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.logger.Debug().Str("node", node).Str("capability", string(cap)).Msg("device acquired")
		return &fileHandle{f: f}, nil
	}
	return nil, errors.Join(errs...)
}

func (d *DevFS) Permissions(_ context.Context) (map[Capability]Permission, error) {
	perms := make(map[Capability]Permission, 2)
	for _, cap := range []Capability{CapabilityCamera, CapabilityMicrophone} {
		nodes, err := d.nodes(cap)
		if err != nil || len(nodes) == 0 {
			perms[cap] = PermissionPrompt
			continue
		}
		perms[cap] = PermissionDenied
		for _, node := range nodes {
			if unix.Access(node, unix.R_OK|unix.W_OK) == nil {
				perms[cap] = PermissionGranted
				break
			}
		}
	}
	return perms, nil
}

func (d *DevFS) Devices(_ context.Context) ([]Device, error) {
	var devices []Device

	videos, err := filepath.Glob(d.videoGlob)
	if err != nil {
		return nil, err
	}
	for _, node := range videos {
		devices = append(devices, Device{
			ID:    node,
			Label: d.videoLabel(node),
			Kind:  DeviceVideoInput,
		})
	}

	entries, err := os.ReadDir(d.soundDir)
	if err != nil {
		if os.IsNotExist(err) {
			return devices, nil
		}
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "pcm") {
			continue
		}
		node := filepath.Join(d.soundDir, name)
		switch {
		case strings.HasSuffix(name, "c"):
			devices = append(devices, Device{ID: node, Label: name, Kind: DeviceAudioInput})
		case strings.HasSuffix(name, "p"):
			devices = append(devices, Device{ID: node, Label: name, Kind: DeviceAudioOutput})
		}
	}
	return devices, nil
}

func (d *DevFS) nodes(cap Capability) ([]string, error) {
	switch cap {
	case CapabilityCamera:
		return filepath.Glob(d.videoGlob)
	case CapabilityMicrophone:
		return filepath.Glob(filepath.Join(d.soundDir, "pcm*c"))
	default:
		return nil, fmt.Errorf("unknown capability %q", cap)
	}
}

// videoLabel reads the human-readable card name from sysfs, falling
// back to the node name.
func (d *DevFS) videoLabel(node string) string {
	b, err := os.ReadFile(filepath.Join(d.sysVideo, filepath.Base(node), "name"))
	if err != nil {
		return filepath.Base(node)
	}
	return strings.TrimSpace(string(b))
}

type fileHandle struct {
	f *os.File
}

func (h *fileHandle) Close() error {
	return h.f.Close()
}
