// Package bridge is the in-process API a camera filter or a frame writer
// uses to talk to the broker: device catalogue and control accessors
// backed by Preferences, plus the per-device pump goroutines that move
// frames across the wire.
package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/logging"
	"github.com/webcamoid/akvirtualcamera-go/pkg/preferences"
	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
	"github.com/webcamoid/akvirtualcamera-go/pkg/vcerrors"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

// StreamType names which direction a device pump moves frames.
type StreamType int

const (
	// StreamTypeInput reads frames from the local process and
	// broadcasts them to the broker (this process owns the camera).
	StreamTypeInput StreamType = iota
	// StreamTypeOutput listens for frames arriving from the broker
	// (this process consumes a camera owned elsewhere).
	StreamTypeOutput
)

// ServicePath is the path used to launch the broker daemon when it is
// not already listening. Overridable by cmd/vcamd callers and tests.
var ServicePath = "vcamd"

// Bridge is the façade a camera filter or writer uses. It owns a message
// client to the broker and reads/writes device state through Preferences
// directly, matching the reference split between control-plane state
// (shared Preferences) and the data-plane frame relay (the broker).
type Bridge struct {
	prefs  *preferences.Store
	client *wire.Client
	logger *zap.Logger
	port   int

	pumps *pumpTable

	callbacks callbacks
	subCancel context.CancelFunc
}

// New opens a Bridge against prefs, launching the broker daemon if it is
// not already reachable on the configured port, then subscribes to the
// broker's device and picture change notifications for the lifetime of
// the Bridge.
func New(prefs *preferences.Store, logger *zap.Logger) *Bridge {
	port := prefs.ServicePort()
	b := &Bridge{
		prefs:  prefs,
		client: wire.NewClient(port, logger),
		logger: logger,
		port:   port,
		pumps:  newPumpTable(),
	}

	timeout := time.Duration(prefs.ServiceTimeout()) * time.Second
	if !wire.IsUp(port) {
		if err := b.launchService(timeout); err != nil {
			logger.Warn("could not reach the broker within the configured timeout",
				zap.Duration("timeout", timeout), zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.subCancel = cancel
	go b.subscribeDevices(ctx)
	go b.subscribePicture(ctx)

	return b
}

// launchService spawns the broker daemon detached and polls IsUp once a
// second until it answers or timeout elapses.
func (b *Bridge) launchService(timeout time.Duration) error {
	path, err := exec.LookPath(ServicePath)
	if err == nil {
		cmd := exec.Command(path)
		if startErr := cmd.Start(); startErr != nil {
			b.logger.Warn("failed to launch broker daemon", zap.Error(startErr))
		} else {
			go cmd.Wait()
		}
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if wire.IsUp(b.port) {
			return nil
		}
		time.Sleep(time.Second)
	}

	if wire.IsUp(b.port) {
		return nil
	}
	return vcerrors.NewConnectionError(b.port, fmt.Sprintf("did not come up within %s", timeout))
}

// Close stops every running pump and the notification subscriptions. It
// does not stop the broker daemon, which is shared across processes.
func (b *Bridge) Close() {
	b.subCancel()
	b.pumps.stopAll()
}

// Picture returns the configured placeholder picture shown when a device
// has no active broadcaster.
func (b *Bridge) Picture() string {
	return b.prefs.Picture()
}

// SetPicture updates the placeholder picture and notifies other bridges.
func (b *Bridge) SetPicture(picture string) {
	if picture == b.prefs.Picture() {
		return
	}
	b.prefs.SetPicture(picture)
	b.client.Send(wire.MsgUpdatePicture{Picture: picture}.Encode())
}

// LogLevel returns the configured log verbosity.
func (b *Bridge) LogLevel() int {
	return b.prefs.LogLevel()
}

// SetLogLevel updates the configured log verbosity and reconfigures
// the in-process logger to match, so the change takes effect
// immediately rather than only on the next restart.
func (b *Bridge) SetLogLevel(level int) {
	b.prefs.SetLogLevel(level)
	logging.SetLevel(logging.ZapLevelForVCamLevel(level))
}

// Devices lists every registered device ID.
func (b *Bridge) Devices() []string {
	devices := make([]string, 0, b.prefs.CamerasCount())
	for i := 0; i < b.prefs.CamerasCount(); i++ {
		devices = append(devices, b.prefs.CameraID(i))
	}
	return devices
}

// Description returns deviceId's human-readable name.
func (b *Bridge) Description(deviceID string) string {
	index := b.prefs.CameraFromID(deviceID)
	if index < 0 {
		return ""
	}
	return b.prefs.CameraDescription(index)
}

// SetDescription updates deviceId's human-readable name.
func (b *Bridge) SetDescription(deviceID, description string) {
	index := b.prefs.CameraFromID(deviceID)
	if index < 0 {
		return
	}
	b.prefs.CameraSetDescription(index, description)
}

// Formats lists the formats registered for deviceId.
func (b *Bridge) Formats(deviceID string) []vcam.VideoFormat {
	index := b.prefs.CameraFromID(deviceID)
	if index < 0 {
		return nil
	}
	return b.prefs.CameraFormats(index)
}

// SetFormats replaces deviceId's entire format list.
func (b *Bridge) SetFormats(deviceID string, formats []vcam.VideoFormat) {
	index := b.prefs.CameraFromID(deviceID)
	if index < 0 {
		return
	}
	b.prefs.CameraSetFormats(index, formats)
}

// Controls returns the standard control schema for deviceId, each entry
// populated with its current persisted value.
func (b *Bridge) Controls(deviceID string) []vcam.ControlDescriptor {
	index := b.prefs.CameraFromID(deviceID)
	if index < 0 {
		return nil
	}

	out := make([]vcam.ControlDescriptor, len(standardControls))
	for i, c := range standardControls {
		c.Default = b.prefs.CameraControlValue(index, c.ID)
		out[i] = c
	}
	return out
}

// SetControls applies every control in values that differs from its
// current persisted value; if anything changed, the broker is notified.
func (b *Bridge) SetControls(deviceID string, values map[string]int) {
	index := b.prefs.CameraFromID(deviceID)
	if index < 0 {
		return
	}

	updated := false
	for _, c := range standardControls {
		newValue, ok := values[c.ID]
		if !ok {
			continue
		}
		if b.prefs.CameraControlValue(index, c.ID) != c.Clamp(newValue) {
			b.prefs.CameraSetControlValue(index, c.ID, c.Clamp(newValue))
			updated = true
		}
	}

	if !updated {
		return
	}
	b.client.Send(wire.MsgUpdateControls{Device: deviceID}.Encode())
}

// AddDevice registers a new camera and notifies the broker's other
// subscribers that the catalogue changed.
func (b *Bridge) AddDevice(description, deviceID string) string {
	id := b.prefs.AddDevice(description, deviceID)
	if id != "" {
		b.UpdateDevices()
	}
	return id
}

// RemoveDevice unregisters a camera.
func (b *Bridge) RemoveDevice(deviceID string) {
	if b.prefs.RemoveCamera(deviceID) {
		b.UpdateDevices()
	}
}

// AddFormat inserts format into deviceId's list at index (or appends when
// index is out of range).
func (b *Bridge) AddFormat(deviceID string, format vcam.VideoFormat, index int) {
	cameraIndex := b.prefs.CameraFromID(deviceID)
	if cameraIndex < 0 {
		return
	}
	b.prefs.CameraAddFormat(cameraIndex, format, index)
}

// RemoveFormat drops the format at index from deviceId's list.
func (b *Bridge) RemoveFormat(deviceID string, index int) {
	cameraIndex := b.prefs.CameraFromID(deviceID)
	if cameraIndex < 0 {
		return
	}
	b.prefs.CameraRemoveFormat(cameraIndex, index)
}

// UpdateDevices tells the broker the device catalogue changed so other
// bridges' subscriptions wake up.
func (b *Bridge) UpdateDevices() {
	b.client.Send(wire.MsgUpdateDevices{}.Encode())
}

// ClientsPids lists the pids the broker reports for CLIENTS with
// ClientTypeVCams, excluding currentPID. That filter covers listeners
// only; broadcaster pids are not included.
func (b *Bridge) ClientsPids(currentPID uint64) []uint64 {
	resp, err := b.client.Send(wire.MsgClients{ClientType: wire.ClientTypeVCams}.Encode())
	if err != nil {
		b.logger.Debug("failed to query connected clients", zap.Error(err))
		return nil
	}

	clients := wire.DecodeMsgClients(resp).Clients
	out := make([]uint64, 0, len(clients))
	for _, pid := range clients {
		if pid != currentPID {
			out = append(out, pid)
		}
	}
	return out
}

// mutatingOperations lists the bridge calls a busy broker (one with
// connected peers) refuses, matching the reference isBusyFor table.
var mutatingOperations = map[string]bool{
	"add-device":      true,
	"add-format":      true,
	"load":            true,
	"remove-device":   true,
	"remove-devices":  true,
	"remove-format":   true,
	"remove-formats":  true,
	"set-description": true,
	"update":          true,
}

// IsBusyFor reports whether operation should be refused: it is a
// mutating operation and ClientsPids reports at least one other peer.
func (b *Bridge) IsBusyFor(operation string, currentPID uint64) bool {
	return mutatingOperations[operation] && len(b.ClientsPids(currentPID)) > 0
}

// DeviceStart begins a pump for deviceId in the given direction. ctx
// bounds the pump's lifetime in addition to an explicit DeviceStop.
func (b *Bridge) DeviceStart(ctx context.Context, streamType StreamType, deviceID string, pid uint64) bool {
	return b.pumps.start(ctx, b, streamType, deviceID, pid)
}

// DeviceStop stops deviceId's pump and waits for it to exit.
func (b *Bridge) DeviceStop(deviceID string) {
	b.pumps.stop(deviceID)
}

// Write hands frame to deviceId's input pump, to be picked up the next
// time the broker asks for one. It fails if deviceId has no running
// input pump.
func (b *Bridge) Write(deviceID string, frame vcam.VideoFrame) bool {
	return b.pumps.write(deviceID, frame)
}

// ReadFrame returns the most recently received frame for an output pump
// and whether the device currently has an active broadcaster.
func (b *Bridge) ReadFrame(deviceID string) (vcam.VideoFrame, bool) {
	return b.pumps.readFrame(deviceID)
}
