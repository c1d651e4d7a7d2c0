package bridge

import (
	"context"
	"time"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
)

// Writer drives a device's input pump on a fixed interval, calling next
// to produce each frame. It is the shape a camera source (a capture
// device, a test-pattern generator, a file reader) plugs into.
type Writer struct {
	bridge   *Bridge
	deviceID string
	interval time.Duration
}

// NewWriter starts deviceId's input pump and returns a Writer driving it.
func NewWriter(ctx context.Context, b *Bridge, deviceID string, pid uint64, frameRate vcam.Fraction) (*Writer, bool) {
	if !b.DeviceStart(ctx, StreamTypeInput, deviceID, pid) {
		return nil, false
	}

	interval := time.Second
	if frameRate.Num > 0 {
		interval = time.Duration(float64(time.Second) / frameRate.Value())
	}

	return &Writer{bridge: b, deviceID: deviceID, interval: interval}, true
}

// Run calls next once per frame interval until ctx is cancelled, writing
// whatever frame it returns.
func (w *Writer) Run(ctx context.Context, next func() vcam.VideoFrame) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.bridge.Write(w.deviceID, next())
		}
	}
}

// Stop ends the device's input pump.
func (w *Writer) Stop() {
	w.bridge.DeviceStop(w.deviceID)
}
