package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

// reconnectDelay separates retry attempts after a subscription's
// connection drops, so a broker restart doesn't spin a bridge hot.
const reconnectDelay = time.Second

// callbacks holds the application hooks a bridge owner can register to
// be pushed device, picture, controls and frame changes instead of
// polling. Every field is optional; firing a nil hook is a no-op.
type callbacks struct {
	mu sync.RWMutex

	frameReadyFn      func(deviceID string, frame vcam.VideoFrame, isActive bool)
	devicesChangedFn  func()
	pictureChangedFn  func(picture string)
	controlsChangedFn func(deviceID string)
}

func (c *callbacks) setFrameReady(fn func(deviceID string, frame vcam.VideoFrame, isActive bool)) {
	c.mu.Lock()
	c.frameReadyFn = fn
	c.mu.Unlock()
}

func (c *callbacks) setDevicesChanged(fn func()) {
	c.mu.Lock()
	c.devicesChangedFn = fn
	c.mu.Unlock()
}

func (c *callbacks) setPictureChanged(fn func(picture string)) {
	c.mu.Lock()
	c.pictureChangedFn = fn
	c.mu.Unlock()
}

func (c *callbacks) setControlsChanged(fn func(deviceID string)) {
	c.mu.Lock()
	c.controlsChangedFn = fn
	c.mu.Unlock()
}

func (c *callbacks) frameReady() func(deviceID string, frame vcam.VideoFrame, isActive bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameReadyFn
}

func (c *callbacks) devicesChanged() func() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.devicesChangedFn
}

func (c *callbacks) pictureChanged() func(picture string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pictureChangedFn
}

func (c *callbacks) controlsChanged() func(deviceID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.controlsChangedFn
}

// OnFrameReady registers fn to be called whenever an output pump
// receives a fresh frame from the broker, with the device ID, the
// frame itself and whether the device currently has an active
// broadcaster.
func (b *Bridge) OnFrameReady(fn func(deviceID string, frame vcam.VideoFrame, isActive bool)) {
	b.callbacks.setFrameReady(fn)
}

// OnDevicesChanged registers fn to be called whenever the broker
// reports the device catalogue changed.
func (b *Bridge) OnDevicesChanged(fn func()) {
	b.callbacks.setDevicesChanged(fn)
}

// OnPictureChanged registers fn to be called whenever the placeholder
// picture changes, with its new path.
func (b *Bridge) OnPictureChanged(fn func(picture string)) {
	b.callbacks.setPictureChanged(fn)
}

// OnControlsChanged registers fn to be called whenever deviceId's
// controls change.
func (b *Bridge) OnControlsChanged(fn func(deviceID string)) {
	b.callbacks.setControlsChanged(fn)
}

func (b *Bridge) fireFrameReady(deviceID string, frame vcam.VideoFrame, isActive bool) {
	if fn := b.callbacks.frameReady(); fn != nil {
		fn(deviceID, frame, isActive)
	}
}

func (b *Bridge) fireDevicesChanged() {
	if fn := b.callbacks.devicesChanged(); fn != nil {
		fn()
	}
}

func (b *Bridge) firePictureChanged(picture string) {
	if fn := b.callbacks.pictureChanged(); fn != nil {
		fn(picture)
	}
}

func (b *Bridge) fireControlsChanged(deviceID string) {
	if fn := b.callbacks.controlsChanged(); fn != nil {
		fn(deviceID)
	}
}

// subscribeDevices keeps a standing DEVICES_UPDATED subscription open
// for the Bridge's lifetime. The wire reply carries no changed/unchanged
// signal, so devices_changed fires on every reply; re-reading the
// catalogue after a reply that carries no change is harmless and
// idempotent.
func (b *Bridge) subscribeDevices(ctx context.Context) {
	producer := func(out *wire.Message) bool {
		*out = wire.MsgDevicesUpdated{}.Encode()
		return true
	}
	consumer := func(in wire.Message) bool {
		b.fireDevicesChanged()
		return true
	}
	b.runSubscription(ctx, producer, consumer)
}

// subscribePicture keeps a standing PICTURE_UPDATED subscription open
// for the Bridge's lifetime, firing picture_changed only when the
// broker reports an actual change.
func (b *Bridge) subscribePicture(ctx context.Context) {
	producer := func(out *wire.Message) bool {
		*out = wire.MsgPictureUpdated{}.Encode()
		return true
	}
	consumer := func(in wire.Message) bool {
		resp := wire.DecodeMsgPictureUpdated(in)
		if resp.Updated {
			b.firePictureChanged(resp.Picture)
		}
		return true
	}
	b.runSubscription(ctx, producer, consumer)
}

// subscribeControls keeps a standing CONTROLS_UPDATED subscription open
// for deviceId, bound to ctx so it exits alongside the pump it was
// started for.
func (b *Bridge) subscribeControls(ctx context.Context, deviceID string) {
	producer := func(out *wire.Message) bool {
		*out = wire.MsgControlsUpdated{Device: deviceID}.Encode()
		return true
	}
	consumer := func(in wire.Message) bool {
		resp := wire.DecodeMsgControlsUpdated(in)
		if resp.Updated {
			b.fireControlsChanged(deviceID)
		}
		return true
	}
	b.runSubscription(ctx, producer, consumer)
}

// runSubscription drives producer/consumer over SendAsync, reconnecting
// after reconnectDelay whenever the connection drops, until ctx is
// cancelled. Unlike SendForever, the consumer here inspects each
// response instead of discarding it, which PICTURE_UPDATED and
// CONTROLS_UPDATED both require to tell a real change from a timeout.
func (b *Bridge) runSubscription(ctx context.Context, producer wire.Producer, consumer wire.Consumer) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		done := b.client.SendAsync(ctx, producer, consumer)
		<-done

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}
