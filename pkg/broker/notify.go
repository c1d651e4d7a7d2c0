package broker

import (
	"time"

	"github.com/webcamoid/akvirtualcamera-go/pkg/metrics"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

// notifyTimeout bounds how long a subscribe-style request blocks on the
// shared condition variable. The request waits for a single wake-up:
// anything that broadcasts on that variable (a BROADCAST frame for any
// device, or any notification) ends the wait early, and the reply then
// reports whether the watched state changed in the meantime. A bridge
// wanting a standing subscription simply calls again immediately.
const notifyTimeout = 30 * time.Second

type notifyState struct {
	devicesVersion  uint64
	pictureVersion  uint64
	picture         string
	controlsVersion map[string]uint64
}

func newNotifyState() *notifyState {
	return &notifyState{controlsVersion: make(map[string]uint64)}
}

// AttachNotifications registers the UPDATE_DEVICES/DEVICES_UPDATED,
// UPDATE_PICTURE/PICTURE_UPDATED and UPDATE_CONTROLS/CONTROLS_UPDATED
// handler pairs. Each pair follows the same shape as BROADCAST/LISTEN: a
// writer announces a change and a subscriber blocks until the shared
// condition variable next wakes it or notifyTimeout elapses, whichever
// comes first.
func (b *Broker) AttachNotifications(server *wire.Server) {
	server.Subscribe(wire.IDUpdateDevices, b.handleUpdateDevices)
	server.Subscribe(wire.IDDevicesUpdated, b.handleDevicesSubscribe)
	server.Subscribe(wire.IDUpdatePicture, b.handleUpdatePicture)
	server.Subscribe(wire.IDPictureUpdated, b.handlePictureSubscribe)
	server.Subscribe(wire.IDUpdateControls, b.handleUpdateControls)
	server.Subscribe(wire.IDControlsUpdated, b.handleControlsSubscribe)
}

func (b *Broker) handleUpdateDevices(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgUpdateDevices(in)

	b.mu.Lock()
	b.notify.devicesVersion++
	b.cond.Broadcast()
	b.mu.Unlock()

	out := wire.MsgDevicesUpdated{QueryID: req.QueryID}
	return out.Encode(), true
}

func (b *Broker) handleDevicesSubscribe(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgDevicesUpdated(in)

	b.mu.Lock()
	before := b.notify.devicesVersion
	b.waitForNotify(notifyTimeout)
	changed := b.notify.devicesVersion != before
	b.mu.Unlock()

	metrics.RecordNotifySubscription("devices", subscribeResult(changed))

	out := wire.MsgDevicesUpdated{QueryID: req.QueryID}
	return out.Encode(), true
}

func (b *Broker) handleUpdatePicture(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgUpdatePicture(in)

	b.mu.Lock()
	b.notify.picture = req.Picture
	b.notify.pictureVersion++
	b.cond.Broadcast()
	b.mu.Unlock()

	out := wire.MsgPictureUpdated{Picture: req.Picture, Updated: true, QueryID: req.QueryID}
	return out.Encode(), true
}

func (b *Broker) handlePictureSubscribe(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgPictureUpdated(in)

	b.mu.Lock()
	before := b.notify.pictureVersion
	b.waitForNotify(notifyTimeout)
	changed := b.notify.pictureVersion != before
	picture := b.notify.picture
	b.mu.Unlock()

	metrics.RecordNotifySubscription("picture", subscribeResult(changed))

	out := wire.MsgPictureUpdated{Picture: picture, Updated: changed, QueryID: req.QueryID}
	return out.Encode(), true
}

func (b *Broker) handleUpdateControls(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgUpdateControls(in)

	b.mu.Lock()
	b.notify.controlsVersion[req.Device]++
	b.cond.Broadcast()
	b.mu.Unlock()

	out := wire.MsgControlsUpdated{Device: req.Device, Updated: true, QueryID: req.QueryID}
	return out.Encode(), true
}

func (b *Broker) handleControlsSubscribe(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgControlsUpdated(in)

	b.mu.Lock()
	before := b.notify.controlsVersion[req.Device]
	b.waitForNotify(notifyTimeout)
	changed := b.notify.controlsVersion[req.Device] != before
	b.mu.Unlock()

	metrics.RecordNotifySubscription("controls", subscribeResult(changed))

	out := wire.MsgControlsUpdated{Device: req.Device, Updated: changed, QueryID: req.QueryID}
	return out.Encode(), true
}

func subscribeResult(changed bool) string {
	if changed {
		return "changed"
	}
	return "timeout"
}

// waitForNotify blocks on the shared condition variable for at most
// timeout. Must be called with b.mu held.
func (b *Broker) waitForNotify(timeout time.Duration) {
	timer := time.AfterFunc(timeout, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	b.cond.Wait()
	timer.Stop()
}
