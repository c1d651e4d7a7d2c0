package broker

import (
	"time"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/metrics"
	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

// handleClients answers CLIENTS with the pid of every known broadcaster
// (when the filter is ClientTypeAny) and every known listener, each pid
// listed at most once.
func (b *Broker) handleClients(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgClients(in)

	var pids []uint64
	seen := make(map[uint64]bool)
	add := func(pid uint64) {
		if pid != 0 && !seen[pid] {
			seen[pid] = true
			pids = append(pids, pid)
		}
	}

	b.mu.Lock()
	for _, s := range b.broadcasts {
		if req.ClientType == wire.ClientTypeAny {
			add(s.broadcaster.PID)
		}
		for _, listener := range s.listeners {
			add(listener.PID)
		}
	}
	b.mu.Unlock()

	out := wire.MsgClients{ClientType: req.ClientType, Clients: pids, QueryID: req.QueryID}
	return out.Encode(), true
}

// handleBroadcast assigns the first BROADCAST for a device as that
// device's sole broadcaster; a later BROADCAST from a different peer is
// rejected with STATUS(-1) and the connection is closed, since a
// conflicting producer has nothing further useful to say on this
// connection.
func (b *Broker) handleBroadcast(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgBroadcast(in)

	b.mu.Lock()

	s, exists := b.broadcasts[req.Device]
	if !exists {
		s = &slot{}
		b.broadcasts[req.Device] = s
		metrics.SetActiveDevices(len(b.broadcasts))
	}

	if s.broadcaster.isZero() {
		s.broadcaster = Peer{ClientID: clientID, PID: req.PID}
		b.logger.Debug("device acquired broadcaster",
			zap.String("device", req.Device), zap.Uint64("pid", req.PID))
	}

	status := int32(-1)
	if s.broadcaster.ClientID == clientID && s.broadcaster.PID == req.PID {
		s.frame = req.Frame
		status = 0
		b.cond.Broadcast()
	}

	b.mu.Unlock()

	result := "ok"
	if status != 0 {
		result = "rejected"
	}
	metrics.RecordBroadcast(req.Device, result)

	out := wire.MsgStatus{Status: status, QueryID: req.QueryID}
	return out.Encode(), status == 0
}

// handleListen registers clientID as a listener on the device, then
// waits up to one second for a fresh frame before answering with
// whatever frame (possibly empty) is in the slot. The slot's frame is
// always cleared on delivery: a frame is seen by at most one LISTEN.
func (b *Broker) handleListen(clientID uint64, in wire.Message) (wire.Message, bool) {
	req := wire.DecodeMsgListen(in)

	b.mu.Lock()

	s, exists := b.broadcasts[req.Device]
	if !exists {
		s = &slot{}
		b.broadcasts[req.Device] = s
		metrics.SetActiveDevices(len(b.broadcasts))
	}
	s.listeners = append(s.listeners, Peer{ClientID: clientID, PID: req.PID})

	start := time.Now()
	if s.frame.Empty() {
		b.waitForFrame()
	}

	frame := s.frame
	isActive := !s.broadcaster.isZero()
	s.frame = vcam.VideoFrame{}

	b.mu.Unlock()

	metrics.RecordListen(req.Device, time.Since(start).Seconds())

	out := wire.MsgFrameReady{Device: req.Device, Frame: frame, IsActive: isActive, QueryID: req.QueryID}
	return out.Encode(), true
}
