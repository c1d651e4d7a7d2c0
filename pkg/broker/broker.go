// Package broker implements the core of the virtual-camera service: the
// slot table mapping device IDs to their current broadcaster, listeners
// and most recently pushed frame, plus the three message handlers
// (CLIENTS, BROADCAST, LISTEN) that drive it.
//
// A single mutex plus a single condition variable guard the whole table,
// mirroring the reference implementation's one condition_variable_any
// shared across every device: a frame pushed to any device wakes every
// listener currently waiting, and each rechecks its own slot.
package broker

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/metrics"
	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

// listenTimeout bounds how long a LISTEN call waits for a fresh frame
// before returning whatever is (or isn't) in the slot.
const listenTimeout = time.Second

// Peer identifies one end of a connection: the server-assigned connection
// id and the client-reported process id.
type Peer struct {
	ClientID uint64
	PID      uint64
}

func (p Peer) isZero() bool {
	return p.ClientID == 0 && p.PID == 0
}

// slot is the broker's per-device state record. It is absent from the
// table whenever it would otherwise hold no broadcaster and no listeners.
type slot struct {
	broadcaster Peer
	listeners   []Peer
	frame       vcam.VideoFrame
}

// Broker owns the slot table and the handlers that mutate it. It has no
// knowledge of the transport; Attach wires it to a wire.Server.
type Broker struct {
	logger *zap.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	broadcasts map[string]*slot
	notify     *notifyState

	peers atomic.Int64
}

// New creates an empty broker.
func New(logger *zap.Logger) *Broker {
	b := &Broker{
		logger:     logger,
		broadcasts: make(map[string]*slot),
		notify:     newNotifyState(),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Attach registers the broker's handlers on server and subscribes to its
// connection-closed signal for peer eviction.
func (b *Broker) Attach(server *wire.Server) {
	server.Subscribe(wire.IDClients, b.handleClients)
	server.Subscribe(wire.IDBroadcast, b.handleBroadcast)
	server.Subscribe(wire.IDListen, b.handleListen)
	server.OnConnectionOpened(b.onConnectionOpened)
	server.OnConnectionClosed(b.removeClientByID)
	b.AttachNotifications(server)
}

func (b *Broker) onConnectionOpened(uint64) {
	metrics.SetConnectedPeers(int(b.peers.Add(1)))
}

// DeviceCount reports how many devices currently have an active slot,
// exposed for metrics.
func (b *Broker) DeviceCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.broadcasts)
}

// removeClientByID evicts clientID from every slot that references it,
// either as broadcaster or as a listener, and drops each slot that this
// leaves with neither. LISTEN appends one listener entry per request, so
// every entry carrying clientID is removed, not just the first.
func (b *Broker) removeClientByID(clientID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Debug("removing client", zap.Uint64("client_id", clientID))
	metrics.SetConnectedPeers(int(b.peers.Add(-1)))

	for device, s := range b.broadcasts {
		if s.broadcaster.ClientID == clientID {
			s.broadcaster = Peer{}
		}

		for idx := indexOfListener(s.listeners, clientID); idx >= 0; idx = indexOfListener(s.listeners, clientID) {
			s.listeners = append(s.listeners[:idx], s.listeners[idx+1:]...)
		}

		if s.broadcaster.isZero() && len(s.listeners) == 0 {
			delete(b.broadcasts, device)
		}
	}
	metrics.SetActiveDevices(len(b.broadcasts))
}

func indexOfListener(listeners []Peer, clientID uint64) int {
	for i, p := range listeners {
		if p.ClientID == clientID {
			return i
		}
	}
	return -1
}

// waitForFrame blocks on the shared condition variable for at most
// listenTimeout. It must be called with b.mu held; Wait releases it for
// the duration of the wait and reacquires it before returning.
func (b *Broker) waitForFrame() {
	timer := time.AfterFunc(listenTimeout, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	b.cond.Wait()
	timer.Stop()
}
