package bridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
	"github.com/webcamoid/akvirtualcamera-go/pkg/vcerrors"
	"github.com/webcamoid/akvirtualcamera-go/pkg/wire"
)

// mailboxTimeout bounds how long an input pump's producer waits for a
// fresh frame from Write before resending whatever frame it already has,
// matching the broker's own idempotent last-frame semantics.
const mailboxTimeout = time.Second

// pump is one bridge-managed worker loop attached to a single device in
// a single direction.
type pump struct {
	streamType StreamType
	pid        uint64

	mu        sync.Mutex
	cond      *sync.Cond
	frame     vcam.VideoFrame
	available bool
	isActive  bool
	run       bool

	cancel context.CancelFunc
	done   <-chan bool
}

// write stores frame as the pump's current mailbox contents, waking any
// producer waiting on a fresh frame.
func (p *pump) write(frame vcam.VideoFrame) {
	p.mu.Lock()
	p.frame = frame
	p.available = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// waitFrame blocks until a fresh frame is available or mailboxTimeout
// elapses, then returns the current mailbox contents and whether the
// pump is still meant to run.
func (p *pump) waitFrame() (vcam.VideoFrame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		timer := time.AfterFunc(mailboxTimeout, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		})
		p.cond.Wait()
		timer.Stop()
	}

	frame := p.frame
	run := p.run
	p.available = false
	return frame, run
}

func (p *pump) readFrame() (vcam.VideoFrame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame, p.isActive
}

func (p *pump) setReceived(frame vcam.VideoFrame, isActive bool) {
	p.mu.Lock()
	p.frame = frame
	p.isActive = isActive
	p.mu.Unlock()
}

func (p *pump) stopRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	running := p.run
	p.run = false
	p.cond.Broadcast()
	return running
}

// pumpTable owns every running pump, keyed by device ID.
type pumpTable struct {
	mu    sync.Mutex
	pumps map[string]*pump
}

func newPumpTable() *pumpTable {
	return &pumpTable{pumps: make(map[string]*pump)}
}

func (t *pumpTable) start(ctx context.Context, b *Bridge, streamType StreamType, deviceID string, pid uint64) bool {
	t.mu.Lock()
	if _, exists := t.pumps[deviceID]; exists {
		t.mu.Unlock()
		err := vcerrors.NewDeviceBusyError(deviceID, "a pump is already running for this device")
		b.logger.Warn(err.Error(), zap.String("device", deviceID))
		return false
	}

	p := &pump{streamType: streamType, pid: pid, run: true}
	p.cond = sync.NewCond(&p.mu)

	pumpCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	var done <-chan bool
	if streamType == StreamTypeInput {
		done = b.client.SendForever(pumpCtx, inputProducer(p, deviceID))
	} else {
		done = b.client.SendAsync(pumpCtx, outputProducer(p, deviceID), outputConsumer(p, b, deviceID))
	}
	p.done = done

	go b.subscribeControls(pumpCtx, deviceID)

	t.pumps[deviceID] = p
	t.mu.Unlock()

	return true
}

func (t *pumpTable) stop(deviceID string) {
	t.mu.Lock()
	p, exists := t.pumps[deviceID]
	if exists {
		delete(t.pumps, deviceID)
	}
	t.mu.Unlock()

	if !exists {
		return
	}

	p.stopRunning()
	p.cancel()
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
	}
}

func (t *pumpTable) stopAll() {
	t.mu.Lock()
	devices := make([]string, 0, len(t.pumps))
	for id := range t.pumps {
		devices = append(devices, id)
	}
	t.mu.Unlock()

	for _, id := range devices {
		t.stop(id)
	}
}

func (t *pumpTable) write(deviceID string, frame vcam.VideoFrame) bool {
	t.mu.Lock()
	p, exists := t.pumps[deviceID]
	t.mu.Unlock()

	if !exists || p.streamType != StreamTypeInput {
		return false
	}
	p.write(frame)
	return true
}

func (t *pumpTable) readFrame(deviceID string) (vcam.VideoFrame, bool) {
	t.mu.Lock()
	p, exists := t.pumps[deviceID]
	t.mu.Unlock()

	if !exists || p.streamType != StreamTypeOutput {
		return vcam.VideoFrame{}, false
	}
	return p.readFrame()
}

// inputProducer builds the next BROADCAST message for an input pump: it
// waits for a fresh frame from Write, falling back to the stale one
// after mailboxTimeout, matching the reference frameRequired behavior.
func inputProducer(p *pump, deviceID string) wire.Producer {
	return func(out *wire.Message) bool {
		frame, run := p.waitFrame()
		if !run {
			return false
		}
		*out = wire.MsgBroadcast{Device: deviceID, PID: p.pid, Frame: frame}.Encode()
		return true
	}
}

// outputProducer sends the same LISTEN request for as long as the pump
// is running; the broker answers each one as soon as a frame lands or
// one second elapses.
func outputProducer(p *pump, deviceID string) wire.Producer {
	return func(out *wire.Message) bool {
		p.mu.Lock()
		run := p.run
		p.mu.Unlock()
		if !run {
			return false
		}
		*out = wire.MsgListen{Device: deviceID, PID: p.pid}.Encode()
		return true
	}
}

// outputConsumer stashes the delivered frame for ReadFrame polling and
// fires the frame_ready application hook so push-style consumers don't
// have to poll.
func outputConsumer(p *pump, b *Bridge, deviceID string) wire.Consumer {
	return func(in wire.Message) bool {
		resp := wire.DecodeMsgFrameReady(in)
		p.setReceived(resp.Frame, resp.IsActive)
		b.fireFrameReady(deviceID, resp.Frame, resp.IsActive)
		p.mu.Lock()
		run := p.run
		p.mu.Unlock()
		return run
	}
}
