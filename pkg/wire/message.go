// Package wire implements the broker's binary message protocol: typed
// payload encoders/decoders (the wire codec) plus the length-delimited
// framing shared by the message server and the message client.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
)

// ID identifies a message kind on the wire.
type ID int32

// Message ids, per the protocol's external interface.
const (
	IDClients         ID = 0x001
	IDStatus          ID = 0x101
	IDFrameReady       ID = 0x102
	IDBroadcast        ID = 0x201
	IDListen           ID = 0x202
	IDUpdateDevices    ID = 0x301
	IDDevicesUpdated   ID = 0x302
	IDUpdateControls   ID = 0x401
	IDControlsUpdated  ID = 0x402
	IDUpdatePicture    ID = 0x501
	IDPictureUpdated   ID = 0x502
)

func (id ID) String() string {
	switch id {
	case IDClients:
		return "CLIENTS"
	case IDStatus:
		return "STATUS"
	case IDFrameReady:
		return "FRAME_READY"
	case IDBroadcast:
		return "BROADCAST"
	case IDListen:
		return "LISTEN"
	case IDUpdateDevices:
		return "UPDATE_DEVICES"
	case IDDevicesUpdated:
		return "DEVICES_UPDATED"
	case IDUpdateControls:
		return "UPDATE_CONTROLS"
	case IDControlsUpdated:
		return "CONTROLS_UPDATED"
	case IDUpdatePicture:
		return "UPDATE_PICTURE"
	case IDPictureUpdated:
		return "PICTURE_UPDATED"
	default:
		return fmt.Sprintf("UNKNOWN(0x%x)", int32(id))
	}
}

// ClientType selects which peers CLIENTS enumerates.
type ClientType int32

const (
	ClientTypeAny ClientType = iota
	ClientTypeVCams
)

// Message is the generic envelope exchanged over the wire: an id, a
// caller-chosen queryId echoed verbatim in the response, and an opaque
// payload. Handlers work with the typed Msg* structs below and convert
// to/from Message via Encode/Decode.
type Message struct {
	ID      ID
	QueryID uint64
	Data    []byte
}

// byteWriter accumulates a payload in field declaration order.
type byteWriter struct {
	buf []byte
}

func (w *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) i32(v int32)    { w.u32(uint32(v)) }
func (w *byteWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) bytes(v []byte) {
	w.u64(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *byteWriter) str(v string) { w.bytes([]byte(v)) }

func (w *byteWriter) boolean(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// byteReader consumes a payload in field declaration order, reporting
// ok=false the moment it runs past the end of the buffer.
type byteReader struct {
	buf []byte
	pos int
	ok  bool
}

func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf, ok: true}
}

func (r *byteReader) need(n int) []byte {
	if !r.ok || r.pos+n > len(r.buf) {
		r.ok = false
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) u32() uint32 {
	b := r.need(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *byteReader) i32() int32  { return int32(r.u32()) }
func (r *byteReader) u64() uint64 {
	b := r.need(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *byteReader) bytes() []byte {
	n := r.u64()
	if !r.ok {
		return nil
	}
	b := r.need(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *byteReader) str() string { return string(r.bytes()) }

func (r *byteReader) boolean() bool {
	b := r.need(1)
	if b == nil {
		return false
	}
	return b[0] != 0
}

// done reports whether the reader consumed the entire buffer, which
// decoders require: a payload of the wrong length decodes to a
// default-constructed (zeroed) value instead of erroring.
func (r *byteReader) done() bool {
	return r.ok && r.pos == len(r.buf)
}

// MsgStatus is STATUS (0x101): a single integer status code, 0 for
// success, nonzero for failure.
type MsgStatus struct {
	Status  int32
	QueryID uint64
}

func (m MsgStatus) Encode() Message {
	w := &byteWriter{}
	w.i32(m.Status)
	return Message{ID: IDStatus, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgStatus(msg Message) MsgStatus {
	r := newByteReader(msg.Data)
	status := r.i32()
	if !r.done() {
		return MsgStatus{QueryID: msg.QueryID}
	}
	return MsgStatus{Status: status, QueryID: msg.QueryID}
}

// MsgClients is CLIENTS (0x001): a client-type filter plus the pid list
// the broker or the client returns for it.
type MsgClients struct {
	ClientType ClientType
	Clients    []uint64
	QueryID    uint64
}

func (m MsgClients) Encode() Message {
	w := &byteWriter{}
	w.i32(int32(m.ClientType))
	w.u64(uint64(len(m.Clients)))
	for _, pid := range m.Clients {
		w.u64(pid)
	}
	return Message{ID: IDClients, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgClients(msg Message) MsgClients {
	r := newByteReader(msg.Data)
	clientType := ClientType(r.i32())
	count := r.u64()
	clients := make([]uint64, 0, count)
	for i := uint64(0); r.ok && i < count; i++ {
		clients = append(clients, r.u64())
	}
	if !r.done() {
		return MsgClients{QueryID: msg.QueryID}
	}
	return MsgClients{ClientType: clientType, Clients: clients, QueryID: msg.QueryID}
}

// MsgUpdateDevices is UPDATE_DEVICES (0x301): an empty-bodied request to
// re-read the device catalogue.
type MsgUpdateDevices struct {
	QueryID uint64
}

func (m MsgUpdateDevices) Encode() Message {
	return Message{ID: IDUpdateDevices, QueryID: m.QueryID}
}

func DecodeMsgUpdateDevices(msg Message) MsgUpdateDevices {
	return MsgUpdateDevices{QueryID: msg.QueryID}
}

// MsgDevicesUpdated is DEVICES_UPDATED (0x302): an empty-bodied
// notification that the device catalogue changed.
type MsgDevicesUpdated struct {
	QueryID uint64
}

func (m MsgDevicesUpdated) Encode() Message {
	return Message{ID: IDDevicesUpdated, QueryID: m.QueryID}
}

func DecodeMsgDevicesUpdated(msg Message) MsgDevicesUpdated {
	return MsgDevicesUpdated{QueryID: msg.QueryID}
}

// MsgUpdatePicture is UPDATE_PICTURE (0x501): the path to the
// still-picture fallback.
type MsgUpdatePicture struct {
	Picture string
	QueryID uint64
}

func (m MsgUpdatePicture) Encode() Message {
	w := &byteWriter{}
	w.str(m.Picture)
	return Message{ID: IDUpdatePicture, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgUpdatePicture(msg Message) MsgUpdatePicture {
	r := newByteReader(msg.Data)
	picture := r.str()
	if !r.done() {
		return MsgUpdatePicture{QueryID: msg.QueryID}
	}
	return MsgUpdatePicture{Picture: picture, QueryID: msg.QueryID}
}

// MsgPictureUpdated is PICTURE_UPDATED (0x502).
type MsgPictureUpdated struct {
	Picture string
	Updated bool
	QueryID uint64
}

func (m MsgPictureUpdated) Encode() Message {
	w := &byteWriter{}
	w.str(m.Picture)
	w.boolean(m.Updated)
	return Message{ID: IDPictureUpdated, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgPictureUpdated(msg Message) MsgPictureUpdated {
	r := newByteReader(msg.Data)
	picture := r.str()
	updated := r.boolean()
	if !r.done() {
		return MsgPictureUpdated{QueryID: msg.QueryID}
	}
	return MsgPictureUpdated{Picture: picture, Updated: updated, QueryID: msg.QueryID}
}

// MsgUpdateControls is UPDATE_CONTROLS (0x401).
type MsgUpdateControls struct {
	Device  string
	QueryID uint64
}

func (m MsgUpdateControls) Encode() Message {
	w := &byteWriter{}
	w.str(m.Device)
	return Message{ID: IDUpdateControls, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgUpdateControls(msg Message) MsgUpdateControls {
	r := newByteReader(msg.Data)
	device := r.str()
	if !r.done() {
		return MsgUpdateControls{QueryID: msg.QueryID}
	}
	return MsgUpdateControls{Device: device, QueryID: msg.QueryID}
}

// MsgControlsUpdated is CONTROLS_UPDATED (0x402).
type MsgControlsUpdated struct {
	Device  string
	Updated bool
	QueryID uint64
}

func (m MsgControlsUpdated) Encode() Message {
	w := &byteWriter{}
	w.str(m.Device)
	w.boolean(m.Updated)
	return Message{ID: IDControlsUpdated, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgControlsUpdated(msg Message) MsgControlsUpdated {
	r := newByteReader(msg.Data)
	device := r.str()
	updated := r.boolean()
	if !r.done() {
		return MsgControlsUpdated{QueryID: msg.QueryID}
	}
	return MsgControlsUpdated{Device: device, Updated: updated, QueryID: msg.QueryID}
}

// MsgFrameReady is FRAME_READY (0x102): the broker's answer to LISTEN.
type MsgFrameReady struct {
	Device   string
	Frame    vcam.VideoFrame
	IsActive bool
	QueryID  uint64
}

func (m MsgFrameReady) Encode() Message {
	w := &byteWriter{}
	w.str(m.Device)
	w.u32(uint32(m.Frame.Format.FourCC))
	w.i32(int32(m.Frame.Format.Width))
	w.i32(int32(m.Frame.Format.Height))
	w.bytes(m.Frame.Data)
	w.boolean(m.IsActive)
	return Message{ID: IDFrameReady, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgFrameReady(msg Message) MsgFrameReady {
	r := newByteReader(msg.Data)
	device := r.str()
	fourcc := r.u32()
	width := r.i32()
	height := r.i32()
	data := r.bytes()
	isActive := r.boolean()
	if !r.done() {
		return MsgFrameReady{QueryID: msg.QueryID}
	}

	format := vcam.VideoFormat{FourCC: vcam.FourCC(fourcc), Width: int(width), Height: int(height)}
	frame := vcam.VideoFrame{Format: format, Data: data}

	return MsgFrameReady{Device: device, Frame: frame, IsActive: isActive, QueryID: msg.QueryID}
}

// MsgBroadcast is BROADCAST (0x201): a producer pushing one frame.
type MsgBroadcast struct {
	Device  string
	PID     uint64
	Frame   vcam.VideoFrame
	QueryID uint64
}

func (m MsgBroadcast) Encode() Message {
	w := &byteWriter{}
	w.str(m.Device)
	w.u64(m.PID)
	w.u32(uint32(m.Frame.Format.FourCC))
	w.i32(int32(m.Frame.Format.Width))
	w.i32(int32(m.Frame.Format.Height))
	w.bytes(m.Frame.Data)
	return Message{ID: IDBroadcast, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgBroadcast(msg Message) MsgBroadcast {
	r := newByteReader(msg.Data)
	device := r.str()
	pid := r.u64()
	fourcc := r.u32()
	width := r.i32()
	height := r.i32()
	data := r.bytes()
	if !r.done() {
		return MsgBroadcast{QueryID: msg.QueryID}
	}

	format := vcam.VideoFormat{FourCC: vcam.FourCC(fourcc), Width: int(width), Height: int(height)}
	frame := vcam.VideoFrame{Format: format, Data: data}

	return MsgBroadcast{Device: device, PID: pid, Frame: frame, QueryID: msg.QueryID}
}

// MsgListen is LISTEN (0x202): a consumer asking for the latest frame.
type MsgListen struct {
	Device  string
	PID     uint64
	QueryID uint64
}

func (m MsgListen) Encode() Message {
	w := &byteWriter{}
	w.str(m.Device)
	w.u64(m.PID)
	return Message{ID: IDListen, QueryID: m.QueryID, Data: w.buf}
}

func DecodeMsgListen(msg Message) MsgListen {
	r := newByteReader(msg.Data)
	device := r.str()
	pid := r.u64()
	if !r.done() {
		return MsgListen{QueryID: msg.QueryID}
	}
	return MsgListen{Device: device, PID: pid, QueryID: msg.QueryID}
}
