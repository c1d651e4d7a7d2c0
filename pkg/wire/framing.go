package wire

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcerrors"
)

// maxPayload bounds a single message body, guarding both ends against a
// corrupt or hostile length prefix asking for an unreasonable read.
const maxPayload = 256 * 1024 * 1024

// ReadMessage reads one length-delimited frame from conn:
// i32 id | u64 queryId | u64 length | length bytes, all little-endian.
// A read that returns zero bytes with no error (a clean peer shutdown)
// is reported as io.EOF.
func ReadMessage(conn net.Conn) (Message, error) {
	var header [20]byte
	if err := readFull(conn, header[:]); err != nil {
		return Message{}, err
	}

	id := ID(int32(binary.LittleEndian.Uint32(header[0:4])))
	queryID := binary.LittleEndian.Uint64(header[4:12])
	length := binary.LittleEndian.Uint64(header[12:20])

	if length > maxPayload {
		return Message{}, vcerrors.NewFrameTooLargeError(length, maxPayload)
	}

	data := make([]byte, length)
	if length > 0 {
		if err := readFull(conn, data); err != nil {
			return Message{}, err
		}
	}

	return Message{ID: id, QueryID: queryID, Data: data}, nil
}

// WriteMessage writes msg to conn using the same framing ReadMessage
// expects.
func WriteMessage(conn net.Conn, msg Message) error {
	header := make([]byte, 20+len(msg.Data))
	binary.LittleEndian.PutUint32(header[0:4], uint32(int32(msg.ID)))
	binary.LittleEndian.PutUint64(header[4:12], msg.QueryID)
	binary.LittleEndian.PutUint64(header[12:20], uint64(len(msg.Data)))
	copy(header[20:], msg.Data)

	_, err := conn.Write(header)
	return err
}

// readFull loops until buf is completely filled, treating a zero-byte
// read with no error as a clean disconnect (io.EOF).
func readFull(conn net.Conn, buf []byte) error {
	n, err := io.ReadFull(conn, buf)
	if err != nil {
		if err == io.ErrUnexpectedEOF && n == 0 {
			return io.EOF
		}
		return err
	}
	return nil
}
