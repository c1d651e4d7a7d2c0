package wire

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcerrors"
)

// ioTimeout bounds every send and receive on a client connection. A peer
// that stalls past this is treated as dead; the broker is local-only so
// this is generous.
const ioTimeout = 5 * time.Second

// Producer populates an outbound request message. Returning false stops
// the send/receive loop before anything is written.
type Producer func(out *Message) bool

// Consumer processes an inbound response message. Returning false stops
// the loop after this response.
type Consumer func(in Message) bool

// Client connects to the broker's message server and drives a
// full-duplex request/response loop.
type Client struct {
	port   int
	logger *zap.Logger
}

// NewClient creates a client targeting port.
func NewClient(port int, logger *zap.Logger) *Client {
	return &Client{port: port, logger: logger}
}

// IsUp performs a bare connect+close probe against port.
func IsUp(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), ioTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Send runs one request/response exchange and returns the response.
func (c *Client) Send(req Message) (Message, error) {
	var resp Message
	ok := c.run(
		func(out *Message) bool { *out = req; return true },
		func(in Message) bool { resp = in; return false },
	)
	if !ok {
		return Message{}, vcerrors.NewConnectionError(c.port, fmt.Sprintf("request %s failed", req.ID))
	}
	return resp, nil
}

// SendAsync drives the producer/consumer loop in a goroutine, returning
// a channel that carries the overall success flag once the connection
// closes (clean end-of-loop or I/O failure).
func (c *Client) SendAsync(ctx context.Context, producer Producer, consumer Consumer) <-chan bool {
	result := make(chan bool, 1)
	go func() {
		result <- c.runCtx(ctx, producer, consumer)
	}()
	return result
}

// SendForever is the one-directional convenience form the bridge's input
// pumps use: it keeps calling producer for each outbound message and
// discards every response, until producer returns false or the
// connection drops.
func (c *Client) SendForever(ctx context.Context, producer Producer) <-chan bool {
	return c.SendAsync(ctx, producer, func(Message) bool { return true })
}

func (c *Client) run(producer Producer, consumer Consumer) bool {
	return c.runCtx(context.Background(), producer, consumer)
}

func (c *Client) runCtx(ctx context.Context, producer Producer, consumer Consumer) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", c.port), ioTimeout)
	if err != nil {
		c.logger.Debug("failed to connect to message server", zap.Error(err))
		return false
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var out Message
		if !producer(&out) {
			return true
		}

		conn.SetWriteDeadline(time.Now().Add(ioTimeout))
		if err := WriteMessage(conn, out); err != nil {
			c.logger.Debug("send failed", zap.Error(err))
			return false
		}

		conn.SetReadDeadline(time.Now().Add(ioTimeout))
		in, err := ReadMessage(conn)
		if err != nil {
			c.logger.Debug("receive failed", zap.Error(err))
			return false
		}

		if !consumer(in) {
			return true
		}
	}
}
