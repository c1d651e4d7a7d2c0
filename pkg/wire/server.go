package wire

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/metrics"
	"github.com/webcamoid/akvirtualcamera-go/pkg/middleware"
)

// Handler processes one request message for clientId and produces the
// response. The returned bool is the "continue" flag: when false, the
// server writes outMessage and then closes the connection.
type Handler func(clientID uint64, in Message) (out Message, cont bool)

// ConnectionClosedFunc is invoked, once per connection and exactly once,
// after its worker loop exits for any reason.
type ConnectionClosedFunc func(clientID uint64)

// ConnectionOpenedFunc is invoked once per connection, before its worker
// loop starts reading requests.
type ConnectionOpenedFunc func(clientID uint64)

// Server accepts loopback TCP connections and runs one worker goroutine
// per connection, dispatching each request to a registered Handler.
// Handlers are registered before Run and are never changed afterward.
type Server struct {
	port   int
	logger *zap.Logger

	nextClientID atomic.Uint64

	handlersMu sync.Mutex
	handlers   map[ID]Handler

	closedMu sync.Mutex
	closed   []ConnectionClosedFunc

	openedMu sync.Mutex
	opened   []ConnectionOpenedFunc

	listener net.Listener
	stopped  atomic.Bool

	wg sync.WaitGroup
}

// NewServer creates a server bound to port (not yet listening).
func NewServer(port int, logger *zap.Logger) *Server {
	return &Server{
		port:     port,
		logger:   logger,
		handlers: make(map[ID]Handler),
	}
}

// Subscribe registers handler for id. It refuses to overwrite an
// existing registration, matching the reference server.
func (s *Server) Subscribe(id ID, handler Handler) bool {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()

	if _, exists := s.handlers[id]; exists {
		return false
	}
	s.handlers[id] = handler
	return true
}

// Unsubscribe removes the handler registered for id, if any.
func (s *Server) Unsubscribe(id ID) bool {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()

	if _, exists := s.handlers[id]; !exists {
		return false
	}
	delete(s.handlers, id)
	return true
}

// OnConnectionClosed subscribes fn to fire when any connection's worker
// loop exits. Delivery to each subscriber is in-order; subscribers are
// invoked in registration order for each event.
func (s *Server) OnConnectionClosed(fn ConnectionClosedFunc) {
	s.closedMu.Lock()
	defer s.closedMu.Unlock()
	s.closed = append(s.closed, fn)
}

// OnConnectionOpened subscribes fn to fire once per accepted connection,
// before its worker loop starts reading requests.
func (s *Server) OnConnectionOpened(fn ConnectionOpenedFunc) {
	s.openedMu.Lock()
	defer s.openedMu.Unlock()
	s.opened = append(s.opened, fn)
}

// Run binds the listening socket and blocks, accepting connections
// until Stop is called. It returns nil on a clean shutdown and an error
// if the socket could not be bound.
func (s *Server) Run() error {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("wire: failed to bind port %d: %w", s.port, err)
	}
	s.listener = listener

	s.logger.Info("message server listening", zap.Int("port", s.port))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.stopped.Load() {
				break
			}
			s.logger.Error("accept failed", zap.Error(err))
			continue
		}

		clientID := s.nextClientID.Add(1)
		s.wg.Add(1)
		go s.serveConnection(clientID, conn)
	}

	s.wg.Wait()
	s.logger.Info("message server stopped")
	return nil
}

// Stop flips the cooperative stop flag and closes the accept socket;
// in-flight connection workers exit on their next failed read.
func (s *Server) Stop() {
	s.stopped.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) serveConnection(clientID uint64, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.logger.Debug("client connected", zap.Uint64("client_id", clientID))

	s.openedMu.Lock()
	openSubscribers := make([]ConnectionOpenedFunc, len(s.opened))
	copy(openSubscribers, s.opened)
	s.openedMu.Unlock()
	for _, fn := range openSubscribers {
		fn(clientID)
	}

	for {
		in, err := ReadMessage(conn)
		if err != nil {
			if err != io.EOF {
				s.logger.Debug("read failed, closing connection",
					zap.Uint64("client_id", clientID), zap.Error(err))
				metrics.RecordDecodeFailure("frame")
			}
			break
		}

		s.handlersMu.Lock()
		handler, found := s.handlers[in.ID]
		s.handlersMu.Unlock()

		if !found {
			s.logger.Warn("no handler for message",
				zap.Uint64("client_id", clientID), zap.String("id", in.ID.String()))
			break
		}

		var out Message
		cont := true
		ctx := middleware.WithRequestID(context.Background())
		if recErr := middleware.RecoverPanic(ctx, func() error {
			out, cont = handler(clientID, in)
			return nil
		}); recErr != nil {
			s.logger.Error("handler panicked, closing connection",
				zap.Uint64("client_id", clientID), zap.String("id", in.ID.String()), zap.Error(recErr))
			break
		}

		if err := WriteMessage(conn, out); err != nil {
			s.logger.Debug("write failed, closing connection",
				zap.Uint64("client_id", clientID), zap.Error(err))
			break
		}

		if !cont {
			break
		}
	}

	s.logger.Debug("client disconnected", zap.Uint64("client_id", clientID))

	s.closedMu.Lock()
	subscribers := make([]ConnectionClosedFunc, len(s.closed))
	copy(subscribers, s.closed)
	s.closedMu.Unlock()

	for _, fn := range subscribers {
		fn(clientID)
	}
}
