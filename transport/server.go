// Package transport is the request/response runtime in front of the
// dispatcher: a unix domain socket, big-endian uint32 length framing, and a
// guarantee that requests are handled one at a time to completion.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/aurakey-ble/logger"
)

// Server accepts connections and feeds framed requests to a handler.
// Dispatch is serialized across all connections; the core behind the
// handler performs no locking of its own.
type Server struct {
	socketPath string
	handle     func([]byte) []byte

	listener net.Listener

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	dispatchMu sync.Mutex
	stopChan   chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath and hand every
// request payload to handle, writing back whatever it returns.
func NewServer(socketPath string, handle func([]byte) []byte) *Server {
	return &Server{
		socketPath: socketPath,
		handle:     handle,
		conns:      make(map[net.Conn]struct{}),
		stopChan:   make(chan struct{}),
	}
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	os.Remove(s.socketPath) // remove stale socket

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.socketPath, err)
	}
	s.listener = listener

	logger.Info("transport", "🔌 listening on %s", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		// Accept deadline allows periodic stopChan checks.
		if ul, ok := s.listener.(*net.UnixListener); ok {
			ul.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-s.stopChan:
				return
			default:
				logger.Warn("transport", "accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// trackConn registers an accepted connection so Close can unblock its
// reader. Returns false when the server is already shutting down.
func (s *Server) trackConn(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	select {
	case <-s.stopChan:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	if !s.trackConn(conn) {
		return
	}
	defer s.untrackConn(conn)

	session := uuid.New().String()[:8]
	prefix := fmt.Sprintf("transport %s", session)
	logger.Debug(prefix, "connection opened")

	for {
		var reqLen uint32
		if err := binary.Read(conn, binary.BigEndian, &reqLen); err != nil {
			if err != io.EOF {
				logger.Trace(prefix, "read error: %v", err)
			}
			logger.Debug(prefix, "connection closed")
			return
		}

		reqBytes := make([]byte, reqLen)
		if _, err := io.ReadFull(conn, reqBytes); err != nil {
			logger.Warn(prefix, "failed to read request body: %v", err)
			return
		}

		logger.Trace(prefix, "📥 RX request (%d bytes)", len(reqBytes))

		// One request in flight at a time, across every connection.
		s.dispatchMu.Lock()
		respBytes := s.handle(reqBytes)
		s.dispatchMu.Unlock()

		if err := binary.Write(conn, binary.BigEndian, uint32(len(respBytes))); err != nil {
			logger.Warn(prefix, "failed to write response length: %v", err)
			return
		}
		if _, err := conn.Write(respBytes); err != nil {
			logger.Warn(prefix, "failed to write response: %v", err)
			return
		}

		logger.Trace(prefix, "📤 TX response (%d bytes)", len(respBytes))
	}
}

// Close stops accepting, closes the listener and every open connection,
// and waits for the connection goroutines to drain. Closing the
// connections is what unblocks readers idle in a frame read. Safe to
// call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		if s.listener != nil {
			s.listener.Close()
		}

		s.connsMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connsMu.Unlock()

		s.wg.Wait()
		os.Remove(s.socketPath)
		logger.Debug("transport", "🧹 server shut down")
	})
}
