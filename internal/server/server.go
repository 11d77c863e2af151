package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/redweasel/web-vlog/internal/wire"
)

// acceptRetryDelay throttles the accept loop after a non-shutdown Accept
// error (e.g. fd exhaustion) so the vlogger cannot log-spin inside the host
// process.
const acceptRetryDelay = 100 * time.Millisecond

// ErrShutdown is returned by WaitForConnection when the server is shut down
// before (or while) a viewer connects.
var ErrShutdown = errors.New("vlog server shut down")

// State is the transport lifecycle tag.
type State int

const (
	// StateListening means the socket is open but no viewer has completed
	// the handshake (or the previous viewer disconnected).
	StateListening State = iota
	// StateConnected means one viewer holds the websocket connection.
	StateConnected
	// StateClosed means Shutdown ran; the server never leaves this state.
	StateClosed
)

// Config carries the immutable transport settings.
type Config struct {
	// Port to bind on localhost; 0 lets the OS assign one.
	Port uint16
	// Page is the bootstrap HTML payload served on GET /.
	Page []byte
}

// Server is the connection registry. All mutable state (lifecycle tag and the
// live connection) is guarded by mu; the configuration is read-only after New.
type Server struct {
	log  *slog.Logger
	page []byte
	ln   net.Listener
	port uint16

	mu    sync.Mutex
	cond  *sync.Cond
	state State
	conn  net.Conn
	// gen counts handshakes so a reader for a dead connection cannot tear
	// down its successor.
	gen uint64
}

// New binds the listening socket and starts the accept loop. The returned
// server is in StateListening; its bound port is available via Port.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("bind vlog server: %w", err)
	}
	s := &Server{
		log:  log,
		page: cfg.Page,
		ln:   ln,
		port: uint16(ln.Addr().(*net.TCPAddr).Port),
	}
	s.cond = sync.NewCond(&s.mu)

	log.Info("vlog server started", "addr", ln.Addr().String())
	go s.acceptLoop()
	return s, nil
}

// Port returns the bound port. Only interesting when Config.Port was 0.
func (s *Server) Port() uint16 {
	return s.port
}

// State returns the current lifecycle tag.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WaitForConnection blocks the calling goroutine until a viewer completes the
// handshake. It returns ErrShutdown if the server is shut down first.
func (s *Server) WaitForConnection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state == StateListening {
		s.cond.Wait()
	}
	if s.state == StateClosed {
		return ErrShutdown
	}
	return nil
}

// Send frames payload as one websocket text message and writes it to the
// viewer. Without a connected viewer the call is a no-op. A failed write
// drops the connection and reverts the transport to listening; the error is
// logged, never surfaced, since vlogging must not disturb the host program.
func (s *Server) Send(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected || s.conn == nil {
		return
	}

	// One frame, one Write: frames from concurrent callers never interleave.
	frame := wire.AppendTextFrame(make([]byte, 0, len(payload)+10), payload)
	if _, err := s.conn.Write(frame); err != nil {
		s.log.Warn("vlog write failed, dropping viewer", "err", err)
		s.conn.Close()
		s.conn = nil
		s.state = StateListening
	}
}

// Shutdown closes the viewer connection and the listening socket. It is safe
// to call from any goroutine, is idempotent, wakes pending WaitForConnection
// callers, and never propagates errors.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	conn := s.conn
	s.conn = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if conn != nil {
		conn.Write(wire.CloseFrame())
		conn.Close()
	}
	if err := s.ln.Close(); err != nil {
		s.log.Debug("close listener", "err", err)
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.State() == StateClosed {
				return
			}
			s.log.Warn("accept failed", "err", err)
			time.Sleep(acceptRetryDelay)
			continue
		}

		// Single-viewer design: while a viewer is attached, further
		// connection attempts are closed at the transport layer.
		if s.State() == StateConnected {
			s.log.Debug("refusing connection, viewer already attached",
				"remote", conn.RemoteAddr().String())
			conn.Close()
			continue
		}

		s.log.Info("vlogger connection", "remote", conn.RemoteAddr().String())
		go s.handleConn(conn)
	}
}

// handleConn walks one connection through the bootstrap state machine: plain
// GET / requests are answered with the page and the connection is kept open
// for a follow-up request, a valid upgrade request promotes the connection to
// the live viewer, anything else closes it.
func (s *Server) handleConn(conn net.Conn) {
	br := bufio.NewReader(conn)
	for {
		req, err := wire.ParseRequest(br)
		if err != nil {
			if errors.Is(err, wire.ErrMalformedRequest) {
				s.log.Debug("malformed request", "err", err)
				conn.Write(wire.BadRequestResponse())
			}
			conn.Close()
			return
		}
		s.log.Debug("request", "method", req.Method, "path", req.Path)

		if req.IsUpgrade() {
			s.upgrade(conn, br, req)
			return
		}

		switch {
		case req.Method != "GET" || req.Proto != "HTTP/1.1":
			conn.Write(wire.BadRequestResponse())
			conn.Close()
			return
		case req.Path == "/":
			if _, err := conn.Write(wire.BootstrapResponse(s.page)); err != nil {
				conn.Close()
				return
			}
			// Keep-alive: await the upgrade (or another request) on the
			// same connection.
		default:
			conn.Write(wire.NotFoundResponse())
			conn.Close()
			return
		}
	}
}

// upgrade completes the handshake and installs conn as the live viewer, then
// watches the inbound side for the close frame.
func (s *Server) upgrade(conn net.Conn, br *bufio.Reader, req *wire.Request) {
	resp, err := wire.Upgrade(req)
	if err != nil {
		s.log.Debug("handshake rejected", "err", err)
		conn.Write(wire.BadRequestResponse())
		conn.Close()
		return
	}

	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		conn.Close()
		return
	}
	if _, err := conn.Write(resp); err != nil {
		s.mu.Unlock()
		s.log.Warn("handshake write failed", "err", err)
		conn.Close()
		return
	}
	s.conn = conn
	s.state = StateConnected
	s.gen++
	gen := s.gen
	s.cond.Broadcast()
	s.mu.Unlock()

	s.log.Info("vlogging client connected")
	s.readLoop(conn, br, gen)
}

// readLoop discards inbound client frames until a close frame or a read
// error, then reverts the transport to listening.
func (s *Server) readLoop(conn net.Conn, br *bufio.Reader, gen uint64) {
	for {
		opcode, err := wire.NextOpcode(br)
		if err != nil || opcode == wire.OpcodeClose {
			break
		}
	}

	s.mu.Lock()
	if s.gen == gen && s.conn == conn {
		s.conn = nil
		if s.state == StateConnected {
			s.state = StateListening
		}
		s.cond.Broadcast()
	}
	s.mu.Unlock()
	conn.Close()
	s.log.Info("vlogger connection closed")
}
