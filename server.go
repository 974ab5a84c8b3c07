package cubewire

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Handler takes over accepted connections.
type Handler interface {
	// Handle owns conn from the moment it is called and must close it.
	Handle(conn *net.TCPConn)
}

// Server accepts TCP peers and passes them to a Handler.
// Peers matching its ban list are disconnected before reaching the handler.
type Server struct {
	listener     *net.TCPListener
	logger       Logger
	metrics      *Metrics
	bans         *AccessList
	drainTimeout time.Duration

	mu       sync.Mutex
	stopping bool
	closeNow chan struct{} // cuts a pending drain short
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the server logger. The default is slog.Default().
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerBanListOption rejects connections from hosts matching bans.
// The list may be changed while the server runs.
func ServerBanListOption(bans *AccessList) ServerOption {
	return func(s *Server) {
		s.bans = bans
	}
}

// ServerMetricsOption counts rejected connections in m.
func ServerMetricsOption(m *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// ServerShutdownTimeoutOption keeps accepting peers for up to timeout after
// the Serve context is canceled, so a map transfer already under way on the
// client side can still connect. Close ends the wait early. Zero stops at once.
//
// Connections already handed to the Handler are not tracked; stop them
// through the context given to Conn.Run.
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.drainTimeout = timeout
	}
}

// New binds addr and returns a Server ready to Serve.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}

	s := &Server{
		listener: listener,
		logger:   slog.Default(),
		closeNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts peers until ctx is canceled or Accept fails, starting
// handler.Handle in its own goroutine for each one that is not banned.
// After cancellation it returns ctx.Err().
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	go s.stopOnDone(ctx)

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if s.isStopping() {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		if s.reject(conn) {
			continue
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)
		go handler.Handle(conn)
	}
}

// stopOnDone waits for ctx, then for the drain timeout, then wakes Accept.
func (s *Server) stopOnDone(ctx context.Context) {
	<-ctx.Done()

	if s.drainTimeout > 0 {
		s.logger.Info("draining before shutdown", "timeout", s.drainTimeout)
		timer := time.NewTimer(s.drainTimeout)
		select {
		case <-timer.C:
		case <-s.closeNow:
			timer.Stop()
			s.logger.Debug("drain cut short by Close")
		}
	}

	s.setStopping()
	_ = s.listener.SetDeadline(time.Now())
}

func (s *Server) setStopping() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
}

func (s *Server) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// reject closes conn if its peer is banned.
func (s *Server) reject(conn *net.TCPConn) bool {
	if s.bans == nil {
		return false
	}
	rule, banned := s.bans.CheckAddr(conn.RemoteAddr())
	if !banned {
		return false
	}

	s.logger.Info("rejected banned peer", "remote_addr", conn.RemoteAddr(), "rule", rule.String())
	s.metrics.connectionRejected()
	_ = conn.Close()
	return true
}

// Close closes the listener, ending any drain in progress.
// A blocked Serve returns.
func (s *Server) Close() error {
	s.setStopping()

	select {
	case s.closeNow <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
