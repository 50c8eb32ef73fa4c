package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/chat/serializer"
	"github.com/devinalvaro/conver/lib/config"
	"github.com/devinalvaro/conver/lib/store"
	"github.com/devinalvaro/conver/lib/wire"
)

// Operational counters, exposed via the metrics endpoint of the serve
// command.
var (
	connectionsAccepted = metrics.NewCounter("conver_connections_accepted_total")
	connectionsActive   = metrics.NewCounter("conver_connections_active")
	handshakeFailures   = metrics.NewCounter("conver_handshake_failures_total")
	decodeErrors        = metrics.NewCounter("conver_decode_errors_total")
	storeErrors         = metrics.NewCounter("conver_store_errors_total")
	chatsRoutedDirect   = metrics.NewCounter(`conver_chats_routed_total{receiver="user"}`)
	chatsRoutedGroup    = metrics.NewCounter(`conver_chats_routed_total{receiver="group"}`)
	chatsDelivered      = metrics.NewCounter("conver_chats_delivered_total")
	groupJoins          = metrics.NewCounter("conver_group_joins_total")
	groupLeaves         = metrics.NewCounter("conver_group_leaves_total")
)

// Server accepts chat connections and routes their messages through a
// single shared RoutingStore chosen at startup.
type Server struct {
	cfg      config.ServerConfig
	store    store.RoutingStore
	ser      serializer.Serializer
	logger   *slog.Logger
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// LoggerOption sets the logger for the server and its connection
// handlers. Defaults to slog.Default().
func LoggerOption(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a chat server bound to the address in cfg. The store is
// the server's only routing state for its entire lifetime.
func New(cfg config.ServerConfig, st store.RoutingStore, ser serializer.Serializer, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", cfg.Addr(), err)
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		ser:      ser,
		logger:   slog.Default(),
		listener: listener,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the server by closing the underlying listener. Any
// blocked Accept call returns with an error.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Serve accepts connections until ctx is canceled or the listener
// fails. Each accepted connection is handled on its own goroutines;
// the accept loop never blocks on per-connection work.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("server started", "addr", s.Addr())

	// Unblock Accept when the context ends.
	stop := context.AfterFunc(ctx, func() {
		_ = s.listener.Close()
	})
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("server stopped", "addr", s.Addr())
				return ctx.Err()
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		connectionsAccepted.Inc()

		go s.handleConn(ctx, conn)
	}
}

// handleConn performs the identity handshake and runs the paired
// read/write loops for one connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(s.cfg.TCPNoDelay)
	}

	user, err := s.handshake(conn)
	if err != nil {
		handshakeFailures.Inc()
		s.logger.Info("handshake failed", "remote_addr", conn.RemoteAddr(), "error", err)
		_ = conn.Close()
		return
	}

	connectionsActive.Inc()
	defer connectionsActive.Dec()

	h := &connHandler{
		conn:         conn,
		user:         user,
		store:        s.store,
		ser:          s.ser,
		logger:       s.logger.With("user", user.Name, "remote_addr", conn.RemoteAddr()),
		writeTimeout: s.cfg.WriteTimeout,
		pollInterval: s.cfg.PollInterval,
	}
	h.run(ctx)
}

// handshake reads exactly one frame and decodes it as the bare client
// identity. No acknowledgment frame is sent back.
func (s *Server) handshake(conn net.Conn) (chat.User, error) {
	if s.cfg.HandshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
		defer conn.SetReadDeadline(time.Time{})
	}

	frame, err := wire.ReadFrame(conn, make([]byte, wire.FrameSize))
	if err != nil {
		return chat.User{}, fmt.Errorf("failed to read identity frame: %w", err)
	}

	var user chat.User
	if err := s.ser.DeserializeUser(frame, &user); err != nil {
		return chat.User{}, fmt.Errorf("failed to decode identity: %w", err)
	}
	if user.Name == "" {
		return chat.User{}, fmt.Errorf("empty username in identity frame")
	}

	return user, nil
}
