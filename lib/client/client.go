package client

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/chat/serializer"
	"github.com/devinalvaro/conver/lib/config"
	"github.com/devinalvaro/conver/lib/wire"
)

// Client is one authenticated connection to a chat server. Send and
// receive sides are independently locked, so one goroutine may stream
// incoming chats while another sends.
type Client struct {
	user chat.User
	conn net.Conn
	ser  serializer.Serializer

	readMu  sync.Mutex
	readBuf []byte
	writeMu sync.Mutex
}

// Dial connects to the server in cfg and performs the identity
// handshake. The server sends no acknowledgment; a successful return
// only means the identity frame was written.
func Dial(cfg config.ClientConfig, ser serializer.Serializer) (*Client, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}

	conn, err := net.Dial("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr(), err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(cfg.TCPNoDelay)
	}

	user := chat.NewUser(cfg.Username)

	identity, err := ser.SerializeUser(user)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := wire.WriteFrame(conn, identity); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send identity: %w", err)
	}

	return &Client{
		user:    user,
		conn:    conn,
		ser:     ser,
		readBuf: make([]byte, wire.FrameSize),
	}, nil
}

// User returns the identity declared in the handshake.
func (c *Client) User() chat.User {
	return c.user
}

// SendMessage frames and sends one envelope. The envelope's sender
// must be the identity this client declared; the server routes on the
// message's own sender field, so a mismatch would impersonate another
// user.
func (c *Client) SendMessage(msg chat.Message) error {
	if sender := msg.Sender(); sender != c.user {
		return fmt.Errorf("message sender %q does not match client identity %q", sender.Name, c.user.Name)
	}

	payload, err := c.ser.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := wire.WriteFrame(c.conn, payload); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// ReadChat blocks until the server pushes the next chat frame and
// decodes it. An orderly server shutdown surfaces as io.EOF.
func (c *Client) ReadChat() (*chat.Chat, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	frame, err := wire.ReadFrame(c.conn, c.readBuf)
	if err != nil {
		return nil, err
	}

	var ch chat.Chat
	if err := c.ser.DeserializeChat(frame, &ch); err != nil {
		return nil, fmt.Errorf("failed to decode chat frame: %w", err)
	}
	return &ch, nil
}

// SetReadDeadline bounds subsequent ReadChat calls. A zero time
// removes the deadline.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close closes the connection. Both server loops for this connection
// stop; there is no explicit logout message in the protocol.
func (c *Client) Close() error {
	return c.conn.Close()
}
