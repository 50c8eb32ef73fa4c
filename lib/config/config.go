// Package config holds the configuration structs shared by the server
// and client commands.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// DefaultPollInterval is the fallback wakeup period of the delivery
// loop when no enqueue notification arrives.
const DefaultPollInterval = 250 * time.Millisecond

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the chat server.
type ServerConfig struct {
	// Listener
	Host string
	Port int

	// Store backend: StoreMemory or StoreRedis
	StoreBackend string
	RedisURL     string

	// Connection handling
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each steady-state frame write; zero disables
	// the deadline.
	WriteTimeout time.Duration
	// PollInterval is the write loop's fallback wakeup period.
	PollInterval time.Duration
	TCPNoDelay   bool

	// Operational HTTP endpoint for metrics and pprof; empty disables.
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// Addr returns the host:port the server binds to.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration for obvious mistakes before the
// server starts.
func (c *ServerConfig) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("store backend %q requires a redis url", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown store backend %q (must be %q or %q)", c.StoreBackend, StoreMemory, StoreRedis)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Chat Server")
	addField("Address", c.Addr())
	addField("Handshake Timeout", c.HandshakeTimeout.String())
	if c.WriteTimeout > 0 {
		addField("Write Timeout", c.WriteTimeout.String())
	} else {
		addField("Write Timeout", "disabled")
	}
	addField("Poll Interval", c.PollInterval.String())
	addField("TCP NoDelay", strconv.FormatBool(c.TCPNoDelay))

	addSection("Routing Store")
	addField("Backend", c.StoreBackend)
	if c.StoreBackend == StoreRedis {
		addField("Redis URL", c.RedisURL)
	}

	addSection("Observability")
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the connection parameters of a chat client.
type ClientConfig struct {
	Host     string
	Port     int
	Username string

	TCPNoDelay bool
}

// Addr returns the host:port the client dials.
func (c *ClientConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	sb.WriteString("\nCHAT CLIENT\n")
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", "Server", c.Addr()))
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", "Username", c.Username))

	return sb.String()
}
