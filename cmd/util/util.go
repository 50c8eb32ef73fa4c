package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/devinalvaro/conver/lib/chat/serializer"
	"github.com/devinalvaro/conver/lib/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("conver")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupClientFlags adds common client connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "host"
	cmd.PersistentFlags().String(key, "127.0.0.1", WrapString("The host of the conver server"))

	key = "port"
	cmd.PersistentFlags().Int(key, 7878, WrapString("The port of the conver server"))

	key = "username"
	cmd.PersistentFlags().String(key, "", WrapString("The username to identify as. Each connection belongs to exactly one user"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the connection"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *config.ClientConfig {
	return &config.ClientConfig{
		Host:       viper.GetString("host"),
		Port:       viper.GetInt("port"),
		Username:   viper.GetString("username"),
		TCPNoDelay: viper.GetBool("tcp-nodelay"),
	}
}

// GetServerConfig reads server configuration from viper
func GetServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:             viper.GetString("host"),
		Port:             viper.GetInt("port"),
		StoreBackend:     viper.GetString("store"),
		RedisURL:         viper.GetString("redis-url"),
		HandshakeTimeout: time.Duration(viper.GetInt("handshake-timeout")) * time.Second,
		WriteTimeout:     time.Duration(viper.GetInt("write-timeout")) * time.Second,
		PollInterval:     viper.GetDuration("poll-interval"),
		TCPNoDelay:       viper.GetBool("tcp-nodelay"),
		MetricsEndpoint:  viper.GetString("metrics-endpoint"),
		LogLevel:         viper.GetString("log-level"),
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.Serializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
