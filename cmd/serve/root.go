package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	cmdUtil "github.com/devinalvaro/conver/cmd/util"
	"github.com/devinalvaro/conver/lib/config"
	"github.com/devinalvaro/conver/lib/server"
	"github.com/devinalvaro/conver/lib/store"
	"github.com/devinalvaro/conver/lib/store/memory"
	"github.com/devinalvaro/conver/lib/store/redis"
	"github.com/spf13/cobra"
)

var (
	serveCmdConfig = &config.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the conver server",
		Long:    `Start the conver server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is CONVER_<flag> (e.g. CONVER_PORT=7878)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "host"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1", cmdUtil.WrapString("The host on which the server will listen"))

	key = "port"
	ServeCmd.PersistentFlags().Int(key, 7878, cmdUtil.WrapString("The port on which the server will listen"))

	key = "store"
	ServeCmd.PersistentFlags().String(key, config.StoreMemory, cmdUtil.WrapString(fmt.Sprintf("The routing store backend to use (%s, %s). The memory backend keeps all pending chats and group memberships in process memory, the redis backend persists them in a Redis instance", config.StoreMemory, config.StoreRedis)))

	key = "redis-url"
	ServeCmd.PersistentFlags().String(key, "redis://localhost:6379/0", cmdUtil.WrapString("The URL of the Redis instance (only for the redis store backend)"))

	key = "handshake-timeout"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("How long a new connection may take to send its identity frame before it is dropped (in seconds)"))

	key = "write-timeout"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The per-frame write timeout for outbound chats (in seconds, 0 to disable)"))

	key = "poll-interval"
	ServeCmd.PersistentFlags().Duration(key, config.DefaultPollInterval, cmdUtil.WrapString("How often the delivery loop re-checks a user's pending queue when no enqueue notification arrives"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for accepted connections"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address on which metrics and pprof will be served (e.g. localhost:9100, empty to disable)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig = cmdUtil.GetServerConfig()
	return serveCmdConfig.Validate()
}

// run starts the conver server
func run(_ *cobra.Command, _ []string) error {
	logger := newLogger(serveCmdConfig.LogLevel)

	// parse the serializer
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	// parse the store backend
	var st store.RoutingStore
	switch serveCmdConfig.StoreBackend {
	case config.StoreMemory:
		st = memory.NewRoutingStore()
	case config.StoreRedis:
		st, err = redis.NewRoutingStore(serveCmdConfig.RedisURL, s)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %v", err)
		}
	default:
		return fmt.Errorf("invalid store backend %s", serveCmdConfig.StoreBackend)
	}

	serv, err := server.New(
		*serveCmdConfig,
		st,
		s,
		server.LoggerOption(logger),
	)
	if err != nil {
		return err
	}

	// stop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveCmdConfig.MetricsEndpoint != "" {
		go serveMetrics(serveCmdConfig.MetricsEndpoint, logger)
	}

	logger.Info("server listening",
		"addr", serv.Addr().String(),
		"store", serveCmdConfig.StoreBackend,
	)

	if err := serv.Serve(ctx); err != nil && err != context.Canceled {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// serveMetrics exposes prometheus metrics and pprof on a side endpoint
func serveMetrics(endpoint string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)

	if err := http.ListenAndServe(endpoint, mux); err != nil {
		logger.Error("metrics endpoint failed", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
