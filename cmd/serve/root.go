package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cmdUtil "github.com/ValentinKolb/synthd/cmd/util"
	"github.com/ValentinKolb/synthd/lib/scene"
	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/server"
	"github.com/ValentinKolb/synthd/rpc/status"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the stream server",
		Long:    `Start the stream server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is SYNTHD_<flag> (e.g. SYNTHD_MAX_PENDING=64)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitEnvConfig)

	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, common.DefaultEndpoint, cmdUtil.WrapString("The address on which the server will listen (host:port for tcp, a socket path for unix)"))

	key = "scene"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path of a YAML scene file. Without it the built in scene (one color and one depth camera) is used"))

	key = "max-pending"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum number of queued commands, newer commands are rejected when the queue is full (0 = unbounded)"))

	key = "write-timeout"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("Deadline for writing one complete response, a client that does not read in time is disconnected (0 = disabled)"))

	key = "status-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the HTTP status server with /health, /metrics and /api/v1 (empty = disabled)"))

	key = "allow-remote"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Allow a tcp endpoint that is reachable from other hosts. The stream protocol has no authentication"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval of accepted connections in seconds (0 = system default)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time of accepted connections in seconds (-1 = system default)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket write buffer size in KB (0 = system default)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket read buffer size in KB (0 = system default)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "log-dir"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Directory for synthd.log in addition to stdout (empty = stdout only)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Transport.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport.AllowRemote = viper.GetBool("allow-remote")
	serveCmdConfig.Transport.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.Transport.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	serveCmdConfig.Transport.TCPLingerSec = viper.GetInt("tcp-linger")
	serveCmdConfig.Transport.WriteBufferSize = viper.GetInt("write-buffer") * 1024
	serveCmdConfig.Transport.ReadBufferSize = viper.GetInt("read-buffer") * 1024
	serveCmdConfig.MaxPending = viper.GetInt("max-pending")
	serveCmdConfig.WriteTimeout = viper.GetDuration("write-timeout")
	serveCmdConfig.SceneFile = viper.GetString("scene")
	serveCmdConfig.StatusEndpoint = viper.GetString("status-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.LogDir = viper.GetString("log-dir")

	if serveCmdConfig.Transport.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if serveCmdConfig.MaxPending < 0 {
		return fmt.Errorf("max-pending must not be negative")
	}
	return nil
}

// run starts the stream server and, if configured, the status server
func run(_ *cobra.Command, _ []string) error {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	if err := common.InitLoggers(serveCmdConfig.LogLevel, serveCmdConfig.LogDir); err != nil {
		return err
	}

	sc, err := scene.Load(serveCmdConfig.SceneFile)
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv, err := server.NewServer(serveCmdConfig, sc, t)
	if err != nil {
		return err
	}
	if _, err := serv.Bind(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusDone := make(chan struct{})
	if serveCmdConfig.StatusEndpoint != "" {
		go func() {
			defer close(statusDone)
			if err := status.NewStatusServer(serv).Serve(ctx, serveCmdConfig.StatusEndpoint); err != nil {
				status.Logger.Errorf("Status server failed: %v", err)
			}
		}()
	} else {
		close(statusDone)
	}

	err = serv.Serve(ctx)
	stop()
	<-statusDone
	return err
}
