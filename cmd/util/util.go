package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/ValentinKolb/synthd/rpc/transport/tcp"
	"github.com/ValentinKolb/synthd/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. SYNTHD_ENDPOINT)
	EnvPrefix = "synthd"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitEnvConfig loads .env files and makes viper read SYNTHD_* variables
func InitEnvConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupClientFlags adds the connection flags of the client commands
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, common.DefaultEndpoint, WrapString("The address of the stream server (host:port for tcp, a socket path for unix)"))

	key = "timeout"
	cmd.PersistentFlags().Duration(key, 10*time.Second, WrapString("Deadline for one complete request and response"))

	key = "max-frame-size"
	cmd.PersistentFlags().Uint32(key, 64<<20, WrapString("Largest length prefix accepted from the server in bytes (0 = unlimited)"))
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Endpoint:     viper.GetString("endpoint"),
		Timeout:      viper.GetDuration("timeout"),
		MaxFrameSize: viper.GetUint32("max-frame-size"),
	}
}

// GetServerTransport creates the server transport selected by the transport flag
func GetServerTransport() (transport.IServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetClientConnector creates the client connector selected by the transport flag
func GetClientConnector() (transport.IClientConnector, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientConnector(), nil
	case "unix":
		return unix.NewUnixClientConnector(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}
