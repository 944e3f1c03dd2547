package base

import (
	"fmt"
	"github.com/ValentinKolb/synthd/rpc/common"
	"net"
)

// Dial connects to the endpoint of config over network. A zero timeout waits
// for the operating system default.
func Dial(network string, config common.ClientConfig) (net.Conn, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.Dial(network, config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Endpoint, err)
	}
	Logger.Debugf("Connected to %s server at %s", network, config.Endpoint)
	return conn, nil
}
