// Package client implements a client for the stream server. It writes one
// index per command and decodes the framed response into the pose and the
// images of all cameras.
//
// Usage Example:
//
//	c, err := client.NewClient(common.ClientConfig{
//	  Endpoint: "127.0.0.1:8090",
//	  Timeout:  5 * time.Second,
//	}, tcp.NewTCPClientConnector())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer c.Close()
//
//	resp, err := c.Fetch(42)
//	// resp.Pose holds position, scale and rotation, resp.Images one PNG per camera
//
// The server treats every receive as one command. Fetch waits for the complete
// response before it returns, so two consecutive calls never share a receive.
package client
