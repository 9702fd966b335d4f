package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// Client is the other end of the framed request/response socket. One call
// equals one framed request and one framed response.
type Client struct {
	conn net.Conn
}

// Dial connects to a server's unix socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	return &Client{conn: conn}, nil
}

// Call sends one request and reads one response.
func (c *Client) Call(reqBytes []byte) ([]byte, error) {
	if err := binary.Write(c.conn, binary.BigEndian, uint32(len(reqBytes))); err != nil {
		return nil, fmt.Errorf("write request length: %w", err)
	}
	if _, err := c.conn.Write(reqBytes); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	var respLen uint32
	if err := binary.Read(c.conn, binary.BigEndian, &respLen); err != nil {
		return nil, fmt.Errorf("read response length: %w", err)
	}
	respBytes := make([]byte, respLen)
	if _, err := io.ReadFull(c.conn, respBytes); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBytes, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
