// Package client provides a connection-oriented request/response wrapper
// over the kvs wire protocol.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"

	"github.com/wolfapple/kvs/wire"
)

// ErrKeyNotFound is returned by Remove when the server reports the key was
// absent, so callers can tell that specific failure apart from a transport
// or other server-side error (SPEC_FULL.md §6.3).
var ErrKeyNotFound = errors.New("Key not found")

// Client is an owned TCP connection split into a buffered reader (wrapping
// a streaming decoder) and a buffered writer.
type Client struct {
	conn net.Conn
	dec  *wire.Decoder
	w    *bufio.Writer
	enc  *wire.Encoder
}

// Connect dials addr and wraps the connection for request/response use.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	w := bufio.NewWriter(conn)
	return &Client{
		conn: conn,
		dec:  wire.NewDecoder(bufio.NewReader(conn)),
		w:    w,
		enc:  wire.NewEncoder(w),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req wire.Request) (wire.Response, error) {
	if err := c.enc.EncodeRequest(req); err != nil {
		return wire.Response{}, fmt.Errorf("client: send request: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return wire.Response{}, fmt.Errorf("client: flush request: %w", err)
	}
	resp, err := c.dec.DecodeResponse()
	if err != nil {
		return wire.Response{}, fmt.Errorf("client: read response: %w", err)
	}
	return resp, nil
}

// Get returns the value for key, or ("", false, nil) if the server reports
// it absent.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.roundTrip(wire.NewGet(key))
	if err != nil {
		return "", false, err
	}
	if !resp.IsOk() {
		return "", false, fmt.Errorf("client: %s", resp.ErrMessage())
	}
	v, ok := resp.Value()
	return v, ok, nil
}

// Set assigns key=value on the server.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(wire.NewSet(key, value))
	if err != nil {
		return err
	}
	if !resp.IsOk() {
		return fmt.Errorf("client: %s", resp.ErrMessage())
	}
	return nil
}

// Remove deletes key on the server. Returns ErrKeyNotFound if the server
// reports the key was absent, or a wrapped error for any other failure.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(wire.NewRemove(key))
	if err != nil {
		return err
	}
	if !resp.IsOk() {
		if resp.ErrMessage() == ErrKeyNotFound.Error() {
			return ErrKeyNotFound
		}
		return fmt.Errorf("client: %s", resp.ErrMessage())
	}
	return nil
}
