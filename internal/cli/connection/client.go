package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/memkv/pkg/resp"
)

// DefaultTimeout bounds dialing and each request when no timeout is given.
const DefaultTimeout = 5 * time.Second

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("connection: client closed")

// Client sends commands to a memkv server and reads the replies.
// It is safe for concurrent use; requests are serialized.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	dec    *resp.Decoder
	w      *resp.Writer
	closed bool
}

// NewClient creates a client for addr. A non-positive timeout uses
// DefaultTimeout.
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{addr: addr, timeout: timeout}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server if not connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil
	}

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	c.conn = conn
	c.dec = resp.NewDecoder(conn)
	c.w = resp.NewWriter(conn)
	return nil
}

// Do sends one command and returns the server reply. An Error reply is a
// successful round trip and is returned as a Value, not as an error.
// After a transport failure the connection is dropped and the next call
// dials again.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("connection: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return resp.Value{}, err
	}

	v, err := c.roundTrip(ctx, args)
	if err != nil {
		c.dropLocked()
		return resp.Value{}, err
	}
	return v, nil
}

func (c *Client) roundTrip(ctx context.Context, args []string) (resp.Value, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return resp.Value{}, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	if err := c.w.WriteCommand(raw...); err != nil {
		return resp.Value{}, fmt.Errorf("send command: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return resp.Value{}, fmt.Errorf("send command: %w", err)
	}

	v, err := c.dec.Decode()
	if err != nil {
		if ctx.Err() != nil {
			return resp.Value{}, ctx.Err()
		}
		return resp.Value{}, fmt.Errorf("read reply: %w", err)
	}
	return v, nil
}

// Quit sends QUIT and closes the connection.
func (c *Client) Quit(ctx context.Context) (resp.Value, error) {
	v, err := c.Do(ctx, "QUIT")
	c.mu.Lock()
	c.dropLocked()
	c.mu.Unlock()
	return v, err
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.dec = nil
		c.w = nil
	}
}

// Close closes the connection. Later calls to Do fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
