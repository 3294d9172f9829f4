package dtbclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tuannm99/ditabase/server/dtbwire"
)

// RemoteError is a failure reported by the server.
type RemoteError struct {
	Kind string // dberr kind name, empty when the server gave none
	Msg  string
}

func (e *RemoteError) Error() string { return e.Msg }

// Client is a simple synchronous client.
// It locks send/recv so you can call Exec concurrently but they'll serialize.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
	id   atomic.Uint64

	// Optional per-request timeout (0 = no timeout).
	rwTimeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	return DialContext(context.Background(), addr, timeout)
}

func DialContext(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c}, nil
}

// SetRWTimeout sets a per-request read/write deadline.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c == nil {
		return
	}
	c.rwTimeout = d
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Exec runs source on the server. On a server-side failure the response is
// still returned, with the error as a *RemoteError.
func (c *Client) Exec(source string) (*dtbwire.ExecuteResponse, error) {
	return c.ExecContext(context.Background(), source)
}

func (c *Client) ExecContext(ctx context.Context, source string) (*dtbwire.ExecuteResponse, error) {
	resp, err := c.roundTrip(ctx, dtbwire.ExecuteRequest{Op: dtbwire.OpExec, Source: source})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return resp, &RemoteError{Kind: resp.Kind, Msg: resp.Error}
	}
	return resp, nil
}

// Tables lists the server's tables.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	resp, err := c.roundTrip(ctx, dtbwire.ExecuteRequest{Op: dtbwire.OpTables})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &RemoteError{Kind: resp.Kind, Msg: resp.Error}
	}
	return resp.Tables, nil
}

func (c *Client) roundTrip(ctx context.Context, req dtbwire.ExecuteRequest) (*dtbwire.ExecuteResponse, error) {
	if c == nil || c.conn == nil {
		return nil, errors.New("dtbclient: nil client")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req.ID = c.id.Add(1)

	if err := c.applyDeadline(ctx); err != nil {
		return nil, err
	}
	defer func() {
		// Clear deadline after request so idle connection doesn't expire.
		_ = c.conn.SetDeadline(time.Time{})
	}()

	if err := dtbwire.WriteFrame(c.conn, req); err != nil {
		return nil, err
	}

	var resp dtbwire.ExecuteResponse
	if err := dtbwire.ReadFrame(c.conn, &resp); err != nil {
		return nil, err
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("dtbclient: response id mismatch: got=%d want=%d", resp.ID, req.ID)
	}
	return &resp, nil
}

func (c *Client) applyDeadline(ctx context.Context) error {
	// Prefer context deadline if present; otherwise use rwTimeout.
	if dl, ok := ctx.Deadline(); ok {
		return c.conn.SetDeadline(dl)
	}
	if c.rwTimeout > 0 {
		return c.conn.SetDeadline(time.Now().Add(c.rwTimeout))
	}
	return nil
}
