// Package transport speaks the host agent's byte protocol over TCP: one
// operation code out, a free-form response back.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/majorcontext/hostprobe/internal/log"
	"github.com/majorcontext/hostprobe/internal/operation"
)

var (
	// ErrNotConnected is returned after Close.
	ErrNotConnected = errors.New("not connected")
	// ErrNoResponse is returned when the server sends nothing before the
	// response timeout.
	ErrNoResponse = errors.New("no response from server")
	// ErrServerClosed is returned when the server closes the connection
	// without sending a response.
	ErrServerClosed = errors.New("server closed the connection")
)

// aLongTimeAgo is a deadline that makes pending I/O return immediately.
var aLongTimeAgo = time.Unix(1, 0)

// Options tunes connection and response handling.
type Options struct {
	// ConnectTimeout bounds Dial. Zero means no limit beyond the context.
	ConnectTimeout time.Duration
	// WriteTimeout bounds each write.
	WriteTimeout time.Duration
	// ResponseTimeout is how long to wait for the first response byte.
	ResponseTimeout time.Duration
	// IdleTimeout ends a response once the server has been quiet this long.
	IdleTimeout time.Duration
	// MaxResponse caps the size of a single response.
	MaxResponse int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:  10 * time.Second,
		WriteTimeout:    5 * time.Second,
		ResponseTimeout: 10 * time.Second,
		IdleTimeout:     500 * time.Millisecond,
		MaxResponse:     1 << 20,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = d.ResponseTimeout
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = d.IdleTimeout
	}
	if o.MaxResponse <= 0 {
		o.MaxResponse = d.MaxResponse
	}
	return o
}

// Exchange records one request/response round trip.
type Exchange struct {
	Operation operation.Operation
	Response  []byte
	Duration  time.Duration
}

// Client is a connection to a host agent. Send, ReadResponse and Exchange
// must not be called concurrently with each other; Close may be called at
// any time.
type Client struct {
	conn net.Conn
	opts Options

	mu     sync.Mutex
	closed bool
}

// Dial connects to addr ("host:port").
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	d := net.Dialer{Timeout: opts.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	log.Debug("connected", "addr", addr, "local", conn.LocalAddr().String())
	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts Options) *Client {
	return &Client{conn: conn, opts: opts.withDefaults()}
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send writes a single operation code.
func (c *Client) Send(ctx context.Context, code byte) error {
	if err := c.write(ctx, []byte{code}); err != nil {
		return fmt.Errorf("sending operation %d: %w", code, err)
	}
	log.Debug("sent operation", "code", code)
	return nil
}

// SendLine writes line followed by a newline.
func (c *Client) SendLine(ctx context.Context, line string) error {
	if err := c.write(ctx, []byte(line+"\n")); err != nil {
		return fmt.Errorf("sending line: %w", err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, p []byte) error {
	if c.isClosed() {
		return ErrNotConnected
	}
	g := c.guard(ctx)
	defer g.stop()

	g.setWriteDeadline(c.deadline(ctx, c.opts.WriteTimeout))
	_, err := c.conn.Write(p)
	g.setWriteDeadline(time.Time{})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Read reads raw bytes from the server. It lets callers that stream
// (such as the chat demo) use the client as an io.Reader.
func (c *Client) Read(p []byte) (int, error) {
	if c.isClosed() {
		return 0, ErrNotConnected
	}
	return c.conn.Read(p)
}

// ReadResponse reads one response. The protocol has no framing, so a
// response ends when the server closes the connection, when it has been
// idle for IdleTimeout after sending at least one byte, or when MaxResponse
// bytes have arrived.
func (c *Client) ReadResponse(ctx context.Context) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrNotConnected
	}
	g := c.guard(ctx)
	defer g.stop()
	defer g.setReadDeadline(time.Time{})

	var resp []byte
	chunk := make([]byte, 4096)
	deadline := c.deadline(ctx, c.opts.ResponseTimeout)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.setReadDeadline(deadline)

		want := min(len(chunk), c.opts.MaxResponse-len(resp))
		n, err := c.conn.Read(chunk[:want])
		resp = append(resp, chunk[:n]...)
		if len(resp) >= c.opts.MaxResponse {
			return resp, nil
		}

		if err != nil {
			var netErr net.Error
			switch {
			case ctx.Err() != nil:
				return nil, ctx.Err()
			case errors.Is(err, io.EOF):
				if len(resp) == 0 {
					return nil, ErrServerClosed
				}
				return resp, nil
			case errors.As(err, &netErr) && netErr.Timeout():
				if len(resp) == 0 {
					return nil, ErrNoResponse
				}
				return resp, nil
			default:
				return nil, fmt.Errorf("reading response: %w", err)
			}
		}
		if n > 0 {
			deadline = c.deadline(ctx, c.opts.IdleTimeout)
		}
	}
}

// Exchange sends the operation's code and reads the response.
func (c *Client) Exchange(ctx context.Context, op operation.Operation) (Exchange, error) {
	start := time.Now()
	if err := c.Send(ctx, op.Code); err != nil {
		return Exchange{Operation: op}, err
	}
	resp, err := c.ReadResponse(ctx)
	ex := Exchange{Operation: op, Response: resp, Duration: time.Since(start)}
	if err != nil {
		return ex, err
	}
	log.Debug("exchange complete", "code", op.Code, "bytes", len(resp), "duration", ex.Duration)
	return ex, nil
}

// deadline returns now+d, or the context deadline if that is sooner.
func (c *Client) deadline(ctx context.Context, d time.Duration) time.Time {
	t := time.Now().Add(d)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(t) {
		return ctxDeadline
	}
	return t
}

// ioGuard unblocks pending I/O when its context is cancelled. Deadlines set
// after cancellation are ignored so the cancellation cannot be undone.
type ioGuard struct {
	conn      net.Conn
	mu        sync.Mutex
	cancelled bool
	stopFn    func() bool
}

func (c *Client) guard(ctx context.Context) *ioGuard {
	g := &ioGuard{conn: c.conn}
	g.stopFn = context.AfterFunc(ctx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.cancelled = true
		_ = g.conn.SetDeadline(aLongTimeAgo)
	})
	return g
}

func (g *ioGuard) stop() {
	g.stopFn()
}

func (g *ioGuard) setReadDeadline(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.cancelled {
		_ = g.conn.SetReadDeadline(t)
	}
}

func (g *ioGuard) setWriteDeadline(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.cancelled {
		_ = g.conn.SetWriteDeadline(t)
	}
}
