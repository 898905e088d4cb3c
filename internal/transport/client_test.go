package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majorcontext/hostprobe/internal/operation"
)

// startServer runs handle for the first connection accepted on a loopback
// listener and returns the listener address.
func startServer(t *testing.T, handle func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return ln.Addr().String()
}

func testOptions() Options {
	return Options{
		ConnectTimeout:  2 * time.Second,
		WriteTimeout:    time.Second,
		ResponseTimeout: time.Second,
		IdleTimeout:     100 * time.Millisecond,
		MaxResponse:     1024,
	}
}

func TestExchange(t *testing.T) {
	got := make(chan byte, 1)
	addr := startServer(t, func(conn net.Conn) {
		b := make([]byte, 1)
		if _, err := io.ReadFull(conn, b); err != nil {
			return
		}
		got <- b[0]
		conn.Write([]byte(" 10:42:01 up 3 days\n"))
		// Keep the connection open so the idle timeout ends the response.
		time.Sleep(500 * time.Millisecond)
	})

	c, err := Dial(context.Background(), addr, testOptions())
	require.NoError(t, err)
	defer c.Close()

	op := operation.Operation{Description: "Get host uptime", Code: 22}
	ex, err := c.Exchange(context.Background(), op)
	require.NoError(t, err)

	assert.Equal(t, byte(22), <-got)
	assert.Equal(t, " 10:42:01 up 3 days\n", string(ex.Response))
	assert.Equal(t, byte(22), ex.Operation.Code)
	assert.Greater(t, ex.Duration, time.Duration(0))
}

func TestSendWritesExactlyOneByte(t *testing.T) {
	received := make(chan []byte, 1)
	addr := startServer(t, func(conn net.Conn) {
		data, _ := io.ReadAll(conn)
		received <- data
	})

	c, err := Dial(context.Background(), addr, testOptions())
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), 66))
	require.NoError(t, c.Send(context.Background(), 11))
	require.NoError(t, c.Close())

	select {
	case data := <-received:
		assert.Equal(t, []byte{66, 11}, data)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive data")
	}
}

func TestReadResponse_ServerCloses(t *testing.T) {
	addr := startServer(t, func(conn net.Conn) {
		conn.Write([]byte("bye"))
	})

	c, err := Dial(context.Background(), addr, testOptions())
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.ReadResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bye", string(resp))

	_, err = c.ReadResponse(context.Background())
	assert.ErrorIs(t, err, ErrServerClosed)
}

func TestReadResponse_NoResponse(t *testing.T) {
	addr := startServer(t, func(conn net.Conn) {
		time.Sleep(time.Second)
	})

	opts := testOptions()
	opts.ResponseTimeout = 100 * time.Millisecond
	c, err := Dial(context.Background(), addr, opts)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.ReadResponse(context.Background())
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestReadResponse_MaxResponse(t *testing.T) {
	addr := startServer(t, func(conn net.Conn) {
		conn.Write([]byte(strings.Repeat("x", 64)))
		time.Sleep(500 * time.Millisecond)
	})

	opts := testOptions()
	opts.MaxResponse = 16
	c, err := Dial(context.Background(), addr, opts)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.ReadResponse(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp, 16)
}

func TestReadResponse_ContextCancelled(t *testing.T) {
	addr := startServer(t, func(conn net.Conn) {
		time.Sleep(2 * time.Second)
	})

	opts := testOptions()
	opts.ResponseTimeout = 5 * time.Second
	c, err := Dial(context.Background(), addr, opts)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = c.ReadResponse(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendLine(t *testing.T) {
	lines := make(chan string, 1)
	addr := startServer(t, func(conn net.Conn) {
		line, _ := bufio.NewReader(conn).ReadString('\n')
		lines <- line
	})

	c, err := Dial(context.Background(), addr, testOptions())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendLine(context.Background(), "héllo"))
	assert.Equal(t, "héllo\n", <-lines)
}

func TestClosedClient(t *testing.T) {
	addr := startServer(t, func(conn net.Conn) {})

	c, err := Dial(context.Background(), addr, testOptions())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Send(context.Background(), 1), ErrNotConnected)
	_, err = c.ReadResponse(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = Dial(context.Background(), addr, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
	assert.False(t, errors.Is(err, ErrNotConnected))
}

func TestDefaultsFillZeroOptions(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	c := NewClient(client, Options{})
	defer c.Close()
	assert.Equal(t, DefaultOptions().MaxResponse, c.opts.MaxResponse)
	assert.Equal(t, DefaultOptions().IdleTimeout, c.opts.IdleTimeout)
}
