// Package chat is a line-oriented demo mode: whatever the operator types is
// sent to the server as text, and everything the server sends back is
// printed as it arrives.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/majorcontext/hostprobe/internal/log"
	"github.com/majorcontext/hostprobe/internal/prompt"
	"github.com/majorcontext/hostprobe/internal/selection"
)

// Banner is printed when a chat starts.
const Banner = "Whatever you type will be sent to the server. Type 'exit' or 'quit' to disconnect."

// Prompt precedes each line of input.
const Prompt = ">> "

// Conn is the part of transport.Client the chat needs.
type Conn interface {
	io.Reader
	SendLine(ctx context.Context, line string) error
	Close() error
}

var (
	errHangUp       = errors.New("operator hung up")
	errDisconnected = errors.New("server disconnected")
)

type line struct {
	text string
	err  error
}

// Run relays lines from in to conn and server output to out until the
// operator types an exit keyword, input ends, the server disconnects, or ctx
// is cancelled. conn is closed on return.
func Run(ctx context.Context, conn Conn, in prompt.LineReader, out io.Writer) error {
	fmt.Fprintln(out, Banner)

	g, gctx := errgroup.WithContext(ctx)

	// Closing the connection is what unblocks the relay.
	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return nil
	})

	g.Go(func() error {
		return relay(gctx, conn, out)
	})

	lines := readLines(gctx, in)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case l := <-lines:
				switch {
				case errors.Is(l.err, io.EOF), errors.Is(l.err, prompt.ErrAborted):
					return errHangUp
				case l.err != nil:
					return fmt.Errorf("reading input: %w", l.err)
				case selection.IsExit(strings.TrimSpace(l.text)):
					return errHangUp
				}
				if err := conn.SendLine(gctx, l.text); err != nil {
					if gctx.Err() != nil {
						return nil
					}
					return err
				}
				log.Debug("chat line sent", "bytes", len(l.text))
			}
		}
	})

	err := g.Wait()
	switch {
	case errors.Is(err, errHangUp), errors.Is(err, errDisconnected):
		return nil
	case err == nil:
		return ctx.Err()
	}
	return err
}

func relay(ctx context.Context, conn Conn, out io.Writer) error {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing output: %w", werr)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "Disconnected from server.")
				return errDisconnected
			}
			return fmt.Errorf("reading from server: %w", err)
		}
	}
}

// readLines feeds in's lines to a channel. The reader goroutine may stay
// blocked in ReadLine after ctx ends; it exits on the next line.
func readLines(ctx context.Context, in prompt.LineReader) <-chan line {
	ch := make(chan line)
	go func() {
		for {
			text, err := in.ReadLine(Prompt)
			select {
			case ch <- line{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
