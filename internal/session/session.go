// Package session runs the interactive menu loop: show the operations, read
// a choice, send the selected operation to the host agent and print what it
// returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/majorcontext/hostprobe/internal/history"
	"github.com/majorcontext/hostprobe/internal/log"
	"github.com/majorcontext/hostprobe/internal/operation"
	"github.com/majorcontext/hostprobe/internal/prompt"
	"github.com/majorcontext/hostprobe/internal/selection"
	"github.com/majorcontext/hostprobe/internal/transport"
	"github.com/majorcontext/hostprobe/internal/ui"
)

// Prompt is shown before each choice.
const Prompt = "> "

// Sender performs one operation round trip. *transport.Client implements it.
type Sender interface {
	Exchange(ctx context.Context, op operation.Operation) (transport.Exchange, error)
}

// Session is one operator sitting in front of one server.
type Session struct {
	Registry *operation.Registry
	Resolver *selection.Resolver
	Sender   Sender
	Prompt   prompt.LineReader
	Out      io.Writer

	// History records exchanges when non-nil.
	History *history.Store
	// ID tags log records and history rows.
	ID string
	// Server is the address recorded with each exchange.
	Server string
}

// New returns a session over reg. Callers fill in History, ID and Server as
// needed.
func New(reg *operation.Registry, sender Sender, in prompt.LineReader, out io.Writer) *Session {
	return &Session{
		Registry: reg,
		Resolver: selection.NewResolver(reg),
		Sender:   sender,
		Prompt:   in,
		Out:      out,
	}
}

// Run loops until the operator quits, input ends, or ctx is cancelled.
// Failed exchanges are reported and the loop carries on.
func (s *Session) Run(ctx context.Context) error {
	if s.Resolver == nil {
		s.Resolver = selection.NewResolver(s.Registry)
	}
	if s.ID != "" {
		log.SetSession(s.ID)
		defer log.ClearSession()
	}
	log.Info("session started", "server", s.Server, "operations", s.Registry.Size())

	s.showMenu()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		input, err := s.Prompt.ReadLine(Prompt)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, prompt.ErrAborted):
			log.Info("session ended", "reason", "input closed")
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		res := s.Resolver.Resolve(input)
		log.Debug("resolved input", "kind", res.Kind.String(), "index", res.Index)

		switch res.Kind {
		case selection.Quit:
			log.Info("session ended", "reason", "quit")
			return nil
		case selection.Invalid:
			fmt.Fprintln(s.Out, "Invalid choice.")
			s.showMenu()
		case selection.Ambiguous:
			log.Warn("nickname matches several operations", "input", input, "indexes", res.CandidateIndexes)
			fmt.Fprintln(s.Out, res.Suggestion())
			s.showMenu()
		case selection.Selected:
			if err := s.perform(ctx, res); err != nil {
				return err
			}
		}
	}
}

func (s *Session) showMenu() {
	ui.Menu(s.Out, s.Registry.Size(), s.Registry.DescribeAll())
}

// perform sends a selected operation. Only context cancellation stops the
// session; transport failures are printed.
func (s *Session) perform(ctx context.Context, res selection.Result) error {
	op := res.Operation
	fmt.Fprintf(s.Out, "OPERATION SELECTED: %s\n", op.Description)

	ex, err := s.Sender.Exchange(ctx, op)
	s.record(res.Index, op, ex, err)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("exchange failed", "code", op.Code, "error", err)
		fmt.Fprintf(s.Out, "Error communicating with server: %s\n", err)
		return nil
	}
	ui.Response(s.Out, ex.Response)
	return nil
}

func (s *Session) record(index int, op operation.Operation, ex transport.Exchange, exErr error) {
	if s.History == nil {
		return
	}
	rec := history.Record{
		SessionID:   s.ID,
		Server:      s.Server,
		Index:       index,
		Code:        op.Code,
		Description: op.Description,
		Response:    ex.Response,
		Duration:    ex.Duration,
	}
	if exErr != nil {
		rec.Error = exErr.Error()
	}
	if _, err := s.History.Append(rec); err != nil {
		log.Warn("recording exchange", "error", err)
	}
}
