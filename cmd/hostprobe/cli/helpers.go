package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/majorcontext/hostprobe/internal/config"
	"github.com/majorcontext/hostprobe/internal/operation"
	"github.com/majorcontext/hostprobe/internal/transport"
)

// errNoHost is returned when neither an argument nor the config names a
// server.
var errNoHost = errors.New("no server host: pass <host> or set HOSTPROBE_HOST")

// serverAddress picks host and port from [host] [port] arguments, falling
// back to the config for whatever is missing.
func serverAddress(cfg *config.Config, args []string) (string, error) {
	host := cfg.Server.Host
	port := cfg.Server.Port
	if len(args) > 0 {
		host = args[0]
	}
	if len(args) > 1 {
		p, err := config.ParsePort(args[1])
		if err != nil {
			return "", err
		}
		port = p
	}
	if host == "" {
		return "", errNoHost
	}
	if port == 0 {
		port = config.DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// loadRegistry builds the operation registry from file, the configured
// operations file, or the built-in table, in that order.
func loadRegistry(cfg *config.Config, file string) (*operation.Registry, error) {
	table, err := loadTable(cfg, file)
	if err != nil {
		return nil, err
	}
	return operation.New(table)
}

func loadTable(cfg *config.Config, file string) (operation.Table, error) {
	if file == "" {
		file = cfg.OperationsFile
	}
	if file == "" {
		return operation.Default(), nil
	}
	return operation.LoadTable(file)
}

func transportOptions(cfg *config.Config) transport.Options {
	return transport.Options{
		ConnectTimeout:  cfg.Server.ConnectTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ResponseTimeout: cfg.Server.ResponseTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxResponse:     cfg.Server.MaxResponse,
	}
}

// dial connects to the server named by args and the config.
func dial(ctx context.Context, cfg *config.Config, args []string) (*transport.Client, error) {
	addr, err := serverAddress(cfg, args)
	if err != nil {
		return nil, err
	}
	return transport.Dial(ctx, addr, transportOptions(cfg))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
