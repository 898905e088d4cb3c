package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/majorcontext/hostprobe/internal/config"
	"github.com/majorcontext/hostprobe/internal/history"
	"github.com/majorcontext/hostprobe/internal/id"
	"github.com/majorcontext/hostprobe/internal/log"
	"github.com/majorcontext/hostprobe/internal/operation"
	"github.com/majorcontext/hostprobe/internal/prompt"
	"github.com/majorcontext/hostprobe/internal/session"
	"github.com/majorcontext/hostprobe/internal/ui"
)

var (
	connectOperations string
	connectNoHistory  bool
)

var connectCmd = &cobra.Command{
	Use:   "connect [host] [port]",
	Short: "Connect to a host agent and run operations from a menu",
	Long: `Connect to a host agent and run operations from a numbered menu.

Choose an operation by number ("2", "2.", "(2)") or by nickname ("uptime",
"ps"). Enter 0, quit, stop or exit to disconnect.

Host and port default to server.host and server.port in
~/.hostprobe/config.yaml, or HOSTPROBE_HOST and HOSTPROBE_PORT.

Examples:
  hostprobe connect 10.0.0.5
  hostprobe connect build-03.internal 7070
  hostprobe connect 10.0.0.5 --operations ./ops.yaml`,
	Args:        cobra.MaximumNArgs(2),
	Annotations: map[string]string{interactiveAnnotation: "true"},
	RunE:        runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().StringVar(&connectOperations, "operations", "", "operations table (YAML) to use instead of the built-in one")
	connectCmd.Flags().BoolVar(&connectNoHistory, "no-history", false, "do not record exchanges")
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg, connectOperations)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client, err := dial(ctx, cfg, args)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to %s\n", ui.Bold(client.RemoteAddr()))

	completions := append(reg.Nicknames(), operation.ExitKeywords...)
	in := prompt.New(prompt.Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		HistoryFile: config.PromptHistoryFile(),
		Completions: completions,
	})
	defer in.Close()

	s := session.New(reg, client, in, out)
	s.ID = id.NewSession()
	s.Server = client.RemoteAddr()

	if cfg.History.Enabled && !connectNoHistory {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			ui.Warnf("exchange history disabled: %v", err)
		} else {
			defer store.Close()
			s.History = store
		}
	}

	log.Debug("starting session", "session", s.ID, "server", s.Server)
	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
