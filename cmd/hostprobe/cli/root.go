// Package cli implements the hostprobe command-line interface using Cobra.
// It connects to host agents, runs diagnostic operations from a menu, and
// inspects the local exchange history.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/majorcontext/hostprobe/internal/config"
	"github.com/majorcontext/hostprobe/internal/log"
)

var (
	verbose bool
	jsonOut bool
)

// interactiveAnnotation marks commands that own the terminal. Their stderr
// logging stays at warnings so records do not break up the prompt.
const interactiveAnnotation = "interactive"

var rootCmd = &cobra.Command{
	Use:   "hostprobe",
	Short: "hostprobe - run diagnostic operations on remote host agents",
	Long: `hostprobe connects to a host agent over TCP and asks it for diagnostics:
date and time, uptime, memory usage, netstat output, logged-in users and
running processes.

Pick an operation by its menu number or by a nickname such as "uptime" or
"ps". Type 0, quit, stop or exit to leave.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Debug settings come from the config file when it parses; a broken
		// file is reported by the command that needs it.
		cfg, err := config.Load()
		if err != nil {
			cfg = config.Default()
		}

		if err := log.Init(log.Options{
			Verbose:       verbose,
			JSONFormat:    jsonOut,
			Interactive:   cmd.Annotations[interactiveAnnotation] == "true",
			DebugDir:      config.DebugDir(),
			RetentionDays: cfg.Debug.RetentionDays,
		}); err != nil {
			cmd.PrintErrf("Warning: failed to initialize debug logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}
